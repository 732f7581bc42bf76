package feature

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"
)

type Combiner struct {
	logger *slog.Logger
}

func NewCombiner(logger *slog.Logger) *Combiner {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	return &Combiner{logger: logger.With("component", "Combiner")}
}

// Combine inner-joins left and right on key in left's row order. Every column of left
// is kept; right only contributes columns left does not have. Rows whose key is
// missing on either side are dropped and logged.
func (c *Combiner) Combine(ctx context.Context, left, right *frame.Frame, key string) (*frame.Frame, error) {
	if _, err := left.KeyIndex(key); err != nil {
		return nil, fmt.Errorf("%w: left table: %w", apperrors.ErrMerge, err)
	}
	rightIdx, err := right.KeyIndex(key)
	if err != nil {
		return nil, fmt.Errorf("%w: right table: %w", apperrors.ErrMerge, err)
	}

	keys, _ := left.Column(key)
	var leftRows, rightRows []int
	for i, v := range keys.Values {
		if j, ok := rightIdx[frame.KeyOf(v)]; ok {
			leftRows = append(leftRows, i)
			rightRows = append(rightRows, j)
		}
	}

	out := left.Take(leftRows)
	for _, col := range right.Columns() {
		if out.Has(col.Name) {
			continue
		}
		values := make([]any, len(rightRows))
		for i, r := range rightRows {
			values[i] = col.Values[r]
		}
		nc := frame.NewColumn(col.Name, col.Kind, values)
		if col.Levels != nil {
			nc.Levels = append([]string(nil), col.Levels...)
		}
		if err := out.Set(nc); err != nil {
			return nil, fmt.Errorf("%w: %w", apperrors.ErrMerge, err)
		}
	}

	if dropped := left.Len() + right.Len() - 2*len(leftRows); dropped > 0 {
		c.logger.WarnContext(ctx, "Rows without a match were dropped by the join",
			slog.String("key", key),
			slog.Int("left_dropped", left.Len()-len(leftRows)),
			slog.Int("right_dropped", right.Len()-len(rightRows)),
		)
	}
	return out, nil
}

// DeleteColumns removes every named column, or none of them if any is missing.
func (c *Combiner) DeleteColumns(ctx context.Context, f *frame.Frame, names []string) error {
	if len(names) == 0 {
		return nil
	}
	if err := f.Drop(names...); err != nil {
		c.logger.ErrorContext(ctx, "Failed to delete features", slog.Any("columns", names), slog.Any("error", err))
		return fmt.Errorf("%w: deleting %d features failed: %w", apperrors.ErrMerge, len(names), err)
	}
	return nil
}
