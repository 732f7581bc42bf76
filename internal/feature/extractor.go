package feature

import (
	"errors"
	"fmt"
	"math"
	"time"

	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/pkg/apperrors"
)

var (
	ErrZeroAmount = errors.New("loan amount is zero")

	ErrDegenerateBins = errors.New("annual_income has a single distinct value")
)

// IncomeBins are the ordered annual_income_bins labels, lowest first.
var IncomeBins = []string{"very low", "low", "middle", "high", "very high"}

const IncomeBinsColumn = "annual_income_bins"

// ExtractLoanFeatures adds fee_pct, total_amount and days (whole days between loan_date
// and now). It is a pure function of the frame and now; re-running it replaces the
// derived columns with identical values.
func ExtractLoanFeatures(f *frame.Frame, now time.Time) error {
	if err := requireColumns(f, "amount", "fee", "loan_date"); err != nil {
		return err
	}
	n := f.Len()
	feePct := make([]any, n)
	total := make([]any, n)
	days := make([]any, n)
	for i := 0; i < n; i++ {
		amount, err := frame.ToFloat(f.Value(i, "amount"))
		if err != nil {
			return apperrors.NewCoercionError("amount", i, f.Value(i, "amount"), err)
		}
		fee, err := frame.ToFloat(f.Value(i, "fee"))
		if err != nil {
			return apperrors.NewCoercionError("fee", i, f.Value(i, "fee"), err)
		}
		if amount == 0 {
			return fmt.Errorf("%w: row %d: %w", apperrors.ErrValidation, i, ErrZeroAmount)
		}
		date, ok := f.Value(i, "loan_date").(time.Time)
		if !ok {
			return apperrors.NewCoercionError("loan_date", i, f.Value(i, "loan_date"), frame.ErrNotDate)
		}

		feePct[i] = fee / amount
		total[i] = amount + fee
		days[i] = int64(math.Floor(now.Sub(date).Hours() / 24))
	}
	return setAll(f,
		frame.NewColumn("fee_pct", frame.Float, feePct),
		frame.NewColumn("total_amount", frame.Float, total),
		frame.NewColumn("days", frame.Int, days),
	)
}

// ExtractCustomerFeatures buckets annual_income into five equal-width bins over
// [min, max]. Bins are closed on the right and the first one also holds min.
func ExtractCustomerFeatures(f *frame.Frame) error {
	if err := requireColumns(f, "annual_income"); err != nil {
		return err
	}
	if f.Len() == 0 {
		return fmt.Errorf("%w: no customers to bin", apperrors.ErrValidation)
	}
	incomes := make([]float64, f.Len())
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range incomes {
		v, err := frame.ToFloat(f.Value(i, "annual_income"))
		if err != nil {
			return apperrors.NewCoercionError("annual_income", i, f.Value(i, "annual_income"), err)
		}
		incomes[i] = v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return fmt.Errorf("%w: %w (%v)", apperrors.ErrValidation, ErrDegenerateBins, lo)
	}

	edges := binEdges(lo, hi, len(IncomeBins))
	labels := make([]any, len(incomes))
	for i, v := range incomes {
		labels[i] = IncomeBins[binOf(v, edges)]
	}
	col := frame.NewColumn(IncomeBinsColumn, frame.Category, labels)
	col.Levels = append([]string(nil), IncomeBins...)
	return f.Set(col)
}

// binEdges returns n+1 evenly spaced edges with the last pinned to hi.
func binEdges(lo, hi float64, n int) []float64 {
	edges := make([]float64, n+1)
	step := (hi - lo) / float64(n)
	for i := range edges {
		edges[i] = lo + float64(i)*step
	}
	edges[n] = hi
	return edges
}

func binOf(v float64, edges []float64) int {
	last := len(edges) - 2
	for i := 0; i < last; i++ {
		if v <= edges[i+1] {
			return i
		}
	}
	return last
}
