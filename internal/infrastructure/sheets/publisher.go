// Package sheets pushes tables of cells to tabs of a Google spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"loan-feature-engine/internal/config"
	"loan-feature-engine/internal/infrastructure/monitoring"
	"loan-feature-engine/internal/pkg/apperrors"
)

// originCell is where appended rows start on every tab.
const originCell = "A1"

type Publisher struct {
	client        client
	spreadsheetID string
	logger        *slog.Logger
}

func NewPublisher(ctx context.Context, cfg config.SheetsConfig, logger *slog.Logger) (*Publisher, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("%w: sheets.spreadsheetId is required", apperrors.ErrInvalidArgument)
	}
	c, err := newGoogleClient(ctx, cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	return newPublisher(c, cfg.SpreadsheetID, logger), nil
}

func newPublisher(c client, spreadsheetID string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		client:        c,
		spreadsheetID: spreadsheetID,
		logger:        logger.With("component", "SheetsPublisher", "spreadsheetId", spreadsheetID),
	}
}

// Publish replaces everything on tab with rows, written from the origin cell.
// The tab must already exist.
func (p *Publisher) Publish(ctx context.Context, tab string, rows [][]string) error {
	logCtx := p.logger.With(slog.String("tab", tab))
	logCtx.InfoContext(ctx, "Attempting to publish to spreadsheet", slog.Int("rows", len(rows)))

	titles, err := p.client.SheetTitles(ctx, p.spreadsheetID)
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open spreadsheet", slog.Any("error", err))
		return fmt.Errorf("%w: opening spreadsheet: %w", apperrors.ErrPublish, err)
	}
	if !slices.Contains(titles, tab) {
		logCtx.ErrorContext(ctx, "Tab not found in spreadsheet", slog.Any("tabs", titles))
		return fmt.Errorf("%w: tab %q not found in spreadsheet", apperrors.ErrNotFound, tab)
	}

	if err := p.client.Clear(ctx, p.spreadsheetID, tab); err != nil {
		logCtx.ErrorContext(ctx, "Failed to clear tab", slog.Any("error", err))
		return fmt.Errorf("%w: clearing tab %q: %w", apperrors.ErrPublish, tab, err)
	}

	values := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, c := range row {
			cells[j] = c
		}
		values[i] = cells
	}
	if err := p.client.Append(ctx, p.spreadsheetID, tab+"!"+originCell, values); err != nil {
		logCtx.ErrorContext(ctx, "Failed to append rows", slog.Any("error", err))
		return fmt.Errorf("%w: appending to tab %q: %w", apperrors.ErrPublish, tab, err)
	}

	monitoring.RecordRowsPublished(tab, len(rows))
	logCtx.InfoContext(ctx, "Successfully published to spreadsheet", slog.Int("rows", len(rows)))
	return nil
}
