package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"loan-feature-engine/internal/feature"
)

type FeatureRefreshJob struct {
	features feature.Service
	publish  bool
	logger   *slog.Logger
}

// NewFeatureRefreshJob regenerates every feature table on each run and, with publish
// set, pushes the fresh files to the spreadsheet.
func NewFeatureRefreshJob(features feature.Service, publish bool, logger *slog.Logger) *FeatureRefreshJob {
	if features == nil || logger == nil {
		panic("FeatureRefreshJob dependencies cannot be nil")
	}
	return &FeatureRefreshJob{
		features: features,
		publish:  publish,
		logger:   logger.With("job", "FeatureRefresh"),
	}
}

// Run keeps going after a failed entity and reports how many steps failed.
func (j *FeatureRefreshJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting feature refresh job.")

	var generated, published, errorCount int
	for _, entity := range []feature.Entity{feature.EntityCustomers, feature.EntityLoans} {
		logCtx := j.logger.With(slog.String("entity", string(entity)))

		f, err := j.features.Generate(ctx, entity)
		if err != nil {
			logCtx.ErrorContext(ctx, "Failed to generate features", slog.Any("error", err))
			errorCount++
			continue
		}
		generated++
		logCtx.DebugContext(ctx, "Features regenerated.", slog.Int("rows", f.Len()))

		if !j.publish {
			continue
		}
		rows, err := j.features.Publish(ctx, entity)
		if err != nil {
			logCtx.ErrorContext(ctx, "Failed to publish features", slog.Any("error", err))
			errorCount++
			continue
		}
		published++
		logCtx.InfoContext(ctx, "Features published.", slog.Int("rows", rows))
	}

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("entities_generated", generated),
		slog.Int("entities_published", published),
		slog.Int("errors_encountered", errorCount),
	)
	if errorCount > 0 {
		summaryLog.WarnContext(ctx, "Feature refresh job finished with errors.")
		return fmt.Errorf("job completed with %d errors", errorCount)
	}
	summaryLog.InfoContext(ctx, "Feature refresh job finished successfully.")
	return nil
}
