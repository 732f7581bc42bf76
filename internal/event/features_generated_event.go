package event

import (
	"context"
	"log/slog"
	"time"
)

// FeaturesGenerated is emitted once per entity after its feature file has been written.
type FeaturesGenerated struct {
	RunID     string    `json:"runId"`
	Entity    string    `json:"entity"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *RabbitMQEventPublisher) PublishFeaturesGenerated(ctx context.Context, event FeaturesGenerated) error {
	return p.publish(ctx, p.routingKey, event,
		slog.String("runId", event.RunID),
		slog.String("entity", event.Entity),
	)
}

// NoopPublisher is used when messaging is disabled.
type NoopPublisher struct {
	logger *slog.Logger
}

var _ EventPublisher = (*NoopPublisher)(nil)

func NewNoopPublisher(logger *slog.Logger) *NoopPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NoopPublisher{logger: logger.With("component", "NoopPublisher")}
}

func (p *NoopPublisher) PublishFeaturesGenerated(ctx context.Context, event FeaturesGenerated) error {
	p.logger.DebugContext(ctx, "Event publishing disabled, dropping event",
		slog.String("runId", event.RunID),
		slog.String("entity", event.Entity),
	)
	return nil
}
