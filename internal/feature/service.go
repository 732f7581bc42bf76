package feature

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"loan-feature-engine/internal/config"
	"loan-feature-engine/internal/event"
	"loan-feature-engine/internal/frame"
	"loan-feature-engine/internal/infrastructure/monitoring"
	"loan-feature-engine/internal/pkg/apperrors"
	"loan-feature-engine/internal/pkg/checksum"
)

type Entity string

const (
	EntityCustomers Entity = "customers"
	EntityLoans     Entity = "loans"
)

func ParseEntity(s string) (Entity, error) {
	switch e := Entity(strings.ToLower(strings.TrimSpace(s))); e {
	case EntityCustomers, EntityLoans:
		return e, nil
	}
	return "", fmt.Errorf("%w: unknown entity %q, expected customers or loans", apperrors.ErrInvalidArgument, s)
}

// Report names a raw table push to the spreadsheet.
type Report string

const (
	ReportCustomers Report = "customers"
	ReportLoans     Report = "loans"
	ReportOverview  Report = "overview"
)

func ParseReport(s string) (Report, error) {
	switch r := Report(strings.ToLower(strings.TrimSpace(s))); r {
	case ReportCustomers, ReportLoans, ReportOverview:
		return r, nil
	}
	return "", fmt.Errorf("%w: unknown report %q, expected customers, loans or overview", apperrors.ErrInvalidArgument, s)
}

// TableSource yields freshly loaded entity tables; *Loader is the implementation.
type TableSource interface {
	Load(ctx context.Context) (*Tables, error)
}

// SheetPublisher replaces the contents of a spreadsheet tab with rows.
type SheetPublisher interface {
	Publish(ctx context.Context, tab string, rows [][]string) error
}

type Clock func() time.Time

// ClockFrom pins the clock to ref when it is set and uses the wall clock otherwise.
func ClockFrom(ref string) (Clock, error) {
	if strings.TrimSpace(ref) == "" {
		return time.Now, nil
	}
	t, err := frame.ParseDate(ref, false)
	if err != nil {
		return nil, fmt.Errorf("%w: features.referenceTime: %w", apperrors.ErrInvalidArgument, err)
	}
	return func() time.Time { return t }, nil
}

type Options struct {
	Features config.FeaturesConfig
	Tabs     config.TabsConfig
	MaxDepth int
	Clock    Clock
}

type Service interface {
	// Generate runs the whole pipeline, writes both feature files and returns the
	// table for entity.
	Generate(ctx context.Context, entity Entity) (*frame.Frame, error)
	// Publish pushes the stored feature file of entity to its spreadsheet tab and
	// returns the number of data rows sent.
	Publish(ctx context.Context, entity Entity) (int, error)
	PublishRaw(ctx context.Context, report Report) (int, error)
}

var _ Service = (*service)(nil)

type service struct {
	source   TableSource
	combiner *Combiner
	events   event.EventPublisher
	sheets   SheetPublisher
	opts     Options
	logger   *slog.Logger
}

// NewService wires the pipeline. sheets may be nil, which disables publishing.
func NewService(source TableSource, events event.EventPublisher, sheets SheetPublisher, opts Options, logger *slog.Logger) Service {
	if source == nil {
		panic("TableSource cannot be nil for feature Service")
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
	if events == nil {
		events = event.NewNoopPublisher(logger)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	return &service{
		source:   source,
		combiner: NewCombiner(logger),
		events:   events,
		sheets:   sheets,
		opts:     opts,
		logger:   logger.With("component", "FeatureService"),
	}
}

func (s *service) Generate(ctx context.Context, entity Entity) (_ *frame.Frame, err error) {
	if _, err := ParseEntity(string(entity)); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	start := time.Now()
	defer func() {
		monitoring.RecordPipelineRun(string(entity), monitoring.StatusLabel(err), time.Since(start))
	}()

	logger := s.logger.With(slog.String("runId", runID), slog.String("entity", string(entity)))
	logger.InfoContext(ctx, "Attempting to generate features")

	outputs, err := s.run(ctx, logger)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to generate features", slog.Any("error", err))
		return nil, err
	}

	for _, e := range []Entity{EntityCustomers, EntityLoans} {
		if err := s.export(ctx, logger, runID, e, outputs[e]); err != nil {
			logger.ErrorContext(ctx, "Failed to export features", slog.String("target", string(e)), slog.Any("error", err))
			return nil, err
		}
	}

	result := outputs[entity]
	logger.InfoContext(ctx, "Successfully generated features",
		slog.Int("rows", result.Len()),
		slog.Int("columns", result.Width()),
		slog.Duration("duration", time.Since(start)),
	)
	return result, nil
}

func (s *service) run(ctx context.Context, logger *slog.Logger) (map[Entity]*frame.Frame, error) {
	tables, err := s.source.Load(ctx)
	if err != nil {
		return nil, err
	}

	now := s.opts.Clock()
	if err := ExtractLoanFeatures(tables.Loans, now); err != nil {
		return nil, err
	}
	if err := ExtractCustomerFeatures(tables.Customers); err != nil {
		return nil, err
	}

	es := NewEntitySet(logger)
	if err := es.AddTable(CustomersTable, tables.Customers, CustomerKey); err != nil {
		return nil, err
	}
	if err := es.AddTable(LoansTable, tables.Loans, LoanKey); err != nil {
		return nil, err
	}
	if err := es.AddRelationship(Relationship{Parent: CustomersTable, ParentKey: CustomerKey, Child: LoansTable, ChildKey: CustomerKey}); err != nil {
		return nil, err
	}

	outputs := make(map[Entity]*frame.Frame, 2)
	for _, target := range []struct {
		entity Entity
		manual *frame.Frame
		key    string
		drop   []string
	}{
		{EntityCustomers, tables.Customers, CustomerKey, s.opts.Features.DropCustomers},
		{EntityLoans, tables.Loans, LoanKey, s.opts.Features.DropLoans},
	} {
		synthesized, defs, err := es.Synthesize(ctx, string(target.entity), s.opts.MaxDepth)
		if err != nil {
			return nil, err
		}
		logger.DebugContext(ctx, "Feature definitions", slog.String("target", string(target.entity)), slog.Any("definitions", defs))

		combined, err := s.combiner.Combine(ctx, target.manual, synthesized, target.key)
		if err != nil {
			return nil, err
		}
		if err := s.combiner.DeleteColumns(ctx, combined, target.drop); err != nil {
			return nil, err
		}
		outputs[target.entity] = combined
	}
	return outputs, nil
}

func (s *service) export(ctx context.Context, logger *slog.Logger, runID string, entity Entity, f *frame.Frame) error {
	path := s.pathFor(entity)
	if err := WriteFile(f, path); err != nil {
		return err
	}
	sum, err := checksum.FileChecksum(path)
	if err != nil {
		return err
	}
	monitoring.RecordFeatureTable(string(entity), f.Len(), f.Width())
	logger.InfoContext(ctx, "Wrote feature file",
		slog.String("target", string(entity)),
		slog.String("path", path),
		slog.String("checksum", sum),
	)

	evt := event.FeaturesGenerated{
		RunID:     runID,
		Entity:    string(entity),
		Rows:      f.Len(),
		Columns:   f.Width(),
		Path:      path,
		Checksum:  sum,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.PublishFeaturesGenerated(ctx, evt); err != nil {
		logger.WarnContext(ctx, "Failed to publish features generated event", slog.String("target", string(entity)), slog.Any("error", err))
	}
	return nil
}

func (s *service) Publish(ctx context.Context, entity Entity) (int, error) {
	if _, err := ParseEntity(string(entity)); err != nil {
		return 0, err
	}
	path := s.pathFor(entity)
	f, err := ReadFile(path)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read feature file", slog.String("path", path), slog.Any("error", err))
		return 0, err
	}
	tab := s.opts.Tabs.CustomersFeatures
	if entity == EntityLoans {
		tab = s.opts.Tabs.LoansFeatures
	}
	if err := s.push(ctx, tab, f.Grid(true)); err != nil {
		return 0, err
	}
	return f.Len(), nil
}

func (s *service) PublishRaw(ctx context.Context, report Report) (int, error) {
	if _, err := ParseReport(string(report)); err != nil {
		return 0, err
	}
	tables, err := s.source.Load(ctx)
	if err != nil {
		return 0, err
	}

	var tab string
	var grid [][]string
	switch report {
	case ReportCustomers:
		tab, grid = s.opts.Tabs.Customers, tables.Customers.Grid(true)
	case ReportLoans:
		tab, grid = s.opts.Tabs.Loans, tables.Loans.Grid(true)
	default:
		tab = s.opts.Tabs.Overview
		grid = [][]string{
			{"table", "rows", "columns"},
			{CustomersTable, strconv.Itoa(tables.Customers.Len()), strconv.Itoa(tables.Customers.Width())},
			{LoansTable, strconv.Itoa(tables.Loans.Len()), strconv.Itoa(tables.Loans.Width())},
		}
	}
	if err := s.push(ctx, tab, grid); err != nil {
		return 0, err
	}
	return len(grid) - 1, nil
}

func (s *service) push(ctx context.Context, tab string, grid [][]string) error {
	if s.sheets == nil {
		return fmt.Errorf("%w: spreadsheet publishing is disabled", apperrors.ErrUnsupported)
	}
	s.logger.InfoContext(ctx, "Attempting to publish rows", slog.String("tab", tab), slog.Int("rows", len(grid)))
	if err := s.sheets.Publish(ctx, tab, grid); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish rows", slog.String("tab", tab), slog.Any("error", err))
		return err
	}
	return nil
}

func (s *service) pathFor(entity Entity) string {
	if entity == EntityLoans {
		return s.opts.Features.LoansPath()
	}
	return s.opts.Features.CustomersPath()
}
