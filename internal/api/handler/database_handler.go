package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"loan-feature-engine/internal/api/handler/dto"
	"loan-feature-engine/internal/dataset"
	"loan-feature-engine/internal/infrastructure/database/postgres"
	"loan-feature-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

// DatasetSeeder is implemented by *dataset.Seeder.
type DatasetSeeder interface {
	Reset(ctx context.Context) (*dataset.Summary, error)
	RecreateTable(ctx context.Context, table, pkName string, kind postgres.KeyKind) error
	Tables(ctx context.Context) ([]string, error)
}

// TableInspector is implemented by *postgres.TableStore.
type TableInspector interface {
	Columns(ctx context.Context, table string) ([]string, error)
	Count(ctx context.Context, table string) (int64, error)
	Distinct(ctx context.Context, table, column string) ([]any, error)
}

type DatabaseHandler struct {
	seeder    DatasetSeeder
	inspector TableInspector
	logger    *slog.Logger
}

func NewDatabaseHandler(seeder DatasetSeeder, inspector TableInspector, l *slog.Logger) *DatabaseHandler {
	if seeder == nil || inspector == nil {
		panic("seeder and table inspector cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &DatabaseHandler{
		seeder:    seeder,
		inspector: inspector,
		logger:    l.With("component", "DatabaseHandler"),
	}
}

// ResetDatabase handles GET /database
// @Summary Reinitialise the dataset
// @Description Drops and recreates the customers and loans tables and reloads them from the JSON source file.
// @Tags Database
// @Produce json
// @Success 200 {object} dto.SeedResponse "Rows loaded per table"
// @Failure 400 {object} dto.ErrorResponse "Malformed source file"
// @Failure 500 {object} dto.ErrorResponse "Store failure"
// @Router /database [get]
// @Security BearerAuth
func (h *DatabaseHandler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	summary, err := h.seeder.Reset(r.Context())
	if err != nil {
		logFailure(r, h.logger, "Database reset failed", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Database reset successfully",
		slog.Int("customers", summary.Customers), slog.Int("loans", summary.Loans))
	respondJSON(w, http.StatusOK, dto.SeedResponse{Customers: summary.Customers, Loans: summary.Loans})
}

// CreateTable handles POST /database/{name}
// @Summary Recreate a table
// @Description Drops the named table if present and creates it with a single primary key column.
// @Tags Database
// @Produce json
// @Param name path string true "Table name"
// @Param pk_name query string false "Primary key column" default(id)
// @Param pk_type query string false "Primary key type" Enums(b_int, int, s_int, float, str, txt, bool, date, datetime) default(str)
// @Success 201 {object} dto.CreateTableResponse "Table created"
// @Failure 400 {object} dto.ErrorResponse "Invalid table name or key type"
// @Failure 500 {object} dto.ErrorResponse "Store failure"
// @Router /database/{name} [post]
// @Security BearerAuth
func (h *DatabaseHandler) CreateTable(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	if name == "" {
		respondError(w, fmt.Errorf("%w: table name is required", apperrors.ErrInvalidArgument))
		return
	}

	q := r.URL.Query()
	pkName := strings.TrimSpace(q.Get("pk_name"))
	if pkName == "" {
		pkName = "id"
	}
	pkType := strings.TrimSpace(q.Get("pk_type"))
	if pkType == "" {
		pkType = postgres.KeyString.String()
	}
	kind, err := postgres.ParseKeyKind(pkType)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid primary key type", slog.String("pk_type", pkType), slog.Any("error", err))
		respondError(w, err)
		return
	}

	if err := h.seeder.RecreateTable(r.Context(), name, pkName, kind); err != nil {
		logFailure(r, h.logger, "Table creation failed", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, dto.CreateTableResponse{Name: name, PKName: pkName, PKType: kind.String()})
}

// ListTables handles GET /database/tables
// @Summary List tables
// @Description Lists the tables of the store with their columns and row counts.
// @Tags Database
// @Produce json
// @Success 200 {array} dto.TableInfo "Tables"
// @Failure 500 {object} dto.ErrorResponse "Store failure"
// @Router /database/tables [get]
// @Security BearerAuth
func (h *DatabaseHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	names, err := h.seeder.Tables(r.Context())
	if err != nil {
		logFailure(r, h.logger, "Listing tables failed", err)
		respondError(w, err)
		return
	}

	resp := make([]dto.TableInfo, 0, len(names))
	for _, name := range names {
		cols, err := h.inspector.Columns(r.Context(), name)
		if err != nil {
			logFailure(r, h.logger, "Listing columns failed", err)
			respondError(w, err)
			return
		}
		n, err := h.inspector.Count(r.Context(), name)
		if err != nil {
			logFailure(r, h.logger, "Counting rows failed", err)
			respondError(w, err)
			return
		}
		resp = append(resp, dto.TableInfo{Name: name, Columns: cols, Rows: n})
	}

	respondJSON(w, http.StatusOK, resp)
}

// DistinctValues handles GET /database/{name}/columns/{column}
// @Summary Distinct values of a column
// @Description Returns the unique values stored in one column, in ascending order.
// @Tags Database
// @Produce json
// @Param name path string true "Table name"
// @Param column path string true "Column name"
// @Success 200 {object} dto.DistinctValuesResponse "Unique values"
// @Failure 404 {object} dto.ErrorResponse "Unknown table or column"
// @Failure 500 {object} dto.ErrorResponse "Store failure"
// @Router /database/{name}/columns/{column} [get]
// @Security BearerAuth
func (h *DatabaseHandler) DistinctValues(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(chi.URLParam(r, "name"))
	column := strings.TrimSpace(chi.URLParam(r, "column"))
	if name == "" || column == "" {
		respondError(w, fmt.Errorf("%w: table and column are required", apperrors.ErrInvalidArgument))
		return
	}

	values, err := h.inspector.Distinct(r.Context(), name, column)
	if err != nil {
		logFailure(r, h.logger, "Reading distinct values failed", err)
		respondError(w, err)
		return
	}
	if values == nil {
		values = []any{}
	}

	respondJSON(w, http.StatusOK, dto.DistinctValuesResponse{Table: name, Column: column, Values: values})
}
