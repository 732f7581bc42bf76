package handler

import (
	"log/slog"
	"net/http"

	"loan-feature-engine/internal/api/handler/dto"
	"loan-feature-engine/internal/feature"

	"github.com/go-chi/chi/v5"
)

type FeatureHandler struct {
	service feature.Service
	tabs    map[feature.Entity]string
	logger  *slog.Logger
}

// NewFeatureHandler takes the spreadsheet tab names per entity only to report
// them back after a publish.
func NewFeatureHandler(s feature.Service, tabs map[feature.Entity]string, l *slog.Logger) *FeatureHandler {
	if s == nil {
		panic("feature service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &FeatureHandler{
		service: s,
		tabs:    tabs,
		logger:  l.With("component", "FeatureHandler"),
	}
}

// GetFeatures handles GET /features/{entity}
// @Summary Generate a feature table
// @Description Runs the full pipeline (load, extract, synthesize, combine, export) and returns the feature table of the requested entity as an array of records.
// @Tags Features
// @Produce json
// @Param entity path string true "Entity" Enums(customers, loans)
// @Success 200 {array} object "Feature records"
// @Failure 400 {object} dto.ErrorResponse "Unknown entity or malformed input data"
// @Failure 500 {object} dto.ErrorResponse "Pipeline failure"
// @Router /features/{entity} [get]
// @Security BearerAuth
func (h *FeatureHandler) GetFeatures(w http.ResponseWriter, r *http.Request) {
	entity, err := feature.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid entity in URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	table, err := h.service.Generate(r.Context(), entity)
	if err != nil {
		logFailure(r, h.logger, "Feature generation failed", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Feature table generated",
		slog.String("entity", string(entity)), slog.Int("rows", table.Len()), slog.Int("columns", table.Width()))
	respondJSON(w, http.StatusOK, table)
}

// PublishFeatures handles POST /features/{entity}
// @Summary Publish a stored feature table
// @Description Reads the last exported feature file of the entity and replaces the contents of its spreadsheet tab.
// @Tags Features
// @Produce json
// @Param entity path string true "Entity" Enums(customers, loans)
// @Success 200 {object} dto.PublishResponse "Rows written to the tab"
// @Failure 400 {object} dto.ErrorResponse "Unknown entity or publishing disabled"
// @Failure 404 {object} dto.ErrorResponse "Feature file or tab not found"
// @Failure 502 {object} dto.ErrorResponse "Spreadsheet API failure"
// @Router /features/{entity} [post]
// @Security BearerAuth
func (h *FeatureHandler) PublishFeatures(w http.ResponseWriter, r *http.Request) {
	entity, err := feature.ParseEntity(chi.URLParam(r, "entity"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid entity in URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	rows, err := h.service.Publish(r.Context(), entity)
	if err != nil {
		logFailure(r, h.logger, "Feature publish failed", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Feature table published", slog.String("entity", string(entity)), slog.Int("rows", rows))
	respondJSON(w, http.StatusOK, dto.PublishResponse{Tab: h.tabs[entity], Rows: rows})
}
