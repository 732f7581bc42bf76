package handler

import (
	"log/slog"
	"net/http"

	"loan-feature-engine/internal/api/handler/dto"
	"loan-feature-engine/internal/feature"

	"github.com/go-chi/chi/v5"
)

type ReportHandler struct {
	service feature.Service
	logger  *slog.Logger
}

func NewReportHandler(s feature.Service, l *slog.Logger) *ReportHandler {
	if s == nil {
		panic("feature service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ReportHandler{
		service: s,
		logger:  l.With("component", "ReportHandler"),
	}
}

// PublishReport handles POST /reports/{report}
// @Summary Publish a raw report
// @Description Pushes the raw customers or loans table, or an overview of row and column counts, to its spreadsheet tab.
// @Tags Reports
// @Produce json
// @Param report path string true "Report" Enums(customers, loans, overview)
// @Success 200 {object} dto.PublishResponse "Rows written to the tab"
// @Failure 400 {object} dto.ErrorResponse "Unknown report or publishing disabled"
// @Failure 404 {object} dto.ErrorResponse "Tab not found"
// @Failure 502 {object} dto.ErrorResponse "Spreadsheet API failure"
// @Router /reports/{report} [post]
// @Security BearerAuth
func (h *ReportHandler) PublishReport(w http.ResponseWriter, r *http.Request) {
	report, err := feature.ParseReport(chi.URLParam(r, "report"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "Invalid report in URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	rows, err := h.service.PublishRaw(r.Context(), report)
	if err != nil {
		logFailure(r, h.logger, "Report publish failed", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Report published", slog.String("report", string(report)), slog.Int("rows", rows))
	respondJSON(w, http.StatusOK, dto.PublishResponse{Tab: string(report), Rows: rows})
}
