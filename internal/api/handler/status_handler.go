package handler

import (
	"log/slog"
	"net/http"

	"loan-feature-engine/internal/api/handler/dto"
	"loan-feature-engine/internal/feature"
)

const (
	StatusUp   = "UP"
	StatusDown = "DOWN"
)

type StatusHandler struct {
	service feature.Service
	logger  *slog.Logger
}

func NewStatusHandler(s feature.Service, l *slog.Logger) *StatusHandler {
	if s == nil {
		panic("feature service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &StatusHandler{
		service: s,
		logger:  l.With("component", "StatusHandler"),
	}
}

// APIStatus handles GET /api_status
// @Summary Composite health check
// @Description Generates both feature tables and reports UP when both succeed, DOWN otherwise. Always answers 200.
// @Tags Status
// @Produce json
// @Success 200 {object} dto.StatusResponse "UP or DOWN"
// @Router /api_status [get]
func (h *StatusHandler) APIStatus(w http.ResponseWriter, r *http.Request) {
	status := StatusUp
	for _, entity := range []feature.Entity{feature.EntityCustomers, feature.EntityLoans} {
		if _, err := h.service.Generate(r.Context(), entity); err != nil {
			h.logger.ErrorContext(r.Context(), "Status check failed",
				slog.String("entity", string(entity)), slog.Any("error", err))
			status = StatusDown
			break
		}
	}

	h.logger.InfoContext(r.Context(), "API status checked", slog.String("status", status))
	respondJSON(w, http.StatusOK, dto.StatusResponse{Status: status})
}
