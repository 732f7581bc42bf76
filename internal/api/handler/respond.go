package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"loan-feature-engine/internal/api/handler/dto"
	"loan-feature-engine/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return fmt.Errorf("%w: request body is required", apperrors.ErrInvalidArgument)
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", slog.Any("error", err))
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// statusFor maps the apperrors taxonomy onto HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest, "VALIDATION"
	case errors.Is(err, apperrors.ErrInvalidArgument):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, apperrors.ErrParse), errors.Is(err, apperrors.ErrCoercion):
		return http.StatusBadRequest, "BAD_DATA"
	case errors.Is(err, apperrors.ErrUnsupported):
		return http.StatusBadRequest, "UNSUPPORTED"
	case errors.Is(err, apperrors.ErrAlreadyExists), errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, apperrors.ErrPublish):
		return http.StatusBadGateway, "PUBLISH_FAILED"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

func respondError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	detail := dto.ErrorDetail{Code: code, Message: err.Error()}

	var validationError *apperrors.ValidationError
	if errors.As(err, &validationError) {
		detail.Field = validationError.Field
		detail.Message = validationError.Message
	}
	if status == http.StatusInternalServerError {
		slog.Default().Error("Unhandled internal error", slog.Any("error", err))
	}

	respondJSON(w, status, dto.ErrorResponse{Error: detail})
}

// logFailure logs expected client-side failures at warn and the rest at error.
func logFailure(r *http.Request, logger *slog.Logger, msg string, err error) {
	level := slog.LevelError
	if status, _ := statusFor(err); status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logger.Log(r.Context(), level, msg, slog.Any("error", err))
}

func idFromURL(r *http.Request, param string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, param))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, param)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q in URL path", apperrors.ErrInvalidArgument, param, raw)
	}
	return id, nil
}
