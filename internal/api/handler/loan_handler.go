package handler

import (
	"log/slog"
	"net/http"

	"loan-feature-engine/internal/api/handler/dto"
	"loan-feature-engine/internal/domain/loan"
)

type LoanHandler struct {
	service loan.LoanService
	logger  *slog.Logger
}

func NewLoanHandler(s loan.LoanService, l *slog.Logger) *LoanHandler {
	if s == nil {
		panic("loan service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &LoanHandler{
		service: s,
		logger:  l.With("component", "LoanHandler"),
	}
}

// ListLoans handles GET /loans
// @Summary List loans
// @Description Returns every stored loan row. Dates are MM/DD/YYYY and loan_status is the 0/1 code.
// @Tags Loans
// @Produce json
// @Success 200 {array} dto.LoanResponse "List of loans"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [get]
// @Security BearerAuth
func (h *LoanHandler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListLoans(r.Context())
	if err != nil {
		logFailure(r, h.logger, "Service failed to list loans", err)
		respondError(w, err)
		return
	}

	resp := dto.NewLoanResponses(loans)
	h.logger.InfoContext(r.Context(), "Loans listed successfully", slog.Int("count", len(resp)))
	respondJSON(w, http.StatusOK, resp)
}

// GetLoan handles GET /loans/{loanID}
// @Summary Retrieve a loan
// @Description Returns the rows whose loan_id matches, as a one-element array.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(0)
// @Success 200 {array} dto.LoanResponse "Matching loan"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [get]
// @Security BearerAuth
func (h *LoanHandler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get loan ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	l, err := h.service.GetLoan(r.Context(), loanID)
	if err != nil {
		logFailure(r, h.logger, "Service failed to get loan", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan retrieved successfully", slog.Int64("loanID", loanID))
	respondJSON(w, http.StatusOK, []dto.LoanResponse{dto.NewLoanResponse(l)})
}

// CreateLoan handles POST /loans
// @Summary Create a loan
// @Description Inserts one loan row. The referenced customer must exist. loan_date accepts MM/DD/YYYY or YYYY-MM-DD; loan_status accepts 0, 1, paid or not_paid.
// @Tags Loans
// @Accept json
// @Produce json
// @Param request body dto.CreateLoanRequest true "Loan row"
// @Success 201 {object} dto.LoanResponse "Loan successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or unknown customer"
// @Failure 409 {object} dto.ErrorResponse "Loan already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans [post]
// @Security BearerAuth
func (h *LoanHandler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, err)
		return
	}
	l, err := req.ToDomain()
	if err != nil {
		h.logger.WarnContext(r.Context(), "Request does not describe a valid loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	created, err := h.service.RegisterLoan(r.Context(), l)
	if err != nil {
		logFailure(r, h.logger, "Service failed to create loan", err)
		respondError(w, err)
		return
	}

	resp := dto.NewLoanResponse(created)
	h.logger.InfoContext(r.Context(), "Loan created successfully", slog.String("loanID", resp.LoanID))
	respondJSON(w, http.StatusCreated, resp)
}

// ReplaceLoan handles PUT /loans/{loanID}
// @Summary Create or replace a loan
// @Description Stores the loan under the id in the path, overwriting any existing row. The body loan_id must match the path.
// @Tags Loans
// @Accept json
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(0)
// @Param request body dto.CreateLoanRequest true "Loan row"
// @Success 200 {object} dto.LoanResponse "Loan stored"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload or unknown customer"
// @Failure 409 {object} dto.ErrorResponse "Row conflicts with the table"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [put]
// @Security BearerAuth
func (h *LoanHandler) ReplaceLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get loan ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	var req dto.CreateLoanRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Request validation failed", slog.Any("error", err))
		respondError(w, err)
		return
	}
	if err := req.MatchesPath(loanID); err != nil {
		h.logger.WarnContext(r.Context(), "Body loan_id does not match path", slog.Int64("loanID", loanID))
		respondError(w, err)
		return
	}
	l, err := req.ToDomain()
	if err != nil {
		h.logger.WarnContext(r.Context(), "Request does not describe a valid loan", slog.Any("error", err))
		respondError(w, err)
		return
	}

	stored, err := h.service.ReplaceLoan(r.Context(), l)
	if err != nil {
		logFailure(r, h.logger, "Service failed to replace loan", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan stored successfully", slog.Int64("loanID", loanID))
	respondJSON(w, http.StatusOK, dto.NewLoanResponse(stored))
}

// DeleteLoan handles DELETE /loans/{loanID}
// @Summary Delete a loan
// @Description Deletes the loan row and returns an empty array.
// @Tags Loans
// @Produce json
// @Param loanID path int true "Loan ID" Minimum(0)
// @Success 200 {array} dto.LoanResponse "Loan deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid loan ID"
// @Failure 404 {object} dto.ErrorResponse "Loan not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /loans/{loanID} [delete]
// @Security BearerAuth
func (h *LoanHandler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	loanID, err := idFromURL(r, "loanID")
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get loan ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	if err := h.service.DeleteLoan(r.Context(), loanID); err != nil {
		logFailure(r, h.logger, "Service failed to delete loan", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Loan deleted successfully", slog.Int64("loanID", loanID))
	respondJSON(w, http.StatusOK, []dto.LoanResponse{})
}
