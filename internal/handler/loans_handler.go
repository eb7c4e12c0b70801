package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
	"github.com/rafaelmp/banco-digital-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Empréstimos
// ============================================================

func loanRequestHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/loans/request")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)

		var req domain.LoanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		loan, err := bankSvc.RequestLoan(ctx, customerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		// Denied requests are still recorded and returned.
		writeJSON(w, http.StatusCreated, loan)
	}
}

func listLoansHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/loans")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		loans, err := bankSvc.ListLoans(ctx, customerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if loans == nil {
			loans = []domain.Loan{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"loans": loans})
	}
}

func listInstallmentsHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/loans/{loanId}/installments")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		loanID := chi.URLParam(r, "loanId")

		installments, err := bankSvc.ListInstallments(ctx, customerID, loanID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if installments == nil {
			installments = []domain.LoanInstallment{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"installments": installments})
	}
}

func payInstallmentHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/installments/{installmentId}/pay")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		installmentID := chi.URLParam(r, "installmentId")

		var req domain.InstallmentPayRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		installment, err := bankSvc.PayInstallment(ctx, customerID, installmentID, req.Valor)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, installment)
	}
}
