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
// Contas
// ============================================================

func createAccountHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		account, err := svc.CreateAccount(ctx, customerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, account)
	}
}

func listAccountsHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		accounts, err := svc.ListAccounts(ctx, customerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if accounts == nil {
			accounts = []domain.Account{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
	}
}

func getAccountHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		accountID := chi.URLParam(r, "accountId")
		account, err := svc.GetAccount(ctx, customerID, accountID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func depositHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/deposit")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		accountID := chi.URLParam(r, "accountId")

		var req domain.DepositRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		account, err := svc.Deposit(ctx, customerID, accountID, req.Valor)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func withdrawHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/accounts/{accountId}/withdraw")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		accountID := chi.URLParam(r, "accountId")

		var req domain.WithdrawRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		account, err := svc.Withdraw(ctx, customerID, accountID, req.Valor)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, account)
	}
}

func getBalanceHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}/balance")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		accountID := chi.URLParam(r, "accountId")
		balance, err := svc.GetBalance(ctx, customerID, accountID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, balance)
	}
}

func statementHandler(svc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/accounts/{accountId}/statement")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		accountID := chi.URLParam(r, "accountId")
		page, pageSize := parsePagination(r)

		entries, err := svc.ListStatement(ctx, customerID, accountID, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if entries == nil {
			entries = []domain.StatementEntry{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"entries": entries, "page": page, "page_size": pageSize})
	}
}
