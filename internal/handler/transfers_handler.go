package handler

import (
	"encoding/json"
	"net/http"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
	"github.com/rafaelmp/banco-digital-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Transferências
// ============================================================

func createTransferHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transfers")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)

		var req domain.TransferRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		transfer, err := bankSvc.Transfer(ctx, customerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, transfer)
	}
}

func listTransfersHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transfers")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		page, pageSize := parsePagination(r)

		transfers, err := bankSvc.ListTransfers(ctx, customerID, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if transfers == nil {
			transfers = []domain.Transfer{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"transfers": transfers, "page": page, "page_size": pageSize})
	}
}
