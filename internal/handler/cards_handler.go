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
// Cartão de Crédito
// ============================================================

func cardRequestHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cards/request")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)

		var req domain.CardRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		card, err := bankSvc.RequestCard(ctx, customerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, card)
	}
}

func listCardsHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		cards, err := bankSvc.ListCards(ctx, customerID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if cards == nil {
			cards = []domain.Card{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards})
	}
}

func cardSpendHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cards/spend")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)

		var req domain.CardSpendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		spend, err := bankSvc.AuthorizeSpend(ctx, customerID, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, spend)
	}
}

func listCardSpendsHandler(bankSvc *service.BankService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cards/{cardId}/spends")
		defer span.End()

		customerID := CustomerIDFromContext(ctx)
		cardID := chi.URLParam(r, "cardId")
		page, pageSize := parsePagination(r)

		spends, err := bankSvc.ListCardSpends(ctx, customerID, cardID, page, pageSize)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if spends == nil {
			spends = []domain.CardSpend{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"spends": spends})
	}
}
