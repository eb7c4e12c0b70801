package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Credit Cards
// ============================================================

// Card represents an issued credit card. Numero and CVV are generated at
// issue time and the pair is unique across all cards.
type Card struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Nome      string          `json:"nome"`
	Numero    string          `json:"numero"`
	CVV       string          `json:"cvv"`
	DataExp   time.Time       `json:"data_exp"`
	Limite    decimal.Decimal `json:"limite"`
	Tipo      string          `json:"tipo"`
	CreatedAt time.Time       `json:"created_at"`
}

// CardRequest is the body for requesting a new card.
type CardRequest struct {
	Nome string `json:"nome"`
}

// CardSpend is a purchase authorized against a card's limit.
type CardSpend struct {
	ID        string          `json:"id"`
	CardID    string          `json:"card_id"`
	Valor     decimal.Decimal `json:"valor"`
	Descricao string          `json:"descricao,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// CardSpendRequest is the body for authorizing a spend. The card is addressed
// by the full credential triple, never by internal id.
type CardSpendRequest struct {
	Numero    string          `json:"numero"`
	CVV       string          `json:"cvv"`
	Nome      string          `json:"nome"`
	Valor     decimal.Decimal `json:"valor"`
	Descricao string          `json:"descricao,omitempty"`
}
