package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Accounts
// ============================================================

// Account represents a customer's bank account. Balances are decimal and
// persisted as exact strings; they never pass through float64.
type Account struct {
	ID         string          `json:"id"`
	CustomerID string          `json:"customer_id"`
	Agencia    string          `json:"agencia"`
	Numero     string          `json:"numero"`
	Saldo      decimal.Decimal `json:"saldo"`
	CreatedAt  time.Time       `json:"created_at"`
}

// DepositRequest is the payload for crediting an account.
type DepositRequest struct {
	Valor decimal.Decimal `json:"valor"`
}

// WithdrawRequest is the payload for debiting an account.
type WithdrawRequest struct {
	Valor decimal.Decimal `json:"valor"`
}

// BalanceResponse is returned by the balance endpoint.
type BalanceResponse struct {
	AccountID string          `json:"account_id"`
	Saldo     decimal.Decimal `json:"saldo"`
}

// ============================================================
// Transfers
// ============================================================

// Transfer is a completed account-to-account movement. Both legs commit
// atomically together with their statement entries.
type Transfer struct {
	ID            string          `json:"id"`
	FromAccountID string          `json:"from_account_id"`
	ToAccountID   string          `json:"to_account_id"`
	Valor         decimal.Decimal `json:"valor"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransferRequest is the payload for creating a transfer. The destination is
// addressed by account number, mirroring the app's transfer form.
type TransferRequest struct {
	ContaDestino string          `json:"conta_destino"`
	Valor        decimal.Decimal `json:"valor"`
}

// ============================================================
// Statement
// ============================================================

// Statement entry kinds.
const (
	StatementDeposit     = "deposit"
	StatementWithdrawal  = "withdrawal"
	StatementTransferIn  = "transfer_in"
	StatementTransferOut = "transfer_out"
)

// StatementEntry is one line of an account's statement. Entries are written
// in the same transaction as the balance mutation they describe.
type StatementEntry struct {
	ID        string          `json:"id"`
	AccountID string          `json:"account_id"`
	Kind      string          `json:"kind"`
	Valor     decimal.Decimal `json:"valor"`
	Detalhe   string          `json:"detalhe,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
