// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// BankStore defines all data operations for accounts, transfers, cards,
// loans and statements. Implemented by the sqlite adapter.
//
// ExecTx runs fn against a store bound to a single write transaction. If fn
// returns an error the transaction is rolled back and the error is returned
// unchanged, so no partial mutation is ever visible to readers.
type BankStore interface {
	ExecTx(ctx context.Context, fn func(BankStore) error) error

	// Accounts
	CreateAccount(ctx context.Context, acc *domain.Account) error
	GetAccount(ctx context.Context, accountID string) (*domain.Account, error)
	GetAccountByNumero(ctx context.Context, numero string) (*domain.Account, error)
	GetPrimaryAccount(ctx context.Context, customerID string) (*domain.Account, error)
	ListAccounts(ctx context.Context, customerID string) ([]domain.Account, error)
	UpdateAccountBalance(ctx context.Context, accountID string, saldo decimal.Decimal) error

	// Transfers
	CreateTransfer(ctx context.Context, t *domain.Transfer) error
	ListTransfers(ctx context.Context, accountID string, page, pageSize int) ([]domain.Transfer, error)

	// Statement
	AppendStatement(ctx context.Context, e *domain.StatementEntry) error
	ListStatement(ctx context.Context, accountID string, page, pageSize int) ([]domain.StatementEntry, error)

	// Cards
	CreateCard(ctx context.Context, c *domain.Card) error
	ListCards(ctx context.Context, accountID string) ([]domain.Card, error)
	FindCard(ctx context.Context, accountID, numero, cvv, nome string) (*domain.Card, error)
	CardNumberExists(ctx context.Context, numero string) (bool, error)
	CardCVVExists(ctx context.Context, cvv string) (bool, error)
	CreateCardSpend(ctx context.Context, s *domain.CardSpend) error
	ListCardSpends(ctx context.Context, cardID string, page, pageSize int) ([]domain.CardSpend, error)

	// Loans
	CreateLoan(ctx context.Context, l *domain.Loan) error
	GetLoan(ctx context.Context, loanID string) (*domain.Loan, error)
	ListLoans(ctx context.Context, accountID string) ([]domain.Loan, error)
	CreateInstallments(ctx context.Context, parcelas []domain.LoanInstallment) error
	ListInstallments(ctx context.Context, loanID string) ([]domain.LoanInstallment, error)
	GetInstallment(ctx context.Context, installmentID string) (*domain.LoanInstallment, error)
	UpdateInstallment(ctx context.Context, p *domain.LoanInstallment) error

	// Health
	Ping(ctx context.Context) error
}

// AuthStore defines all data operations for the identity system.
type AuthStore interface {
	// Registration
	CreateCustomerWithAccount(ctx context.Context, c *domain.Customer, acc *domain.Account) error

	// Customer lookup
	GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error)
	GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	UpdateCustomerStatus(ctx context.Context, customerID, status string) error

	// WithCustomerForUpdate loads the customer by email inside a write
	// transaction and hands it to fn. Changes fn makes to the customer's
	// lockout fields are persisted even when fn returns a domain error;
	// only a persistence failure rolls them back.
	WithCustomerForUpdate(ctx context.Context, email string, fn func(*domain.Customer) error) error

	// Refresh tokens
	StoreRefreshToken(ctx context.Context, customerID, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenHash string) error
	RevokeAllRefreshTokens(ctx context.Context, customerID string) error
}
