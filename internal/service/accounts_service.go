// Package service provides the business logic layer (use cases).
// BankService handles account operations: deposits, withdrawals,
// transfers, statements.
package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
	"github.com/rafaelmp/banco-digital-go/internal/infra/observability"
	"github.com/rafaelmp/banco-digital-go/internal/port"
)

var bankTracer = otel.Tracer("service/bank")

const defaultAgencia = "0001"

// BankService orchestrates account, transfer and statement operations.
type BankService struct {
	store   port.BankStore
	cache   port.Cache[*domain.Account]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewBankService creates a new bank service.
func NewBankService(store port.BankStore, cache port.Cache[*domain.Account], metrics *observability.Metrics, logger *zap.Logger) *BankService {
	return &BankService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// ============================================================
// Accounts
// ============================================================

// CreateAccount opens an additional account for the customer.
func (s *BankService) CreateAccount(ctx context.Context, customerID string) (*domain.Account, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.CreateAccount")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	acc := &domain.Account{
		ID:         uuid.New().String(),
		CustomerID: customerID,
		Agencia:    defaultAgencia,
		Numero:     randomAccountNumber(),
		Saldo:      decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		zap.String("customer_id", customerID),
		zap.String("account_id", acc.ID),
		zap.String("numero", acc.Numero),
	)
	return acc, nil
}

func randomAccountNumber() string {
	return fmt.Sprintf("%08d", rand.Intn(100_000_000))
}

func (s *BankService) ListAccounts(ctx context.Context, customerID string) ([]domain.Account, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	return s.store.ListAccounts(ctx, customerID)
}

// GetAccount returns the account only when it belongs to the customer.
func (s *BankService) GetAccount(ctx context.Context, customerID, accountID string) (*domain.Account, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.GetAccount")
	defer span.End()

	acc, err := s.store.GetAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acc.CustomerID != customerID {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return acc, nil
}

// GetPrimaryAccount returns the customer's primary (oldest) account,
// consulting the cache first. The cache only serves identity resolution;
// balances are always read inside the mutation's own transaction.
func (s *BankService) GetPrimaryAccount(ctx context.Context, customerID string) (*domain.Account, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.GetPrimaryAccount")
	defer span.End()

	if acc, ok := s.cache.Get(customerID); ok {
		s.metrics.IncrCacheHit("accounts")
		return acc, nil
	}
	s.metrics.IncrCacheMiss("accounts")
	acc, err := s.store.GetPrimaryAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(customerID, acc)
	return acc, nil
}

// ============================================================
// Deposits and withdrawals
// ============================================================

// Deposit credits the account and records the statement entry in one
// transaction.
func (s *BankService) Deposit(ctx context.Context, customerID, accountID string, valor decimal.Decimal) (*domain.Account, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.Deposit")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("deposit", time.Since(start)) }()

	if !valor.IsPositive() {
		return nil, &domain.ErrValidation{Field: "valor", Message: "deve ser positivo"}
	}

	var updated *domain.Account
	err := s.store.ExecTx(ctx, func(tx port.BankStore) error {
		acc, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.CustomerID != customerID {
			return &domain.ErrNotFound{Resource: "account", ID: accountID}
		}

		acc.Saldo = acc.Saldo.Add(valor)
		if err := tx.UpdateAccountBalance(ctx, acc.ID, acc.Saldo); err != nil {
			return err
		}
		if err := tx.AppendStatement(ctx, &domain.StatementEntry{
			ID:        uuid.New().String(),
			AccountID: acc.ID,
			Kind:      domain.StatementDeposit,
			Valor:     valor,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		updated = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(customerID)
	s.metrics.RecordStatementEntry(domain.StatementDeposit)
	s.logger.Info("deposit completed",
		zap.String("account_id", accountID),
		zap.String("valor", valor.StringFixed(2)),
	)
	return updated, nil
}

// Withdraw debits the account. A request above the balance is rejected
// whole, never clamped to the available funds.
func (s *BankService) Withdraw(ctx context.Context, customerID, accountID string, valor decimal.Decimal) (*domain.Account, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.Withdraw")
	defer span.End()
	span.SetAttributes(attribute.String("account.id", accountID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("withdraw", time.Since(start)) }()

	if !valor.IsPositive() {
		return nil, &domain.ErrValidation{Field: "valor", Message: "deve ser positivo"}
	}

	var updated *domain.Account
	err := s.store.ExecTx(ctx, func(tx port.BankStore) error {
		acc, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		if acc.CustomerID != customerID {
			return &domain.ErrNotFound{Resource: "account", ID: accountID}
		}
		if acc.Saldo.LessThan(valor) {
			return &domain.ErrInsufficientFunds{Available: acc.Saldo, Required: valor}
		}

		acc.Saldo = acc.Saldo.Sub(valor)
		if err := tx.UpdateAccountBalance(ctx, acc.ID, acc.Saldo); err != nil {
			return err
		}
		if err := tx.AppendStatement(ctx, &domain.StatementEntry{
			ID:        uuid.New().String(),
			AccountID: acc.ID,
			Kind:      domain.StatementWithdrawal,
			Valor:     valor,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		updated = acc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(customerID)
	s.metrics.RecordStatementEntry(domain.StatementWithdrawal)
	s.logger.Info("withdrawal completed",
		zap.String("account_id", accountID),
		zap.String("valor", valor.StringFixed(2)),
	)
	return updated, nil
}

// GetBalance returns the account's current balance.
func (s *BankService) GetBalance(ctx context.Context, customerID, accountID string) (*domain.BalanceResponse, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.GetBalance")
	defer span.End()

	acc, err := s.GetAccount(ctx, customerID, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.BalanceResponse{AccountID: acc.ID, Saldo: acc.Saldo}, nil
}

// ListStatement returns the account's statement, newest first.
func (s *BankService) ListStatement(ctx context.Context, customerID, accountID string, page, pageSize int) ([]domain.StatementEntry, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.ListStatement")
	defer span.End()

	if _, err := s.GetAccount(ctx, customerID, accountID); err != nil {
		return nil, err
	}
	return s.store.ListStatement(ctx, accountID, page, pageSize)
}

// Ping reports whether the underlying store is reachable.
func (s *BankService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
