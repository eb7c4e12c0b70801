package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
	"github.com/rafaelmp/banco-digital-go/internal/infra/sqlite"
	"github.com/rafaelmp/banco-digital-go/internal/port"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "banco.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

var accountSeq int

func seedAccount(t *testing.T, store *sqlite.Store, saldo string) *domain.Account {
	t.Helper()

	ctx := context.Background()
	accountSeq++
	customer := &domain.Customer{
		ID:           uuid.New().String(),
		Nome:         "Cliente Teste",
		CPF:          fmt.Sprintf("%011d", accountSeq),
		Email:        fmt.Sprintf("cliente%d@example.com", accountSeq),
		Status:       domain.CustomerStatusPending,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	acc := &domain.Account{
		ID:         uuid.New().String(),
		CustomerID: customer.ID,
		Agencia:    "0001",
		Numero:     fmt.Sprintf("%08d", accountSeq),
		Saldo:      decimal.RequireFromString(saldo),
		CreatedAt:  time.Now().UTC(),
	}
	if err := store.CreateCustomerWithAccount(ctx, customer, acc); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	return acc
}

func TestExecTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, store, "100")

	boom := errors.New("boom")
	err := store.ExecTx(ctx, func(tx port.BankStore) error {
		if err := tx.UpdateAccountBalance(ctx, acc.ID, decimal.Zero); err != nil {
			return err
		}
		if err := tx.AppendStatement(ctx, &domain.StatementEntry{
			ID:        uuid.New().String(),
			AccountID: acc.ID,
			Kind:      domain.StatementWithdrawal,
			Valor:     decimal.RequireFromString("100"),
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error to surface unchanged, got %v", err)
	}

	// Nothing of the transaction may be visible.
	got, err := store.GetAccount(ctx, acc.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Saldo.Equal(decimal.RequireFromString("100")) {
		t.Errorf("saldo after rollback: expected 100, got %s", got.Saldo)
	}
	entries, err := store.ListStatement(ctx, acc.ID, 1, 10)
	if err != nil {
		t.Fatalf("list statement: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no statement entries after rollback, got %d", len(entries))
	}
}

func TestConcurrentWithdrawals_NeverOverdraw(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, store, "100")
	amount := decimal.RequireFromString("30")

	// Ten racing withdrawals of 30 against a balance of 100: exactly three
	// may commit.
	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			err := store.ExecTx(ctx, func(tx port.BankStore) error {
				a, err := tx.GetAccount(ctx, acc.ID)
				if err != nil {
					return err
				}
				if a.Saldo.LessThan(amount) {
					return &domain.ErrInsufficientFunds{Available: a.Saldo, Required: amount}
				}
				return tx.UpdateAccountBalance(ctx, a.ID, a.Saldo.Sub(amount))
			})
			var insufficient *domain.ErrInsufficientFunds
			if errors.As(err, &insufficient) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent withdrawals: %v", err)
	}

	got, err := store.GetAccount(ctx, acc.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Saldo.Equal(decimal.RequireFromString("10")) {
		t.Errorf("saldo after racing withdrawals: expected 10, got %s", got.Saldo)
	}
}

func TestCreateCard_UniqueCredentialPair(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, store, "0")

	card := &domain.Card{
		ID:        uuid.New().String(),
		AccountID: acc.ID,
		Nome:      "CLIENTE TESTE",
		Numero:    "4111111111111111",
		CVV:       "123",
		DataExp:   time.Now().UTC().AddDate(5, 0, 0),
		Limite:    decimal.RequireFromString("312.50"),
		Tipo:      "Crédito",
		CreatedAt: time.Now().UTC(),
	}
	if err := store.CreateCard(ctx, card); err != nil {
		t.Fatalf("create card: %v", err)
	}

	dup := *card
	dup.ID = uuid.New().String()
	err := store.CreateCard(ctx, &dup)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict for duplicate numero+cvv, got %v", err)
	}

	// Same número with a different CVV is a distinct credential pair.
	other := *card
	other.ID = uuid.New().String()
	other.CVV = "321"
	if err := store.CreateCard(ctx, &other); err != nil {
		t.Fatalf("create card with distinct cvv: %v", err)
	}
}

func TestCreateCustomerWithAccount_DuplicateCPF(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := seedAccount(t, store, "0")
	_ = first

	customer := &domain.Customer{
		ID:           uuid.New().String(),
		Nome:         "Outro Cliente",
		CPF:          fmt.Sprintf("%011d", accountSeq), // same CPF as the seed
		Email:        "outro@example.com",
		Status:       domain.CustomerStatusPending,
		PasswordHash: "x",
		CreatedAt:    time.Now().UTC(),
	}
	acc := &domain.Account{
		ID:         uuid.New().String(),
		CustomerID: customer.ID,
		Agencia:    "0001",
		Numero:     "77777777",
		Saldo:      decimal.Zero,
		CreatedAt:  time.Now().UTC(),
	}
	err := store.CreateCustomerWithAccount(ctx, customer, acc)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict for duplicate cpf, got %v", err)
	}

	// The account insert must have been rolled back with the customer.
	if _, err := store.GetAccountByNumero(ctx, "77777777"); err == nil {
		t.Error("account of failed registration must not exist")
	}
}

func TestGetAccount_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetAccount(context.Background(), "missing-id")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBalanceRoundTrip_KeepsPrecision(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, store, "0.01")

	// Many small increments that would drift under floats.
	saldo := acc.Saldo
	for i := 0; i < 100; i++ {
		saldo = saldo.Add(decimal.RequireFromString("0.1"))
	}
	if err := store.UpdateAccountBalance(ctx, acc.ID, saldo); err != nil {
		t.Fatalf("update balance: %v", err)
	}

	got, err := store.GetAccount(ctx, acc.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Saldo.Equal(decimal.RequireFromString("10.01")) {
		t.Errorf("saldo: expected 10.01, got %s", got.Saldo)
	}
}

func TestWithCustomerForUpdate_PersistsDespiteDomainError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	acc := seedAccount(t, store, "0")

	customer, err := store.GetCustomerByID(ctx, acc.CustomerID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}

	wantErr := &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
	err = store.WithCustomerForUpdate(ctx, customer.Email, func(c *domain.Customer) error {
		c.LoginAttempts = 2
		return wantErr
	})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected the domain error back, got %v", err)
	}

	// The counter update must have been committed regardless.
	got, err := store.GetCustomerByID(ctx, customer.ID)
	if err != nil {
		t.Fatalf("get customer: %v", err)
	}
	if got.LoginAttempts != 2 {
		t.Errorf("login attempts: expected 2, got %d", got.LoginAttempts)
	}
}
