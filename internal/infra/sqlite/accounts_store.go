package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

func (s *Store) CreateAccount(ctx context.Context, acc *domain.Account) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO accounts (id, customer_id, agencia, numero, saldo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.CustomerID, acc.Agencia, acc.Numero, acc.Saldo.String(), acc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "número de conta já existe"}
		}
		return &domain.ErrStorage{Op: "create account", Err: err}
	}
	return nil
}

const accountColumns = `id, customer_id, agencia, numero, saldo, created_at`

func (s *Store) scanAccount(row *sql.Row) (*domain.Account, error) {
	var acc domain.Account
	var saldo string
	if err := row.Scan(&acc.ID, &acc.CustomerID, &acc.Agencia, &acc.Numero, &saldo, &acc.CreatedAt); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(saldo)
	if err != nil {
		return nil, err
	}
	acc.Saldo = d
	return &acc, nil
}

func (s *Store) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, accountID)
	acc, err := s.scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "get account", Err: err}
	}
	return acc, nil
}

func (s *Store) GetAccountByNumero(ctx context.Context, numero string) (*domain.Account, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE numero = ?`, numero)
	acc, err := s.scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "account", ID: numero}
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "get account by numero", Err: err}
	}
	return acc, nil
}

func (s *Store) GetPrimaryAccount(ctx context.Context, customerID string) (*domain.Account, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE customer_id = ? ORDER BY created_at ASC LIMIT 1`, customerID)
	acc, err := s.scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "account", ID: customerID}
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "get primary account", Err: err}
	}
	return acc, nil
}

func (s *Store) ListAccounts(ctx context.Context, customerID string) ([]domain.Account, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts
		 WHERE customer_id = ? ORDER BY created_at ASC`, customerID)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list accounts", Err: err}
	}
	defer rows.Close()

	accounts := []domain.Account{}
	for rows.Next() {
		var acc domain.Account
		var saldo string
		if err := rows.Scan(&acc.ID, &acc.CustomerID, &acc.Agencia, &acc.Numero, &saldo, &acc.CreatedAt); err != nil {
			return nil, &domain.ErrStorage{Op: "list accounts", Err: err}
		}
		d, err := decimal.NewFromString(saldo)
		if err != nil {
			return nil, &domain.ErrStorage{Op: "list accounts", Err: err}
		}
		acc.Saldo = d
		accounts = append(accounts, acc)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list accounts", Err: err}
	}
	return accounts, nil
}

func (s *Store) UpdateAccountBalance(ctx context.Context, accountID string, saldo decimal.Decimal) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE accounts SET saldo = ? WHERE id = ?`, saldo.String(), accountID)
	if err != nil {
		return &domain.ErrStorage{Op: "update balance", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.ErrNotFound{Resource: "account", ID: accountID}
	}
	return nil
}
