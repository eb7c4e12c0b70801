package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

const customerColumns = `id, nome, cpf, email, data_nascimento, status, password_hash,
	login_attempts, locked_until, last_login_at, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(&c.ID, &c.Nome, &c.CPF, &c.Email, &c.DataNasc, &c.Status, &c.PasswordHash,
		&c.LoginAttempts, &c.LockedUntil, &c.LastLoginAt, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCustomerWithAccount inserts the customer and their first account in
// one transaction.
func (s *Store) CreateCustomerWithAccount(ctx context.Context, c *domain.Customer, acc *domain.Account) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.ErrStorage{Op: "register customer", Err: err}
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO customers (id, nome, cpf, email, data_nascimento, status, password_hash,
		 login_attempts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, 0, ?)`,
		c.ID, c.Nome, c.CPF, c.Email, c.DataNasc, c.Status, c.PasswordHash, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "CPF ou e-mail já cadastrado"}
		}
		return &domain.ErrStorage{Op: "register customer", Err: err}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO accounts (id, customer_id, agencia, numero, saldo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		acc.ID, acc.CustomerID, acc.Agencia, acc.Numero, acc.Saldo.String(), acc.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "número de conta já existe"}
		}
		return &domain.ErrStorage{Op: "register customer", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return &domain.ErrStorage{Op: "register customer", Err: err}
	}
	return nil
}

func (s *Store) GetCustomerByID(ctx context.Context, customerID string) (*domain.Customer, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, customerID)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "get customer", Err: err}
	}
	return c, nil
}

func (s *Store) GetCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email = ?`, email)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "customer", ID: email}
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "get customer by email", Err: err}
	}
	return c, nil
}

func (s *Store) UpdateCustomerStatus(ctx context.Context, customerID, status string) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE customers SET status = ? WHERE id = ?`, status, customerID)
	if err != nil {
		return &domain.ErrStorage{Op: "update customer status", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.ErrNotFound{Resource: "customer", ID: customerID}
	}
	return nil
}

// WithCustomerForUpdate loads the customer inside a write transaction and
// hands it to fn. The customer's lockout fields are written back and
// committed even when fn returns a domain error: a failed-attempt counter
// bump must survive the login failure it records. Only persistence failures
// roll the transaction back.
func (s *Store) WithCustomerForUpdate(ctx context.Context, email string, fn func(*domain.Customer) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.ErrStorage{Op: "login", Err: err}
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE email = ?`, email)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ErrNotFound{Resource: "customer", ID: email}
	}
	if err != nil {
		return &domain.ErrStorage{Op: "login", Err: err}
	}

	fnErr := fn(c)

	_, err = tx.ExecContext(ctx,
		`UPDATE customers SET login_attempts = ?, locked_until = ?, last_login_at = ? WHERE id = ?`,
		c.LoginAttempts, c.LockedUntil, c.LastLoginAt, c.ID)
	if err != nil {
		return &domain.ErrStorage{Op: "login", Err: err}
	}
	if err := tx.Commit(); err != nil {
		return &domain.ErrStorage{Op: "login", Err: err}
	}
	if fnErr != nil {
		s.logger.Debug("login attempt rejected", zap.String("customer_id", c.ID))
	}
	return fnErr
}

func (s *Store) StoreRefreshToken(ctx context.Context, customerID, tokenHash string, expiresAt time.Time) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token_hash, id, customer_id, expires_at, revoked)
		 VALUES (?, ?, ?, ?, 0)`,
		tokenHash, newID(), customerID, expiresAt)
	if err != nil {
		return &domain.ErrStorage{Op: "store refresh token", Err: err}
	}
	return nil
}

func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := s.q.QueryRowContext(ctx,
		`SELECT token_hash, id, customer_id, expires_at, revoked
		 FROM refresh_tokens WHERE token_hash = ?`, tokenHash).
		Scan(&t.TokenHash, &t.ID, &t.CustomerID, &t.ExpiresAt, &t.Revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "refresh_token", ID: "token"}
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "get refresh token", Err: err}
	}
	return &t, nil
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?`, tokenHash)
	if err != nil {
		return &domain.ErrStorage{Op: "revoke refresh token", Err: err}
	}
	return nil
}

func (s *Store) RevokeAllRefreshTokens(ctx context.Context, customerID string) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = 1 WHERE customer_id = ?`, customerID)
	if err != nil {
		return &domain.ErrStorage{Op: "revoke refresh tokens", Err: err}
	}
	return nil
}
