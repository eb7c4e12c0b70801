package sqlite

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

func (s *Store) CreateTransfer(ctx context.Context, t *domain.Transfer) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO transfers (id, from_account_id, to_account_id, valor, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.FromAccountID, t.ToAccountID, t.Valor.String(), t.CreatedAt)
	if err != nil {
		return &domain.ErrStorage{Op: "create transfer", Err: err}
	}
	return nil
}

func (s *Store) ListTransfers(ctx context.Context, accountID string, page, pageSize int) ([]domain.Transfer, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, from_account_id, to_account_id, valor, created_at
		 FROM transfers
		 WHERE from_account_id = ? OR to_account_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		accountID, accountID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list transfers", Err: err}
	}
	defer rows.Close()

	transfers := []domain.Transfer{}
	for rows.Next() {
		var t domain.Transfer
		var valor string
		if err := rows.Scan(&t.ID, &t.FromAccountID, &t.ToAccountID, &valor, &t.CreatedAt); err != nil {
			return nil, &domain.ErrStorage{Op: "list transfers", Err: err}
		}
		d, err := decimal.NewFromString(valor)
		if err != nil {
			return nil, &domain.ErrStorage{Op: "list transfers", Err: err}
		}
		t.Valor = d
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list transfers", Err: err}
	}
	return transfers, nil
}

func (s *Store) AppendStatement(ctx context.Context, e *domain.StatementEntry) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO statement_entries (id, account_id, kind, valor, detalhe, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.AccountID, e.Kind, e.Valor.String(), e.Detalhe, e.CreatedAt)
	if err != nil {
		return &domain.ErrStorage{Op: "append statement", Err: err}
	}
	return nil
}

func (s *Store) ListStatement(ctx context.Context, accountID string, page, pageSize int) ([]domain.StatementEntry, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, account_id, kind, valor, detalhe, created_at
		 FROM statement_entries
		 WHERE account_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		accountID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list statement", Err: err}
	}
	defer rows.Close()

	entries := []domain.StatementEntry{}
	for rows.Next() {
		var e domain.StatementEntry
		var valor string
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Kind, &valor, &e.Detalhe, &e.CreatedAt); err != nil {
			return nil, &domain.ErrStorage{Op: "list statement", Err: err}
		}
		d, err := decimal.NewFromString(valor)
		if err != nil {
			return nil, &domain.ErrStorage{Op: "list statement", Err: err}
		}
		e.Valor = d
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list statement", Err: err}
	}
	return entries, nil
}
