package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

func (s *Store) CreateCard(ctx context.Context, c *domain.Card) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO cards (id, account_id, nome, numero, cvv, data_exp, limite, tipo, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AccountID, c.Nome, c.Numero, c.CVV, c.DataExp, c.Limite.String(), c.Tipo, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.ErrConflict{Message: "cartão com mesmo número e cvv já existe"}
		}
		return &domain.ErrStorage{Op: "create card", Err: err}
	}
	return nil
}

func (s *Store) ListCards(ctx context.Context, accountID string) ([]domain.Card, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, account_id, nome, numero, cvv, data_exp, limite, tipo, created_at
		 FROM cards WHERE account_id = ? ORDER BY created_at ASC`, accountID)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list cards", Err: err}
	}
	defer rows.Close()

	cards := []domain.Card{}
	for rows.Next() {
		var c domain.Card
		var limite string
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Nome, &c.Numero, &c.CVV, &c.DataExp, &limite, &c.Tipo, &c.CreatedAt); err != nil {
			return nil, &domain.ErrStorage{Op: "list cards", Err: err}
		}
		d, err := decimal.NewFromString(limite)
		if err != nil {
			return nil, &domain.ErrStorage{Op: "list cards", Err: err}
		}
		c.Limite = d
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list cards", Err: err}
	}
	return cards, nil
}

// FindCard looks the card up by the full credential triple scoped to the
// account. A miss on any component is indistinguishable from a missing card.
func (s *Store) FindCard(ctx context.Context, accountID, numero, cvv, nome string) (*domain.Card, error) {
	var c domain.Card
	var limite string
	err := s.q.QueryRowContext(ctx,
		`SELECT id, account_id, nome, numero, cvv, data_exp, limite, tipo, created_at
		 FROM cards
		 WHERE account_id = ? AND numero = ? AND cvv = ? AND nome = ?`,
		accountID, numero, cvv, nome).
		Scan(&c.ID, &c.AccountID, &c.Nome, &c.Numero, &c.CVV, &c.DataExp, &limite, &c.Tipo, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "card", ID: numero}
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "find card", Err: err}
	}
	d, err := decimal.NewFromString(limite)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "find card", Err: err}
	}
	c.Limite = d
	return &c, nil
}

func (s *Store) CardNumberExists(ctx context.Context, numero string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM cards WHERE numero = ?`, numero).Scan(&n)
	if err != nil {
		return false, &domain.ErrStorage{Op: "card number exists", Err: err}
	}
	return n > 0, nil
}

func (s *Store) CardCVVExists(ctx context.Context, cvv string) (bool, error) {
	var n int
	err := s.q.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM cards WHERE cvv = ?`, cvv).Scan(&n)
	if err != nil {
		return false, &domain.ErrStorage{Op: "card cvv exists", Err: err}
	}
	return n > 0, nil
}

func (s *Store) CreateCardSpend(ctx context.Context, sp *domain.CardSpend) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO card_spends (id, card_id, valor, descricao, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sp.ID, sp.CardID, sp.Valor.String(), sp.Descricao, sp.CreatedAt)
	if err != nil {
		return &domain.ErrStorage{Op: "create card spend", Err: err}
	}
	return nil
}

func (s *Store) ListCardSpends(ctx context.Context, cardID string, page, pageSize int) ([]domain.CardSpend, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, card_id, valor, descricao, created_at
		 FROM card_spends
		 WHERE card_id = ?
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		cardID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list card spends", Err: err}
	}
	defer rows.Close()

	spends := []domain.CardSpend{}
	for rows.Next() {
		var sp domain.CardSpend
		var valor string
		if err := rows.Scan(&sp.ID, &sp.CardID, &valor, &sp.Descricao, &sp.CreatedAt); err != nil {
			return nil, &domain.ErrStorage{Op: "list card spends", Err: err}
		}
		d, err := decimal.NewFromString(valor)
		if err != nil {
			return nil, &domain.ErrStorage{Op: "list card spends", Err: err}
		}
		sp.Valor = d
		spends = append(spends, sp)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list card spends", Err: err}
	}
	return spends, nil
}
