package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

// ============================================================
// Credit Cards
// ============================================================

// Flat bonus added on top of the account balance when computing the limit
// of a newly issued card.
var cardLimitBonus = decimal.NewFromInt(250).Mul(decimal.RequireFromString("1.25"))

const (
	cardValidityYears  = 5
	maxCredentialTries = 50
)

// RequestCard issues a new credit card bound to the account. The limit is
// the current balance plus a fixed bonus; número and CVV are drawn fresh
// until they collide with no existing card.
func (s *BankService) RequestCard(ctx context.Context, customerID string, req *domain.CardRequest) (*domain.Card, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.RequestCard")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	if req.Nome == "" {
		return nil, &domain.ErrValidation{Field: "nome", Message: "obrigatório"}
	}

	acc, err := s.GetPrimaryAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}

	numero, err := s.freshCardNumber(ctx)
	if err != nil {
		return nil, err
	}
	cvv, err := s.freshCardCVV(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	card := &domain.Card{
		ID:        uuid.New().String(),
		AccountID: acc.ID,
		Nome:      req.Nome,
		Numero:    numero,
		CVV:       cvv,
		DataExp:   now.AddDate(cardValidityYears, 0, 0),
		Limite:    acc.Saldo.Add(cardLimitBonus),
		Tipo:      "Crédito",
		CreatedAt: now,
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, err
	}

	s.logger.Info("card issued",
		zap.String("customer_id", customerID),
		zap.String("card_id", card.ID),
		zap.String("limite", card.Limite.StringFixed(2)),
	)
	return card, nil
}

// freshCardNumber draws 16-digit numbers until one is unused. The UNIQUE
// constraint on (numero, cvv) backstops the race between check and insert.
func (s *BankService) freshCardNumber(ctx context.Context) (string, error) {
	for i := 0; i < maxCredentialTries; i++ {
		numero := fmt.Sprintf("%016d", rand.Int63n(1e16))
		exists, err := s.store.CardNumberExists(ctx, numero)
		if err != nil {
			return "", err
		}
		if !exists {
			return numero, nil
		}
	}
	return "", &domain.ErrStorage{Op: "generate card number", Err: fmt.Errorf("exhausted %d attempts", maxCredentialTries)}
}

func (s *BankService) freshCardCVV(ctx context.Context) (string, error) {
	for i := 0; i < maxCredentialTries; i++ {
		cvv := fmt.Sprintf("%03d", rand.Intn(1000))
		exists, err := s.store.CardCVVExists(ctx, cvv)
		if err != nil {
			return "", err
		}
		if !exists {
			return cvv, nil
		}
	}
	return "", &domain.ErrStorage{Op: "generate card cvv", Err: fmt.Errorf("exhausted %d attempts", maxCredentialTries)}
}

// ListCards returns all cards bound to the caller's primary account.
func (s *BankService) ListCards(ctx context.Context, customerID string) ([]domain.Card, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.ListCards")
	defer span.End()

	acc, err := s.GetPrimaryAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.store.ListCards(ctx, acc.ID)
}

// AuthorizeSpend authorizes a purchase against a card. The card is matched
// by the full credential triple; any mismatch reads as a missing card. A
// spend above the limit is rejected, spends do not reduce the limit.
func (s *BankService) AuthorizeSpend(ctx context.Context, customerID string, req *domain.CardSpendRequest) (*domain.CardSpend, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.AuthorizeSpend")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("card_spend", time.Since(start)) }()

	if !req.Valor.IsPositive() {
		return nil, &domain.ErrValidation{Field: "valor", Message: "deve ser positivo"}
	}

	acc, err := s.GetPrimaryAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}

	card, err := s.store.FindCard(ctx, acc.ID, req.Numero, req.CVV, req.Nome)
	if err != nil {
		return nil, err
	}
	if req.Valor.GreaterThan(card.Limite) {
		return nil, &domain.ErrLimitExceeded{Limit: card.Limite, Requested: req.Valor}
	}

	spend := &domain.CardSpend{
		ID:        uuid.New().String(),
		CardID:    card.ID,
		Valor:     req.Valor,
		Descricao: req.Descricao,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateCardSpend(ctx, spend); err != nil {
		return nil, err
	}

	s.logger.Info("card spend authorized",
		zap.String("card_id", card.ID),
		zap.String("valor", req.Valor.StringFixed(2)),
	)
	return spend, nil
}

// ListCardSpends returns the spends of one of the caller's cards.
func (s *BankService) ListCardSpends(ctx context.Context, customerID, cardID string, page, pageSize int) ([]domain.CardSpend, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.ListCardSpends")
	defer span.End()

	cards, err := s.ListCards(ctx, customerID)
	if err != nil {
		return nil, err
	}
	owned := false
	for _, c := range cards {
		if c.ID == cardID {
			owned = true
			break
		}
	}
	if !owned {
		return nil, &domain.ErrNotFound{Resource: "card", ID: cardID}
	}
	return s.store.ListCardSpends(ctx, cardID, page, pageSize)
}
