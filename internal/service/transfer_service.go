package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
	"github.com/rafaelmp/banco-digital-go/internal/port"
)

// ============================================================
// Transfers
// ============================================================

// Transfer moves funds from the caller's primary account to the account
// addressed by número. Debit, credit, the transfer record and both
// statement entries commit in a single transaction; balances are re-read
// inside it so concurrent transfers never work from stale snapshots.
//
// The guard requires a strictly positive balance that strictly exceeds the
// amount, so a transfer of the exact full balance is rejected.
func (s *BankService) Transfer(ctx context.Context, customerID string, req *domain.TransferRequest) (*domain.Transfer, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.Transfer")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID), decimalAttr("transfer.valor", req.Valor))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("transfer", time.Since(start)) }()

	if !req.Valor.IsPositive() {
		return nil, &domain.ErrValidation{Field: "valor", Message: "deve ser positivo"}
	}
	if req.ContaDestino == "" {
		return nil, &domain.ErrValidation{Field: "conta_destino", Message: "obrigatório"}
	}

	source, err := s.GetPrimaryAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}

	var transfer *domain.Transfer
	var destCustomerID string
	err = s.store.ExecTx(ctx, func(tx port.BankStore) error {
		dest, err := tx.GetAccountByNumero(ctx, req.ContaDestino)
		if err != nil {
			return err
		}
		destCustomerID = dest.CustomerID

		// Re-read both accounts in a fixed (ascending id) order inside
		// the transaction.
		first, second := source.ID, dest.ID
		if second < first {
			first, second = second, first
		}
		a, err := tx.GetAccount(ctx, first)
		if err != nil {
			return err
		}
		b, err := tx.GetAccount(ctx, second)
		if err != nil {
			return err
		}
		from, to := a, b
		if from.ID != source.ID {
			from, to = b, a
		}

		if !from.Saldo.IsPositive() || !from.Saldo.GreaterThan(req.Valor) {
			return &domain.ErrInsufficientFunds{Available: from.Saldo, Required: req.Valor}
		}

		if from.ID == to.ID {
			// Self-transfer: debit and credit cancel out, the records
			// are still written.
			if err := tx.UpdateAccountBalance(ctx, from.ID, from.Saldo); err != nil {
				return err
			}
		} else {
			if err := tx.UpdateAccountBalance(ctx, from.ID, from.Saldo.Sub(req.Valor)); err != nil {
				return err
			}
			if err := tx.UpdateAccountBalance(ctx, to.ID, to.Saldo.Add(req.Valor)); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		transfer = &domain.Transfer{
			ID:            uuid.New().String(),
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			Valor:         req.Valor,
			CreatedAt:     now,
		}
		if err := tx.CreateTransfer(ctx, transfer); err != nil {
			return err
		}
		if err := tx.AppendStatement(ctx, &domain.StatementEntry{
			ID:        uuid.New().String(),
			AccountID: from.ID,
			Kind:      domain.StatementTransferOut,
			Valor:     req.Valor,
			Detalhe:   "Transferência para conta " + to.Numero,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		return tx.AppendStatement(ctx, &domain.StatementEntry{
			ID:        uuid.New().String(),
			AccountID: to.ID,
			Kind:      domain.StatementTransferIn,
			Valor:     req.Valor,
			Detalhe:   "Transferência da conta " + from.Numero,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(customerID)
	s.cache.Delete(destCustomerID)
	s.metrics.RecordStatementEntry(domain.StatementTransferOut)
	s.metrics.RecordStatementEntry(domain.StatementTransferIn)
	s.logger.Info("transfer completed",
		zap.String("transfer_id", transfer.ID),
		zap.String("from_account_id", transfer.FromAccountID),
		zap.String("to_account_id", transfer.ToAccountID),
		zap.String("valor", req.Valor.StringFixed(2)),
	)
	return transfer, nil
}

// ListTransfers returns transfers in which the caller's account took part,
// either side, newest first.
func (s *BankService) ListTransfers(ctx context.Context, customerID string, page, pageSize int) ([]domain.Transfer, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.ListTransfers")
	defer span.End()

	acc, err := s.GetPrimaryAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.store.ListTransfers(ctx, acc.ID, page, pageSize)
}

// decimalAttr keeps span attributes free of float conversions.
func decimalAttr(key string, d decimal.Decimal) attribute.KeyValue {
	return attribute.String(key, d.StringFixed(2))
}
