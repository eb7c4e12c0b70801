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
// Loans
// ============================================================

var (
	loanTotalMultiplier    = decimal.RequireFromString("1.8")
	loanApprovalMultiplier = decimal.RequireFromString("3.2")
)

// RequestLoan underwrites a loan request. Approval requires the account
// balance times the approval multiplier to cover the requested amount; the
// request is recorded either way, with the surcharge total already set.
// Installments are only generated for approved loans.
func (s *BankService) RequestLoan(ctx context.Context, customerID string, req *domain.LoanRequest) (*domain.Loan, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.RequestLoan")
	defer span.End()
	span.SetAttributes(attribute.String("customer.id", customerID), decimalAttr("loan.valor", req.Valor))

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("loan_request", time.Since(start)) }()

	if !req.Valor.IsPositive() {
		return nil, &domain.ErrValidation{Field: "valor", Message: "deve ser positivo"}
	}
	if req.QtdParcelas < 1 {
		return nil, &domain.ErrValidation{Field: "qtd_parcelas", Message: "deve ser ao menos 1"}
	}

	acc, err := s.GetPrimaryAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}

	total := req.Valor.Mul(loanTotalMultiplier)
	status := domain.LoanStatusDenied
	if acc.Saldo.Mul(loanApprovalMultiplier).GreaterThanOrEqual(req.Valor) {
		status = domain.LoanStatusApproved
	}

	now := time.Now().UTC()
	loan := &domain.Loan{
		ID:               uuid.New().String(),
		AccountID:        acc.ID,
		ValorRequisitado: req.Valor,
		ValorTotal:       total,
		QtdParcelas:      req.QtdParcelas,
		Status:           status,
		DataPedido:       now,
	}

	err = s.store.ExecTx(ctx, func(tx port.BankStore) error {
		if err := tx.CreateLoan(ctx, loan); err != nil {
			return err
		}
		if status != domain.LoanStatusApproved {
			return nil
		}
		return tx.CreateInstallments(ctx, buildInstallments(loan, now))
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("loan underwritten",
		zap.String("loan_id", loan.ID),
		zap.String("account_id", acc.ID),
		zap.String("valor_total", total.StringFixed(2)),
		zap.String("status", status),
	)
	return loan, nil
}

// buildInstallments splits the loan total into monthly installments whose
// exact sum equals the total. Each installment is the truncated even share;
// the last one absorbs the rounding remainder.
func buildInstallments(loan *domain.Loan, now time.Time) []domain.LoanInstallment {
	n := loan.QtdParcelas
	share := loan.ValorTotal.Div(decimal.NewFromInt(int64(n))).Truncate(2)

	parcelas := make([]domain.LoanInstallment, n)
	running := decimal.Zero
	for i := 0; i < n; i++ {
		valor := share
		if i == n-1 {
			valor = loan.ValorTotal.Sub(running)
		}
		running = running.Add(valor)
		parcelas[i] = domain.LoanInstallment{
			ID:             uuid.New().String(),
			LoanID:         loan.ID,
			NumParcela:     i + 1,
			ValorParcela:   valor,
			ValorPago:      decimal.Zero,
			DataVencimento: now.AddDate(0, i+1, 0),
		}
	}
	return parcelas
}

// ListLoans returns the caller's loan requests, approved or not.
func (s *BankService) ListLoans(ctx context.Context, customerID string) ([]domain.Loan, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.ListLoans")
	defer span.End()

	acc, err := s.GetPrimaryAccount(ctx, customerID)
	if err != nil {
		return nil, err
	}
	return s.store.ListLoans(ctx, acc.ID)
}

// ListInstallments returns the installment schedule of one of the caller's
// loans.
func (s *BankService) ListInstallments(ctx context.Context, customerID, loanID string) ([]domain.LoanInstallment, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.ListInstallments")
	defer span.End()

	if _, err := s.ownedLoan(ctx, customerID, loanID); err != nil {
		return nil, err
	}
	return s.store.ListInstallments(ctx, loanID)
}

// PayInstallment applies a payment toward an installment. The account is
// debited and the installment updated in one transaction; the paid date is
// set once the accumulated payments cover the installment value.
func (s *BankService) PayInstallment(ctx context.Context, customerID, installmentID string, valor decimal.Decimal) (*domain.LoanInstallment, error) {
	ctx, span := bankTracer.Start(ctx, "BankService.PayInstallment")
	defer span.End()

	if !valor.IsPositive() {
		return nil, &domain.ErrValidation{Field: "valor", Message: "deve ser positivo"}
	}

	var updated *domain.LoanInstallment
	err := s.store.ExecTx(ctx, func(tx port.BankStore) error {
		p, err := tx.GetInstallment(ctx, installmentID)
		if err != nil {
			return err
		}
		loan, err := tx.GetLoan(ctx, p.LoanID)
		if err != nil {
			return err
		}
		acc, err := tx.GetAccount(ctx, loan.AccountID)
		if err != nil {
			return err
		}
		if acc.CustomerID != customerID {
			return &domain.ErrNotFound{Resource: "installment", ID: installmentID}
		}
		if acc.Saldo.LessThan(valor) {
			return &domain.ErrInsufficientFunds{Available: acc.Saldo, Required: valor}
		}

		if err := tx.UpdateAccountBalance(ctx, acc.ID, acc.Saldo.Sub(valor)); err != nil {
			return err
		}
		if err := tx.AppendStatement(ctx, &domain.StatementEntry{
			ID:        uuid.New().String(),
			AccountID: acc.ID,
			Kind:      domain.StatementWithdrawal,
			Valor:     valor,
			Detalhe:   "Pagamento de parcela",
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}

		p.ValorPago = p.ValorPago.Add(valor)
		if p.DataPaga == nil && p.ValorPago.GreaterThanOrEqual(p.ValorParcela) {
			paid := time.Now().UTC()
			p.DataPaga = &paid
		}
		if err := tx.UpdateInstallment(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Delete(customerID)
	s.metrics.RecordStatementEntry(domain.StatementWithdrawal)
	s.logger.Info("installment payment applied",
		zap.String("installment_id", installmentID),
		zap.String("valor", valor.StringFixed(2)),
	)
	return updated, nil
}

func (s *BankService) ownedLoan(ctx context.Context, customerID, loanID string) (*domain.Loan, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	acc, err := s.store.GetAccount(ctx, loan.AccountID)
	if err != nil {
		return nil, err
	}
	if acc.CustomerID != customerID {
		return nil, &domain.ErrNotFound{Resource: "loan", ID: loanID}
	}
	return loan, nil
}
