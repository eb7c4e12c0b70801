package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

func (s *Store) CreateLoan(ctx context.Context, l *domain.Loan) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO loans (id, account_id, valor_requisitado, valor_total, qtd_parcelas, status, data_pedido)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.AccountID, l.ValorRequisitado.String(), l.ValorTotal.String(),
		l.QtdParcelas, l.Status, l.DataPedido)
	if err != nil {
		return &domain.ErrStorage{Op: "create loan", Err: err}
	}
	return nil
}

func scanLoan(row interface{ Scan(...any) error }) (*domain.Loan, error) {
	var l domain.Loan
	var requisitado, total string
	if err := row.Scan(&l.ID, &l.AccountID, &requisitado, &total, &l.QtdParcelas, &l.Status, &l.DataPedido); err != nil {
		return nil, err
	}
	var err error
	if l.ValorRequisitado, err = decimal.NewFromString(requisitado); err != nil {
		return nil, err
	}
	if l.ValorTotal, err = decimal.NewFromString(total); err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *Store) GetLoan(ctx context.Context, loanID string) (*domain.Loan, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, account_id, valor_requisitado, valor_total, qtd_parcelas, status, data_pedido
		 FROM loans WHERE id = ?`, loanID)
	l, err := scanLoan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "loan", ID: loanID}
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "get loan", Err: err}
	}
	return l, nil
}

func (s *Store) ListLoans(ctx context.Context, accountID string) ([]domain.Loan, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, account_id, valor_requisitado, valor_total, qtd_parcelas, status, data_pedido
		 FROM loans WHERE account_id = ? ORDER BY data_pedido DESC`, accountID)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list loans", Err: err}
	}
	defer rows.Close()

	loans := []domain.Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, &domain.ErrStorage{Op: "list loans", Err: err}
		}
		loans = append(loans, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list loans", Err: err}
	}
	return loans, nil
}

func (s *Store) CreateInstallments(ctx context.Context, parcelas []domain.LoanInstallment) error {
	for i := range parcelas {
		p := &parcelas[i]
		_, err := s.q.ExecContext(ctx,
			`INSERT INTO loan_installments (id, loan_id, num_parcela, valor_parcela, valor_pago, data_vencimento, data_paga)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.LoanID, p.NumParcela, p.ValorParcela.String(), p.ValorPago.String(),
			p.DataVencimento, p.DataPaga)
		if err != nil {
			return &domain.ErrStorage{Op: "create installments", Err: err}
		}
	}
	return nil
}

func scanInstallment(row interface{ Scan(...any) error }) (*domain.LoanInstallment, error) {
	var p domain.LoanInstallment
	var parcela, pago string
	if err := row.Scan(&p.ID, &p.LoanID, &p.NumParcela, &parcela, &pago, &p.DataVencimento, &p.DataPaga); err != nil {
		return nil, err
	}
	var err error
	if p.ValorParcela, err = decimal.NewFromString(parcela); err != nil {
		return nil, err
	}
	if p.ValorPago, err = decimal.NewFromString(pago); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) ListInstallments(ctx context.Context, loanID string) ([]domain.LoanInstallment, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT id, loan_id, num_parcela, valor_parcela, valor_pago, data_vencimento, data_paga
		 FROM loan_installments WHERE loan_id = ? ORDER BY num_parcela ASC`, loanID)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list installments", Err: err}
	}
	defer rows.Close()

	parcelas := []domain.LoanInstallment{}
	for rows.Next() {
		p, err := scanInstallment(rows)
		if err != nil {
			return nil, &domain.ErrStorage{Op: "list installments", Err: err}
		}
		parcelas = append(parcelas, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list installments", Err: err}
	}
	return parcelas, nil
}

func (s *Store) GetInstallment(ctx context.Context, installmentID string) (*domain.LoanInstallment, error) {
	row := s.q.QueryRowContext(ctx,
		`SELECT id, loan_id, num_parcela, valor_parcela, valor_pago, data_vencimento, data_paga
		 FROM loan_installments WHERE id = ?`, installmentID)
	p, err := scanInstallment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrNotFound{Resource: "installment", ID: installmentID}
	}
	if err != nil {
		return nil, &domain.ErrStorage{Op: "get installment", Err: err}
	}
	return p, nil
}

func (s *Store) UpdateInstallment(ctx context.Context, p *domain.LoanInstallment) error {
	res, err := s.q.ExecContext(ctx,
		`UPDATE loan_installments SET valor_pago = ?, data_paga = ? WHERE id = ?`,
		p.ValorPago.String(), p.DataPaga, p.ID)
	if err != nil {
		return &domain.ErrStorage{Op: "update installment", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.ErrNotFound{Resource: "installment", ID: p.ID}
	}
	return nil
}
