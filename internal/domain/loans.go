package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Loans
// ============================================================

// Loan statuses. A request is recorded whether or not it is approved.
const (
	LoanStatusPending  = "Em Análise"
	LoanStatusApproved = "Aprovado"
	LoanStatusDenied   = "Não Aprovado - O valor solicitado é muito para sua conta"
)

// Loan is a loan request and its underwriting outcome. ValorTotal carries
// the fixed financing surcharge and is set for denied requests too.
type Loan struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"account_id"`
	ValorRequisitado decimal.Decimal `json:"valor_requisitado"`
	ValorTotal       decimal.Decimal `json:"valor_total"`
	QtdParcelas      int             `json:"qtd_parcelas"`
	Status           string          `json:"status"`
	DataPedido       time.Time       `json:"data_pedido"`
}

// LoanRequest is the body for requesting a loan.
type LoanRequest struct {
	Valor       decimal.Decimal `json:"valor"`
	QtdParcelas int             `json:"qtd_parcelas"`
}

// LoanInstallment is one installment of an approved loan. DataPaga stays nil
// until the installment is fully paid.
type LoanInstallment struct {
	ID             string          `json:"id"`
	LoanID         string          `json:"loan_id"`
	NumParcela     int             `json:"num_parcela"`
	ValorParcela   decimal.Decimal `json:"valor_parcela"`
	ValorPago      decimal.Decimal `json:"valor_pago"`
	DataVencimento time.Time       `json:"data_vencimento"`
	DataPaga       *time.Time      `json:"data_paga,omitempty"`
}

// InstallmentPayRequest is the body for paying toward an installment.
type InstallmentPayRequest struct {
	Valor decimal.Decimal `json:"valor"`
}
