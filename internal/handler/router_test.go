package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
	"github.com/rafaelmp/banco-digital-go/internal/handler"
	"github.com/rafaelmp/banco-digital-go/internal/infra/cache"
	"github.com/rafaelmp/banco-digital-go/internal/infra/observability"
	"github.com/rafaelmp/banco-digital-go/internal/infra/sqlite"
	"github.com/rafaelmp/banco-digital-go/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "banco.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	metrics := observability.NewMetrics()
	accountCache := cache.New[*domain.Account](time.Minute)
	bankSvc := service.NewBankService(store, accountCache, metrics, zap.NewNop())
	authSvc := service.NewAuthService(store, metrics, "test-secret", 15*time.Minute, time.Hour, zap.NewNop())

	return handler.NewRouter(bankSvc, authSvc, metrics, nil, zap.NewNop())
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router http.Handler, email string) (token string, customerID string) {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"nome":            "Maria Teste",
		"cpf":             fmt.Sprintf("%011d", time.Now().UnixNano()%100000000000),
		"email":           email,
		"data_nascimento": "1990-04-12",
		"password":        "senha-forte-123",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    email,
		"password": "senha-forte-123",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp domain.LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("login returned empty access token")
	}
	return resp.AccessToken, resp.CustomerID
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/readyz", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/accounts", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
}

func TestDepositWithdrawFlow(t *testing.T) {
	router := newTestRouter(t)
	token, _ := registerAndLogin(t, router, "fluxo@example.com")

	rec := doJSON(t, router, http.MethodGet, "/v1/accounts", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list accounts: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var listResp struct {
		Accounts []domain.Account `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("decode accounts: %v", err)
	}
	if len(listResp.Accounts) != 1 {
		t.Fatalf("expected 1 account after registration, got %d", len(listResp.Accounts))
	}
	accountID := listResp.Accounts[0].ID

	rec = doJSON(t, router, http.MethodPost, "/v1/accounts/"+accountID+"/deposit", token, map[string]string{"valor": "100.50"})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/accounts/"+accountID+"/withdraw", token, map[string]string{"valor": "40.50"})
	if rec.Code != http.StatusOK {
		t.Fatalf("withdraw: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/accounts/"+accountID+"/balance", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance: expected 200, got %d", rec.Code)
	}
	var balance domain.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	if !balance.Saldo.Equal(decimal.RequireFromString("60")) {
		t.Errorf("expected saldo 60, got %s", balance.Saldo)
	}

	// Overdraw must be rejected, not clamped.
	rec = doJSON(t, router, http.MethodPost, "/v1/accounts/"+accountID+"/withdraw", token, map[string]string{"valor": "500"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("overdraw: expected 403, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/accounts/"+accountID+"/statement", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("statement: expected 200, got %d", rec.Code)
	}
	var stmt struct {
		Entries []domain.StatementEntry `json:"entries"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stmt); err != nil {
		t.Fatalf("decode statement: %v", err)
	}
	if len(stmt.Entries) != 2 {
		t.Errorf("expected 2 statement entries, got %d", len(stmt.Entries))
	}
}

func TestTransferBetweenCustomers(t *testing.T) {
	router := newTestRouter(t)
	tokenA, _ := registerAndLogin(t, router, "origem@example.com")
	tokenB, _ := registerAndLogin(t, router, "destino@example.com")

	accA := primaryAccount(t, router, tokenA)
	accB := primaryAccount(t, router, tokenB)

	rec := doJSON(t, router, http.MethodPost, "/v1/accounts/"+accA.ID+"/deposit", tokenA, map[string]string{"valor": "200"})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/transfers", tokenA, map[string]string{
		"conta_destino": accB.Numero,
		"valor":         "75.25",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("transfer: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	balA := accountBalance(t, router, tokenA, accA.ID)
	balB := accountBalance(t, router, tokenB, accB.ID)
	if !balA.Equal(decimal.RequireFromString("124.75")) {
		t.Errorf("source saldo: expected 124.75, got %s", balA)
	}
	if !balB.Equal(decimal.RequireFromString("75.25")) {
		t.Errorf("destination saldo: expected 75.25, got %s", balB)
	}

	// Transfers over the available balance are rejected.
	rec = doJSON(t, router, http.MethodPost, "/v1/transfers", tokenA, map[string]string{
		"conta_destino": accB.Numero,
		"valor":         "999",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("over-balance transfer: expected 403, got %d", rec.Code)
	}
}

func TestLoanAndCardFlow(t *testing.T) {
	router := newTestRouter(t)
	token, _ := registerAndLogin(t, router, "credito@example.com")
	acc := primaryAccount(t, router, token)

	rec := doJSON(t, router, http.MethodPost, "/v1/accounts/"+acc.ID+"/deposit", token, map[string]string{"valor": "1000"})
	if rec.Code != http.StatusOK {
		t.Fatalf("deposit: expected 200, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/cards/request", token, map[string]string{"nome": "MARIA TESTE"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("card request: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var card domain.Card
	if err := json.Unmarshal(rec.Body.Bytes(), &card); err != nil {
		t.Fatalf("decode card: %v", err)
	}
	if !card.Limite.Equal(decimal.RequireFromString("1312.50")) {
		t.Errorf("card limit: expected 1312.50, got %s", card.Limite)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/loans/request", token, map[string]any{
		"valor":        "500",
		"qtd_parcelas": 4,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("loan request: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var loan domain.Loan
	if err := json.Unmarshal(rec.Body.Bytes(), &loan); err != nil {
		t.Fatalf("decode loan: %v", err)
	}
	if loan.Status != domain.LoanStatusApproved {
		t.Fatalf("loan status: expected approved, got %q", loan.Status)
	}
	if !loan.ValorTotal.Equal(decimal.RequireFromString("900")) {
		t.Errorf("loan total: expected 900, got %s", loan.ValorTotal)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/loans/"+loan.ID+"/installments", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("installments: expected 200, got %d", rec.Code)
	}
	var inst struct {
		Installments []domain.LoanInstallment `json:"installments"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &inst); err != nil {
		t.Fatalf("decode installments: %v", err)
	}
	if len(inst.Installments) != 4 {
		t.Fatalf("expected 4 installments, got %d", len(inst.Installments))
	}
	sum := decimal.Zero
	for _, p := range inst.Installments {
		sum = sum.Add(p.ValorParcela)
	}
	if !sum.Equal(loan.ValorTotal) {
		t.Errorf("installments must sum to total: got %s, want %s", sum, loan.ValorTotal)
	}
}

func primaryAccount(t *testing.T, router http.Handler, token string) domain.Account {
	t.Helper()

	rec := doJSON(t, router, http.MethodGet, "/v1/accounts", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list accounts: expected 200, got %d", rec.Code)
	}
	var resp struct {
		Accounts []domain.Account `json:"accounts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode accounts: %v", err)
	}
	if len(resp.Accounts) == 0 {
		t.Fatal("no accounts for customer")
	}
	return resp.Accounts[0]
}

func accountBalance(t *testing.T, router http.Handler, token, accountID string) decimal.Decimal {
	t.Helper()

	rec := doJSON(t, router, http.MethodGet, "/v1/accounts/"+accountID+"/balance", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance: expected 200, got %d", rec.Code)
	}
	var balance domain.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &balance); err != nil {
		t.Fatalf("decode balance: %v", err)
	}
	return balance.Saldo
}
