package domain

import "time"

// ============================================================
// Identity and auth
// ============================================================

// Customer statuses for registration review.
const (
	CustomerStatusPending  = "Em Análise"
	CustomerStatusApproved = "Aprovado"
)

// Customer is a registered account holder. Login lockout state lives on the
// customer row so the guard can read and update it in one transaction.
type Customer struct {
	ID            string     `json:"id"`
	Nome          string     `json:"nome"`
	CPF           string     `json:"cpf"`
	Email         string     `json:"email"`
	DataNasc      string     `json:"data_nascimento"`
	Status        string     `json:"status"`
	PasswordHash  string     `json:"-"`
	LoginAttempts int        `json:"-"`
	LockedUntil   *time.Time `json:"-"`
	LastLoginAt   *time.Time `json:"-"`
	CreatedAt     time.Time  `json:"created_at"`
}

// RegisterRequest is the body for POST /v1/auth/register.
type RegisterRequest struct {
	Nome     string `json:"nome"`
	CPF      string `json:"cpf"`
	Email    string `json:"email"`
	DataNasc string `json:"data_nascimento"`
	Password string `json:"password"`
}

// RegisterResponse is the body for 201 from POST /v1/auth/register.
type RegisterResponse struct {
	CustomerID string `json:"customer_id"`
	Agencia    string `json:"agencia"`
	Conta      string `json:"conta"`
	Message    string `json:"message"`
}

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body for 200 from POST /v1/auth/login.
type LoginResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	CustomerID   string `json:"customer_id"`
	CustomerName string `json:"customer_name"`
}

// RefreshRequest is the body for POST /v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshToken is a stored (hashed) refresh token.
type RefreshToken struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id"`
	TokenHash  string    `json:"token_hash"`
	ExpiresAt  time.Time `json:"expires_at"`
	Revoked    bool      `json:"revoked"`
}
