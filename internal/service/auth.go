// Package service — AuthService handles registration, authentication and
// JWT token management.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
	"github.com/rafaelmp/banco-digital-go/internal/infra/observability"
	"github.com/rafaelmp/banco-digital-go/internal/port"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost = 12

	// New registrations leave review automatically after this long.
	reviewPeriod = 3 * time.Minute
)

// AuthService orchestrates authentication flows.
type AuthService struct {
	store      port.AuthStore
	guard      lockoutGuard
	metrics    *observability.Metrics
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(store port.AuthStore, metrics *observability.Metrics, jwtSecret string, accessTTL, refreshTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		store:      store,
		guard:      lockoutGuard{now: time.Now},
		metrics:    metrics,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// ============================================================
// Register — POST /v1/auth/register
// ============================================================

func (s *AuthService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.RegisterResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Register")
	defer span.End()

	if req.Nome == "" {
		return nil, &domain.ErrValidation{Field: "nome", Message: "obrigatório"}
	}
	if req.CPF == "" {
		return nil, &domain.ErrValidation{Field: "cpf", Message: "obrigatório"}
	}
	if !strings.Contains(req.Email, "@") {
		return nil, &domain.ErrValidation{Field: "email", Message: "e-mail inválido"}
	}
	if len(req.Password) < 6 {
		return nil, &domain.ErrValidation{Field: "password", Message: "Senha deve ter ao menos 6 caracteres"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	customer := &domain.Customer{
		ID:           uuid.New().String(),
		Nome:         req.Nome,
		CPF:          req.CPF,
		Email:        req.Email,
		DataNasc:     req.DataNasc,
		Status:       domain.CustomerStatusPending,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	account := &domain.Account{
		ID:         uuid.New().String(),
		CustomerID: customer.ID,
		Agencia:    defaultAgencia,
		Numero:     randomAccountNumber(),
		Saldo:      decimal.Zero,
		CreatedAt:  now,
	}

	if err := s.store.CreateCustomerWithAccount(ctx, customer, account); err != nil {
		return nil, err
	}

	s.logger.Info("customer registered",
		zap.String("customer_id", customer.ID),
	)
	return &domain.RegisterResponse{
		CustomerID: customer.ID,
		Agencia:    account.Agencia,
		Conta:      account.Numero,
		Message:    "Cadastro recebido e em análise",
	}, nil
}

// ============================================================
// Me — GET /v1/me
// ============================================================

// Me returns the caller's profile. Registrations still under review flip to
// approved once the review period has elapsed.
func (s *AuthService) Me(ctx context.Context, customerID string) (*domain.Customer, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Me")
	defer span.End()

	c, err := s.store.GetCustomerByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if c.Status == domain.CustomerStatusPending && time.Since(c.CreatedAt) >= reviewPeriod {
		if err := s.store.UpdateCustomerStatus(ctx, c.ID, domain.CustomerStatusApproved); err != nil {
			return nil, err
		}
		c.Status = domain.CustomerStatusApproved
	}
	return c, nil
}

// ============================================================
// Refresh — POST /v1/auth/refresh
// ============================================================

func (s *AuthService) Refresh(ctx context.Context, req *domain.RefreshRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Refresh")
	defer span.End()

	tokenHash := hashToken(req.RefreshToken)

	stored, err := s.store.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização inválido"}
	}
	if stored.Revoked {
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização inválido"}
	}
	if stored.ExpiresAt.Before(time.Now()) {
		s.logger.Warn("refresh: expired token used",
			zap.String("customer_id", stored.CustomerID),
		)
		_ = s.store.RevokeRefreshToken(ctx, tokenHash)
		return nil, &domain.ErrUnauthorized{Message: "Token de atualização expirado"}
	}

	// Rotation: the presented token is spent either way.
	if err := s.store.RevokeRefreshToken(ctx, tokenHash); err != nil {
		return nil, err
	}

	customer, err := s.store.GetCustomerByID(ctx, stored.CustomerID)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, customer)
}

// ============================================================
// Logout — POST /v1/auth/logout
// ============================================================

func (s *AuthService) Logout(ctx context.Context, customerID string) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if err := s.store.RevokeAllRefreshTokens(ctx, customerID); err != nil {
		return err
	}

	s.logger.Info("customer logged out", zap.String("customer_id", customerID))
	return nil
}

// ============================================================
// ValidateToken — used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido ou expirado"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token inválido"}
	}

	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Tipo de token inválido"}
	}

	return claims, nil
}

// ============================================================
// Internal helpers
// ============================================================

func (s *AuthService) issueTokens(ctx context.Context, customer *domain.Customer) (*domain.LoginResponse, error) {
	accessToken, err := s.signAccessToken(customer.ID)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refreshToken, refreshHash, err := s.generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.store.StoreRefreshToken(ctx, customer.ID, refreshHash, time.Now().Add(s.refreshTTL)); err != nil {
		return nil, err
	}

	return &domain.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(s.accessTTL.Seconds()),
		CustomerID:   customer.ID,
		CustomerName: customer.Nome,
	}, nil
}

func (s *AuthService) signAccessToken(customerID string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:  customerID,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "banco-digital-api",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func (s *AuthService) generateRefreshToken() (raw string, hashed string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", err
	}
	raw = hex.EncodeToString(b)
	hashed = hashToken(raw)
	return raw, hashed, nil
}

func hashToken(token string) string {
	h := sha256.Sum256([]byte(token))
	return hex.EncodeToString(h[:])
}
