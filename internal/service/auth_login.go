package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

// ============================================================
// Login — POST /v1/auth/login
// ============================================================

// Login authenticates by email and password under the lockout guard. The
// guard check, the password verification and the resulting counter update
// run inside one write transaction, so two racing failed attempts are
// counted as two: an attempt against a locked account is rejected without
// touching the password, the third consecutive failure starts the lock, and
// a success clears it.
func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	var customer *domain.Customer
	err := s.store.WithCustomerForUpdate(ctx, req.Email, func(c *domain.Customer) error {
		if err := s.guard.check(c); err != nil {
			return err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(req.Password)); err != nil {
			s.guard.recordFailure(c)
			if c.LockedUntil != nil {
				s.metrics.RecordLockout()
				s.logger.Warn("login: account locked after repeated failures",
					zap.String("customer_id", c.ID),
					zap.Int("attempts", c.LoginAttempts),
				)
				return &domain.ErrAccountLocked{UnlockAt: *c.LockedUntil}
			}
			s.logger.Warn("login: failed password attempt",
				zap.String("customer_id", c.ID),
				zap.Int("attempts", c.LoginAttempts),
			)
			return &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
		}
		s.guard.recordSuccess(c)
		customer = c
		return nil
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			// Do not leak whether the e-mail exists.
			return nil, &domain.ErrUnauthorized{Message: "Credenciais inválidas"}
		}
		return nil, err
	}

	resp, err := s.issueTokens(ctx, customer)
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer logged in", zap.String("customer_id", customer.ID))
	return resp, nil
}
