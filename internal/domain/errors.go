package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Error types for consistent error handling across the engine.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrInsufficientFunds indicates not enough balance for the operation.
type ErrInsufficientFunds struct {
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *ErrInsufficientFunds) Error() string {
	return fmt.Sprintf("insufficient funds: available=%s required=%s",
		e.Available.StringFixed(2), e.Required.StringFixed(2))
}

// ErrLimitExceeded indicates a card spend above the card's credit limit.
type ErrLimitExceeded struct {
	Limit     decimal.Decimal
	Requested decimal.Decimal
}

func (e *ErrLimitExceeded) Error() string {
	return fmt.Sprintf("limite excedido: limite=%s solicitado=%s",
		e.Limit.StringFixed(2), e.Requested.StringFixed(2))
}

// ErrAccountLocked indicates authentication is blocked by the lockout guard.
type ErrAccountLocked struct {
	UnlockAt time.Time
}

func (e *ErrAccountLocked) Error() string {
	return "Conta bloqueada por excesso de tentativas. Tente novamente mais tarde"
}

// ErrUnauthorized indicates invalid credentials or token.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrConflict indicates a resource already exists (e.g. duplicate CPF or email).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrStorage indicates a backend failure during a persistence operation. The
// enclosing transaction is rolled back before it surfaces, so no partial
// mutation is ever visible. The wrapped error stays out of API responses.
type ErrStorage struct {
	Op  string
	Err error
}

func (e *ErrStorage) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *ErrStorage) Unwrap() error {
	return e.Err
}
