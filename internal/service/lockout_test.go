package service

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rafaelmp/banco-digital-go/internal/domain"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", s, err)
	}
	return d
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestLockoutGuard_LocksAfterThreshold(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	guard := lockoutGuard{now: fixedClock(now)}
	c := &domain.Customer{}

	guard.recordFailure(c)
	guard.recordFailure(c)
	if c.LockedUntil != nil {
		t.Fatal("two failures must not lock the account")
	}

	guard.recordFailure(c)
	if c.LockedUntil == nil {
		t.Fatal("third failure must start a lock")
	}
	if !c.LockedUntil.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("lock expiry: expected %v, got %v", now.Add(15*time.Minute), c.LockedUntil)
	}

	var locked *domain.ErrAccountLocked
	if err := guard.check(c); !errors.As(err, &locked) {
		t.Fatalf("expected ErrAccountLocked while locked, got %v", err)
	}
}

func TestLockoutGuard_RejectsUntilExpiry(t *testing.T) {
	lockStart := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	until := lockStart.Add(15 * time.Minute)
	c := &domain.Customer{LoginAttempts: 3, LockedUntil: &until}

	// One nanosecond before expiry the attempt is still rejected.
	guard := lockoutGuard{now: fixedClock(until.Add(-time.Nanosecond))}
	if err := guard.check(c); err == nil {
		t.Fatal("expected rejection just before lock expiry")
	}

	// At expiry the lock clears lazily and the counter resets.
	guard = lockoutGuard{now: fixedClock(until)}
	if err := guard.check(c); err != nil {
		t.Fatalf("expected cleared lock at expiry, got %v", err)
	}
	if c.LockedUntil != nil {
		t.Error("expired lock must be cleared")
	}
	if c.LoginAttempts != 0 {
		t.Errorf("attempt counter must reset with the lock, got %d", c.LoginAttempts)
	}
}

func TestLockoutGuard_FailureAfterExpiryStartsFreshCount(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	c := &domain.Customer{LoginAttempts: 3, LockedUntil: &past}

	guard := lockoutGuard{now: fixedClock(now)}
	if err := guard.check(c); err != nil {
		t.Fatalf("expected expired lock to clear, got %v", err)
	}

	guard.recordFailure(c)
	if c.LoginAttempts != 1 {
		t.Errorf("expected fresh count 1 after expiry, got %d", c.LoginAttempts)
	}
	if c.LockedUntil != nil {
		t.Error("single failure after expiry must not lock")
	}
}

func TestLockoutGuard_SuccessClearsState(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	guard := lockoutGuard{now: fixedClock(now)}
	until := now.Add(time.Minute)
	c := &domain.Customer{LoginAttempts: 2, LockedUntil: &until}

	guard.recordSuccess(c)
	if c.LoginAttempts != 0 || c.LockedUntil != nil {
		t.Error("success must clear attempts and lock")
	}
	if c.LastLoginAt == nil || !c.LastLoginAt.Equal(now) {
		t.Errorf("expected last login at %v, got %v", now, c.LastLoginAt)
	}
}

func TestBuildInstallments_ExactSum(t *testing.T) {
	cases := []struct {
		total string
		n     int
	}{
		{"900", 4},
		{"180", 3},     // 60 each, no remainder
		{"100.01", 3},  // remainder lands on the last installment
		{"1.8", 7},     // shares truncate below a cent boundary
		{"5399.99", 12},
	}

	for _, tc := range cases {
		loan := &domain.Loan{
			ID:          "loan-1",
			ValorTotal:  mustDecimal(t, tc.total),
			QtdParcelas: tc.n,
		}
		parcelas := buildInstallments(loan, time.Now().UTC())
		if len(parcelas) != tc.n {
			t.Fatalf("%s/%d: expected %d installments, got %d", tc.total, tc.n, tc.n, len(parcelas))
		}

		sum := decimal.Zero
		for i, p := range parcelas {
			if p.NumParcela != i+1 {
				t.Errorf("%s/%d: installment %d numbered %d", tc.total, tc.n, i, p.NumParcela)
			}
			sum = sum.Add(p.ValorParcela)
		}
		if !sum.Equal(loan.ValorTotal) {
			t.Errorf("%s/%d: installments sum to %s, want %s", tc.total, tc.n, sum, loan.ValorTotal)
		}
	}
}
