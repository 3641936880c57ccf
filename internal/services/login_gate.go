package services

import (
	"context"
	"errors"
	"time"

	"github.com/BradenHooton/studyhub/internal/models"
)

// AccountReader loads accounts outside of a moderation transaction.
type AccountReader interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
}

// AccountStatus is an account with its derived login eligibility.
type AccountStatus struct {
	Account          *models.Account
	CanLogin         bool
	LoginBlockReason string
}

// LoginGate evaluates the derived login predicate against stored accounts.
// It never writes: an expired suspension simply stops blocking.
type LoginGate struct {
	accounts AccountReader
	now      func() time.Time
}

func NewLoginGate(accounts AccountReader, opts ...func(*LoginGate)) *LoginGate {
	g := &LoginGate{
		accounts: accounts,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithGateClock overrides the gate's time source.
func WithGateClock(now func() time.Time) func(*LoginGate) {
	return func(g *LoginGate) {
		g.now = now
	}
}

// Check returns nil when the account may log in, otherwise one of the
// models.ErrAccount* errors or a not-found error.
func (g *LoginGate) Check(ctx context.Context, accountID int64) error {
	account, err := g.load(ctx, accountID)
	if err != nil {
		return err
	}
	return account.LoginBlockReason(g.now())
}

// Status returns the account together with its login eligibility.
func (g *LoginGate) Status(ctx context.Context, accountID int64) (*AccountStatus, error) {
	account, err := g.load(ctx, accountID)
	if err != nil {
		return nil, err
	}

	status := &AccountStatus{Account: account, CanLogin: true}
	if reason := account.LoginBlockReason(g.now()); reason != nil {
		status.CanLogin = false
		status.LoginBlockReason = reason.Error()
	}
	return status, nil
}

func (g *LoginGate) load(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := g.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("account", accountID)
		}
		return nil, err
	}
	return account, nil
}
