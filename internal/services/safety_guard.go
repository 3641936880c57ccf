package services

import (
	"context"
	"fmt"

	"github.com/BradenHooton/studyhub/internal/models"
)

// SafetyGuard holds the checks that keep administrators from locking
// themselves or the whole platform out. Both checks run before any mutation.
type SafetyGuard struct{}

// CheckNotSelf rejects an action the acting administrator aims at their own account.
func (SafetyGuard) CheckNotSelf(actorID, targetID int64, action string) error {
	if actorID == targetID {
		return models.InvalidOperation("you cannot %s your own account", action)
	}
	return nil
}

// CheckLastAdmin rejects an action that would take away the last functional
// administrator. It only applies when target currently counts as one.
func (SafetyGuard) CheckLastAdmin(ctx context.Context, accounts AccountRepository, target *models.Account, action string) error {
	if !target.IsFunctionalAdmin() {
		return nil
	}

	count, err := accounts.CountFunctionalAdmins(ctx)
	if err != nil {
		return fmt.Errorf("failed to count administrators: %w", err)
	}

	if count <= 1 {
		return models.InvalidOperation("cannot %s the last administrator", action)
	}
	return nil
}
