package services

import (
	"context"

	"github.com/BradenHooton/studyhub/internal/models"
)

// AccountRepository is the account access the moderation operations need.
type AccountRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Account, error)
	LockByID(ctx context.Context, id int64) (*models.Account, error)
	Update(ctx context.Context, account *models.Account) (*models.Account, error)
	Delete(ctx context.Context, id int64) error
	CountFunctionalAdmins(ctx context.Context) (int64, error)
}

// ExpertProfileRepository manages expert qualification profiles.
type ExpertProfileRepository interface {
	GetByAccountID(ctx context.Context, accountID int64) (*models.ExpertProfile, error)
	Update(ctx context.Context, profile *models.ExpertProfile) (*models.ExpertProfile, error)
	DeleteByAccountID(ctx context.Context, accountID int64) (bool, error)
}

// CharacteristicProfileRepository manages characteristic (quiz) profiles.
type CharacteristicProfileRepository interface {
	DeleteByAccountID(ctx context.Context, accountID int64) (bool, error)
}

// StudyGroupRepository manages study groups and their membership rows.
type StudyGroupRepository interface {
	GetByID(ctx context.Context, id int64) (*models.StudyGroup, error)
	ListByCreator(ctx context.Context, creatorID int64) ([]*models.StudyGroup, error)
	DeleteMemberships(ctx context.Context, groupID int64) (int64, error)
	DeleteAccountMemberships(ctx context.Context, accountID int64) (int64, error)
	Delete(ctx context.Context, groupID int64) error
}

// AuditLogWriter appends audit entries. LatestForTarget returns the newest
// entry of action against the target, or models.ErrNotFound.
type AuditLogWriter interface {
	Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error)
	LatestForTarget(ctx context.Context, action models.AuditAction, targetType string, targetID int64) (*models.AuditLog, error)
}

// ModerationRepositories groups the repositories bound to one transaction.
type ModerationRepositories struct {
	Accounts        AccountRepository
	Experts         ExpertProfileRepository
	Characteristics CharacteristicProfileRepository
	Groups          StudyGroupRepository
	Audit           AuditLogWriter
}

// ModerationStore runs fn inside a single storage transaction. The
// transaction commits only if fn returns nil.
type ModerationStore interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos ModerationRepositories) error) error
}
