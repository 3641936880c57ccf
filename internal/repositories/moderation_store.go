package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/services"
	"github.com/jackc/pgx/v5"
)

// PostgresModerationStore binds every moderation repository to one pgx
// transaction per operation.
type PostgresModerationStore struct {
	db *database.DB
}

func NewPostgresModerationStore(db *database.DB) *PostgresModerationStore {
	return &PostgresModerationStore{db: db}
}

func (s *PostgresModerationStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos services.ModerationRepositories) error) error {
	err := s.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		return fn(ctx, services.ModerationRepositories{
			Accounts:        NewAccountRepository(tx),
			Experts:         NewExpertProfileRepository(tx),
			Characteristics: NewCharacteristicProfileRepository(tx),
			Groups:          NewStudyGroupRepository(tx),
			Audit:           NewAuditLogRepository(tx),
		})
	})
	// a lost lock race rolls back cleanly; report it as such
	if database.IsSerializationFailure(err) {
		return fmt.Errorf("%w: %v", models.ErrConcurrentUpdate, err)
	}
	return err
}
