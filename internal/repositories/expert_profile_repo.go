package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/models"
)

const expertProfileColumns = `id, account_id, specialization, bio, is_verified, verified_at, verified_by, created_at, updated_at`

type ExpertProfileRepository struct {
	db database.DBTX
}

func NewExpertProfileRepository(db database.DBTX) *ExpertProfileRepository {
	return &ExpertProfileRepository{db: db}
}

func scanExpertProfileRow(row rowScanner) (*models.ExpertProfile, error) {
	var p models.ExpertProfile

	err := row.Scan(
		&p.ID, &p.AccountID, &p.Specialization, &p.Bio, &p.IsVerified,
		&p.VerifiedAt, &p.VerifiedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &p, nil
}

// GetByAccountID returns the expert profile owned by accountID, locking it
// for the rest of the transaction when called inside one.
func (r *ExpertProfileRepository) GetByAccountID(ctx context.Context, accountID int64) (*models.ExpertProfile, error) {
	query := `SELECT ` + expertProfileColumns + ` FROM expert_profiles WHERE account_id = $1 FOR UPDATE`
	return scanExpertProfileRow(r.db.QueryRow(ctx, query, accountID))
}

func (r *ExpertProfileRepository) Create(ctx context.Context, p *models.ExpertProfile) (*models.ExpertProfile, error) {
	query := `
		INSERT INTO expert_profiles (account_id, specialization, bio)
		VALUES ($1, $2, $3)
		RETURNING ` + expertProfileColumns

	result, err := scanExpertProfileRow(r.db.QueryRow(ctx, query, p.AccountID, p.Specialization, p.Bio))
	if err != nil {
		return nil, fmt.Errorf("failed to create expert profile: %w", err)
	}

	return result, nil
}

// Update writes the verification fields of the profile.
func (r *ExpertProfileRepository) Update(ctx context.Context, p *models.ExpertProfile) (*models.ExpertProfile, error) {
	query := `
		UPDATE expert_profiles
		SET is_verified = $1, verified_at = $2, verified_by = $3, updated_at = $4
		WHERE id = $5
		RETURNING ` + expertProfileColumns

	return scanExpertProfileRow(r.db.QueryRow(ctx, query,
		p.IsVerified, p.VerifiedAt, p.VerifiedBy, time.Now().UTC(), p.ID,
	))
}

// DeleteByAccountID removes the profile if one exists and reports whether it did.
func (r *ExpertProfileRepository) DeleteByAccountID(ctx context.Context, accountID int64) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM expert_profiles WHERE account_id = $1`, accountID)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return result.RowsAffected() > 0, nil
}
