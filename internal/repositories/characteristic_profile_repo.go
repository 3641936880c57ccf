package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/models"
)

type CharacteristicProfileRepository struct {
	db database.DBTX
}

func NewCharacteristicProfileRepository(db database.DBTX) *CharacteristicProfileRepository {
	return &CharacteristicProfileRepository{db: db}
}

func (r *CharacteristicProfileRepository) Create(ctx context.Context, p *models.CharacteristicProfile) (*models.CharacteristicProfile, error) {
	traits := p.Traits
	if traits == nil {
		traits = map[string]interface{}{}
	}
	raw, err := json.Marshal(traits)
	if err != nil {
		return nil, fmt.Errorf("failed to encode traits: %w", err)
	}

	query := `
		INSERT INTO characteristic_profiles (account_id, traits)
		VALUES ($1, $2)
		RETURNING id, account_id, traits, created_at, updated_at
	`

	var out models.CharacteristicProfile
	var stored []byte
	err = r.db.QueryRow(ctx, query, p.AccountID, string(raw)).Scan(
		&out.ID, &out.AccountID, &stored, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	if err := json.Unmarshal(stored, &out.Traits); err != nil {
		return nil, fmt.Errorf("failed to decode traits: %w", err)
	}

	return &out, nil
}

// DeleteByAccountID removes the profile if one exists and reports whether it did.
func (r *CharacteristicProfileRepository) DeleteByAccountID(ctx context.Context, accountID int64) (bool, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM characteristic_profiles WHERE account_id = $1`, accountID)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return result.RowsAffected() > 0, nil
}
