package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/jackc/pgx/v5"
)

type StudyGroupRepository struct {
	db database.DBTX
}

func NewStudyGroupRepository(db database.DBTX) *StudyGroupRepository {
	return &StudyGroupRepository{db: db}
}

func scanStudyGroupRow(row rowScanner) (*models.StudyGroup, error) {
	var g models.StudyGroup
	if err := row.Scan(&g.ID, &g.Name, &g.CreatorID, &g.CreatedAt); err != nil {
		return nil, database.MapPostgresError(err)
	}
	return &g, nil
}

func scanStudyGroupRows(rows pgx.Rows) ([]*models.StudyGroup, error) {
	defer rows.Close()

	groups := make([]*models.StudyGroup, 0)
	for rows.Next() {
		g, err := scanStudyGroupRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study group: %w", err)
		}
		groups = append(groups, g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating study group rows: %w", err)
	}

	return groups, nil
}

func (r *StudyGroupRepository) GetByID(ctx context.Context, id int64) (*models.StudyGroup, error) {
	query := `SELECT id, name, creator_id, created_at FROM study_groups WHERE id = $1 FOR UPDATE`
	return scanStudyGroupRow(r.db.QueryRow(ctx, query, id))
}

func (r *StudyGroupRepository) Create(ctx context.Context, g *models.StudyGroup) (*models.StudyGroup, error) {
	query := `
		INSERT INTO study_groups (name, creator_id)
		VALUES ($1, $2)
		RETURNING id, name, creator_id, created_at
	`
	return scanStudyGroupRow(r.db.QueryRow(ctx, query, g.Name, g.CreatorID))
}

// ListByCreator returns the groups created by the account, oldest first.
func (r *StudyGroupRepository) ListByCreator(ctx context.Context, creatorID int64) ([]*models.StudyGroup, error) {
	query := `
		SELECT id, name, creator_id, created_at
		FROM study_groups
		WHERE creator_id = $1
		ORDER BY id
		FOR UPDATE
	`

	rows, err := r.db.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query study groups: %w", err)
	}

	return scanStudyGroupRows(rows)
}

func (r *StudyGroupRepository) AddMember(ctx context.Context, groupID, accountID int64) error {
	query := `INSERT INTO group_memberships (group_id, account_id) VALUES ($1, $2)`
	if _, err := r.db.Exec(ctx, query, groupID, accountID); err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}

// DeleteMemberships removes every membership of the group and returns how many were removed.
func (r *StudyGroupRepository) DeleteMemberships(ctx context.Context, groupID int64) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM group_memberships WHERE group_id = $1`, groupID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

// DeleteAccountMemberships removes the account from every group it joined.
func (r *StudyGroupRepository) DeleteAccountMemberships(ctx context.Context, accountID int64) (int64, error) {
	result, err := r.db.Exec(ctx, `DELETE FROM group_memberships WHERE account_id = $1`, accountID)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return result.RowsAffected(), nil
}

// Delete removes the group row. Group messages follow through ON DELETE CASCADE.
func (r *StudyGroupRepository) Delete(ctx context.Context, groupID int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM study_groups WHERE id = $1`, groupID)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// CountMembers returns the number of members of the group
func (r *StudyGroupRepository) CountMembers(ctx context.Context, groupID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM group_memberships WHERE group_id = $1`, groupID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}
