package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/jackc/pgx/v5"
)

const accountColumns = `id, email, name, role, active, deleted, deleted_at, suspended_until,
	suspension_reason, banned_at, ban_reason, created_at, updated_at`

type AccountRepository struct {
	db database.DBTX
}

// NewAccountRepository binds the repository to a pool or a transaction.
func NewAccountRepository(db database.DBTX) *AccountRepository {
	return &AccountRepository{db: db}
}

// rowScanner interface for scanning rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccountRow(scanner rowScanner) (*models.Account, error) {
	var a models.Account
	var role string

	err := scanner.Scan(
		&a.ID, &a.Email, &a.Name, &role, &a.Active, &a.Deleted, &a.DeletedAt, &a.SuspendedUntil,
		&a.SuspensionReason, &a.BannedAt, &a.BanReason, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	a.Role = models.Role(role)

	return &a, nil
}

func scanAccountRows(rows pgx.Rows) ([]*models.Account, error) {
	defer rows.Close()

	accounts := make([]*models.Account, 0)
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accounts, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return scanAccountRow(r.db.QueryRow(ctx, query, id))
}

// LockByID reads the account and holds its row lock until the surrounding
// transaction ends, serializing moderation actions on the same account.
func (r *AccountRepository) LockByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return scanAccountRow(r.db.QueryRow(ctx, query, id))
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return scanAccountRow(r.db.QueryRow(ctx, query, email))
}

func (r *AccountRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if a.Role == "" {
		a.Role = models.RoleStudent
	}

	query := `
		INSERT INTO accounts (email, name, role, active)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + accountColumns

	return scanAccountRow(r.db.QueryRow(ctx, query, a.Email, a.Name, string(a.Role), a.Active))
}

// Update writes every moderation field of the account.
func (r *AccountRepository) Update(ctx context.Context, a *models.Account) (*models.Account, error) {
	query := `
		UPDATE accounts SET role = $1, active = $2, deleted = $3, deleted_at = $4,
			suspended_until = $5, suspension_reason = $6, banned_at = $7, ban_reason = $8,
			updated_at = $9
		WHERE id = $10
		RETURNING ` + accountColumns

	return scanAccountRow(r.db.QueryRow(ctx, query,
		string(a.Role), a.Active, a.Deleted, a.DeletedAt,
		a.SuspendedUntil, a.SuspensionReason, a.BannedAt, a.BanReason,
		time.Now().UTC(), a.ID,
	))
}

func (r *AccountRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// CountFunctionalAdmins counts ADMIN accounts that are neither deleted nor
// banned. The rows are locked so concurrent demotions of different admins
// cannot both observe a count of two.
func (r *AccountRepository) CountFunctionalAdmins(ctx context.Context) (int64, error) {
	query := `
		SELECT id FROM accounts
		WHERE role = 'ADMIN' AND deleted = FALSE AND banned_at IS NULL
		FOR UPDATE
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	defer rows.Close()

	var count int64
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}

	return count, nil
}

// List returns accounts ordered by id.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY id LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}

	return scanAccountRows(rows)
}

// CountModerationStates aggregates the moderation state of all accounts at now.
func (r *AccountRepository) CountModerationStates(ctx context.Context, now time.Time) (*models.ModerationCounts, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE role = 'ADMIN' AND deleted = FALSE AND banned_at IS NULL),
			COUNT(*) FILTER (WHERE banned_at IS NOT NULL),
			COUNT(*) FILTER (WHERE suspended_until > $1),
			COUNT(*) FILTER (WHERE deleted = TRUE),
			COUNT(*) FILTER (WHERE active = FALSE AND deleted = FALSE AND banned_at IS NULL
				AND (suspended_until IS NULL OR suspended_until <= $1)),
			(SELECT COUNT(*) FROM expert_profiles WHERE is_verified = FALSE)
		FROM accounts
	`

	var c models.ModerationCounts
	err := r.db.QueryRow(ctx, query, now).Scan(
		&c.Total, &c.FunctionalAdmins, &c.Banned, &c.Suspended, &c.Deleted, &c.LoginDisabled, &c.PendingExperts,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count moderation states: %w", err)
	}

	return &c, nil
}
