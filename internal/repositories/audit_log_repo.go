package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/studyhub/internal/database"
	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const auditLogColumns = `id, admin_id, action_type, target_type, target_id, reason, metadata, created_at`

// AuditLogRepository handles audit log data access. Entries are append-only:
// the repository exposes no update or delete.
type AuditLogRepository struct {
	db database.DBTX
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db database.DBTX) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// scanAuditLogRow handles nullable fields and populates an AuditLog model from a database row
func scanAuditLogRow(row rowScanner) (*models.AuditLog, error) {
	var log models.AuditLog
	var action string

	err := row.Scan(
		&log.ID, &log.AdminID, &action, &log.TargetType, &log.TargetID,
		&log.Reason, &log.Metadata, &log.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	log.ActionType = models.AuditAction(action)

	return &log, nil
}

// scanAuditLogRows iterates through rows and scans each into AuditLog models
func scanAuditLogRows(rows pgx.Rows) ([]*models.AuditLog, error) {
	defer rows.Close()

	logs := make([]*models.AuditLog, 0)

	for rows.Next() {
		log, err := scanAuditLogRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit log rows: %w", err)
	}

	return logs, nil
}

// Create appends an audit log entry. A missing ID is generated here.
func (r *AuditLogRepository) Create(ctx context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}

	query := `
		INSERT INTO audit_logs (id, admin_id, action_type, target_type, target_id, reason, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + auditLogColumns

	result, err := scanAuditLogRow(r.db.QueryRow(
		ctx, query,
		log.ID, log.AdminID, string(log.ActionType), log.TargetType, log.TargetID, log.Reason, log.Metadata,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create audit log: %w", err)
	}

	return result, nil
}

// LatestForTarget returns the newest entry of one action recorded against a target
func (r *AuditLogRepository) LatestForTarget(ctx context.Context, action models.AuditAction, targetType string, targetID int64) (*models.AuditLog, error) {
	query := `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		WHERE action_type = $1 AND target_type = $2 AND target_id = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	return scanAuditLogRow(r.db.QueryRow(ctx, query, string(action), targetType, targetID))
}

// ListForAccount returns the entries recorded against the account or written
// by it, newest first.
func (r *AuditLogRepository) ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		WHERE (target_type = $1 AND target_id = $2) OR admin_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := r.db.Query(ctx, query, models.AuditTargetAccount, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	return scanAuditLogRows(rows)
}

// CountForAccount counts the entries ListForAccount would return unpaginated.
func (r *AuditLogRepository) CountForAccount(ctx context.Context, accountID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM audit_logs
		WHERE (target_type = $1 AND target_id = $2) OR admin_id = $2
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, models.AuditTargetAccount, accountID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	return count, nil
}

// ListByAdmin returns the entries written by one administrator
func (r *AuditLogRepository) ListByAdmin(ctx context.Context, adminID int64, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		WHERE admin_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, adminID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	return scanAuditLogRows(rows)
}

// ListByAction retrieves audit logs by action type
func (r *AuditLogRepository) ListByAction(ctx context.Context, action models.AuditAction, limit, offset int) ([]*models.AuditLog, error) {
	query := `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		WHERE action_type = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, string(action), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit logs: %w", err)
	}

	return scanAuditLogRows(rows)
}

// ListRecent returns the newest entries across all targets
func (r *AuditLogRepository) ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error) {
	query := `
		SELECT ` + auditLogColumns + `
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent audit logs: %w", err)
	}

	return scanAuditLogRows(rows)
}
