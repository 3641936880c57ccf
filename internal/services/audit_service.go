package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/studyhub/internal/models"
)

// Page bounds for audit trail and account listings
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// AuditQueryRepository reads committed audit entries.
type AuditQueryRepository interface {
	ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditLog, error)
	CountForAccount(ctx context.Context, accountID int64) (int64, error)
	ListByAdmin(ctx context.Context, adminID int64, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action models.AuditAction, limit, offset int) ([]*models.AuditLog, error)
}

// AuditService handles audit logging with dual-write pattern (slog + database).
//
// Unlike request logging, an audit write is part of the moderation
// transaction: if the row cannot be written the whole operation fails.
type AuditService struct {
	queries AuditQueryRepository
	logger  *slog.Logger
}

// NewAuditService creates a new AuditService
func NewAuditService(queries AuditQueryRepository, logger *slog.Logger) *AuditService {
	return &AuditService{
		queries: queries,
		logger:  logger,
	}
}

// Record appends entry through w, which must be bound to the caller's transaction.
func (s *AuditService) Record(ctx context.Context, w AuditLogWriter, entry *models.AuditLog) (*models.AuditLog, error) {
	created, err := w.Create(ctx, entry)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit log",
			slog.String("action", string(entry.ActionType)),
			slog.Int64("target_id", entry.TargetID),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to write audit entry: %w", err)
	}

	s.logger.InfoContext(ctx, "audit event",
		slog.String("audit_id", created.ID.String()),
		slog.Int64("admin_id", created.AdminID),
		slog.String("action", string(created.ActionType)),
		slog.String("target_type", created.TargetType),
		slog.Int64("target_id", created.TargetID),
		slog.Any("metadata", created.Metadata),
	)

	return created, nil
}

// GetAccountAuditTrail returns a page of entries recorded against the
// account or written by it, and the total number of such entries.
func (s *AuditService) GetAccountAuditTrail(ctx context.Context, accountID int64, limit, offset int) ([]*models.AuditLog, int64, error) {
	limit, offset = clampPage(limit, offset)

	logs, err := s.queries.ListForAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.queries.CountForAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}

// ListByAdmin returns a page of entries written by the administrator.
func (s *AuditService) ListByAdmin(ctx context.Context, adminID int64, limit, offset int) ([]*models.AuditLog, error) {
	limit, offset = clampPage(limit, offset)
	return s.queries.ListByAdmin(ctx, adminID, limit, offset)
}

// ListByAction returns a page of entries of one action type. Unknown
// action names are rejected with ErrBadRequest.
func (s *AuditService) ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error) {
	parsed, err := models.ParseAuditAction(action)
	if err != nil {
		return nil, err
	}

	limit, offset = clampPage(limit, offset)
	return s.queries.ListByAction(ctx, parsed, limit, offset)
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
