package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/studyhub/internal/models"
)

// AdminAccountRepository is the subset of AccountRepository methods needed by AdminService.
type AdminAccountRepository interface {
	CountModerationStates(ctx context.Context, now time.Time) (*models.ModerationCounts, error)
}

// AdminAuditRepository is the subset of AuditLogRepository methods needed by AdminService.
type AdminAuditRepository interface {
	ListRecent(ctx context.Context, limit int) ([]*models.AuditLog, error)
}

// ActivityEntry is a single item in a recent-activity feed.
type ActivityEntry struct {
	Timestamp  string `json:"timestamp"`
	AdminID    int64  `json:"admin_id"`
	ActionType string `json:"action_type"`
	TargetType string `json:"target_type"`
	TargetID   int64  `json:"target_id"`
	Reason     string `json:"reason,omitempty"`
}

// ModerationOverview contains aggregate moderation metrics.
type ModerationOverview struct {
	Accounts       *models.ModerationCounts `json:"accounts"`
	RecentActivity []ActivityEntry          `json:"recent_activity"`
}

// AdminService aggregates data for admin dashboard endpoints.
type AdminService struct {
	accountRepo AdminAccountRepository
	auditRepo   AdminAuditRepository
	logger      *slog.Logger
	now         func() time.Time
}

// NewAdminService creates a new AdminService.
func NewAdminService(accountRepo AdminAccountRepository, auditRepo AdminAuditRepository, logger *slog.Logger) *AdminService {
	return &AdminService{
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// GetOverview returns account moderation counts and the latest audit entries.
// limit is clamped to a maximum of 20.
func (s *AdminService) GetOverview(ctx context.Context, limit int) (*ModerationOverview, error) {
	if limit <= 0 || limit > 20 {
		limit = 20
	}

	counts, err := s.accountRepo.CountModerationStates(ctx, s.now())
	if err != nil {
		s.logger.Error("dashboard: failed to count accounts", slog.Any("error", err))
		return nil, err
	}

	logs, err := s.auditRepo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("dashboard: failed to fetch recent activity", slog.Any("error", err))
		return nil, err
	}

	activity := make([]ActivityEntry, 0, len(logs))
	for _, l := range logs {
		activity = append(activity, ActivityEntry{
			Timestamp:  l.CreatedAt.UTC().Format(time.RFC3339),
			AdminID:    l.AdminID,
			ActionType: string(l.ActionType),
			TargetType: l.TargetType,
			TargetID:   l.TargetID,
			Reason:     l.Reason,
		})
	}

	return &ModerationOverview{
		Accounts:       counts,
		RecentActivity: activity,
	}, nil
}
