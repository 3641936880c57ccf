package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/studyhub/internal/models"
)

// ModerationService is the account lifecycle state machine. Every exported
// operation takes the acting administrator explicitly, runs in one storage
// transaction and writes exactly one audit entry when it succeeds.
//
// Order inside an operation: load and lock the target, safety guards and
// state preconditions, mutation, audit entry. A rejected operation writes
// nothing.
type ModerationService struct {
	store    ModerationStore
	guard    SafetyGuard
	cascade  *CascadeCoordinator
	audit    *AuditService
	notifier AccountNotifier
	logger   *slog.Logger
	now      func() time.Time
}

// ModerationOption configures a ModerationService.
type ModerationOption func(*ModerationService)

// WithClock overrides the time source used for timestamps and for deciding
// whether a suspension is in force.
func WithClock(now func() time.Time) ModerationOption {
	return func(s *ModerationService) {
		s.now = now
	}
}

// WithNotifier sets the notifier called after an action commits.
func WithNotifier(n AccountNotifier) ModerationOption {
	return func(s *ModerationService) {
		s.notifier = n
	}
}

// NewModerationService creates a new ModerationService
func NewModerationService(store ModerationStore, audit *AuditService, logger *slog.Logger, opts ...ModerationOption) *ModerationService {
	s := &ModerationService{
		store:    store,
		cascade:  NewCascadeCoordinator(logger),
		audit:    audit,
		notifier: NoopNotifier{},
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// accountChange describes one account-level operation for mutateAccount.
type accountChange struct {
	action   models.AuditAction
	verb     string
	actorID  int64
	targetID int64
	reason   string

	notSelf bool
	// lastAdmin reports whether the last-admin guard applies to the loaded account.
	lastAdmin func(a *models.Account) bool
	check     func(a *models.Account, now time.Time) error
	// prepare reads whatever else apply needs inside the transaction.
	prepare func(ctx context.Context, repos ModerationRepositories, a *models.Account) error
	apply   func(a *models.Account, now time.Time) models.AuditMetadata
	notify    bool
}

func (s *ModerationService) mutateAccount(ctx context.Context, c accountChange) (*models.Account, error) {
	now := s.now()
	var updated *models.Account

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos ModerationRepositories) error {
		account, err := loadAccount(ctx, repos.Accounts, c.targetID)
		if err != nil {
			return err
		}

		if c.notSelf {
			if err := s.guard.CheckNotSelf(c.actorID, c.targetID, c.verb); err != nil {
				return err
			}
		}

		if c.check != nil {
			if err := c.check(account, now); err != nil {
				return err
			}
		}

		if c.lastAdmin != nil && c.lastAdmin(account) {
			if err := s.guard.CheckLastAdmin(ctx, repos.Accounts, account, c.verb); err != nil {
				return err
			}
		}

		if c.prepare != nil {
			if err := c.prepare(ctx, repos, account); err != nil {
				return err
			}
		}

		metadata := c.apply(account, now)

		updated, err = repos.Accounts.Update(ctx, account)
		if err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}

		_, err = s.audit.Record(ctx, repos.Audit, &models.AuditLog{
			AdminID:    c.actorID,
			ActionType: c.action,
			TargetType: models.AuditTargetAccount,
			TargetID:   c.targetID,
			Reason:     c.reason,
			Metadata:   metadata,
		})
		return err
	})
	if err != nil {
		s.logFailure(ctx, c.action, c.actorID, c.targetID, err)
		return nil, err
	}

	s.logSuccess(ctx, c.action, c.actorID, c.targetID)
	if c.notify {
		s.notify(ctx, updated, c.action, c.reason)
	}

	return updated, nil
}

// Suspend blocks login until the given time. The suspension lapses on its
// own once until has passed; active is left alone.
func (s *ModerationService) Suspend(ctx context.Context, actorID, targetID int64, until time.Time, reason string) (*models.Account, error) {
	until = until.UTC()

	return s.mutateAccount(ctx, accountChange{
		action:   models.AuditActionSuspend,
		verb:     "suspend",
		actorID:  actorID,
		targetID: targetID,
		reason:   reason,
		notSelf:  true,
		check: func(_ *models.Account, now time.Time) error {
			if !until.After(now) {
				return models.InvalidOperation("suspension end must be in the future")
			}
			return nil
		},
		apply: func(a *models.Account, _ time.Time) models.AuditMetadata {
			metadata := models.AuditMetadata{
				"previous_suspended_until": formatTime(a.SuspendedUntil),
				"suspended_until":          until.Format(time.RFC3339),
			}
			a.SuspendedUntil = &until
			a.SuspensionReason = &reason
			return metadata
		},
		notify: true,
	})
}

// Unsuspend clears any suspension. A login disabled separately stays disabled.
func (s *ModerationService) Unsuspend(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return s.mutateAccount(ctx, accountChange{
		action:   models.AuditActionUnsuspend,
		verb:     "unsuspend",
		actorID:  actorID,
		targetID: targetID,
		reason:   reason,
		apply: func(a *models.Account, _ time.Time) models.AuditMetadata {
			metadata := models.AuditMetadata{
				"previous_suspended_until": formatTime(a.SuspendedUntil),
			}
			a.SuspendedUntil = nil
			a.SuspensionReason = nil
			return metadata
		},
		notify: true,
	})
}

// Ban bans the account and disables its login.
func (s *ModerationService) Ban(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return s.mutateAccount(ctx, accountChange{
		action:    models.AuditActionBan,
		verb:      "ban",
		actorID:   actorID,
		targetID:  targetID,
		reason:    reason,
		notSelf:   true,
		lastAdmin: func(*models.Account) bool { return true },
		apply: func(a *models.Account, now time.Time) models.AuditMetadata {
			metadata := models.AuditMetadata{"previous_active": a.Active}
			a.BannedAt = &now
			a.BanReason = &reason
			a.Active = false
			return metadata
		},
		notify: true,
	})
}

// Unban clears the ban. It does not re-enable login.
func (s *ModerationService) Unban(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return s.mutateAccount(ctx, accountChange{
		action:   models.AuditActionUnban,
		verb:     "unban",
		actorID:  actorID,
		targetID: targetID,
		reason:   reason,
		apply: func(a *models.Account, _ time.Time) models.AuditMetadata {
			metadata := models.AuditMetadata{"previous_banned_at": formatTime(a.BannedAt)}
			a.BannedAt = nil
			a.BanReason = nil
			return metadata
		},
		notify: true,
	})
}

// SoftDelete marks the account deleted. Dependent profiles are kept so that
// Restore can bring the account back intact.
func (s *ModerationService) SoftDelete(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return s.mutateAccount(ctx, accountChange{
		action:    models.AuditActionSoftDelete,
		verb:      "delete",
		actorID:   actorID,
		targetID:  targetID,
		reason:    reason,
		notSelf:   true,
		lastAdmin: func(*models.Account) bool { return true },
		check: func(a *models.Account, _ time.Time) error {
			if a.Deleted {
				return models.InvalidOperation("account %d is already deleted", a.ID)
			}
			return nil
		},
		apply: func(a *models.Account, now time.Time) models.AuditMetadata {
			metadata := models.AuditMetadata{"previous_active": a.Active}
			a.Deleted = true
			a.DeletedAt = &now
			a.Active = false
			return metadata
		},
		notify: true,
	})
}

// Restore undeletes the account. Login comes back only if it was enabled
// before the soft delete and the account is neither banned nor suspended now.
func (s *ModerationService) Restore(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	activeBeforeDelete := true

	return s.mutateAccount(ctx, accountChange{
		action:   models.AuditActionRestore,
		verb:     "restore",
		actorID:  actorID,
		targetID: targetID,
		reason:   reason,
		check: func(a *models.Account, _ time.Time) error {
			if !a.Deleted {
				return models.InvalidOperation("account %d is not deleted", a.ID)
			}
			return nil
		},
		prepare: func(ctx context.Context, repos ModerationRepositories, a *models.Account) error {
			entry, err := repos.Audit.LatestForTarget(ctx, models.AuditActionSoftDelete, models.AuditTargetAccount, a.ID)
			if errors.Is(err, models.ErrNotFound) {
				// deleted outside this service; nothing recorded to restore
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to load soft delete entry: %w", err)
			}
			if prev, ok := entry.Metadata["previous_active"].(bool); ok {
				activeBeforeDelete = prev
			}
			return nil
		},
		apply: func(a *models.Account, now time.Time) models.AuditMetadata {
			a.Deleted = false
			a.DeletedAt = nil
			a.Active = activeBeforeDelete && !a.IsBanned() && !a.IsSuspended(now)
			return models.AuditMetadata{
				"active_before_delete": activeBeforeDelete,
				"active_restored":      a.Active,
			}
		},
		notify: true,
	})
}

// UpdateRole changes the account's role. An administrator may promote
// themselves but not demote themselves away from ADMIN.
func (s *ModerationService) UpdateRole(ctx context.Context, actorID, targetID int64, newRole models.Role, reason string) (*models.Account, error) {
	return s.mutateAccount(ctx, accountChange{
		action:   models.AuditActionRoleChange,
		verb:     "demote",
		actorID:  actorID,
		targetID: targetID,
		reason:   reason,
		lastAdmin: func(a *models.Account) bool {
			return a.IsAdmin() && newRole != models.RoleAdmin
		},
		check: func(a *models.Account, _ time.Time) error {
			if !newRole.Valid() {
				return models.InvalidOperation("unknown role %q", newRole)
			}
			if actorID == targetID && a.IsAdmin() && newRole != models.RoleAdmin {
				return models.InvalidOperation("you cannot demote your own account")
			}
			return nil
		},
		apply: func(a *models.Account, _ time.Time) models.AuditMetadata {
			metadata := models.AuditMetadata{
				"previous_role": string(a.Role),
				"new_role":      string(newRole),
			}
			a.Role = newRole
			return metadata
		},
	})
}

// DisableLogin clears the active flag without touching ban or suspension.
func (s *ModerationService) DisableLogin(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return s.mutateAccount(ctx, accountChange{
		action:   models.AuditActionDisableLogin,
		verb:     "disable login for",
		actorID:  actorID,
		targetID: targetID,
		reason:   reason,
		notSelf:  true,
		apply: func(a *models.Account, _ time.Time) models.AuditMetadata {
			metadata := models.AuditMetadata{"previous_active": a.Active}
			a.Active = false
			return metadata
		},
	})
}

// EnableLogin sets the active flag. Banned, suspended and deleted accounts
// are rejected; lifting those is a separate decision.
func (s *ModerationService) EnableLogin(ctx context.Context, actorID, targetID int64, reason string) (*models.Account, error) {
	return s.mutateAccount(ctx, accountChange{
		action:   models.AuditActionEnableLogin,
		verb:     "enable login for",
		actorID:  actorID,
		targetID: targetID,
		reason:   reason,
		check: func(a *models.Account, now time.Time) error {
			switch {
			case a.Deleted:
				return models.InvalidOperation("account %d is deleted; restore it instead", a.ID)
			case a.IsBanned():
				return models.InvalidOperation("account %d is banned; unban it first", a.ID)
			case a.IsSuspended(now):
				return models.InvalidOperation("account %d is suspended; unsuspend it first", a.ID)
			}
			return nil
		},
		apply: func(a *models.Account, _ time.Time) models.AuditMetadata {
			metadata := models.AuditMetadata{"previous_active": a.Active}
			a.Active = true
			return metadata
		},
	})
}

// PermanentDelete removes a soft-deleted account and every record that
// exists only to support it. The audit entry is written before the account
// row is removed, in the same transaction.
func (s *ModerationService) PermanentDelete(ctx context.Context, actorID, targetID int64, reason string) (*CascadeResult, error) {
	const action = models.AuditActionPermanentDelete
	var result *CascadeResult

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos ModerationRepositories) error {
		account, err := loadAccount(ctx, repos.Accounts, targetID)
		if err != nil {
			return err
		}

		if err := s.guard.CheckNotSelf(actorID, targetID, "permanently delete"); err != nil {
			return err
		}

		if !account.Deleted {
			return models.InvalidOperation("account %d must be deleted before it can be permanently deleted", targetID)
		}

		if err := s.guard.CheckLastAdmin(ctx, repos.Accounts, account, "permanently delete"); err != nil {
			return err
		}

		result, err = s.cascade.DeleteAccountDependents(ctx, repos, targetID)
		if err != nil {
			return err
		}

		metadata := result.Metadata()
		metadata["role"] = string(account.Role)
		if account.DeletedAt != nil {
			metadata["deleted_at"] = account.DeletedAt.Format(time.RFC3339)
		}

		_, err = s.audit.Record(ctx, repos.Audit, &models.AuditLog{
			AdminID:    actorID,
			ActionType: action,
			TargetType: models.AuditTargetAccount,
			TargetID:   targetID,
			Reason:     reason,
			Metadata:   metadata,
		})
		if err != nil {
			return err
		}

		if err := repos.Accounts.Delete(ctx, targetID); err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logFailure(ctx, action, actorID, targetID, err)
		return nil, err
	}

	s.logSuccess(ctx, action, actorID, targetID)
	return result, nil
}

// VerifyExpert marks the account's expert profile verified by the actor.
func (s *ModerationService) VerifyExpert(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error) {
	return s.mutateExpert(ctx, expertChange{
		action:    models.AuditActionExpertVerify,
		actorID:   actorID,
		accountID: accountID,
		reason:    reason,
		apply: func(_ context.Context, _ ModerationRepositories, _ *models.Account, p *models.ExpertProfile, now time.Time) (models.AuditMetadata, error) {
			metadata := models.AuditMetadata{
				"expert_profile_id": p.ID,
				"previous_verified": p.IsVerified,
				"verified":          true,
			}
			p.IsVerified = true
			p.VerifiedAt = &now
			p.VerifiedBy = &actorID
			return metadata, nil
		},
	})
}

// RejectExpert deletes the expert profile and returns the account to the
// STUDENT role. The account itself stays active.
func (s *ModerationService) RejectExpert(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error) {
	return s.mutateExpert(ctx, expertChange{
		action:        models.AuditActionExpertReject,
		actorID:       actorID,
		accountID:     accountID,
		reason:        reason,
		requireReason: true,
		apply: func(ctx context.Context, repos ModerationRepositories, a *models.Account, p *models.ExpertProfile, _ time.Time) (models.AuditMetadata, error) {
			if a.IsAdmin() {
				if err := s.guard.CheckLastAdmin(ctx, repos.Accounts, a, "demote"); err != nil {
					return nil, err
				}
			}

			metadata := models.AuditMetadata{
				"expert_profile_id": p.ID,
				"previous_role":     string(a.Role),
				"new_role":          string(models.RoleStudent),
			}

			if _, err := repos.Experts.DeleteByAccountID(ctx, a.ID); err != nil {
				return nil, fmt.Errorf("failed to delete expert profile: %w", err)
			}

			a.Role = models.RoleStudent
			if _, err := repos.Accounts.Update(ctx, a); err != nil {
				return nil, fmt.Errorf("failed to update account: %w", err)
			}
			return metadata, nil
		},
	})
}

// RevokeExpertVerification clears the verification of a verified profile.
// The profile row and the account's role are kept.
func (s *ModerationService) RevokeExpertVerification(ctx context.Context, actorID, accountID int64, reason string) (*models.ExpertProfile, error) {
	return s.mutateExpert(ctx, expertChange{
		action:        models.AuditActionExpertRevoke,
		actorID:       actorID,
		accountID:     accountID,
		reason:        reason,
		requireReason: true,
		apply: func(_ context.Context, _ ModerationRepositories, _ *models.Account, p *models.ExpertProfile, _ time.Time) (models.AuditMetadata, error) {
			if !p.IsVerified {
				return nil, models.InvalidOperation("expert profile %d is not verified", p.ID)
			}

			metadata := models.AuditMetadata{
				"expert_profile_id":    p.ID,
				"previous_verified":    true,
				"verified":             false,
				"previous_verified_at": formatTime(p.VerifiedAt),
				"previous_verified_by": p.VerifiedBy,
			}
			p.IsVerified = false
			p.VerifiedAt = nil
			p.VerifiedBy = nil
			return metadata, nil
		},
	})
}

type expertChange struct {
	action        models.AuditAction
	actorID       int64
	accountID     int64
	reason        string
	requireReason bool
	// apply mutates p in memory; profile persistence is handled by
	// mutateExpert unless apply removed the profile itself.
	apply func(ctx context.Context, repos ModerationRepositories, a *models.Account, p *models.ExpertProfile, now time.Time) (models.AuditMetadata, error)
}

func (s *ModerationService) mutateExpert(ctx context.Context, c expertChange) (*models.ExpertProfile, error) {
	if c.requireReason && strings.TrimSpace(c.reason) == "" {
		err := models.InvalidOperation("a reason is required")
		s.logFailure(ctx, c.action, c.actorID, c.accountID, err)
		return nil, err
	}

	now := s.now()
	var profile *models.ExpertProfile
	var account *models.Account

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos ModerationRepositories) error {
		var err error
		account, err = loadAccount(ctx, repos.Accounts, c.accountID)
		if err != nil {
			return err
		}

		profile, err = repos.Experts.GetByAccountID(ctx, c.accountID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("expert profile for account %d: %w", c.accountID, models.ErrNotFound)
			}
			return fmt.Errorf("failed to load expert profile: %w", err)
		}

		metadata, err := c.apply(ctx, repos, account, profile, now)
		if err != nil {
			return err
		}

		if c.action != models.AuditActionExpertReject {
			profile, err = repos.Experts.Update(ctx, profile)
			if err != nil {
				return fmt.Errorf("failed to update expert profile: %w", err)
			}
		}

		_, err = s.audit.Record(ctx, repos.Audit, &models.AuditLog{
			AdminID:    c.actorID,
			ActionType: c.action,
			TargetType: models.AuditTargetAccount,
			TargetID:   c.accountID,
			Reason:     c.reason,
			Metadata:   metadata,
		})
		return err
	})
	if err != nil {
		s.logFailure(ctx, c.action, c.actorID, c.accountID, err)
		return nil, err
	}

	s.logSuccess(ctx, c.action, c.actorID, c.accountID)
	s.notify(ctx, account, c.action, c.reason)

	return profile, nil
}

// DeleteGroup removes a study group and its memberships as a content
// moderation action.
func (s *ModerationService) DeleteGroup(ctx context.Context, actorID, groupID int64, reason string) error {
	const action = models.AuditActionGroupDelete

	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos ModerationRepositories) error {
		group, err := repos.Groups.GetByID(ctx, groupID)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return models.NotFound("study group", groupID)
			}
			return fmt.Errorf("failed to load study group: %w", err)
		}

		removed, err := s.cascade.DeleteGroup(ctx, repos, groupID)
		if err != nil {
			return err
		}

		_, err = s.audit.Record(ctx, repos.Audit, &models.AuditLog{
			AdminID:    actorID,
			ActionType: action,
			TargetType: models.AuditTargetGroup,
			TargetID:   groupID,
			Reason:     reason,
			Metadata: models.AuditMetadata{
				"group_name":          group.Name,
				"creator_id":          group.CreatorID,
				"memberships_deleted": removed,
			},
		})
		return err
	})
	if err != nil {
		s.logFailure(ctx, action, actorID, groupID, err)
		return err
	}

	s.logSuccess(ctx, action, actorID, groupID)
	return nil
}

func loadAccount(ctx context.Context, accounts AccountRepository, id int64) (*models.Account, error) {
	account, err := accounts.LockByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("account", id)
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return account, nil
}

func (s *ModerationService) notify(ctx context.Context, account *models.Account, action models.AuditAction, reason string) {
	if account == nil {
		return
	}
	if err := s.notifier.NotifyAccountAction(ctx, account, action, reason); err != nil {
		s.logger.WarnContext(ctx, "moderation notice not delivered",
			slog.Int64("account_id", account.ID),
			slog.String("action", string(action)),
			slog.Any("error", err),
		)
	}
}

func (s *ModerationService) logSuccess(ctx context.Context, action models.AuditAction, actorID, targetID int64) {
	s.logger.InfoContext(ctx, "account moderated",
		slog.String("action", string(action)),
		slog.Int64("admin_id", actorID),
		slog.Int64("target_id", targetID),
	)
}

func (s *ModerationService) logFailure(ctx context.Context, action models.AuditAction, actorID, targetID int64, err error) {
	attrs := []any{
		slog.String("action", string(action)),
		slog.Int64("admin_id", actorID),
		slog.Int64("target_id", targetID),
		slog.Any("error", err),
	}

	if errors.Is(err, models.ErrInvalidOperation) || errors.Is(err, models.ErrNotFound) {
		s.logger.WarnContext(ctx, "moderation rejected", attrs...)
		return
	}
	if errors.Is(err, models.ErrConcurrentUpdate) {
		s.logger.WarnContext(ctx, "moderation lost a concurrent update", attrs...)
		return
	}
	s.logger.ErrorContext(ctx, "moderation failed", attrs...)
}

func formatTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
