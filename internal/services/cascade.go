package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/BradenHooton/studyhub/internal/models"
)

// CascadeResult reports what a cascade removed.
type CascadeResult struct {
	ExpertProfileDeleted         bool  `json:"expert_profile_deleted"`
	CharacteristicProfileDeleted bool  `json:"characteristic_profile_deleted"`
	GroupsDeleted                int   `json:"groups_deleted"`
	MembershipsDeleted           int64 `json:"memberships_deleted"`
}

// Metadata renders the result for an audit entry.
func (r *CascadeResult) Metadata() models.AuditMetadata {
	return models.AuditMetadata{
		"expert_profile_deleted":         r.ExpertProfileDeleted,
		"characteristic_profile_deleted": r.CharacteristicProfileDeleted,
		"groups_deleted":                 r.GroupsDeleted,
		"memberships_deleted":            r.MembershipsDeleted,
	}
}

// CascadeCoordinator removes the records that reference an account, in an
// order that never violates a foreign key. It runs on repositories bound to
// the caller's transaction and never commits on its own.
type CascadeCoordinator struct {
	logger *slog.Logger
}

func NewCascadeCoordinator(logger *slog.Logger) *CascadeCoordinator {
	return &CascadeCoordinator{logger: logger}
}

// DeleteAccountDependents removes, in order: the expert profile, the
// characteristic profile, every group the account created (memberships
// first, then the group row), and finally the account's memberships in
// groups created by others. The account row itself is left to the caller.
func (c *CascadeCoordinator) DeleteAccountDependents(ctx context.Context, repos ModerationRepositories, accountID int64) (*CascadeResult, error) {
	result := &CascadeResult{}

	deleted, err := repos.Experts.DeleteByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expert profile: %w", err)
	}
	result.ExpertProfileDeleted = deleted

	deleted, err = repos.Characteristics.DeleteByAccountID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete characteristic profile: %w", err)
	}
	result.CharacteristicProfileDeleted = deleted

	groups, err := repos.Groups.ListByCreator(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list owned groups: %w", err)
	}

	for _, g := range groups {
		removed, err := c.deleteGroup(ctx, repos, g.ID)
		if err != nil {
			return nil, err
		}
		result.GroupsDeleted++
		result.MembershipsDeleted += removed
	}

	removed, err := repos.Groups.DeleteAccountMemberships(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete memberships of account %d: %w", accountID, err)
	}
	result.MembershipsDeleted += removed

	c.logger.DebugContext(ctx, "account dependents removed",
		slog.Int64("account_id", accountID),
		slog.Int("groups_deleted", result.GroupsDeleted),
		slog.Int64("memberships_deleted", result.MembershipsDeleted),
	)

	return result, nil
}

// DeleteGroup removes a single group and its memberships. Group content is
// removed by the storage layer together with the group row.
func (c *CascadeCoordinator) DeleteGroup(ctx context.Context, repos ModerationRepositories, groupID int64) (int64, error) {
	return c.deleteGroup(ctx, repos, groupID)
}

func (c *CascadeCoordinator) deleteGroup(ctx context.Context, repos ModerationRepositories, groupID int64) (int64, error) {
	removed, err := repos.Groups.DeleteMemberships(ctx, groupID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete memberships of group %d: %w", groupID, err)
	}

	if err := repos.Groups.Delete(ctx, groupID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return 0, models.NotFound("study group", groupID)
		}
		return 0, fmt.Errorf("failed to delete group %d: %w", groupID, err)
	}

	return removed, nil
}
