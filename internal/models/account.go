package models

import (
	"time"
)

// Role is an account's platform role.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleExpert  Role = "EXPERT"
	RoleAdmin   Role = "ADMIN"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleExpert, RoleAdmin:
		return true
	}
	return false
}

// Account holds the moderation-relevant state of a user.
//
// The moderation flags are independent of each other; login eligibility is
// derived by CanLogin and never stored.
type Account struct {
	ID               int64
	Email            string
	Name             string
	Role             Role
	Active           bool // gates login, see CanLogin
	Deleted          bool
	DeletedAt        *time.Time
	SuspendedUntil   *time.Time
	SuspensionReason *string
	BannedAt         *time.Time
	BanReason        *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsBanned reports whether the account carries a ban.
func (a *Account) IsBanned() bool {
	return a.BannedAt != nil
}

// IsSuspended reports whether a suspension is in force at now. A suspension
// whose end time has passed lapses without any write.
func (a *Account) IsSuspended(now time.Time) bool {
	return a.SuspendedUntil != nil && a.SuspendedUntil.After(now)
}

// IsAdmin reports whether the account currently holds the ADMIN role.
func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// IsFunctionalAdmin reports whether the account counts toward the set of
// administrators able to act: ADMIN role, not deleted and not banned.
func (a *Account) IsFunctionalAdmin() bool {
	return a.Role == RoleAdmin && !a.Deleted && !a.IsBanned()
}

// CanLogin is the authoritative login gate.
func (a *Account) CanLogin(now time.Time) bool {
	return a.LoginBlockReason(now) == nil
}

// LoginBlockReason returns the first reason the account cannot log in at now,
// or nil. Deletion wins over every other flag.
func (a *Account) LoginBlockReason(now time.Time) error {
	switch {
	case a.Deleted:
		return ErrAccountDeleted
	case a.IsBanned():
		return ErrAccountBanned
	case a.IsSuspended(now):
		return ErrAccountSuspended
	case !a.Active:
		return ErrAccountDisabled
	}
	return nil
}

// Clone returns a deep copy so callers can keep a before-image.
func (a *Account) Clone() *Account {
	c := *a
	c.DeletedAt = cloneTime(a.DeletedAt)
	c.SuspendedUntil = cloneTime(a.SuspendedUntil)
	c.BannedAt = cloneTime(a.BannedAt)
	c.SuspensionReason = cloneString(a.SuspensionReason)
	c.BanReason = cloneString(a.BanReason)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// ModerationCounts aggregates the moderation state of all accounts at a point in time.
type ModerationCounts struct {
	Total            int64 `json:"total"`
	FunctionalAdmins int64 `json:"functional_admins"`
	Banned           int64 `json:"banned"`
	Suspended        int64 `json:"suspended"`
	Deleted          int64 `json:"deleted"`
	LoginDisabled    int64 `json:"login_disabled"`
	PendingExperts   int64 `json:"pending_experts"`
}
