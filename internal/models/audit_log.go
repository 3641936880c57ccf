package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditAction identifies the administrative action an audit entry records.
type AuditAction string

// Account moderation actions
const (
	AuditActionSuspend         AuditAction = "SUSPEND"
	AuditActionUnsuspend       AuditAction = "UNSUSPEND"
	AuditActionBan             AuditAction = "BAN"
	AuditActionUnban           AuditAction = "UNBAN"
	AuditActionSoftDelete      AuditAction = "SOFT_DELETE"
	AuditActionRestore         AuditAction = "RESTORE"
	AuditActionPermanentDelete AuditAction = "PERMANENT_DELETE"
	AuditActionRoleChange      AuditAction = "ROLE_CHANGE"
	AuditActionDisableLogin    AuditAction = "DISABLE_LOGIN"
	AuditActionEnableLogin     AuditAction = "ENABLE_LOGIN"
	AuditActionExpertVerify    AuditAction = "EXPERT_VERIFY"
	AuditActionExpertReject    AuditAction = "EXPERT_REJECT"
	AuditActionExpertRevoke    AuditAction = "EXPERT_REVOKE"
)

// Content moderation actions. Course actions are written by the course
// administration module; they share the audit table.
const (
	AuditActionCourseCreate AuditAction = "COURSE_CREATE"
	AuditActionCourseUpdate AuditAction = "COURSE_UPDATE"
	AuditActionCourseDelete AuditAction = "COURSE_DELETE"
	AuditActionGroupDelete  AuditAction = "GROUP_DELETE"
)

var knownAuditActions = map[AuditAction]struct{}{
	AuditActionSuspend: {}, AuditActionUnsuspend: {}, AuditActionBan: {}, AuditActionUnban: {},
	AuditActionSoftDelete: {}, AuditActionRestore: {}, AuditActionPermanentDelete: {},
	AuditActionRoleChange: {}, AuditActionDisableLogin: {}, AuditActionEnableLogin: {},
	AuditActionExpertVerify: {}, AuditActionExpertReject: {}, AuditActionExpertRevoke: {},
	AuditActionCourseCreate: {}, AuditActionCourseUpdate: {}, AuditActionCourseDelete: {},
	AuditActionGroupDelete: {},
}

// ParseAuditAction validates s against the known action types.
func ParseAuditAction(s string) (AuditAction, error) {
	a := AuditAction(s)
	if _, ok := knownAuditActions[a]; !ok {
		return "", fmt.Errorf("unknown audit action %q: %w", s, ErrBadRequest)
	}
	return a, nil
}

// Target types
const (
	AuditTargetAccount = "ACCOUNT"
	AuditTargetCourse  = "COURSE"
	AuditTargetGroup   = "GROUP"
)

// AuditLog is an immutable record of one completed administrative action.
type AuditLog struct {
	ID         uuid.UUID     `db:"id"`
	AdminID    int64         `db:"admin_id"`
	ActionType AuditAction   `db:"action_type"`
	TargetType string        `db:"target_type"`
	TargetID   int64         `db:"target_id"`
	Reason     string        `db:"reason"`
	Metadata   AuditMetadata `db:"metadata"`
	CreatedAt  time.Time     `db:"created_at"`
}

// AuditMetadata holds before/after values and other context for an entry.
type AuditMetadata map[string]interface{}

// Scan implements sql.Scanner for JSONB
func (am *AuditMetadata) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*am = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("audit metadata: unsupported type %T: %w", value, ErrBadRequest)
	}

	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}
	*am = AuditMetadata(m)
	return nil
}

// Value implements driver.Valuer for JSONB. Empty metadata is stored as NULL.
func (am AuditMetadata) Value() (driver.Value, error) {
	if len(am) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(map[string]interface{}(am))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
