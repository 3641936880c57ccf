package models

import "time"

// ExpertProfile is the qualification record of an EXPERT account.
type ExpertProfile struct {
	ID             int64
	AccountID      int64
	Specialization string
	Bio            string
	IsVerified     bool
	VerifiedAt     *time.Time
	VerifiedBy     *int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the profile.
func (p *ExpertProfile) Clone() *ExpertProfile {
	c := *p
	c.VerifiedAt = cloneTime(p.VerifiedAt)
	if p.VerifiedBy != nil {
		v := *p.VerifiedBy
		c.VerifiedBy = &v
	}
	return &c
}

// CharacteristicProfile stores an account's learning-style quiz result.
type CharacteristicProfile struct {
	ID        int64
	AccountID int64
	Traits    map[string]interface{} // quiz scores, stored as JSONB
	CreatedAt time.Time
	UpdatedAt time.Time
}

// StudyGroup is a group created by an account.
type StudyGroup struct {
	ID        int64
	Name      string
	CreatorID int64
	CreatedAt time.Time
}

// GroupMembership links an account to a study group.
type GroupMembership struct {
	GroupID   int64
	AccountID int64
	JoinedAt  time.Time
}
