package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/studyhub/internal/models"
	"github.com/BradenHooton/studyhub/internal/services"
	"github.com/google/uuid"
)

var errInjected = errors.New("injected storage failure")

// memoryStore is an in-memory ModerationStore. Transactions are serialized
// and roll back to a snapshot when fn fails. Deletes enforce the same
// foreign keys as the Postgres schema.
type memoryStore struct {
	mu sync.Mutex

	nextID          int64
	accounts        map[int64]*models.Account
	experts         map[int64]*models.ExpertProfile // by account id
	characteristics map[int64]*models.CharacteristicProfile
	groups          map[int64]*models.StudyGroup
	memberships     []models.GroupMembership
	audit           []*models.AuditLog

	// failOn names a repository call that returns errInjected.
	failOn string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		nextID:          1000,
		accounts:        map[int64]*models.Account{},
		experts:         map[int64]*models.ExpertProfile{},
		characteristics: map[int64]*models.CharacteristicProfile{},
		groups:          map[int64]*models.StudyGroup{},
	}
}

type snapshot struct {
	accounts        map[int64]*models.Account
	experts         map[int64]*models.ExpertProfile
	characteristics map[int64]*models.CharacteristicProfile
	groups          map[int64]*models.StudyGroup
	memberships     []models.GroupMembership
	audit           []*models.AuditLog
}

func (s *memoryStore) snapshot() snapshot {
	snap := snapshot{
		accounts:        map[int64]*models.Account{},
		experts:         map[int64]*models.ExpertProfile{},
		characteristics: map[int64]*models.CharacteristicProfile{},
		groups:          map[int64]*models.StudyGroup{},
		memberships:     append([]models.GroupMembership(nil), s.memberships...),
		audit:           append([]*models.AuditLog(nil), s.audit...),
	}
	for id, a := range s.accounts {
		snap.accounts[id] = a.Clone()
	}
	for id, p := range s.experts {
		snap.experts[id] = p.Clone()
	}
	for id, p := range s.characteristics {
		c := *p
		snap.characteristics[id] = &c
	}
	for id, g := range s.groups {
		c := *g
		snap.groups[id] = &c
	}
	return snap
}

func (s *memoryStore) restore(snap snapshot) {
	s.accounts = snap.accounts
	s.experts = snap.experts
	s.characteristics = snap.characteristics
	s.groups = snap.groups
	s.memberships = snap.memberships
	s.audit = snap.audit
}

func (s *memoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos services.ModerationRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	repos := services.ModerationRepositories{
		Accounts:        memAccounts{s},
		Experts:         memExperts{s},
		Characteristics: memCharacteristics{s},
		Groups:          memGroups{s},
		Audit:           memAudit{s},
	}
	if err := fn(ctx, repos); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

func (s *memoryStore) fail(op string) error {
	if s.failOn == op {
		return errInjected
	}
	return nil
}

// seeding helpers, used outside transactions

func (s *memoryStore) addAccount(role models.Role) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	a := &models.Account{
		ID:        s.nextID,
		Email:     fmt.Sprintf("user%d@example.com", s.nextID),
		Name:      fmt.Sprintf("User %d", s.nextID),
		Role:      role,
		Active:    true,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	s.accounts[a.ID] = a
	return a.Clone()
}

// putAccount overwrites a stored account without an audit entry.
func (s *memoryStore) putAccount(a *models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[a.ID] = a.Clone()
}

func (s *memoryStore) addExpertProfile(accountID int64, verified bool) *models.ExpertProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	p := &models.ExpertProfile{ID: s.nextID, AccountID: accountID, Specialization: "Mathematics", IsVerified: verified}
	if verified {
		at := time.Now().UTC()
		by := int64(1)
		p.VerifiedAt = &at
		p.VerifiedBy = &by
	}
	s.experts[accountID] = p
	return p.Clone()
}

func (s *memoryStore) addCharacteristicProfile(accountID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.characteristics[accountID] = &models.CharacteristicProfile{ID: s.nextID, AccountID: accountID}
}

func (s *memoryStore) addGroup(creatorID int64, memberIDs ...int64) *models.StudyGroup {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	g := &models.StudyGroup{ID: s.nextID, Name: fmt.Sprintf("Group %d", s.nextID), CreatorID: creatorID}
	s.groups[g.ID] = g
	for _, m := range memberIDs {
		s.memberships = append(s.memberships, models.GroupMembership{GroupID: g.ID, AccountID: m})
	}
	c := *g
	return &c
}

func (s *memoryStore) account(id int64) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil
	}
	return a.Clone()
}

func (s *memoryStore) expert(accountID int64) *models.ExpertProfile {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.experts[accountID]
	if !ok {
		return nil
	}
	return p.Clone()
}

func (s *memoryStore) auditEntries() []*models.AuditLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.AuditLog(nil), s.audit...)
}

func (s *memoryStore) membershipsOf(groupID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, m := range s.memberships {
		if m.GroupID == groupID {
			n++
		}
	}
	return n
}

func (s *memoryStore) hasGroup(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.groups[id]
	return ok
}

func (s *memoryStore) hasCharacteristicProfile(accountID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.characteristics[accountID]
	return ok
}

// memAccounts also serves as the LoginGate's AccountReader; GetByID takes
// the store lock only when called outside a transaction.
type memAccounts struct{ s *memoryStore }

func (r memAccounts) GetByID(_ context.Context, id int64) (*models.Account, error) {
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return a.Clone(), nil
}

func (r memAccounts) LockByID(ctx context.Context, id int64) (*models.Account, error) {
	if err := r.s.fail("accounts.lock"); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r memAccounts) Update(_ context.Context, a *models.Account) (*models.Account, error) {
	if err := r.s.fail("accounts.update"); err != nil {
		return nil, err
	}
	if _, ok := r.s.accounts[a.ID]; !ok {
		return nil, models.ErrNotFound
	}
	stored := a.Clone()
	stored.UpdatedAt = time.Now().UTC()
	r.s.accounts[a.ID] = stored
	return stored.Clone(), nil
}

func (r memAccounts) Delete(_ context.Context, id int64) error {
	if err := r.s.fail("accounts.delete"); err != nil {
		return err
	}
	if _, ok := r.s.experts[id]; ok {
		return fmt.Errorf("expert_profiles references account %d: %w", id, models.ErrConflict)
	}
	if _, ok := r.s.characteristics[id]; ok {
		return fmt.Errorf("characteristic_profiles references account %d: %w", id, models.ErrConflict)
	}
	for _, g := range r.s.groups {
		if g.CreatorID == id {
			return fmt.Errorf("study_groups references account %d: %w", id, models.ErrConflict)
		}
	}
	for _, m := range r.s.memberships {
		if m.AccountID == id {
			return fmt.Errorf("group_memberships references account %d: %w", id, models.ErrConflict)
		}
	}
	if _, ok := r.s.accounts[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.s.accounts, id)
	return nil
}

func (r memAccounts) CountFunctionalAdmins(_ context.Context) (int64, error) {
	var n int64
	for _, a := range r.s.accounts {
		if a.IsFunctionalAdmin() {
			n++
		}
	}
	return n, nil
}

type memExperts struct{ s *memoryStore }

func (r memExperts) GetByAccountID(_ context.Context, accountID int64) (*models.ExpertProfile, error) {
	p, ok := r.s.experts[accountID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return p.Clone(), nil
}

func (r memExperts) Update(_ context.Context, p *models.ExpertProfile) (*models.ExpertProfile, error) {
	if err := r.s.fail("experts.update"); err != nil {
		return nil, err
	}
	if _, ok := r.s.experts[p.AccountID]; !ok {
		return nil, models.ErrNotFound
	}
	r.s.experts[p.AccountID] = p.Clone()
	return p.Clone(), nil
}

func (r memExperts) DeleteByAccountID(_ context.Context, accountID int64) (bool, error) {
	if err := r.s.fail("experts.delete"); err != nil {
		return false, err
	}
	_, ok := r.s.experts[accountID]
	delete(r.s.experts, accountID)
	return ok, nil
}

type memCharacteristics struct{ s *memoryStore }

func (r memCharacteristics) DeleteByAccountID(_ context.Context, accountID int64) (bool, error) {
	if err := r.s.fail("characteristics.delete"); err != nil {
		return false, err
	}
	_, ok := r.s.characteristics[accountID]
	delete(r.s.characteristics, accountID)
	return ok, nil
}

type memGroups struct{ s *memoryStore }

func (r memGroups) GetByID(_ context.Context, id int64) (*models.StudyGroup, error) {
	g, ok := r.s.groups[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c := *g
	return &c, nil
}

func (r memGroups) ListByCreator(_ context.Context, creatorID int64) ([]*models.StudyGroup, error) {
	groups := make([]*models.StudyGroup, 0)
	for _, g := range r.s.groups {
		if g.CreatorID == creatorID {
			c := *g
			groups = append(groups, &c)
		}
	}
	return groups, nil
}

func (r memGroups) DeleteMemberships(_ context.Context, groupID int64) (int64, error) {
	return r.deleteWhere(func(m models.GroupMembership) bool { return m.GroupID == groupID }), nil
}

func (r memGroups) DeleteAccountMemberships(_ context.Context, accountID int64) (int64, error) {
	return r.deleteWhere(func(m models.GroupMembership) bool { return m.AccountID == accountID }), nil
}

func (r memGroups) deleteWhere(match func(models.GroupMembership) bool) int64 {
	kept := r.s.memberships[:0:0]
	var removed int64
	for _, m := range r.s.memberships {
		if match(m) {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.s.memberships = kept
	return removed
}

func (r memGroups) Delete(_ context.Context, groupID int64) error {
	if err := r.s.fail("groups.delete"); err != nil {
		return err
	}
	for _, m := range r.s.memberships {
		if m.GroupID == groupID {
			return fmt.Errorf("group_memberships references group %d: %w", groupID, models.ErrConflict)
		}
	}
	if _, ok := r.s.groups[groupID]; !ok {
		return models.ErrNotFound
	}
	delete(r.s.groups, groupID)
	return nil
}

type memAudit struct{ s *memoryStore }

func (r memAudit) Create(_ context.Context, log *models.AuditLog) (*models.AuditLog, error) {
	if err := r.s.fail("audit.create"); err != nil {
		return nil, err
	}
	c := *log
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()
	r.s.audit = append(r.s.audit, &c)
	return &c, nil
}

func (r memAudit) LatestForTarget(_ context.Context, action models.AuditAction, targetType string, targetID int64) (*models.AuditLog, error) {
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		e := r.s.audit[i]
		if e.ActionType == action && e.TargetType == targetType && e.TargetID == targetID {
			c := *e
			return &c, nil
		}
	}
	return nil, models.ErrNotFound
}

// recordingNotifier captures notifications and can be made to fail.
type recordingNotifier struct {
	mu      sync.Mutex
	actions []models.AuditAction
	err     error
}

func (n *recordingNotifier) NotifyAccountAction(_ context.Context, _ *models.Account, action models.AuditAction, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.actions = append(n.actions, action)
	return n.err
}

func (n *recordingNotifier) sent() []models.AuditAction {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]models.AuditAction(nil), n.actions...)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type moderationFixture struct {
	store    *memoryStore
	clock    *fakeClock
	notifier *recordingNotifier
	svc      *services.ModerationService
	gate     *services.LoginGate
	admin    *models.Account
}

func newModerationFixture() *moderationFixture {
	store := newMemoryStore()
	clock := newFakeClock()
	notifier := &recordingNotifier{}
	logger := discardLogger()

	svc := services.NewModerationService(store, services.NewAuditService(nil, logger), logger,
		services.WithClock(clock.Now),
		services.WithNotifier(notifier),
	)

	return &moderationFixture{
		store:    store,
		clock:    clock,
		notifier: notifier,
		svc:      svc,
		gate:     services.NewLoginGate(lockedReader{store}, services.WithGateClock(clock.Now)),
		admin:    store.addAccount(models.RoleAdmin),
	}
}

// lockedReader reads accounts under the store lock for use outside transactions.
type lockedReader struct{ s *memoryStore }

func (r lockedReader) GetByID(ctx context.Context, id int64) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return memAccounts(r).GetByID(ctx, id)
}
