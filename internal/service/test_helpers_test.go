package service

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/example/govsol/internal/hierarchy"
	"github.com/example/govsol/internal/models"
)

// mockIssueStore implements IssueStore in memory with the same optimistic
// version semantics as the real repository.
type mockIssueStore struct {
	issues      map[uint]*models.Issue
	responses   []models.IssueResponse
	escalations []models.IssueEscalation
	attachments []models.IssueAttachment
	nextID      uint

	// failEscalationFor makes CreateEscalation fail for one issue, to test
	// per-issue sweep isolation.
	failEscalationFor uint
}

func newMockIssueStore() *mockIssueStore {
	return &mockIssueStore{issues: make(map[uint]*models.Issue), nextID: 1}
}

func (m *mockIssueStore) Create(ctx context.Context, issue *models.Issue) error {
	if err := issue.BeforeCreate(nil); err != nil {
		return err
	}
	issue.ID = m.nextID
	m.nextID++
	cp := *issue
	m.issues[issue.ID] = &cp
	return nil
}

func (m *mockIssueStore) FindByID(ctx context.Context, id uint) (*models.Issue, error) {
	stored, ok := m.issues[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "issue %d", id)
	}
	cp := *stored
	return &cp, nil
}

func (m *mockIssueStore) FindByReference(ctx context.Context, ref string) (*models.Issue, error) {
	for _, issue := range m.issues {
		if issue.ReferenceNumber == ref {
			cp := *issue
			return &cp, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "issue %s", ref)
}

func (m *mockIssueStore) List(ctx context.Context, f IssueFilters) ([]models.Issue, error) {
	var out []models.Issue
	for _, issue := range m.issues {
		if f.Status != "" && issue.Status != f.Status {
			continue
		}
		if f.Level != "" && issue.CurrentLevel != f.Level {
			continue
		}
		if f.ReporterUserID != 0 && (issue.ReporterUserID == nil || *issue.ReporterUserID != f.ReporterUserID) {
			continue
		}
		out = append(out, *issue)
	}
	return out, nil
}

func (m *mockIssueStore) Count(ctx context.Context, f IssueFilters) (int64, error) {
	matched, err := m.List(ctx, f)
	if err != nil {
		return 0, err
	}
	n := int64(0)
	for _, issue := range matched {
		if len(f.StatusIn) > 0 {
			ok := false
			for _, s := range f.StatusIn {
				if issue.Status == s {
					ok = true
				}
			}
			if !ok {
				continue
			}
		}
		if f.HandlerID != 0 && (issue.CurrentHandlerID == nil || *issue.CurrentHandlerID != f.HandlerID) {
			continue
		}
		n++
	}
	return n, nil
}

func (m *mockIssueStore) SaveVersioned(ctx context.Context, issue *models.Issue) error {
	stored, ok := m.issues[issue.ID]
	if !ok {
		return errors.Wrapf(ErrNotFound, "issue %d", issue.ID)
	}
	if stored.Version != issue.Version {
		return errors.Wrapf(ErrConflict, "issue %d", issue.ID)
	}
	issue.Version++
	cp := *issue
	m.issues[issue.ID] = &cp
	return nil
}

func (m *mockIssueStore) ListOverdue(ctx context.Context, now time.Time, levels []hierarchy.Level) ([]models.Issue, error) {
	inLevels := func(l hierarchy.Level) bool {
		for _, lv := range levels {
			if lv == l {
				return true
			}
		}
		return false
	}
	var out []models.Issue
	for _, issue := range m.issues {
		if issue.Status != models.StatusPending && issue.Status != models.StatusInProgress {
			continue
		}
		if issue.NextEscalationDate == nil || issue.NextEscalationDate.After(now) {
			continue
		}
		if !inLevels(issue.CurrentLevel) {
			continue
		}
		out = append(out, *issue)
	}
	return out, nil
}

func (m *mockIssueStore) ListEscalatedFrom(ctx context.Context, official *models.User) ([]models.Issue, error) {
	level, _ := official.Role.Level()
	var out []models.Issue
	for _, esc := range m.escalations {
		if esc.FromLevel != level {
			continue
		}
		if issue, ok := m.issues[esc.IssueID]; ok {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (m *mockIssueStore) CreateResponse(ctx context.Context, r *models.IssueResponse) error {
	r.ID = uint(len(m.responses) + 1)
	m.responses = append(m.responses, *r)
	return nil
}

func (m *mockIssueStore) ListResponses(ctx context.Context, issueID uint) ([]models.IssueResponse, error) {
	var out []models.IssueResponse
	for _, r := range m.responses {
		if r.IssueID == issueID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockIssueStore) CreateEscalation(ctx context.Context, e *models.IssueEscalation) error {
	if m.failEscalationFor != 0 && e.IssueID == m.failEscalationFor {
		return errors.New("escalation insert failed")
	}
	e.ID = uint(len(m.escalations) + 1)
	m.escalations = append(m.escalations, *e)
	return nil
}

func (m *mockIssueStore) ListEscalations(ctx context.Context, issueID uint) ([]models.IssueEscalation, error) {
	var out []models.IssueEscalation
	for _, e := range m.escalations {
		if e.IssueID == issueID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockIssueStore) CreateAttachment(ctx context.Context, a *models.IssueAttachment) error {
	a.ID = uint(len(m.attachments) + 1)
	m.attachments = append(m.attachments, *a)
	return nil
}

func (m *mockIssueStore) FindAttachment(ctx context.Context, id uint) (*models.IssueAttachment, error) {
	for _, a := range m.attachments {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "attachment %d", id)
}

func (m *mockIssueStore) CreateResponseAttachment(ctx context.Context, a *models.ResponseAttachment) error {
	return nil
}

// mockUserDirectory implements UserDirectory over a fixed slice.
type mockUserDirectory struct {
	users []*models.User
}

func (m *mockUserDirectory) FindByID(ctx context.Context, id uint) (*models.User, error) {
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, errors.Wrapf(ErrNotFound, "user %d", id)
}

func (m *mockUserDirectory) FirstApprovedAtLevel(ctx context.Context, level hierarchy.Level, scope hierarchy.Jurisdiction) (*models.User, error) {
	var best *models.User
	for _, u := range m.users {
		if u.Role != hierarchy.Role(level) || !u.IsApproved {
			continue
		}
		j := u.Jurisdiction()
		if scope.ProvinceID != 0 && j.ProvinceID != scope.ProvinceID {
			continue
		}
		if scope.DistrictID != 0 && j.DistrictID != scope.DistrictID {
			continue
		}
		if scope.DSDivisionID != 0 && j.DSDivisionID != scope.DSDivisionID {
			continue
		}
		if scope.GNDivisionID != 0 && j.GNDivisionID != scope.GNDivisionID {
			continue
		}
		if best == nil || u.ID < best.ID {
			best = u
		}
	}
	return best, nil
}

func (m *mockUserDirectory) CountActive(ctx context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

// mockNotifier records delivered notifications.
type mockNotifier struct {
	sent []models.Notification
}

func (m *mockNotifier) Notify(ctx context.Context, n *models.Notification) error {
	m.sent = append(m.sent, *n)
	return nil
}

// Fixture jurisdiction: Matara district inside Southern province.
const (
	provSouthern = uint(1)
	distMatara   = uint(10)
	distGalle    = uint(11)
	dsMataraFour = uint(100)
	gnKotawila   = uint(1000)
)

func uptr(v uint) *uint { return &v }

func official(id uint, role hierarchy.Role, prov, dist, ds, gn uint) *models.User {
	u := &models.User{
		ID:         id,
		Username:   string(role),
		Role:       role,
		IsApproved: true,
		IsActive:   true,
	}
	if prov != 0 {
		u.ProvinceID = uptr(prov)
	}
	if dist != 0 {
		u.DistrictID = uptr(dist)
	}
	if ds != 0 {
		u.DSDivisionID = uptr(ds)
	}
	if gn != 0 {
		u.GNDivisionID = uptr(gn)
	}
	return u
}

// ladderUsers returns one approved official per tier for the fixture
// jurisdiction, IDs 1..6 from the bottom up.
func ladderUsers() []*models.User {
	return []*models.User{
		official(1, hierarchy.RoleGramaNiladhari, provSouthern, distMatara, dsMataraFour, gnKotawila),
		official(2, hierarchy.RoleDivisionalSecretary, provSouthern, distMatara, dsMataraFour, 0),
		official(3, hierarchy.RoleDistrictSecretary, provSouthern, distMatara, 0, 0),
		official(4, hierarchy.RoleProvincialMinistry, provSouthern, 0, 0, 0),
		official(5, hierarchy.RoleNationalMinistry, 0, 0, 0, 0),
		official(6, hierarchy.RolePrimeMinister, 0, 0, 0, 0),
	}
}

func newTestService(users []*models.User, sweepNational bool) (*IssueService, *mockIssueStore, *mockNotifier) {
	store := newMockIssueStore()
	notifier := &mockNotifier{}
	svc := NewIssueService(store, &mockUserDirectory{users: users}, notifier, sweepNational)
	return svc, store, notifier
}

// mataraIssue files a fixture issue at the bottom of the ladder.
func mataraIssue(store *mockIssueStore) *models.Issue {
	issue := &models.Issue{
		Title:        "Blocked drainage canal",
		Description:  "Canal behind the school overflows when it rains",
		ProvinceID:   provSouthern,
		DistrictID:   distMatara,
		DSDivisionID: dsMataraFour,
		GNDivisionID: uptr(gnKotawila),
		ReporterName: "W. Perera",
	}
	if err := store.Create(context.Background(), issue); err != nil {
		panic(err)
	}
	return issue
}
