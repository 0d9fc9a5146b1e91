package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/example/govsol/internal/hierarchy"
	"github.com/example/govsol/internal/models"
)

// IssueService carries the grievance life cycle: creation and assignment,
// official responses, escalation up the ladder and the overdue sweep. It is
// the single owner of the transition rules; both the HTTP handlers and the
// scheduled sweep go through it.
type IssueService struct {
	issues   IssueStore
	users    UserDirectory
	notifier Notifier

	// sweepNational includes the national ministry tier in the overdue
	// sweep. Off by default: national-tier issues then sit until acted on.
	sweepNational bool
}

// NewIssueService builds the service with its collaborators.
func NewIssueService(issues IssueStore, users UserDirectory, notifier Notifier, sweepNational bool) *IssueService {
	return &IssueService{issues: issues, users: users, notifier: notifier, sweepNational: sweepNational}
}

// CreateIssueInput is a citizen or guest submission.
type CreateIssueInput struct {
	Title       string
	Description string
	Category    models.Category
	Language    string
	Priority    models.Priority

	ProvinceID   uint
	DistrictID   uint
	DSDivisionID uint
	GNDivisionID uint
	Address      string

	IsAnonymous      bool
	AnonymousName    string
	AnonymousPhone   string
	AnonymousAddress string
	AnonymousID      string
}

func (in CreateIssueInput) validate() error {
	if in.Title == "" {
		return errors.Wrap(ErrValidation, "title is required")
	}
	if in.Description == "" {
		return errors.Wrap(ErrValidation, "description is required")
	}
	if in.ProvinceID == 0 || in.DistrictID == 0 || in.DSDivisionID == 0 {
		return errors.Wrap(ErrValidation, "province, district and ds_division are required")
	}
	if in.Category != "" && !in.Category.Valid() {
		return errors.Wrapf(ErrValidation, "unknown category %q", in.Category)
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return errors.Wrapf(ErrValidation, "unknown priority %q", in.Priority)
	}
	return nil
}

// Create files a new issue at the bottom of the ladder and auto-assigns the
// Grama Niladhari whose division matches, when one exists and is approved.
func (s *IssueService) Create(ctx context.Context, reporter *models.User, in CreateIssueInput, now time.Time) (*models.Issue, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	issue := &models.Issue{
		Title:        in.Title,
		Description:  in.Description,
		Category:     in.Category,
		Language:     in.Language,
		Priority:     in.Priority,
		ProvinceID:   in.ProvinceID,
		DistrictID:   in.DistrictID,
		DSDivisionID: in.DSDivisionID,
		Address:      in.Address,
	}
	if in.GNDivisionID != 0 {
		gn := in.GNDivisionID
		issue.GNDivisionID = &gn
	}

	switch {
	case in.IsAnonymous:
		issue.IsAnonymous = true
		issue.ReporterName = in.AnonymousName
		issue.ReporterPhone = in.AnonymousPhone
		issue.ReporterAddress = in.AnonymousAddress
		issue.ReporterNationalID = in.AnonymousID
	case reporter != nil:
		issue.ReporterUserID = &reporter.ID
		issue.ReporterName = reporter.DisplayName()
		issue.ReporterPhone = reporter.Phone
		issue.ReporterAddress = reporter.Address
		issue.ReporterNationalID = reporter.NationalID
	default:
		issue.ReporterName = in.AnonymousName
		issue.ReporterPhone = in.AnonymousPhone
		issue.ReporterAddress = in.AnonymousAddress
		issue.ReporterNationalID = in.AnonymousID
	}
	if issue.ReporterName == "" {
		issue.ReporterName = models.AnonymousReporterName
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}

	if err := s.autoAssign(ctx, issue); err != nil {
		log.Printf("auto-assign %s failed: %v", issue.ReferenceNumber, err)
	}
	return issue, nil
}

// autoAssign hands a freshly created issue to the approved Grama Niladhari
// whose full jurisdiction matches. Initial assignment, not a ladder move: no
// escalation record is written.
func (s *IssueService) autoAssign(ctx context.Context, issue *models.Issue) error {
	if issue.GNDivisionID == nil {
		return nil
	}
	gn, err := s.users.FirstApprovedAtLevel(ctx, hierarchy.LevelGramaNiladhari,
		hierarchy.Scope(hierarchy.LevelGramaNiladhari, issue.Jurisdiction()))
	if err != nil {
		return err
	}
	if gn == nil {
		return nil
	}
	issue.CurrentHandlerID = &gn.ID
	if err := s.issues.SaveVersioned(ctx, issue); err != nil {
		return err
	}
	s.notify(ctx, gn.ID, models.NotifyNewIssue, issue,
		fmt.Sprintf("New issue %s reported in your division", issue.ReferenceNumber))
	return nil
}

// Get resolves an issue by numeric ID or public reference number.
func (s *IssueService) Get(ctx context.Context, idOrRef string) (*models.Issue, error) {
	if id, err := strconv.ParseUint(idOrRef, 10, 64); err == nil {
		return s.issues.FindByID(ctx, uint(id))
	}
	return s.issues.FindByReference(ctx, idOrRef)
}

// List returns issues visible to the viewer. The public and citizens see
// everything; an official's view is narrowed to issues at their tier inside
// their jurisdiction; admins see all.
func (s *IssueService) List(ctx context.Context, viewer *models.User, f IssueFilters) ([]models.Issue, error) {
	if viewer != nil {
		if level, ok := viewer.Role.Level(); ok {
			f.Level = level
			f.Scope = hierarchy.Scope(level, viewer.Jurisdiction())
		}
	}
	return s.issues.List(ctx, f)
}

// ListByReporter returns the issues a citizen filed.
func (s *IssueService) ListByReporter(ctx context.Context, reporterID uint, f IssueFilters) ([]models.Issue, error) {
	f.ReporterUserID = reporterID
	return s.issues.List(ctx, f)
}

// Responses returns the append-only response log of an issue.
func (s *IssueService) Responses(ctx context.Context, issueID uint) ([]models.IssueResponse, error) {
	return s.issues.ListResponses(ctx, issueID)
}

// Escalations returns the escalation audit trail of an issue.
func (s *IssueService) Escalations(ctx context.Context, issueID uint) ([]models.IssueEscalation, error) {
	return s.issues.ListEscalations(ctx, issueID)
}

// EscalatedFrom lists issues that were escalated away from the official's
// tier in their jurisdiction, so lower-level officers can track what moved up.
func (s *IssueService) EscalatedFrom(ctx context.Context, official *models.User) ([]models.Issue, error) {
	if _, ok := official.Role.Level(); !ok && official.Role != hierarchy.RoleAdmin {
		return nil, errors.Wrap(ErrForbidden, "only officials can view escalated issues")
	}
	return s.issues.ListEscalatedFrom(ctx, official)
}

// AttachToIssue records attachment metadata against an issue.
func (s *IssueService) AttachToIssue(ctx context.Context, a *models.IssueAttachment) error {
	return s.issues.CreateAttachment(ctx, a)
}

// AttachToResponse records attachment metadata against an official's response.
func (s *IssueService) AttachToResponse(ctx context.Context, a *models.ResponseAttachment) error {
	return s.issues.CreateResponseAttachment(ctx, a)
}

// Attachment returns attachment metadata by ID, for download-link generation.
func (s *IssueService) Attachment(ctx context.Context, id uint) (*models.IssueAttachment, error) {
	return s.issues.FindAttachment(ctx, id)
}

// DashboardStats summarises the issues in a user's view.
type DashboardStats struct {
	TotalIssues     int64 `json:"total_issues"`
	PendingIssues   int64 `json:"pending_issues"`
	ResolvedIssues  int64 `json:"resolved_issues"`
	MyIssues        int64 `json:"my_issues"`
	EscalatedIssues int64 `json:"escalated_issues"`
	ActiveUsers     int64 `json:"active_users"`
}

// Stats computes dashboard counters scoped to the viewer: a citizen sees
// their own filings, an official their jurisdiction, an admin everything.
func (s *IssueService) Stats(ctx context.Context, viewer *models.User) (DashboardStats, error) {
	var base IssueFilters
	var mine IssueFilters

	if level, ok := viewer.Role.Level(); ok {
		base.Scope = hierarchy.Scope(level, viewer.Jurisdiction())
		mine = base
		mine.HandlerID = viewer.ID
	} else if viewer.Role == hierarchy.RoleCitizen {
		base.ReporterUserID = viewer.ID
		mine = base
	} else {
		mine.HandlerID = viewer.ID
	}

	var stats DashboardStats
	var err error
	if stats.TotalIssues, err = s.issues.Count(ctx, base); err != nil {
		return stats, err
	}
	open := base
	open.StatusIn = []models.Status{models.StatusPending, models.StatusInProgress}
	if stats.PendingIssues, err = s.issues.Count(ctx, open); err != nil {
		return stats, err
	}
	done := base
	done.StatusIn = []models.Status{models.StatusResolved, models.StatusClosed}
	if stats.ResolvedIssues, err = s.issues.Count(ctx, done); err != nil {
		return stats, err
	}
	esc := base
	esc.Status = models.StatusEscalated
	if stats.EscalatedIssues, err = s.issues.Count(ctx, esc); err != nil {
		return stats, err
	}
	if stats.MyIssues, err = s.issues.Count(ctx, mine); err != nil {
		return stats, err
	}
	if stats.ActiveUsers, err = s.users.CountActive(ctx); err != nil {
		return stats, err
	}
	return stats, nil
}

// notify is best-effort; a notification failure never aborts a transition.
func (s *IssueService) notify(ctx context.Context, userID uint, kind models.NotificationType, issue *models.Issue, message string) {
	if s.notifier == nil || userID == 0 {
		return
	}
	n := &models.Notification{
		UserID:  userID,
		Type:    kind,
		Title:   fmt.Sprintf("Issue %s", issue.ReferenceNumber),
		Message: message,
		IssueID: &issue.ID,
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		log.Printf("notify %s for issue %s failed: %v", kind, issue.ReferenceNumber, err)
	}
}
