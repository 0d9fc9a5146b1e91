package service

import (
	"context"
	"time"

	"github.com/example/govsol/internal/hierarchy"
	"github.com/example/govsol/internal/models"
)

// IssueFilters narrows issue listings. Zero fields mean "no filter"; the
// jurisdiction scope only constrains on its non-zero segments.
type IssueFilters struct {
	Status         models.Status
	StatusIn       []models.Status
	Priority       models.Priority
	Level          hierarchy.Level
	Scope          hierarchy.Jurisdiction
	ReporterUserID uint
	HandlerID      uint
	Search         string
	Limit          int
	Offset         int
}

// IssueStore is the persistence boundary for issues and their append-only
// response and escalation records.
type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id uint) (*models.Issue, error)
	FindByReference(ctx context.Context, ref string) (*models.Issue, error)
	List(ctx context.Context, f IssueFilters) ([]models.Issue, error)
	Count(ctx context.Context, f IssueFilters) (int64, error)

	// SaveVersioned persists issue mutations guarded by the optimistic
	// version column and returns ErrConflict when the row changed since
	// it was read.
	SaveVersioned(ctx context.Context, issue *models.Issue) error

	// ListOverdue returns issues whose escalation deadline has lapsed and
	// whose level is in the sweepable set.
	ListOverdue(ctx context.Context, now time.Time, levels []hierarchy.Level) ([]models.Issue, error)

	// ListEscalatedFrom returns issues that moved up and away from the
	// given official's tier inside their jurisdiction.
	ListEscalatedFrom(ctx context.Context, official *models.User) ([]models.Issue, error)

	CreateResponse(ctx context.Context, r *models.IssueResponse) error
	ListResponses(ctx context.Context, issueID uint) ([]models.IssueResponse, error)
	CreateEscalation(ctx context.Context, e *models.IssueEscalation) error
	ListEscalations(ctx context.Context, issueID uint) ([]models.IssueEscalation, error)
	CreateAttachment(ctx context.Context, a *models.IssueAttachment) error
	FindAttachment(ctx context.Context, id uint) (*models.IssueAttachment, error)
	CreateResponseAttachment(ctx context.Context, a *models.ResponseAttachment) error
}

// UserDirectory is the read boundary to the account store. The engine never
// mutates accounts.
type UserDirectory interface {
	FindByID(ctx context.Context, id uint) (*models.User, error)

	// FirstApprovedAtLevel returns the approved official at the given tier
	// matching the non-zero segments of scope, lowest account ID first.
	// It returns (nil, nil) when no official qualifies.
	FirstApprovedAtLevel(ctx context.Context, level hierarchy.Level, scope hierarchy.Jurisdiction) (*models.User, error)

	CountActive(ctx context.Context) (int64, error)
}

// Notifier delivers a notification to its user. Delivery failures are
// logged by callers, never propagated into the escalation transition.
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
}
