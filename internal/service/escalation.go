package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/pkg/errors"

	"github.com/example/govsol/internal/hierarchy"
	"github.com/example/govsol/internal/models"
)

// SweepReason is recorded on escalations forced by the overdue sweep.
const SweepReason = "auto-escalated: deadline exceeded"

// EscalationResult classifies the outcome of an escalation attempt. Only
// EscalationApplied moves the issue; the other two are recoverable business
// outcomes, not errors.
type EscalationResult string

const (
	// EscalationApplied: the issue moved one tier up to a new handler.
	EscalationApplied EscalationResult = "escalated"
	// EscalationRescheduled: no eligible official at the target tier; the
	// deadline was pushed out so the sweep retries later.
	EscalationRescheduled EscalationResult = "rescheduled"
	// EscalationTerminal: the issue already sits at the top of the ladder;
	// nothing was changed.
	EscalationTerminal EscalationResult = "terminal"
)

// EscalationOutcome reports what an escalation attempt did.
type EscalationOutcome struct {
	Result  EscalationResult
	Record  *models.IssueEscalation
	RetryAt *time.Time
}

// RespondInput is an official's action on an issue.
type RespondInput struct {
	Type     models.ResponseType
	Message  string
	Language string
	// AdditionalDays extends the deadline for pending responses.
	AdditionalDays int
}

func (in RespondInput) validate() error {
	if !in.Type.Valid() {
		return errors.Wrapf(ErrValidation, "unknown response type %q", in.Type)
	}
	if in.Message == "" {
		return errors.Wrap(ErrValidation, "message is required")
	}
	if in.AdditionalDays < 0 {
		return errors.Wrap(ErrValidation, "additional_days must not be negative")
	}
	if in.AdditionalDays > 0 && in.Type != models.ResponsePending {
		return errors.Wrap(ErrValidation, "additional_days is only valid for pending responses")
	}
	return nil
}

// Respond records an official's action and applies the matching transition.
// The response record is persisted first, unconditionally; the state change
// follows under the optimistic version guard.
func (s *IssueService) Respond(ctx context.Context, issueID uint, actor *models.User, in RespondInput, now time.Time) (*models.IssueResponse, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	issue, err := s.issues.FindByID(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !hierarchy.CanRespond(actor.Role, actor.Jurisdiction(), issue.CurrentLevel, issue.Jurisdiction()) {
		return nil, errors.Wrapf(ErrForbidden,
			"%s cannot act on issue %s at level %s", actor.Username, issue.ReferenceNumber, issue.CurrentLevel)
	}

	response := &models.IssueResponse{
		IssueID:        issue.ID,
		ResponderID:    actor.ID,
		Type:           in.Type,
		Message:        in.Message,
		Language:       in.Language,
		AdditionalDays: in.AdditionalDays,
	}
	if err := s.issues.CreateResponse(ctx, response); err != nil {
		return nil, err
	}

	switch in.Type {
	case models.ResponseResolved:
		issue.Status = models.StatusResolved
		issue.ResolvedAt = &now
		issue.CurrentHandlerID = &actor.ID
		issue.NextEscalationDate = nil
		if err := s.issues.SaveVersioned(ctx, issue); err != nil {
			return nil, err
		}
		s.notifyReporter(ctx, issue, models.NotifyIssueResolved,
			fmt.Sprintf("Your issue %s has been resolved", issue.ReferenceNumber))

	case models.ResponsePending:
		issue.Status = models.StatusPending
		if in.AdditionalDays > 0 {
			d := now.Add(time.Duration(in.AdditionalDays) * 24 * time.Hour)
			issue.NextEscalationDate = &d
			issue.PendingExtensionCount++
		} else {
			d := deadlineForRole(actor.Role, now)
			issue.NextEscalationDate = &d
		}
		if err := s.issues.SaveVersioned(ctx, issue); err != nil {
			return nil, err
		}
		s.notifyReporter(ctx, issue, models.NotifyIssueResponse,
			fmt.Sprintf("Your issue %s was marked pending", issue.ReferenceNumber))

	case models.ResponsePlain:
		issue.Status = models.StatusInProgress
		d := deadlineForRole(actor.Role, now)
		issue.NextEscalationDate = &d
		if err := s.issues.SaveVersioned(ctx, issue); err != nil {
			return nil, err
		}
		s.notifyReporter(ctx, issue, models.NotifyIssueResponse,
			fmt.Sprintf("An official responded to your issue %s", issue.ReferenceNumber))

	case models.ResponseEscalate:
		outcome, err := s.Escalate(ctx, issue, actor, in.Message, now)
		if err != nil {
			return nil, err
		}
		if outcome.Result == EscalationTerminal {
			log.Printf("issue %s already at highest level, escalate request ignored", issue.ReferenceNumber)
		}
	}

	return response, nil
}

// Escalate moves the issue one tier up the ladder. At the top it is a no-op;
// with no eligible handler at the target tier it reschedules the deadline by
// the retry delay so the sweep tries again.
func (s *IssueService) Escalate(ctx context.Context, issue *models.Issue, fromUser *models.User, reason string, now time.Time) (EscalationOutcome, error) {
	next, ok := issue.CurrentLevel.Next()
	if !ok {
		return EscalationOutcome{Result: EscalationTerminal}, nil
	}

	candidate, err := s.users.FirstApprovedAtLevel(ctx, next, hierarchy.Scope(next, issue.Jurisdiction()))
	if err != nil {
		return EscalationOutcome{}, err
	}
	if candidate == nil {
		retry := now.Add(hierarchy.RetryDelay)
		issue.NextEscalationDate = &retry
		if err := s.issues.SaveVersioned(ctx, issue); err != nil {
			return EscalationOutcome{}, err
		}
		log.Printf("no handler available at %s for issue %s, retrying at %s", next, issue.ReferenceNumber, retry.Format(time.RFC3339))
		return EscalationOutcome{Result: EscalationRescheduled, RetryAt: &retry}, nil
	}

	fromUserID := issue.CurrentHandlerID
	if fromUser != nil {
		fromUserID = &fromUser.ID
	}
	record := &models.IssueEscalation{
		IssueID:    issue.ID,
		FromUserID: fromUserID,
		ToUserID:   &candidate.ID,
		FromLevel:  issue.CurrentLevel,
		ToLevel:    next,
		Reason:     reason,
	}
	if err := s.issues.CreateEscalation(ctx, record); err != nil {
		return EscalationOutcome{}, err
	}

	issue.CurrentHandlerID = &candidate.ID
	issue.CurrentLevel = next
	issue.EscalationCount++
	// The top tier has nowhere further to escalate, so it re-enters as
	// pending instead of escalated.
	if next == hierarchy.LevelPrimeMinister {
		issue.Status = models.StatusPending
	} else {
		issue.Status = models.StatusEscalated
	}
	deadline := hierarchy.Deadline(next, now)
	issue.NextEscalationDate = &deadline
	if err := s.issues.SaveVersioned(ctx, issue); err != nil {
		return EscalationOutcome{}, err
	}

	s.notify(ctx, candidate.ID, models.NotifyIssueEscalated, issue,
		fmt.Sprintf("Issue %s escalated to you: %s", issue.ReferenceNumber, reason))
	return EscalationOutcome{Result: EscalationApplied, Record: record}, nil
}

// SweepOutcome is one row of the overdue sweep report.
type SweepOutcome struct {
	IssueID   uint             `json:"issue_id"`
	Reference string           `json:"reference"`
	FromLevel hierarchy.Level  `json:"from_level"`
	ToLevel   hierarchy.Level  `json:"to_level,omitempty"`
	Result    EscalationResult `json:"result"`
	Err       error            `json:"-"`
}

// SweepableLevels returns the tiers the overdue sweep force-escalates.
// The prime minister tier is always excluded (it has no successor); the
// national ministry tier joins only when configured.
func (s *IssueService) SweepableLevels() []hierarchy.Level {
	levels := []hierarchy.Level{
		hierarchy.LevelGramaNiladhari,
		hierarchy.LevelDivisionalSecretary,
		hierarchy.LevelDistrictSecretary,
		hierarchy.LevelProvincialMinistry,
	}
	if s.sweepNational {
		levels = append(levels, hierarchy.LevelNationalMinistry)
	}
	return levels
}

// ListOverdue returns the issues the sweep would escalate at the given
// instant, without touching them. Used by the dry-run command.
func (s *IssueService) ListOverdue(ctx context.Context, now time.Time) ([]models.Issue, error) {
	return s.issues.ListOverdue(ctx, now, s.SweepableLevels())
}

// SweepOverdue force-escalates every issue whose deadline has lapsed without
// action. Failures are isolated per issue: one bad row never aborts the
// sweep.
func (s *IssueService) SweepOverdue(ctx context.Context, now time.Time) ([]SweepOutcome, error) {
	overdue, err := s.issues.ListOverdue(ctx, now, s.SweepableLevels())
	if err != nil {
		return nil, err
	}

	outcomes := make([]SweepOutcome, 0, len(overdue))
	for i := range overdue {
		issue := &overdue[i]
		row := SweepOutcome{
			IssueID:   issue.ID,
			Reference: issue.ReferenceNumber,
			FromLevel: issue.CurrentLevel,
		}
		outcome, err := s.Escalate(ctx, issue, nil, SweepReason, now)
		if err != nil {
			row.Err = err
			log.Printf("sweep: escalating issue %s failed: %v", issue.ReferenceNumber, err)
		} else {
			row.Result = outcome.Result
			if outcome.Record != nil {
				row.ToLevel = outcome.Record.ToLevel
			}
		}
		outcomes = append(outcomes, row)
	}
	return outcomes, nil
}

// deadlineForRole computes the standard deadline from the acting official's
// tier; admins reset by the lowest-tier duration.
func deadlineForRole(r hierarchy.Role, now time.Time) time.Time {
	if level, ok := r.Level(); ok {
		return hierarchy.Deadline(level, now)
	}
	return hierarchy.Deadline(hierarchy.LevelGramaNiladhari, now)
}

// notifyReporter notifies the citizen who filed the issue, when known.
func (s *IssueService) notifyReporter(ctx context.Context, issue *models.Issue, kind models.NotificationType, message string) {
	if issue.ReporterUserID == nil {
		return
	}
	s.notify(ctx, *issue.ReporterUserID, kind, issue, message)
}
