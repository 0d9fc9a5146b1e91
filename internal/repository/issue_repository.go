package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/example/govsol/internal/hierarchy"
	"github.com/example/govsol/internal/models"
	"github.com/example/govsol/internal/service"
)

// IssueRepository provides persistence access for issues and their response
// and escalation records.
type IssueRepository struct {
	db *gorm.DB
}

// NewIssueRepository constructs a repository using the provided gorm DB.
func NewIssueRepository(db *gorm.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Create persists a new issue.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(issue).Error)
}

// FindByID returns the issue by primary key.
func (r *IssueRepository) FindByID(ctx context.Context, id uint) (*models.Issue, error) {
	var issue models.Issue
	err := r.db.WithContext(ctx).Preload("Attachments").First(&issue, "id = ?", id).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &issue, nil
}

// FindByReference returns the issue by its public reference number.
func (r *IssueRepository) FindByReference(ctx context.Context, ref string) (*models.Issue, error) {
	var issue models.Issue
	err := r.db.WithContext(ctx).Preload("Attachments").First(&issue, "reference_number = ?", ref).Error
	if err != nil {
		return nil, wrapNotFound(err)
	}
	return &issue, nil
}

// SaveVersioned persists issue mutations guarded by the version column.
// A concurrent writer bumps the version first, making this update match
// zero rows; that surfaces as ErrConflict.
func (r *IssueRepository) SaveVersioned(ctx context.Context, issue *models.Issue) error {
	prev := issue.Version
	issue.Version = prev + 1
	res := r.db.WithContext(ctx).
		Model(&models.Issue{}).
		Where("id = ? AND version = ?", issue.ID, prev).
		Select("*").
		Omit("id", "created_at", "reference_number").
		Updates(issue)
	if res.Error != nil {
		issue.Version = prev
		return errors.WithStack(res.Error)
	}
	if res.RowsAffected == 0 {
		issue.Version = prev
		return errors.Wrapf(service.ErrConflict, "issue %d version %d", issue.ID, prev)
	}
	return nil
}

func applyFilters(q *gorm.DB, f service.IssueFilters) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if len(f.StatusIn) > 0 {
		q = q.Where("status IN ?", f.StatusIn)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Level != "" {
		q = q.Where("current_level = ?", f.Level)
	}
	if f.ReporterUserID != 0 {
		q = q.Where("reporter_user_id = ?", f.ReporterUserID)
	}
	if f.HandlerID != 0 {
		q = q.Where("current_handler_id = ?", f.HandlerID)
	}
	if f.Scope.ProvinceID != 0 {
		q = q.Where("province_id = ?", f.Scope.ProvinceID)
	}
	if f.Scope.DistrictID != 0 {
		q = q.Where("district_id = ?", f.Scope.DistrictID)
	}
	if f.Scope.DSDivisionID != 0 {
		q = q.Where("ds_division_id = ?", f.Scope.DSDivisionID)
	}
	if f.Scope.GNDivisionID != 0 {
		q = q.Where("gn_division_id = ?", f.Scope.GNDivisionID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("title ILIKE ? OR description ILIKE ? OR reference_number ILIKE ?", like, like, like)
	}
	return q
}

// List returns issues matching the filters, newest first.
func (r *IssueRepository) List(ctx context.Context, f service.IssueFilters) ([]models.Issue, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	var issues []models.Issue
	q := applyFilters(r.db.WithContext(ctx).Model(&models.Issue{}), f)
	err := q.Order("created_at desc").Limit(limit).Offset(f.Offset).Find(&issues).Error
	return issues, errors.WithStack(err)
}

// Count returns the number of issues matching the filters.
func (r *IssueRepository) Count(ctx context.Context, f service.IssueFilters) (int64, error) {
	var n int64
	q := applyFilters(r.db.WithContext(ctx).Model(&models.Issue{}), f)
	err := q.Count(&n).Error
	return n, errors.WithStack(err)
}

// ListOverdue returns open issues whose escalation deadline has lapsed and
// whose level is in the sweepable set, oldest deadline first.
func (r *IssueRepository) ListOverdue(ctx context.Context, now time.Time, levels []hierarchy.Level) ([]models.Issue, error) {
	var issues []models.Issue
	err := r.db.WithContext(ctx).
		Where("status IN ?", []models.Status{models.StatusPending, models.StatusInProgress}).
		Where("next_escalation_date IS NOT NULL AND next_escalation_date <= ?", now).
		Where("current_level IN ?", levels).
		Order("next_escalation_date asc").
		Find(&issues).Error
	return issues, errors.WithStack(err)
}

// ListEscalatedFrom returns issues that have moved up and away from the
// official's tier within their jurisdiction.
func (r *IssueRepository) ListEscalatedFrom(ctx context.Context, official *models.User) ([]models.Issue, error) {
	level, ok := official.Role.Level()
	q := r.db.WithContext(ctx).
		Model(&models.Issue{}).
		Distinct("issues.*").
		Joins("JOIN issue_escalations ON issue_escalations.issue_id = issues.id").
		Where("issues.escalation_count > 0")
	if ok {
		q = q.Where("issue_escalations.from_level = ?", level)
		scope := hierarchy.Scope(level, official.Jurisdiction())
		if scope.ProvinceID != 0 {
			q = q.Where("issues.province_id = ?", scope.ProvinceID)
		}
		if scope.DistrictID != 0 {
			q = q.Where("issues.district_id = ?", scope.DistrictID)
		}
		if scope.DSDivisionID != 0 {
			q = q.Where("issues.ds_division_id = ?", scope.DSDivisionID)
		}
		if scope.GNDivisionID != 0 {
			q = q.Where("issues.gn_division_id = ?", scope.GNDivisionID)
		}
	}
	var issues []models.Issue
	err := q.Order("issues.updated_at desc").Find(&issues).Error
	return issues, errors.WithStack(err)
}

// CreateResponse appends a response record.
func (r *IssueRepository) CreateResponse(ctx context.Context, resp *models.IssueResponse) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(resp).Error)
}

// ListResponses returns an issue's responses, newest first.
func (r *IssueRepository) ListResponses(ctx context.Context, issueID uint) ([]models.IssueResponse, error) {
	var responses []models.IssueResponse
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("issue_id = ?", issueID).
		Order("created_at desc").
		Find(&responses).Error
	return responses, errors.WithStack(err)
}

// CreateEscalation appends an escalation audit record.
func (r *IssueRepository) CreateEscalation(ctx context.Context, esc *models.IssueEscalation) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(esc).Error)
}

// ListEscalations returns an issue's escalation trail, newest first.
func (r *IssueRepository) ListEscalations(ctx context.Context, issueID uint) ([]models.IssueEscalation, error) {
	var escalations []models.IssueEscalation
	err := r.db.WithContext(ctx).
		Where("issue_id = ?", issueID).
		Order("escalated_at desc").
		Find(&escalations).Error
	return escalations, errors.WithStack(err)
}

// CreateAttachment records attachment metadata for an issue.
func (r *IssueRepository) CreateAttachment(ctx context.Context, a *models.IssueAttachment) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(a).Error)
}

// FindAttachment returns attachment metadata by primary key.
func (r *IssueRepository) FindAttachment(ctx context.Context, id uint) (*models.IssueAttachment, error) {
	var a models.IssueAttachment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, wrapNotFound(err)
	}
	return &a, nil
}

// CreateResponseAttachment records attachment metadata for a response.
func (r *IssueRepository) CreateResponseAttachment(ctx context.Context, a *models.ResponseAttachment) error {
	return errors.WithStack(r.db.WithContext(ctx).Create(a).Error)
}

func wrapNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.Wrap(service.ErrNotFound, err.Error())
	}
	return errors.WithStack(err)
}
