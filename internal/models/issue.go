package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/govsol/internal/hierarchy"
)

// Status describes the life-cycle state of an issue.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusEscalated  Status = "escalated"
	StatusClosed     Status = "closed"
)

// Terminal reports whether the status ends the escalation life cycle.
func (s Status) Terminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// Priority of an issue as chosen by the reporter.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Category of a grievance.
type Category string

const (
	CategoryInfrastructure Category = "infrastructure"
	CategoryUtilities      Category = "utilities"
	CategoryTransportation Category = "transportation"
	CategoryHealthcare     Category = "healthcare"
	CategoryEducation      Category = "education"
	CategoryEnvironment    Category = "environment"
	CategoryPublicSafety   Category = "public_safety"
	CategoryOther          Category = "other"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryInfrastructure, CategoryUtilities, CategoryTransportation,
		CategoryHealthcare, CategoryEducation, CategoryEnvironment,
		CategoryPublicSafety, CategoryOther:
		return true
	}
	return false
}

// AnonymousReporterName is recorded when a submission carries no name.
const AnonymousReporterName = "Anonymous User"

// Issue is a citizen-filed grievance and its position on the escalation
// ladder. Version guards against concurrent officials overwriting each
// other's transition: a save with a stale version is rejected.
type Issue struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	ReferenceNumber string `gorm:"size:20;uniqueIndex" json:"reference_number"`

	Title       string   `gorm:"size:300" json:"title"`
	Description string   `json:"description"`
	Category    Category `gorm:"size:20;default:other" json:"category"`
	Language    string   `gorm:"size:2;default:en" json:"language"`

	ReporterUserID     *uint  `json:"reporter_user_id,omitempty"`
	ReporterUser       *User  `json:"-"`
	ReporterName       string `gorm:"size:200" json:"reporter_name"`
	ReporterPhone      string `gorm:"size:15" json:"reporter_phone,omitempty"`
	ReporterAddress    string `json:"reporter_address,omitempty"`
	ReporterNationalID string `gorm:"size:12" json:"-"`
	IsAnonymous        bool   `json:"is_anonymous"`

	ProvinceID   uint   `gorm:"index" json:"province_id"`
	DistrictID   uint   `gorm:"index" json:"district_id"`
	DSDivisionID uint   `gorm:"index" json:"ds_division_id"`
	GNDivisionID *uint  `gorm:"index" json:"gn_division_id,omitempty"`
	Address      string `json:"address,omitempty"`

	Status           Status          `gorm:"size:20;index" json:"status"`
	Priority         Priority        `gorm:"size:10;default:medium" json:"priority"`
	CurrentLevel     hierarchy.Level `gorm:"size:20;index" json:"current_level"`
	CurrentHandlerID *uint           `json:"current_handler_id,omitempty"`
	CurrentHandler   *User           `json:"-"`

	EscalationCount       int        `json:"escalation_count"`
	NextEscalationDate    *time.Time `gorm:"index" json:"next_escalation_date,omitempty"`
	PendingExtensionCount int        `json:"pending_extension_count"`
	MaxPendingExtensions  int        `gorm:"default:2" json:"max_pending_extensions"`
	Version               int        `json:"-"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`

	Responses   []IssueResponse   `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Escalations []IssueEscalation `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Attachments []IssueAttachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// Jurisdiction returns the administrative path the issue is located in.
func (i *Issue) Jurisdiction() hierarchy.Jurisdiction {
	return hierarchy.Jurisdiction{
		ProvinceID:   i.ProvinceID,
		DistrictID:   i.DistrictID,
		DSDivisionID: i.DSDivisionID,
		GNDivisionID: deref(i.GNDivisionID),
	}
}

// NewReferenceNumber generates a public reference of the form
// GS<year><8 uppercase hex characters>.
func NewReferenceNumber(now time.Time) string {
	entropy := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
	return fmt.Sprintf("GS%d%s", now.Year(), entropy)
}

// BeforeCreate populates the reference number and the lifecycle defaults so
// every issue enters the ladder at the lowest tier with a deadline set.
func (i *Issue) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if i.ReferenceNumber == "" {
		i.ReferenceNumber = NewReferenceNumber(now)
	}
	if i.Status == "" {
		i.Status = StatusPending
	}
	if i.CurrentLevel == "" {
		i.CurrentLevel = hierarchy.LevelGramaNiladhari
	}
	if i.Priority == "" {
		i.Priority = PriorityMedium
	}
	if i.Category == "" {
		i.Category = CategoryOther
	}
	if i.Language == "" {
		i.Language = "en"
	}
	if i.MaxPendingExtensions == 0 {
		i.MaxPendingExtensions = 2
	}
	if i.ReporterName == "" {
		i.ReporterName = AnonymousReporterName
	}
	if i.NextEscalationDate == nil && i.Status == StatusPending {
		d := hierarchy.Deadline(i.CurrentLevel, now)
		i.NextEscalationDate = &d
	}
	return nil
}

// ResponseType is the action an official takes on an issue.
type ResponseType string

const (
	ResponsePlain    ResponseType = "response"
	ResponsePending  ResponseType = "pending"
	ResponseResolved ResponseType = "resolved"
	ResponseEscalate ResponseType = "escalate"
)

// Valid reports whether t is a known response type.
func (t ResponseType) Valid() bool {
	switch t {
	case ResponsePlain, ResponsePending, ResponseResolved, ResponseEscalate:
		return true
	}
	return false
}

// IssueResponse is an append-only record of an official's action.
type IssueResponse struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	IssueID     uint         `gorm:"index" json:"issue_id"`
	ResponderID uint         `json:"responder_id"`
	Responder   *User        `json:"-"`
	Type        ResponseType `gorm:"column:response_type;size:10" json:"response_type"`
	Message     string       `json:"message"`
	Language    string       `gorm:"size:2;default:en" json:"language"`
	// AdditionalDays is only meaningful for pending responses requesting
	// a deadline extension.
	AdditionalDays int       `json:"additional_days,omitempty"`
	CreatedAt      time.Time `json:"created_at"`

	Attachments []ResponseAttachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

// IssueEscalation is an immutable audit record of one ladder move. FromUserID
// is absent for sweep escalations of unassigned issues; ToUserID is absent
// when no eligible official was found.
type IssueEscalation struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	IssueID    uint            `gorm:"index" json:"issue_id"`
	FromUserID *uint           `json:"from_user_id,omitempty"`
	ToUserID   *uint           `json:"to_user_id,omitempty"`
	FromLevel  hierarchy.Level `gorm:"size:20" json:"from_level"`
	ToLevel    hierarchy.Level `gorm:"size:20" json:"to_level"`
	Reason     string          `json:"reason"`
	CreatedAt  time.Time       `gorm:"column:escalated_at" json:"escalated_at"`
}

// AttachmentType classifies an uploaded file.
type AttachmentType string

const (
	AttachmentImage    AttachmentType = "image"
	AttachmentVideo    AttachmentType = "video"
	AttachmentDocument AttachmentType = "document"
)

// AttachmentTypeFor maps an upload content type onto the stored class.
func AttachmentTypeFor(contentType string) AttachmentType {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return AttachmentImage
	case strings.HasPrefix(contentType, "video/"):
		return AttachmentVideo
	default:
		return AttachmentDocument
	}
}

// IssueAttachment records metadata and the object-store key of a file
// attached to an issue. File contents live in the object store.
type IssueAttachment struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	IssueID     uint           `gorm:"index" json:"issue_id"`
	ObjectKey   string         `gorm:"size:512" json:"object_key"`
	Type        AttachmentType `gorm:"column:attachment_type;size:10" json:"attachment_type"`
	Description string         `gorm:"size:200" json:"description,omitempty"`
	UploadedAt  time.Time      `gorm:"autoCreateTime" json:"uploaded_at"`
}

// ResponseAttachment is a file attached to an official's response.
type ResponseAttachment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ResponseID  uint      `gorm:"index" json:"response_id"`
	ObjectKey   string    `gorm:"size:512" json:"object_key"`
	Description string    `gorm:"size:200" json:"description,omitempty"`
	UploadedAt  time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}
