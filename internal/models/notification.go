package models

import "time"

// NotificationType classifies a notification event.
type NotificationType string

const (
	NotifyNewIssue       NotificationType = "new_issue"
	NotifyIssueResponse  NotificationType = "issue_response"
	NotifyIssueEscalated NotificationType = "issue_escalated"
	NotifyIssueResolved  NotificationType = "issue_resolved"
	NotifyReminder       NotificationType = "reminder"
)

// Notification is a per-user message persisted for the in-app inbox and
// mirrored onto the event bus for external delivery channels.
type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"index" json:"user_id"`
	Type      NotificationType `gorm:"column:notification_type;size:20" json:"notification_type"`
	Title     string           `gorm:"size:200" json:"title"`
	Message   string           `json:"message"`
	IssueID   *uint            `json:"issue_id,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
