package service

import (
	"context"
	"log"

	"github.com/example/govsol/internal/models"
	"github.com/example/govsol/internal/mq"
)

// NotificationStore persists per-user notifications.
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, userID uint) error
}

// NotificationService persists notifications and mirrors them onto the event
// bus, where delivery workers (email, SMS, push) pick them up. The bus is
// best-effort: a publish failure is logged, the stored notification stands.
type NotificationService struct {
	store     NotificationStore
	publisher mq.Publisher
}

// NewNotificationService builds the service. publisher may be nil when the
// broker is unavailable; notifications are then inbox-only.
func NewNotificationService(store NotificationStore, publisher mq.Publisher) *NotificationService {
	return &NotificationService{store: store, publisher: publisher}
}

// Notify stores the notification and publishes it as an issue event.
func (s *NotificationService) Notify(ctx context.Context, n *models.Notification) error {
	if err := s.store.Create(ctx, n); err != nil {
		return err
	}
	if s.publisher == nil {
		return nil
	}
	payload := map[string]any{
		"type":    n.Type,
		"user_id": n.UserID,
		"title":   n.Title,
		"message": n.Message,
	}
	if n.IssueID != nil {
		payload["issue_id"] = *n.IssueID
	}
	if err := s.publisher.Publish(ctx, "issue."+string(n.Type), payload); err != nil {
		log.Printf("publish notification %s failed: %v", n.Type, err)
	}
	return nil
}

// ListForUser returns the newest notifications for a user's inbox.
func (s *NotificationService) ListForUser(ctx context.Context, userID uint) ([]models.Notification, error) {
	return s.store.ListByUser(ctx, userID, 50)
}

// MarkRead flags one of the user's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID uint) error {
	return s.store.MarkRead(ctx, id, userID)
}
