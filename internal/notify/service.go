package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/continuum-dev/continuum/internal/model"
)

// Service composes the durable Store with the in-process Hub: Publish
// always writes through before attempting fan-out, so a notification
// survives even if no connection is live (spec.md section 4.9).
type Service struct {
	store Store
	hub   *Hub
}

func NewService(store Store, hub *Hub) *Service {
	return &Service{store: store, hub: hub}
}

// Emit creates a notification of the given type and fans it out.
func (s *Service) Emit(ctx context.Context, userID string, typ model.NotificationType, title, body string, payload []byte) error {
	n := &model.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		Payload:   payload,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("notify: emit: %w", err)
	}
	s.hub.Publish(ctx, n)
	return nil
}

// List returns a user's notifications, unread-first.
func (s *Service) List(ctx context.Context, userID string, limit int) ([]model.Notification, error) {
	return s.store.ListNotifications(ctx, userID, limit)
}

// ReplayUnread returns up to ReplayLimit unread notifications
// oldest-first, for a freshly connected websocket.
func (s *Service) ReplayUnread(ctx context.Context, userID string) ([]model.Notification, error) {
	return s.store.RecentUnread(ctx, userID, ReplayLimit)
}

// Ack marks one notification read, the effect of both the REST
// mark-read route and an in-band `{"ack": "<id>"}` websocket frame.
func (s *Service) Ack(ctx context.Context, userID, notificationID string) error {
	return s.store.MarkRead(ctx, userID, notificationID)
}

// AckAll marks every unread notification for a user read.
func (s *Service) AckAll(ctx context.Context, userID string) error {
	return s.store.MarkAllRead(ctx, userID)
}
