// internal/services/notification_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tallerpiolin/inventory-backend/internal/cache"
	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/metrics"
	"github.com/tallerpiolin/inventory-backend/internal/models"
	"github.com/tallerpiolin/inventory-backend/internal/realtime"
)

// NotificationLoadLimit is how many of the newest notifications Load keeps in view.
const NotificationLoadLimit = 50

// Notifier appends entries to the notification ledger.
type Notifier interface {
	Append(ctx context.Context, message string, kind models.NotificationKind, productName string) (*models.Notification, error)
}

// NotificationService is the notification ledger: the store holds the log,
// the view holds what the UI shows and is kept in sync by local writes and
// realtime changes.
type NotificationService struct {
	store gateway.NotificationStore
	view  *cache.List[models.Notification]
	now   func() time.Time
}

func NewNotificationService(store gateway.NotificationStore) *NotificationService {
	return &NotificationService{
		store: store,
		view: cache.New(
			func(n *models.Notification) uuid.UUID { return n.ID },
			func(a, b models.Notification) int { return b.CreatedAt.Compare(a.CreatedAt) },
			0,
		),
		now: time.Now,
	}
}

// Load replaces the view with the newest notifications from the store.
func (s *NotificationService) Load(ctx context.Context) error {
	items, err := s.store.List(ctx, NotificationLoadLimit)
	if err != nil {
		return fmt.Errorf("failed to load notifications: %w", err)
	}
	s.view.Reset(items)
	s.publishUnread()
	return nil
}

func (s *NotificationService) Append(ctx context.Context, message string, kind models.NotificationKind, productName string) (*models.Notification, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, models.NewValidationError("mensaje es obligatorio")
	}
	if !kind.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("tipo de notificación inválido: %s", kind))
	}

	n := &models.Notification{
		Message: message,
		Kind:    kind,
	}
	if name := strings.TrimSpace(productName); name != "" {
		n.ProductName = &name
	}

	if err := s.store.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to append notification: %w", err)
	}

	s.view.Insert(*n)
	s.publishUnread()
	return n, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	n, err := s.store.MarkRead(ctx, id)
	if err != nil {
		return nil, err
	}
	s.view.Update(*n)
	s.publishUnread()
	return n, nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	count, err := s.store.MarkAllRead(ctx)
	if err != nil {
		return 0, err
	}
	s.view.Each(func(n *models.Notification) { n.Read = true })
	s.publishUnread()
	return count, nil
}

func (s *NotificationService) Remove(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.view.Remove(id)
	s.publishUnread()
	return nil
}

func (s *NotificationService) RemoveAllRead(ctx context.Context) (int64, error) {
	count, err := s.store.DeleteRead(ctx)
	if err != nil {
		return 0, err
	}
	s.view.RemoveFunc(func(n *models.Notification) bool { return n.Read })
	return count, nil
}

func (s *NotificationService) RemoveAll(ctx context.Context) (int64, error) {
	count, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.view.Reset(nil)
	s.publishUnread()
	return count, nil
}

// PruneOlderThan deletes notifications created more than age ago.
func (s *NotificationService) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	if age <= 0 {
		return 0, models.NewValidationError("la antigüedad debe ser mayor que cero")
	}
	cutoff := s.now().Add(-age)
	count, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.view.RemoveFunc(func(n *models.Notification) bool { return n.CreatedAt.Before(cutoff) })
	s.publishUnread()
	return count, nil
}

// ListByKind filters the view without calling the store.
func (s *NotificationService) ListByKind(filter models.KindFilter) []models.Notification {
	return s.view.Filter(func(n *models.Notification) bool { return filter.Match(n.Kind) })
}

func (s *NotificationService) Unread() int {
	return len(s.view.Filter(func(n *models.Notification) bool { return !n.Read }))
}

// ApplyChange merges a realtime change on the notifications table.
func (s *NotificationService) ApplyChange(c realtime.Change) error {
	res, err := s.view.Apply(c)
	if err != nil {
		return err
	}
	if res.Changed {
		s.publishUnread()
	}
	return nil
}

func (s *NotificationService) publishUnread() {
	metrics.SetUnread(s.Unread())
}

// notify appends to the ledger and only logs when that fails, so a broken
// ledger never masks the outcome of the operation that triggered it.
func notify(ctx context.Context, n Notifier, message string, kind models.NotificationKind, productName string) {
	if n == nil {
		return
	}
	if _, err := n.Append(ctx, message, kind, productName); err != nil {
		logrus.WithFields(logrus.Fields{
			"kind":  kind,
			"error": err.Error(),
		}).Warn("Failed to append notification")
	}
}

// notifyFailure records a user-facing failure. Validation errors are
// reported to the caller only and never reach the store, the form shows them.
func notifyFailure(ctx context.Context, n Notifier, message string, err error, productName string) {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return
	}
	notifyError(ctx, n, message, productName)
}

// notifyError records a failure of kind error, validation errors included.
func notifyError(ctx context.Context, n Notifier, message string, productName string) {
	notify(context.WithoutCancel(ctx), n, message, models.NotificationKindError, productName)
}
