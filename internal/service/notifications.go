package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/repository"
)

// DefaultPollInterval is how often a Poller checks for unread notifications.
const DefaultPollInterval = 2 * time.Second

// NotificationService creates and reads user notifications.
type NotificationService struct {
	store repository.NotificationStore
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(store repository.NotificationStore) *NotificationService {
	return &NotificationService{store: store}
}

// Notify stores a new unread notification for userID.
func (s *NotificationService) Notify(ctx context.Context, userID, message, kind string) (domain.Notification, error) {
	if userID == "" || message == "" {
		return domain.Notification{}, fmt.Errorf("%w: user ID and message are required", ErrInvalidInput)
	}
	return s.store.CreateNotification(ctx, domain.Notification{
		UserID:  userID,
		Message: message,
		Type:    kind,
	})
}

// Unread lists the notifications userID has not read yet, oldest first.
func (s *NotificationService) Unread(ctx context.Context, userID string) ([]domain.Notification, error) {
	return s.store.ListUnreadNotifications(ctx, userID)
}

// MarkRead marks one of userID's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	return s.store.MarkNotificationRead(ctx, userID, id)
}

// UnreadSource lists unread notifications.
type UnreadSource interface {
	Unread(ctx context.Context, userID string) ([]domain.Notification, error)
}

// Poller repeatedly fetches unread notifications for one user.
type Poller struct {
	source   UnreadSource
	interval time.Duration
	logger   *slog.Logger
}

// NewPoller constructs a Poller. A non-positive interval uses DefaultPollInterval.
func NewPoller(source UnreadSource, interval time.Duration, logger *slog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{source: source, interval: interval, logger: logger.With("component", "notification_poller")}
}

// Run polls immediately and then on every tick until ctx is done, handing
// each successful fetch to fn. Fetch errors are logged and polling continues.
func (p *Poller) Run(ctx context.Context, userID string, fn func([]domain.Notification)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		notifications, err := p.source.Unread(ctx, userID)
		switch {
		case err != nil && ctx.Err() == nil:
			p.logger.Warn("poll unread notifications failed", "user_id", userID, "error", err)
		case err == nil:
			fn(notifications)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
