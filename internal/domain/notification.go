package domain

import "time"

// NotificationTypeReward marks notifications raised by point-earning events.
const NotificationTypeReward = "reward"

// Notification is a user-scoped message shown until the user reads it.
type Notification struct {
	ID        string
	UserID    string
	Message   string
	Type      string
	IsRead    bool
	CreatedAt time.Time
}
