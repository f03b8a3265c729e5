package repository

import (
	"context"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

// ReportFilter narrows report listings. Zero values disable a filter.
type ReportFilter struct {
	UserID        string
	ExcludeUserID string
	CollectorID   string
	Status        domain.TaskStatus
	Limit         int
	NewestFirst   bool
}

// Transition describes a guarded status change on a report. The change is
// applied only when the stored status equals From and, when MatchCollector
// is set, the stored collector equals CollectorID.
type Transition struct {
	ReportID       string
	From           domain.TaskStatus
	To             domain.TaskStatus
	CollectorID    string
	MatchCollector bool
}

// AppendOptions tunes AppendTransaction.
type AppendOptions struct {
	// RequireCovered rejects a debit when the cached points, read under the
	// same lock as the append, are lower than the amount.
	RequireCovered bool
}

// UserStore persists users.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// ReportStore persists reports and the collections made against them.
type ReportStore interface {
	CreateReport(ctx context.Context, report domain.Report) (domain.Report, error)
	GetReport(ctx context.Context, id string) (domain.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]domain.Report, error)
	TransitionReport(ctx context.Context, t Transition) (domain.Report, error)
	SaveCollectedItem(ctx context.Context, item domain.CollectedItem) (domain.CollectedItem, error)
	ListCollectedItems(ctx context.Context, collectorID string) ([]domain.CollectedItem, error)
}

// LedgerStore persists the transaction log and the cached reward accounts
// derived from it. Every append refreshes the owner's cached account from
// the log inside the same unit of work.
type LedgerStore interface {
	GetRewardAccount(ctx context.Context, userID string) (domain.RewardAccount, error)
	AppendTransaction(ctx context.Context, tx domain.Transaction, opts AppendOptions) (domain.RewardAccount, error)
	ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	RebuildRewardAccount(ctx context.Context, userID string) (domain.RewardAccount, error)
	Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error)
}

// NotificationStore persists notifications.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error)
	ListUnreadNotifications(ctx context.Context, userID string) ([]domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
}

// Store aggregates every persistence concern of the backend.
type Store interface {
	UserStore
	ReportStore
	LedgerStore
	NotificationStore
	Ping(ctx context.Context) error
	Close()
}

// LevelStep is the number of lifetime earned points per reward level.
const LevelStep = 1000

// levelFor maps lifetime earnings to a level starting at 1.
func levelFor(earned int) int {
	if earned <= 0 {
		return 1
	}
	return 1 + earned/LevelStep
}
