package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

// MemoryStore keeps every table in process memory. A single mutex guards all
// maps so multi-table operations such as an append plus cache refresh are
// atomic. It backs local development and tests.
type MemoryStore struct {
	mu            sync.Mutex
	users         map[string]domain.User
	usersByEmail  map[string]string
	reports       map[string]domain.Report
	collected     map[string]domain.CollectedItem
	accounts      map[string]domain.RewardAccount
	transactions  map[string][]domain.Transaction
	notifications map[string]domain.Notification
	seq           map[string]int64 // orders inserts that share a timestamp
	nextSeq       int64
	nowFn         func() time.Time
	idFn          func() string
	pingErr       error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]domain.User),
		usersByEmail:  make(map[string]string),
		reports:       make(map[string]domain.Report),
		collected:     make(map[string]domain.CollectedItem),
		accounts:      make(map[string]domain.RewardAccount),
		transactions:  make(map[string][]domain.Transaction),
		notifications: make(map[string]domain.Notification),
		seq:           make(map[string]int64),
		nowFn:         time.Now,
		idFn:          uuid.NewString,
	}
}

// WithClock overrides the timestamp source (used primarily in tests).
func (s *MemoryStore) WithClock(nowFn func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	if nowFn != nil {
		s.nowFn = nowFn
	}
	return s
}

// WithPingError forces Ping to return err.
func (s *MemoryStore) WithPingError(err error) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
	return s
}

func (s *MemoryStore) Ping(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

func (s *MemoryStore) Close() {}

func (s *MemoryStore) stamp(id string) time.Time {
	s.nextSeq++
	s.seq[id] = s.nextSeq
	return s.nowFn().UTC()
}

// --- users ---

func (s *MemoryStore) CreateUser(_ context.Context, user domain.User) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(strings.TrimSpace(user.Email))
	if _, exists := s.usersByEmail[email]; exists {
		return domain.User{}, ErrDuplicate
	}
	if user.ID == "" {
		user.ID = s.idFn()
	}
	user.Email = email
	user.CreatedAt = s.stamp(user.ID)
	s.users[user.ID] = user
	s.usersByEmail[email] = user.ID
	return user, nil
}

func (s *MemoryStore) GetUser(_ context.Context, id string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return user, nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.usersByEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return s.users[id], nil
}

func (s *MemoryStore) ListUsers(context.Context) ([]domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return s.seq[users[i].ID] < s.seq[users[j].ID] })
	return users, nil
}

// --- reports ---

func (s *MemoryStore) CreateReport(_ context.Context, report domain.Report) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[report.UserID]; !ok {
		return domain.Report{}, ErrNotFound
	}
	if report.ID == "" {
		report.ID = s.idFn()
	}
	if report.Status == "" {
		report.Status = domain.StatusPending
	}
	report.CreatedAt = s.stamp(report.ID)
	s.reports[report.ID] = report
	return report, nil
}

func (s *MemoryStore) GetReport(_ context.Context, id string) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	report, ok := s.reports[id]
	if !ok {
		return domain.Report{}, ErrNotFound
	}
	return report, nil
}

func (s *MemoryStore) ListReports(_ context.Context, filter ReportFilter) ([]domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []domain.Report
	for _, r := range s.reports {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.ExcludeUserID != "" && r.UserID == filter.ExcludeUserID {
			continue
		}
		if filter.CollectorID != "" && r.CollectorID != filter.CollectorID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if filter.NewestFirst {
			return s.seq[out[i].ID] > s.seq[out[j].ID]
		}
		return s.seq[out[i].ID] < s.seq[out[j].ID]
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *MemoryStore) TransitionReport(_ context.Context, t Transition) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, ok := s.reports[t.ReportID]
	if !ok {
		return domain.Report{}, ErrNotFound
	}
	if report.Status != t.From {
		return domain.Report{}, ErrConflict
	}
	if t.MatchCollector && report.CollectorID != t.CollectorID {
		return domain.Report{}, ErrConflict
	}
	report.Status = t.To
	if t.CollectorID != "" {
		report.CollectorID = t.CollectorID
	}
	s.reports[report.ID] = report
	return report, nil
}

func (s *MemoryStore) SaveCollectedItem(_ context.Context, item domain.CollectedItem) (domain.CollectedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reports[item.ReportID]; !ok {
		return domain.CollectedItem{}, ErrNotFound
	}
	if item.ID == "" {
		item.ID = s.idFn()
	}
	item.CollectedAt = s.stamp(item.ID)
	s.collected[item.ID] = item
	return item, nil
}

func (s *MemoryStore) ListCollectedItems(_ context.Context, collectorID string) ([]domain.CollectedItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.CollectedItem
	for _, item := range s.collected {
		if item.CollectorID == collectorID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] < s.seq[out[j].ID] })
	return out, nil
}

// --- ledger ---

func (s *MemoryStore) GetRewardAccount(_ context.Context, userID string) (domain.RewardAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return domain.RewardAccount{}, ErrNotFound
	}
	return s.accountLocked(userID), nil
}

func (s *MemoryStore) accountLocked(userID string) domain.RewardAccount {
	account, ok := s.accounts[userID]
	if !ok {
		now := s.nowFn().UTC()
		account = domain.RewardAccount{
			UserID:    userID,
			Level:     1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.accounts[userID] = account
	}
	return account
}

func (s *MemoryStore) AppendTransaction(_ context.Context, tx domain.Transaction, opts AppendOptions) (domain.RewardAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[tx.UserID]; !ok {
		return domain.RewardAccount{}, ErrNotFound
	}
	account := s.accountLocked(tx.UserID)
	if opts.RequireCovered && !tx.Kind.IsCredit() && account.Points < tx.Amount {
		return domain.RewardAccount{}, ErrInsufficientPoints
	}
	if tx.ID == "" {
		tx.ID = s.idFn()
	}
	tx.CreatedAt = s.stamp(tx.ID)
	s.transactions[tx.UserID] = append(s.transactions[tx.UserID], tx)
	return s.rebuildLocked(tx.UserID), nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, userID string, limit int) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := s.transactions[userID]
	out := make([]domain.Transaction, 0, len(log))
	for i := len(log) - 1; i >= 0; i-- {
		out = append(out, log[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) RebuildRewardAccount(_ context.Context, userID string) (domain.RewardAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return domain.RewardAccount{}, ErrNotFound
	}
	return s.rebuildLocked(userID), nil
}

func (s *MemoryStore) rebuildLocked(userID string) domain.RewardAccount {
	account := s.accountLocked(userID)
	log := s.transactions[userID]
	account.Points = domain.SumTransactions(log)
	account.Level = levelFor(domain.TotalEarned(log))
	account.UpdatedAt = s.nowFn().UTC()
	s.accounts[userID] = account
	return account
}

func (s *MemoryStore) Leaderboard(_ context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.LeaderboardEntry
	for userID, account := range s.accounts {
		if account.Points <= 0 {
			continue
		}
		out = append(out, domain.LeaderboardEntry{
			UserID:   userID,
			UserName: s.users[userID].Name,
			Points:   account.Points,
			Level:    account.Level,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// --- notifications ---

func (s *MemoryStore) CreateNotification(_ context.Context, n domain.Notification) (domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[n.UserID]; !ok {
		return domain.Notification{}, ErrNotFound
	}
	if n.ID == "" {
		n.ID = s.idFn()
	}
	n.IsRead = false
	n.CreatedAt = s.stamp(n.ID)
	s.notifications[n.ID] = n
	return n, nil
}

func (s *MemoryStore) ListUnreadNotifications(_ context.Context, userID string) ([]domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID && !n.IsRead {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i].ID] < s.seq[out[j].ID] })
	return out, nil
}

func (s *MemoryStore) MarkNotificationRead(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.IsRead = true
	s.notifications[id] = n
	return nil
}
