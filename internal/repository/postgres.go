package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vanshika/ecocycle/backend/internal/domain"
)

// PostgresOptions configures the Postgres store.
type PostgresOptions struct {
	DSN      string
	MaxConns int32
}

// ErrMissingDSN indicates the database URL is not provided.
var ErrMissingDSN = errors.New("database URL is required")

// PostgresStore persists state in Postgres through a pgx pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NewPostgresStore connects and initializes the schema.
func NewPostgresStore(ctx context.Context, opts PostgresOptions) (*PostgresStore, error) {
	if opts.DSN == "" {
		return nil, ErrMissingDSN
	}
	cfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if opts.MaxConns > 0 {
		cfg.MaxConns = opts.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schemaSQL)
	return err
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// --- users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user domain.User) (domain.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO users (id, email, name) VALUES ($1, $2, $3)
RETURNING id, email, name, created_at`,
		user.ID, strings.ToLower(strings.TrimSpace(user.Email)), user.Name)
	created, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.User{}, ErrDuplicate
		}
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT id, email, name, created_at FROM users WHERE id=$1`, id))
	if err != nil {
		return domain.User{}, notFoundOr(err, "get user %s", id)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := scanUser(s.pool.QueryRow(ctx, `SELECT id, email, name, created_at FROM users WHERE email=$1`, email))
	if err != nil {
		return domain.User{}, notFoundOr(err, "get user by email")
	}
	return user, nil
}

func (s *PostgresStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, email, name, created_at FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// --- reports ---

const reportColumns = `id, user_id, location, category, item_type, amount, image_url, verification_result, status, COALESCE(collector_id, ''), created_at`

func (s *PostgresStore) CreateReport(ctx context.Context, report domain.Report) (domain.Report, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.Status == "" {
		report.Status = domain.StatusPending
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO reports (id, user_id, location, category, item_type, amount, image_url, verification_result, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING `+reportColumns,
		report.ID, report.UserID, report.Location, string(report.Category), report.ItemType,
		report.Amount, report.ImageURL, nullableJSON(report.VerificationResult), string(report.Status))
	created, err := scanReport(row)
	if err != nil {
		return domain.Report{}, fmt.Errorf("insert report: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (domain.Report, error) {
	report, err := scanReport(s.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id=$1`, id))
	if err != nil {
		return domain.Report{}, notFoundOr(err, "get report %s", id)
	}
	return report, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]domain.Report, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if filter.UserID != "" {
		add("user_id = $%d", filter.UserID)
	}
	if filter.ExcludeUserID != "" {
		add("user_id <> $%d", filter.ExcludeUserID)
	}
	if filter.CollectorID != "" {
		add("collector_id = $%d", filter.CollectorID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}

	query := `SELECT ` + reportColumns + ` FROM reports`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	if filter.NewestFirst {
		query += " ORDER BY created_at DESC, id DESC"
	} else {
		query += " ORDER BY created_at, id"
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var reports []domain.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

func (s *PostgresStore) TransitionReport(ctx context.Context, t Transition) (domain.Report, error) {
	query := `
UPDATE reports
SET status = $2, collector_id = COALESCE(NULLIF($3, ''), collector_id)
WHERE id = $1 AND status = $4`
	args := []any{t.ReportID, string(t.To), t.CollectorID, string(t.From)}
	if t.MatchCollector {
		query += ` AND collector_id = $5`
		args = append(args, t.CollectorID)
	}
	query += ` RETURNING ` + reportColumns

	report, err := scanReport(s.pool.QueryRow(ctx, query, args...))
	if err == nil {
		return report, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Report{}, fmt.Errorf("transition report %s: %w", t.ReportID, err)
	}
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE id=$1)`, t.ReportID).Scan(&exists); err != nil {
		return domain.Report{}, fmt.Errorf("check report %s: %w", t.ReportID, err)
	}
	if !exists {
		return domain.Report{}, ErrNotFound
	}
	return domain.Report{}, ErrConflict
}

func (s *PostgresStore) SaveCollectedItem(ctx context.Context, item domain.CollectedItem) (domain.CollectedItem, error) {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO collected_items (id, report_id, collector_id, status, verification_result)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, report_id, collector_id, status, verification_result, collected_at`,
		item.ID, item.ReportID, item.CollectorID, string(item.Status), nullableJSON(item.VerificationResult))
	saved, err := scanCollectedItem(row)
	if err != nil {
		return domain.CollectedItem{}, fmt.Errorf("insert collected item: %w", err)
	}
	return saved, nil
}

func (s *PostgresStore) ListCollectedItems(ctx context.Context, collectorID string) ([]domain.CollectedItem, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, report_id, collector_id, status, verification_result, collected_at
FROM collected_items WHERE collector_id=$1 ORDER BY collected_at, id`, collectorID)
	if err != nil {
		return nil, fmt.Errorf("list collected items: %w", err)
	}
	defer rows.Close()

	var items []domain.CollectedItem
	for rows.Next() {
		item, err := scanCollectedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan collected item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// --- ledger ---

func (s *PostgresStore) GetRewardAccount(ctx context.Context, userID string) (domain.RewardAccount, error) {
	if err := ensureAccount(ctx, s.pool, userID); err != nil {
		return domain.RewardAccount{}, err
	}
	account, err := scanAccount(s.pool.QueryRow(ctx, `
SELECT user_id, points, level, created_at, updated_at FROM reward_accounts WHERE user_id=$1`, userID))
	if err != nil {
		return domain.RewardAccount{}, notFoundOr(err, "get reward account %s", userID)
	}
	return account, nil
}

func (s *PostgresStore) AppendTransaction(ctx context.Context, entry domain.Transaction, opts AppendOptions) (domain.RewardAccount, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.RewardAccount{}, fmt.Errorf("begin ledger append: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := ensureAccount(ctx, tx, entry.UserID); err != nil {
		return domain.RewardAccount{}, err
	}

	var cached int
	if err := tx.QueryRow(ctx, `SELECT points FROM reward_accounts WHERE user_id=$1 FOR UPDATE`, entry.UserID).Scan(&cached); err != nil {
		return domain.RewardAccount{}, fmt.Errorf("lock reward account %s: %w", entry.UserID, err)
	}
	if opts.RequireCovered && !entry.Kind.IsCredit() && cached < entry.Amount {
		return domain.RewardAccount{}, ErrInsufficientPoints
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO transactions (id, user_id, kind, amount, description) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.UserID, string(entry.Kind), entry.Amount, entry.Description); err != nil {
		return domain.RewardAccount{}, fmt.Errorf("insert transaction: %w", err)
	}

	account, err := refreshAccount(ctx, tx, entry.UserID)
	if err != nil {
		return domain.RewardAccount{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.RewardAccount{}, fmt.Errorf("commit ledger append: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) ListTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	query := `
SELECT id, user_id, kind, amount, description, created_at
FROM transactions WHERE user_id=$1 ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		var (
			t    domain.Transaction
			kind string
		)
		if err := rows.Scan(&t.ID, &t.UserID, &kind, &t.Amount, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Kind = domain.TransactionKind(kind)
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (s *PostgresStore) RebuildRewardAccount(ctx context.Context, userID string) (domain.RewardAccount, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.RewardAccount{}, fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := ensureAccount(ctx, tx, userID); err != nil {
		return domain.RewardAccount{}, err
	}
	account, err := refreshAccount(ctx, tx, userID)
	if err != nil {
		return domain.RewardAccount{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.RewardAccount{}, fmt.Errorf("commit rebuild: %w", err)
	}
	return account, nil
}

func (s *PostgresStore) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	query := `
SELECT r.user_id, COALESCE(u.name, ''), r.points, r.level
FROM reward_accounts r
LEFT JOIN users u ON u.id = r.user_id
WHERE r.points > 0
ORDER BY r.points DESC, r.user_id`
	var args []any
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []domain.LeaderboardEntry
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.UserName, &e.Points, &e.Level); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func ensureAccount(ctx context.Context, q querier, userID string) error {
	tag, err := q.Exec(ctx, `
INSERT INTO reward_accounts (user_id)
SELECT id FROM users WHERE id=$1
ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("ensure reward account %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, userID).Scan(&exists); err != nil {
			return fmt.Errorf("check user %s: %w", userID, err)
		}
		if !exists {
			return ErrNotFound
		}
	}
	return nil
}

func refreshAccount(ctx context.Context, q querier, userID string) (domain.RewardAccount, error) {
	account, err := scanAccount(q.QueryRow(ctx, refreshAccountSQL, userID, LevelStep))
	if err != nil {
		return domain.RewardAccount{}, fmt.Errorf("refresh reward account %s: %w", userID, err)
	}
	return account, nil
}

// --- notifications ---

func (s *PostgresStore) CreateNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO notifications (id, user_id, message, type) VALUES ($1, $2, $3, $4)
RETURNING id, user_id, message, type, is_read, created_at`,
		n.ID, n.UserID, n.Message, n.Type)
	created, err := scanNotification(row)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("insert notification: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) ListUnreadNotifications(ctx context.Context, userID string) ([]domain.Notification, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, user_id, message, type, is_read, created_at
FROM notifications WHERE user_id=$1 AND is_read = false ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []domain.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MarkNotificationRead(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET is_read = true WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification %s read: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- scanning helpers ---

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	return u, err
}

func scanReport(row pgx.Row) (domain.Report, error) {
	var (
		r        domain.Report
		category string
		status   string
		result   []byte
	)
	err := row.Scan(&r.ID, &r.UserID, &r.Location, &category, &r.ItemType, &r.Amount, &r.ImageURL,
		&result, &status, &r.CollectorID, &r.CreatedAt)
	if err != nil {
		return domain.Report{}, err
	}
	r.Category = domain.Category(category)
	r.Status = domain.TaskStatus(status)
	if len(result) > 0 {
		r.VerificationResult = json.RawMessage(result)
	}
	return r, nil
}

func scanCollectedItem(row pgx.Row) (domain.CollectedItem, error) {
	var (
		item   domain.CollectedItem
		status string
		result []byte
	)
	if err := row.Scan(&item.ID, &item.ReportID, &item.CollectorID, &status, &result, &item.CollectedAt); err != nil {
		return domain.CollectedItem{}, err
	}
	item.Status = domain.TaskStatus(status)
	if len(result) > 0 {
		item.VerificationResult = json.RawMessage(result)
	}
	return item, nil
}

func scanAccount(row pgx.Row) (domain.RewardAccount, error) {
	var a domain.RewardAccount
	err := row.Scan(&a.UserID, &a.Points, &a.Level, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var n domain.Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Message, &n.Type, &n.IsRead, &n.CreatedAt)
	return n, err
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}

func notFoundOr(err error, format string, args ...any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const refreshAccountSQL = `
WITH totals AS (
  SELECT COALESCE(SUM(CASE WHEN kind LIKE 'earned%' THEN amount ELSE -amount END), 0) AS points,
         COALESCE(SUM(CASE WHEN kind LIKE 'earned%' THEN amount ELSE 0 END), 0) AS earned
  FROM transactions WHERE user_id = $1
)
UPDATE reward_accounts
SET points = totals.points,
    level = CASE WHEN totals.earned <= 0 THEN 1 ELSE 1 + totals.earned / $2 END,
    updated_at = now()
FROM totals
WHERE reward_accounts.user_id = $1
RETURNING reward_accounts.user_id, reward_accounts.points, reward_accounts.level,
          reward_accounts.created_at, reward_accounts.updated_at`

const schemaSQL = `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS reports (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  location TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT 'clothes',
  item_type TEXT NOT NULL,
  amount TEXT NOT NULL,
  image_url TEXT NOT NULL DEFAULT '',
  verification_result JSONB,
  status TEXT NOT NULL DEFAULT 'pending',
  collector_id TEXT REFERENCES users(id),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS reward_accounts (
  user_id TEXT PRIMARY KEY REFERENCES users(id),
  points INT NOT NULL DEFAULT 0,
  level INT NOT NULL DEFAULT 1,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS transactions (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  kind TEXT NOT NULL,
  amount INT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS collected_items (
  id TEXT PRIMARY KEY,
  report_id TEXT NOT NULL REFERENCES reports(id),
  collector_id TEXT NOT NULL REFERENCES users(id),
  status TEXT NOT NULL DEFAULT 'verified',
  verification_result JSONB,
  collected_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS notifications (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL REFERENCES users(id),
  message TEXT NOT NULL,
  type TEXT NOT NULL,
  is_read BOOLEAN NOT NULL DEFAULT false,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_user ON reports(user_id);
CREATE INDEX IF NOT EXISTS idx_transactions_user_created ON transactions(user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE is_read = false;
`
