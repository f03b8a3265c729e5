package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/repository"
)

// LedgerStore is the persistence required by the Ledger.
type LedgerStore interface {
	repository.LedgerStore
	ListUsers(ctx context.Context) ([]domain.User, error)
}

// Ledger books earnings and redemptions against the transaction log.
type Ledger struct {
	store    LedgerStore
	catalog  []domain.Prize
	observer Observer
	logger   *slog.Logger
}

// NewLedger constructs a Ledger over store.
func NewLedger(store LedgerStore, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ledger{
		store:    store,
		observer: nopObserver{},
		logger:   logger.With("component", "ledger"),
	}
}

// WithObserver reports booked points to o.
func (l *Ledger) WithObserver(o Observer) *Ledger {
	l.observer = observerOrNop(o)
	return l
}

// WithCatalog sets the prizes that can be redeemed by ID.
func (l *Ledger) WithCatalog(prizes []domain.Prize) *Ledger {
	l.catalog = append([]domain.Prize(nil), prizes...)
	return l
}

// RecordEarning appends a credit and returns the refreshed account.
func (l *Ledger) RecordEarning(ctx context.Context, userID string, kind domain.TransactionKind, amount int, description string) (domain.RewardAccount, error) {
	if userID == "" {
		return domain.RewardAccount{}, fmt.Errorf("%w: user ID is required", ErrInvalidInput)
	}
	if !kind.IsCredit() {
		return domain.RewardAccount{}, ErrInvalidKind
	}
	if amount < 0 {
		return domain.RewardAccount{}, ErrInvalidAmount
	}

	account, err := l.store.AppendTransaction(ctx, domain.Transaction{
		UserID:      userID,
		Kind:        kind,
		Amount:      amount,
		Description: description,
	}, repository.AppendOptions{})
	if err != nil {
		return domain.RewardAccount{}, fmt.Errorf("record %s for %s: %w", kind, userID, err)
	}
	l.observer.PointsBooked(string(kind), amount)
	l.logger.Debug("earning recorded", "user_id", userID, "kind", kind, "amount", amount, "points", account.Points)
	return account, nil
}

// ComputeBalance derives the balance from the full log, clamped at zero.
func (l *Ledger) ComputeBalance(ctx context.Context, userID string) (int, error) {
	txs, err := l.store.ListTransactions(ctx, userID, 0)
	if err != nil {
		return 0, fmt.Errorf("list transactions for %s: %w", userID, err)
	}
	return max(domain.SumTransactions(txs), 0), nil
}

// Account returns the cached reward account, creating it on first access.
func (l *Ledger) Account(ctx context.Context, userID string) (domain.RewardAccount, error) {
	return l.store.GetRewardAccount(ctx, userID)
}

// Transactions lists the newest entries first. A non-positive limit returns all.
func (l *Ledger) Transactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	return l.store.ListTransactions(ctx, userID, limit)
}

// RedeemSpecific debits cost when the cached points cover it.
func (l *Ledger) RedeemSpecific(ctx context.Context, userID string, cost int, description string) (domain.RewardAccount, error) {
	if cost <= 0 {
		return domain.RewardAccount{}, ErrInvalidAmount
	}
	if description == "" {
		description = fmt.Sprintf("Redeemed %d points", cost)
	}
	return l.redeem(ctx, userID, cost, description)
}

// RedeemAll debits the whole cached value and returns the amount redeemed.
func (l *Ledger) RedeemAll(ctx context.Context, userID string) (int, domain.RewardAccount, error) {
	account, err := l.store.GetRewardAccount(ctx, userID)
	if err != nil {
		return 0, domain.RewardAccount{}, fmt.Errorf("load reward account %s: %w", userID, err)
	}
	if account.Points <= 0 {
		return 0, account, ErrNothingToRedeem
	}
	updated, err := l.redeem(ctx, userID, account.Points, "Redeemed all points")
	if err != nil {
		return 0, domain.RewardAccount{}, err
	}
	return account.Points, updated, nil
}

// RedeemPrize redeems a catalog prize. RedeemAllPrizeID redeems every point.
func (l *Ledger) RedeemPrize(ctx context.Context, userID string, prizeID int) (int, domain.RewardAccount, error) {
	if prizeID == domain.RedeemAllPrizeID {
		return l.RedeemAll(ctx, userID)
	}
	prize, ok := l.findPrize(prizeID)
	if !ok {
		return 0, domain.RewardAccount{}, ErrUnknownPrize
	}
	account, err := l.RedeemSpecific(ctx, userID, prize.Cost, "Redeemed: "+prize.Name)
	if err != nil {
		return 0, domain.RewardAccount{}, err
	}
	return prize.Cost, account, nil
}

func (l *Ledger) redeem(ctx context.Context, userID string, amount int, description string) (domain.RewardAccount, error) {
	account, err := l.store.AppendTransaction(ctx, domain.Transaction{
		UserID:      userID,
		Kind:        domain.KindRedeemed,
		Amount:      amount,
		Description: description,
	}, repository.AppendOptions{RequireCovered: true})
	if errors.Is(err, repository.ErrInsufficientPoints) {
		return domain.RewardAccount{}, ErrInsufficientBalance
	}
	if err != nil {
		return domain.RewardAccount{}, fmt.Errorf("redeem for %s: %w", userID, err)
	}
	l.observer.PointsBooked(string(domain.KindRedeemed), amount)
	l.logger.Info("points redeemed", "user_id", userID, "amount", amount, "points", account.Points)
	return account, nil
}

// Prizes lists the redeemable options for userID. The first entry is the
// redeem-all option priced at the user's current balance.
func (l *Ledger) Prizes(ctx context.Context, userID string) ([]domain.Prize, error) {
	balance, err := l.ComputeBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	prizes := make([]domain.Prize, 0, len(l.catalog)+1)
	prizes = append(prizes, domain.Prize{
		ID:          domain.RedeemAllPrizeID,
		Name:        "Your Points",
		Description: "Redeem your earned points",
		Cost:        balance,
	})
	return append(prizes, l.catalog...), nil
}

func (l *Ledger) findPrize(id int) (domain.Prize, bool) {
	for _, p := range l.catalog {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Prize{}, false
}

// RebuildAccount recomputes the cached account from the log.
func (l *Ledger) RebuildAccount(ctx context.Context, userID string) (domain.RewardAccount, error) {
	account, err := l.store.RebuildRewardAccount(ctx, userID)
	if err != nil {
		return domain.RewardAccount{}, fmt.Errorf("rebuild reward account %s: %w", userID, err)
	}
	return account, nil
}

// RebuildAll rebuilds every user's account with at most concurrency workers
// and returns the number rebuilt.
func (l *Ledger) RebuildAll(ctx context.Context, concurrency int) (int, error) {
	users, err := l.store.ListUsers(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, user := range users {
		g.Go(func() error {
			_, err := l.RebuildAccount(gctx, user.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	l.logger.Info("reward accounts rebuilt", "count", len(users))
	return len(users), nil
}

// Leaderboard lists accounts with points, highest first.
func (l *Ledger) Leaderboard(ctx context.Context, limit int) ([]domain.LeaderboardEntry, error) {
	return l.store.Leaderboard(ctx, limit)
}
