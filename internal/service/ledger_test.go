package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/repository"
)

func TestRecordEarningRejectsDebitKinds(t *testing.T) {
	h := newHarness(t)
	u := h.user(t, "a@example.com")

	_, err := h.ledger.RecordEarning(context.Background(), u.ID, domain.KindRedeemed, 10, "")
	assert.ErrorIs(t, err, ErrInvalidKind)

	_, err = h.ledger.RecordEarning(context.Background(), u.ID, domain.KindEarnedRecycle, -1, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	account, err := h.ledger.RecordEarning(context.Background(), u.ID, domain.KindEarnedRecycle, 0, "zero is allowed")
	require.NoError(t, err)
	assert.Equal(t, 0, account.Points)
}

func TestComputeBalanceClampsAtZero(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t, "a@example.com")

	h.credit(t, u.ID, 100)
	_, err := h.store.AppendTransaction(ctx, domain.Transaction{UserID: u.ID, Kind: domain.KindRedeemed, Amount: 150}, repository.AppendOptions{})
	require.NoError(t, err)

	balance, err := h.ledger.ComputeBalance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	again, err := h.ledger.ComputeBalance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, balance, again, "balance reads must not change state")
}

func TestRedeemSpecific(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t, "a@example.com")
	h.credit(t, u.ID, 500)

	account, err := h.ledger.RedeemSpecific(ctx, u.ID, 300, "Redeemed: Tote bag")
	require.NoError(t, err)
	assert.Equal(t, 200, account.Points)

	txs, err := h.ledger.Transactions(ctx, u.ID, 1)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, domain.KindRedeemed, txs[0].Kind)
	assert.Equal(t, 300, txs[0].Amount)

	_, err = h.ledger.RedeemSpecific(ctx, u.ID, 201, "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, err = h.ledger.RedeemSpecific(ctx, u.ID, 0, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	balance, err := h.ledger.ComputeBalance(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 200, balance)
}

func TestRedeemAll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	u := h.user(t, "a@example.com")

	_, _, err := h.ledger.RedeemAll(ctx, u.ID)
	assert.ErrorIs(t, err, ErrNothingToRedeem)

	h.credit(t, u.ID, 130)
	redeemed, account, err := h.ledger.RedeemAll(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 130, redeemed)
	assert.Equal(t, 0, account.Points)

	txs, err := h.ledger.Transactions(ctx, u.ID, 0)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "Redeemed all points", txs[0].Description)
}

func TestRedeemPrizeUsesCatalog(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.ledger.WithCatalog([]domain.Prize{{ID: 7, Name: "Tote bag", Cost: 80}})
	u := h.user(t, "a@example.com")
	h.credit(t, u.ID, 100)

	prizes, err := h.ledger.Prizes(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, prizes, 2)
	assert.Equal(t, domain.RedeemAllPrizeID, prizes[0].ID)
	assert.Equal(t, 100, prizes[0].Cost)

	cost, account, err := h.ledger.RedeemPrize(ctx, u.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 80, cost)
	assert.Equal(t, 20, account.Points)

	txs, _ := h.ledger.Transactions(ctx, u.ID, 1)
	assert.Equal(t, "Redeemed: Tote bag", txs[0].Description)

	_, _, err = h.ledger.RedeemPrize(ctx, u.ID, 7)
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	_, _, err = h.ledger.RedeemPrize(ctx, u.ID, 99)
	assert.ErrorIs(t, err, ErrUnknownPrize)

	redeemed, _, err := h.ledger.RedeemPrize(ctx, u.ID, domain.RedeemAllPrizeID)
	require.NoError(t, err)
	assert.Equal(t, 20, redeemed)
}

func TestRebuildAll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		u := h.user(t, fmt.Sprintf("user%d@example.com", i))
		h.credit(t, u.ID, (i+1)*100)
	}

	count, err := h.ledger.RebuildAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	board, err := h.ledger.Leaderboard(ctx, 3)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, 500, board[0].Points)
}

type failingRebuildStore struct {
	*repository.MemoryStore
	err error
}

func (f failingRebuildStore) RebuildRewardAccount(context.Context, string) (domain.RewardAccount, error) {
	return domain.RewardAccount{}, f.err
}

func TestRebuildAllPropagatesErrors(t *testing.T) {
	h := newHarness(t)
	h.user(t, "a@example.com")
	boom := errors.New("boom")

	ledger := NewLedger(failingRebuildStore{MemoryStore: h.store, err: boom}, nil)
	_, err := ledger.RebuildAll(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}
