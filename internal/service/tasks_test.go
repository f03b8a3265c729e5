package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/verification"
)

func TestClaimRules(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	receipt := h.submit(t, "alice@example.com")
	alice := h.user(t, "alice@example.com")
	bob := h.user(t, "bob@example.com")
	carol := h.user(t, "carol@example.com")

	_, err := h.tasks.Claim(ctx, receipt.Report.ID, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = h.tasks.Claim(ctx, receipt.Report.ID, alice.ID)
	assert.ErrorIs(t, err, ErrSelfCollection)

	claimed, err := h.tasks.Claim(ctx, receipt.Report.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, claimed.Status)
	assert.Equal(t, bob.ID, claimed.CollectorID)

	_, err = h.tasks.Claim(ctx, receipt.Report.ID, carol.ID)
	assert.ErrorIs(t, err, ErrTaskUnavailable, "second claim must not overwrite the collector")

	stored, err := h.reports.Get(ctx, receipt.Report.ID)
	require.NoError(t, err)
	assert.Equal(t, bob.ID, stored.CollectorID)
}

func TestVerifyCollectionPreconditions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	receipt := h.submit(t, "alice@example.com")
	bob := h.user(t, "bob@example.com")
	carol := h.user(t, "carol@example.com")

	_, err := h.tasks.VerifyCollection(ctx, receipt.Report.ID, bob.ID, evidence)
	assert.ErrorIs(t, err, ErrNotCollector, "unclaimed task has no collector")

	_, err = h.tasks.Claim(ctx, receipt.Report.ID, bob.ID)
	require.NoError(t, err)

	_, err = h.tasks.VerifyCollection(ctx, receipt.Report.ID, bob.ID, verification.Image{})
	assert.ErrorIs(t, err, ErrEvidenceRequired)

	_, err = h.tasks.VerifyCollection(ctx, receipt.Report.ID, carol.ID, evidence)
	assert.ErrorIs(t, err, ErrNotCollector)

	assert.Equal(t, 0, h.classifier.calls, "classifier must not run when preconditions fail")
}

func TestVerifyCollectionRejectedLeavesStateUnchanged(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	receipt := h.submit(t, "alice@example.com")
	bob := h.user(t, "bob@example.com")
	_, err := h.tasks.Claim(ctx, receipt.Report.ID, bob.ID)
	require.NoError(t, err)

	h.classifier.outcome = verification.Outcome{
		Verdict: verification.ClothesVerdict{ClothTypeMatch: true, QuantityMatch: true, Confidence: 0.7},
	}
	res, err := h.tasks.VerifyCollection(ctx, receipt.Report.ID, bob.ID, evidence)
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, domain.StatusInProgress, res.Report.Status)

	txs, _ := h.ledger.Transactions(ctx, bob.ID, 0)
	assert.Empty(t, txs)
	items, _ := h.tasks.ListCollected(ctx, bob.ID)
	assert.Empty(t, items)
	assert.Empty(t, h.recorder.collections)

	stored, _ := h.reports.Get(ctx, receipt.Report.ID)
	assert.Equal(t, domain.StatusInProgress, stored.Status)
}

func TestVerifyCollectionClassifierFailure(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	receipt := h.submit(t, "alice@example.com")
	bob := h.user(t, "bob@example.com")
	_, err := h.tasks.Claim(ctx, receipt.Report.ID, bob.ID)
	require.NoError(t, err)

	boom := errors.New("quota exceeded")
	h.classifier.err = boom
	_, err = h.tasks.VerifyCollection(ctx, receipt.Report.ID, bob.ID, evidence)
	assert.ErrorIs(t, err, boom)

	stored, _ := h.reports.Get(ctx, receipt.Report.ID)
	assert.Equal(t, domain.StatusInProgress, stored.Status)
}

func TestEndToEndReportClaimVerify(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.tasks.WithRand(func(n int) int {
		require.Equal(t, 50, n, "award span must cover [10,59]")
		return 27
	})

	receipt := h.submit(t, "alice@example.com")
	alice := h.user(t, "alice@example.com")
	bob := h.user(t, "bob@example.com")

	aliceTxs, _ := h.ledger.Transactions(ctx, alice.ID, 0)
	require.Len(t, aliceTxs, 1)
	assert.Equal(t, domain.KindEarnedReport, aliceTxs[0].Kind)
	assert.Equal(t, 100, aliceTxs[0].Amount)

	_, err := h.tasks.Claim(ctx, receipt.Report.ID, bob.ID)
	require.NoError(t, err)

	h.classifier.outcome = acceptedOutcome()
	res, err := h.tasks.VerifyCollection(ctx, receipt.Report.ID, bob.ID, evidence)
	require.NoError(t, err)
	require.True(t, res.Accepted)
	assert.Equal(t, domain.StatusVerified, res.Report.Status)
	assert.Equal(t, 37, res.Awarded)
	assert.Equal(t, 37, res.Account.Points)

	bobTxs, _ := h.ledger.Transactions(ctx, bob.ID, 0)
	require.Len(t, bobTxs, 1)
	assert.Equal(t, domain.KindEarnedCollect, bobTxs[0].Kind)
	assert.Equal(t, "Points earned for collecting clothes", bobTxs[0].Description)

	items, err := h.tasks.ListCollected(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, receipt.Report.ID, items[0].ReportID)
	assert.JSONEq(t, `{"clothTypeMatch":true,"quantityMatch":true,"confidence":0.85}`, string(items[0].VerificationResult))

	require.Len(t, h.recorder.collections, 1)
	assert.Equal(t, alice.ID, h.recorder.collections[0].Reporter.ID)
	assert.Equal(t, bob.ID, h.recorder.collections[0].Collector.ID)

	unread, _ := h.notifier.Unread(ctx, bob.ID)
	require.Len(t, unread, 1)
	assert.Equal(t, "You've earned 37 points for collecting clothes!", unread[0].Message)

	_, err = h.tasks.VerifyCollection(ctx, receipt.Report.ID, bob.ID, evidence)
	assert.ErrorIs(t, err, ErrTaskUnavailable, "verified is terminal")
}

func TestCollectAwardBounds(t *testing.T) {
	h := newHarness(t)
	seen := map[int]bool{}
	for i := 0; i < 2000; i++ {
		award := h.tasks.collectAward()
		if award < 10 || award > 59 {
			t.Fatalf("award %d out of range", award)
		}
		seen[award] = true
	}
	if !seen[10] || !seen[59] {
		t.Fatalf("expected both bounds to be reachable, saw %d distinct values", len(seen))
	}
}

func TestRecorderFailureDoesNotFailVerification(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.recorder.err = errors.New("graph down")
	receipt := h.submit(t, "alice@example.com")
	bob := h.user(t, "bob@example.com")
	_, err := h.tasks.Claim(ctx, receipt.Report.ID, bob.ID)
	require.NoError(t, err)

	h.classifier.outcome = acceptedOutcome()
	res, err := h.tasks.VerifyCollection(ctx, receipt.Report.ID, bob.ID, evidence)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
}
