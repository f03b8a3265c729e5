package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu            sync.Mutex
	points        map[string]int
	verifications []bool
	claims        []string
}

func (o *recordingObserver) PointsBooked(kind string, amount int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.points == nil {
		o.points = make(map[string]int)
	}
	o.points[kind] += amount
}

func (o *recordingObserver) Verification(accepted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.verifications = append(o.verifications, accepted)
}

func (o *recordingObserver) Claim(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.claims = append(o.claims, result)
}

func TestObserverSeesLedgerAndTaskEvents(t *testing.T) {
	h := newHarness(t)
	obs := &recordingObserver{}
	h.ledger.WithObserver(obs)
	h.tasks = NewTaskService(TaskServiceDeps{
		Store:      h.store,
		Users:      h.store,
		Ledger:     h.ledger,
		Notifier:   h.notifier,
		Classifier: h.classifier,
		Observer:   obs,
	}).WithRand(func(int) int { return 0 })
	ctx := context.Background()

	receipt := h.submit(t, "alice@example.com")
	bob := h.user(t, "bob@example.com")
	carol := h.user(t, "carol@example.com")

	_, err := h.tasks.Claim(ctx, receipt.Report.ID, bob.ID)
	require.NoError(t, err)
	_, err = h.tasks.Claim(ctx, receipt.Report.ID, carol.ID)
	require.ErrorIs(t, err, ErrTaskUnavailable)

	h.classifier.outcome = acceptedOutcome()
	_, err = h.tasks.VerifyCollection(ctx, receipt.Report.ID, bob.ID, evidence)
	require.NoError(t, err)

	_, _, err = h.ledger.RedeemAll(ctx, bob.ID)
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"earned_report": 100, "earned_collect": 10, "redeemed": 10}, obs.points)
	assert.Equal(t, []string{"claimed", "conflict"}, obs.claims)
	assert.Equal(t, []bool{true}, obs.verifications)
}
