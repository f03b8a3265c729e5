package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/network"
	"github.com/vanshika/ecocycle/backend/internal/repository"
	"github.com/vanshika/ecocycle/backend/internal/verification"
)

type stubClassifier struct {
	mu       sync.Mutex
	outcome  verification.Outcome
	analysis verification.Analysis
	err      error
	calls    int
}

func (s *stubClassifier) Verify(_ context.Context, _ domain.Report, _ verification.Image) (verification.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.outcome, s.err
}

func (s *stubClassifier) Analyze(_ context.Context, _ domain.Category, _ verification.Image) (verification.Analysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.analysis, s.err
}

type stubRecorder struct {
	mu          sync.Mutex
	enabled     bool
	err         error
	collections []network.Collection
}

func (s *stubRecorder) Enabled() bool { return s.enabled }

func (s *stubRecorder) RecordCollection(_ context.Context, c network.Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections = append(s.collections, c)
	return s.err
}

type harness struct {
	store      *repository.MemoryStore
	users      *UserService
	ledger     *Ledger
	notifier   *NotificationService
	reports    *ReportService
	tasks      *TaskService
	classifier *stubClassifier
	recorder   *stubRecorder
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	base := time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
	store := repository.NewMemoryStore().WithClock(func() time.Time { return base })

	h := &harness{
		store:      store,
		classifier: &stubClassifier{},
		recorder:   &stubRecorder{enabled: true},
	}
	h.users = NewUserService(store)
	h.ledger = NewLedger(store, nil)
	h.notifier = NewNotificationService(store)
	h.reports = NewReportService(ReportServiceDeps{
		Users:      h.users,
		Store:      store,
		Ledger:     h.ledger,
		Notifier:   h.notifier,
		Classifier: h.classifier,
	})
	h.tasks = NewTaskService(TaskServiceDeps{
		Store:      store,
		Users:      store,
		Ledger:     h.ledger,
		Notifier:   h.notifier,
		Classifier: h.classifier,
		Recorder:   h.recorder,
	})
	return h
}

func (h *harness) user(t *testing.T, email string) domain.User {
	t.Helper()
	u, err := h.users.Ensure(context.Background(), email, "")
	if err != nil {
		t.Fatalf("ensure user %s: %v", email, err)
	}
	return u
}

func (h *harness) credit(t *testing.T, userID string, amount int) {
	t.Helper()
	if _, err := h.ledger.RecordEarning(context.Background(), userID, domain.KindEarnedReport, amount, "test credit"); err != nil {
		t.Fatalf("credit: %v", err)
	}
}

func (h *harness) submit(t *testing.T, email string) ReportReceipt {
	t.Helper()
	receipt, err := h.reports.Submit(context.Background(), ReportInput{
		Email:    email,
		Location: "Kibera, Nairobi",
		ItemType: "cotton",
		Amount:   "5 kg",
	})
	if err != nil {
		t.Fatalf("submit report: %v", err)
	}
	return receipt
}

func acceptedOutcome() verification.Outcome {
	v := verification.ClothesVerdict{ClothTypeMatch: true, QuantityMatch: true, Confidence: 0.85}
	return verification.Outcome{
		Accepted: true,
		Verdict:  v,
		Raw:      []byte(`{"clothTypeMatch":true,"quantityMatch":true,"confidence":0.85}`),
	}
}

var evidence = verification.Image{Data: []byte{0xff, 0xd8, 0xff}, MIMEType: "image/jpeg"}
