package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/network"
	"github.com/vanshika/ecocycle/backend/internal/repository"
	"github.com/vanshika/ecocycle/backend/internal/verification"
)

// CollectionRecorder projects verified collections elsewhere, such as the
// collection graph.
type CollectionRecorder interface {
	Enabled() bool
	RecordCollection(ctx context.Context, c network.Collection) error
}

// VerifyResult is the outcome of a verification attempt.
type VerifyResult struct {
	Report   domain.Report
	Outcome  verification.Outcome
	Awarded  int
	Account  domain.RewardAccount
	Item     domain.CollectedItem
	Accepted bool
}

// TaskService drives reports through pending, in_progress and verified.
type TaskService struct {
	store      repository.ReportStore
	users      repository.UserStore
	ledger     *Ledger
	notifier   *NotificationService
	classifier Classifier
	recorder   CollectionRecorder
	observer   Observer
	policy     Policy
	intn       func(n int) int
	logger     *slog.Logger
}

// TaskServiceDeps groups the collaborators of a TaskService.
type TaskServiceDeps struct {
	Store      repository.ReportStore
	Users      repository.UserStore
	Ledger     *Ledger
	Notifier   *NotificationService
	Classifier Classifier
	Recorder   CollectionRecorder
	Observer   Observer
	Policy     Policy
	Logger     *slog.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(deps TaskServiceDeps) *TaskService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		store:      deps.Store,
		users:      deps.Users,
		ledger:     deps.Ledger,
		notifier:   deps.Notifier,
		classifier: deps.Classifier,
		recorder:   deps.Recorder,
		observer:   observerOrNop(deps.Observer),
		policy:     deps.Policy.normalized(),
		intn:       rand.IntN,
		logger:     logger.With("component", "tasks"),
	}
}

// WithRand overrides the award source. intn must return a value in [0, n).
func (s *TaskService) WithRand(intn func(n int) int) *TaskService {
	if intn != nil {
		s.intn = intn
	}
	return s
}

// Claim assigns a pending report to collectorID.
func (s *TaskService) Claim(ctx context.Context, reportID, collectorID string) (domain.Report, error) {
	if collectorID == "" {
		return domain.Report{}, ErrUnauthenticated
	}
	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return domain.Report{}, err
	}
	if report.UserID == collectorID {
		return domain.Report{}, ErrSelfCollection
	}
	if !report.Status.CanTransition(domain.StatusInProgress) {
		s.observer.Claim("conflict")
		return domain.Report{}, ErrTaskUnavailable
	}

	claimed, err := s.store.TransitionReport(ctx, repository.Transition{
		ReportID:    reportID,
		From:        domain.StatusPending,
		To:          domain.StatusInProgress,
		CollectorID: collectorID,
	})
	if errors.Is(err, repository.ErrConflict) {
		s.observer.Claim("conflict")
		return domain.Report{}, ErrTaskUnavailable
	}
	if err != nil {
		return domain.Report{}, fmt.Errorf("claim report %s: %w", reportID, err)
	}
	s.observer.Claim("claimed")
	s.logger.Info("task claimed", "report_id", reportID, "collector_id", collectorID)
	return claimed, nil
}

// VerifyCollection checks the collector's evidence. An accepted judgment
// marks the report verified and credits the collector; a rejected one
// leaves everything unchanged so the collector can retry.
func (s *TaskService) VerifyCollection(ctx context.Context, reportID, collectorID string, image verification.Image) (VerifyResult, error) {
	if collectorID == "" {
		return VerifyResult{}, ErrUnauthenticated
	}
	if len(image.Data) == 0 {
		return VerifyResult{}, ErrEvidenceRequired
	}

	report, err := s.store.GetReport(ctx, reportID)
	if err != nil {
		return VerifyResult{}, err
	}
	if report.CollectorID != collectorID {
		return VerifyResult{}, ErrNotCollector
	}
	if !report.Status.CanTransition(domain.StatusVerified) {
		return VerifyResult{}, ErrTaskUnavailable
	}

	outcome, err := s.classifier.Verify(ctx, report, image)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify collection %s: %w", reportID, err)
	}
	s.observer.Verification(outcome.Accepted)
	if !outcome.Accepted {
		s.logger.Info("collection rejected", "report_id", reportID, "collector_id", collectorID, "reason", outcome.Reason)
		return VerifyResult{Report: report, Outcome: outcome}, nil
	}

	verified, err := s.store.TransitionReport(ctx, repository.Transition{
		ReportID:       reportID,
		From:           domain.StatusInProgress,
		To:             domain.StatusVerified,
		CollectorID:    collectorID,
		MatchCollector: true,
	})
	if errors.Is(err, repository.ErrConflict) {
		return VerifyResult{}, ErrTaskUnavailable
	}
	if err != nil {
		return VerifyResult{}, fmt.Errorf("mark report %s verified: %w", reportID, err)
	}

	item, err := s.store.SaveCollectedItem(ctx, domain.CollectedItem{
		ReportID:           reportID,
		CollectorID:        collectorID,
		Status:             domain.StatusVerified,
		VerificationResult: outcome.Raw,
	})
	if err != nil {
		return VerifyResult{}, fmt.Errorf("save collected item for %s: %w", reportID, err)
	}

	award := s.collectAward()
	label := report.Category.Label()
	account, err := s.ledger.RecordEarning(ctx, collectorID, domain.KindEarnedCollect, award,
		fmt.Sprintf("Points earned for collecting %s", label))
	if err != nil {
		return VerifyResult{}, err
	}

	message := fmt.Sprintf("You've earned %d points for collecting %s!", award, label)
	if _, err := s.notifier.Notify(ctx, collectorID, message, domain.NotificationTypeReward); err != nil {
		s.logger.Warn("collection notification failed", "report_id", reportID, "error", err)
	}
	s.project(ctx, verified, collectorID, item.CollectedAt)

	s.logger.Info("collection verified", "report_id", reportID, "collector_id", collectorID, "award", award)
	return VerifyResult{
		Report:   verified,
		Outcome:  outcome,
		Awarded:  award,
		Account:  account,
		Item:     item,
		Accepted: true,
	}, nil
}

// ListCollected returns the items collectorID has verified.
func (s *TaskService) ListCollected(ctx context.Context, collectorID string) ([]domain.CollectedItem, error) {
	return s.store.ListCollectedItems(ctx, collectorID)
}

func (s *TaskService) collectAward() int {
	span := s.policy.CollectAwardMax - s.policy.CollectAwardMin + 1
	return s.policy.CollectAwardMin + s.intn(span)
}

// project mirrors a verified collection into the recorder. Failures are
// logged only; the ledger is already booked.
func (s *TaskService) project(ctx context.Context, report domain.Report, collectorID string, at time.Time) {
	if s.recorder == nil || !s.recorder.Enabled() {
		return
	}
	reporter, err := s.users.GetUser(ctx, report.UserID)
	if err != nil {
		s.logger.Warn("load reporter for projection", "report_id", report.ID, "error", err)
		return
	}
	collector, err := s.users.GetUser(ctx, collectorID)
	if err != nil {
		s.logger.Warn("load collector for projection", "report_id", report.ID, "error", err)
		return
	}
	if at.IsZero() {
		at = time.Now()
	}
	if err := s.recorder.RecordCollection(ctx, network.Collection{
		Report:      report,
		Reporter:    reporter,
		Collector:   collector,
		CollectedAt: at,
	}); err != nil {
		s.logger.Warn("project collection", "report_id", report.ID, "error", err)
	}
}
