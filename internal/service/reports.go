package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/points"
	"github.com/vanshika/ecocycle/backend/internal/repository"
	"github.com/vanshika/ecocycle/backend/internal/verification"
)

const (
	defaultRecentReports   = 10
	defaultCollectionTasks = 20
)

// Policy holds the reward amounts booked by reports and collections.
type Policy struct {
	ReportAward     int
	CollectAwardMin int
	CollectAwardMax int
}

// DefaultPolicy returns the standard reward amounts.
func DefaultPolicy() Policy {
	return Policy{ReportAward: 100, CollectAwardMin: 10, CollectAwardMax: 59}
}

func (p Policy) normalized() Policy {
	def := DefaultPolicy()
	if p.ReportAward <= 0 {
		p.ReportAward = def.ReportAward
	}
	if p.CollectAwardMin <= 0 || p.CollectAwardMax < p.CollectAwardMin {
		p.CollectAwardMin, p.CollectAwardMax = def.CollectAwardMin, def.CollectAwardMax
	}
	return p
}

// Classifier judges images of reported and collected items.
type Classifier interface {
	Verify(ctx context.Context, report domain.Report, image verification.Image) (verification.Outcome, error)
	Analyze(ctx context.Context, category domain.Category, image verification.Image) (verification.Analysis, error)
}

// ReportInput is a new report submitted by a user.
type ReportInput struct {
	Email          string
	UserName       string
	Location       string
	Category       string
	ItemType       string
	Amount         string
	ImageURL       string
	EstimatedValue string
	Verification   json.RawMessage
}

// ReportReceipt is the outcome of a submission.
type ReportReceipt struct {
	Report  domain.Report
	Account domain.RewardAccount
	Awarded int
	// EstimatedPoints is the value-based estimate; it is informational and
	// never booked.
	EstimatedPoints int
}

// AnalysisResult pairs an analysis with its value-based points estimate.
type AnalysisResult struct {
	Analysis        verification.Analysis
	EstimatedPoints int
}

// ReportService handles report submission and listings.
type ReportService struct {
	users      *UserService
	store      repository.ReportStore
	ledger     *Ledger
	notifier   *NotificationService
	classifier Classifier
	policy     Policy
	logger     *slog.Logger
}

// ReportServiceDeps groups the collaborators of a ReportService.
type ReportServiceDeps struct {
	Users      *UserService
	Store      repository.ReportStore
	Ledger     *Ledger
	Notifier   *NotificationService
	Classifier Classifier
	Policy     Policy
	Logger     *slog.Logger
}

// NewReportService constructs a ReportService.
func NewReportService(deps ReportServiceDeps) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		users:      deps.Users,
		store:      deps.Store,
		ledger:     deps.Ledger,
		notifier:   deps.Notifier,
		classifier: deps.Classifier,
		policy:     deps.Policy.normalized(),
		logger:     logger.With("component", "reports"),
	}
}

// Submit stores a pending report for the submitting user and books the flat
// report award.
func (s *ReportService) Submit(ctx context.Context, in ReportInput) (ReportReceipt, error) {
	in.Location = sanitizeString(in.Location)
	in.ItemType = sanitizeString(in.ItemType)
	in.Amount = sanitizeString(in.Amount)
	switch {
	case in.Location == "":
		return ReportReceipt{}, fmt.Errorf("%w: location is required", ErrInvalidInput)
	case in.ItemType == "":
		return ReportReceipt{}, fmt.Errorf("%w: item type is required", ErrInvalidInput)
	case in.Amount == "":
		return ReportReceipt{}, fmt.Errorf("%w: amount is required", ErrInvalidInput)
	}
	category, ok := domain.ParseCategory(in.Category)
	if !ok {
		return ReportReceipt{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, in.Category)
	}
	if len(in.Verification) > 0 && !json.Valid(in.Verification) {
		return ReportReceipt{}, fmt.Errorf("%w: verification result must be JSON", ErrInvalidInput)
	}

	user, err := s.users.Ensure(ctx, in.Email, in.UserName)
	if err != nil {
		return ReportReceipt{}, err
	}

	report, err := s.store.CreateReport(ctx, domain.Report{
		UserID:             user.ID,
		Location:           in.Location,
		Category:           category,
		ItemType:           in.ItemType,
		Amount:             in.Amount,
		ImageURL:           in.ImageURL,
		VerificationResult: in.Verification,
		Status:             domain.StatusPending,
	})
	if err != nil {
		return ReportReceipt{}, fmt.Errorf("create report: %w", err)
	}

	award := s.policy.ReportAward
	account, err := s.ledger.RecordEarning(ctx, user.ID, domain.KindEarnedReport, award,
		fmt.Sprintf("Points earned for recycling %s", category.Label()))
	if err != nil {
		return ReportReceipt{}, err
	}

	message := fmt.Sprintf("You've earned %d points for recycling %s!", award, category.Label())
	if _, err := s.notifier.Notify(ctx, user.ID, message, domain.NotificationTypeReward); err != nil {
		s.logger.Warn("report notification failed", "report_id", report.ID, "user_id", user.ID, "error", err)
	}

	s.logger.Info("report submitted", "report_id", report.ID, "user_id", user.ID, "category", category)
	return ReportReceipt{
		Report:          report,
		Account:         account,
		Awarded:         award,
		EstimatedPoints: points.Calculate(in.EstimatedValue),
	}, nil
}

// Analyze asks the classifier to describe a reported item.
func (s *ReportService) Analyze(ctx context.Context, rawCategory string, image verification.Image) (AnalysisResult, error) {
	category, ok := domain.ParseCategory(rawCategory)
	if !ok {
		return AnalysisResult{}, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, rawCategory)
	}
	if len(image.Data) == 0 {
		return AnalysisResult{}, ErrEvidenceRequired
	}
	analysis, err := s.classifier.Analyze(ctx, category, image)
	if err != nil {
		return AnalysisResult{}, err
	}
	return AnalysisResult{
		Analysis:        analysis,
		EstimatedPoints: points.Calculate(analysis.EstimatedValue),
	}, nil
}

// Get returns a single report.
func (s *ReportService) Get(ctx context.Context, id string) (domain.Report, error) {
	return s.store.GetReport(ctx, id)
}

// ListRecent returns the newest reports. A non-positive limit uses 10.
func (s *ReportService) ListRecent(ctx context.Context, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = defaultRecentReports
	}
	return s.store.ListReports(ctx, repository.ReportFilter{Limit: limit, NewestFirst: true})
}

// ListByUser returns every report owned by userID.
func (s *ReportService) ListByUser(ctx context.Context, userID string) ([]domain.Report, error) {
	return s.store.ListReports(ctx, repository.ReportFilter{UserID: userID})
}

// ListPending returns reports nobody has claimed yet.
func (s *ReportService) ListPending(ctx context.Context) ([]domain.Report, error) {
	return s.store.ListReports(ctx, repository.ReportFilter{Status: domain.StatusPending})
}

// ListCollectionTasks returns reports other users filed, which userID may
// collect. A non-positive limit uses 20.
func (s *ReportService) ListCollectionTasks(ctx context.Context, userID string, limit int) ([]domain.Report, error) {
	if limit <= 0 {
		limit = defaultCollectionTasks
	}
	return s.store.ListReports(ctx, repository.ReportFilter{ExcludeUserID: userID, Limit: limit})
}
