package service

import (
	"context"
	"errors"
	"testing"

	"github.com/vanshika/ecocycle/backend/internal/domain"
	"github.com/vanshika/ecocycle/backend/internal/verification"
)

func TestSubmitBooksFlatAwardAndNotifies(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	receipt, err := h.reports.Submit(ctx, ReportInput{
		Email:          "Reporter@Example.com",
		Location:       "  Westlands   Nairobi ",
		ItemType:       "cotton",
		Amount:         "5 kg",
		EstimatedValue: "Approximately 1000-2000 KSH",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.Report.Status != domain.StatusPending {
		t.Fatalf("expected pending report, got %s", receipt.Report.Status)
	}
	if receipt.Report.Location != "Westlands Nairobi" {
		t.Fatalf("expected sanitized location, got %q", receipt.Report.Location)
	}
	if receipt.Report.Category != domain.CategoryClothes {
		t.Fatalf("expected default category, got %s", receipt.Report.Category)
	}
	if receipt.Awarded != 100 || receipt.Account.Points != 100 {
		t.Fatalf("expected flat 100 award, got %+v", receipt)
	}
	if receipt.EstimatedPoints != 150 {
		t.Fatalf("expected estimate 150, got %d", receipt.EstimatedPoints)
	}

	user, err := h.users.Lookup(ctx, "reporter@example.com")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if user.Name != domain.DefaultUserName {
		t.Fatalf("expected default name, got %q", user.Name)
	}

	txs, _ := h.ledger.Transactions(ctx, user.ID, 0)
	if len(txs) != 1 || txs[0].Kind != domain.KindEarnedReport || txs[0].Description != "Points earned for recycling clothes" {
		t.Fatalf("unexpected ledger entries %+v", txs)
	}

	unread, _ := h.notifier.Unread(ctx, user.ID)
	if len(unread) != 1 || unread[0].Message != "You've earned 100 points for recycling clothes!" || unread[0].Type != domain.NotificationTypeReward {
		t.Fatalf("unexpected notifications %+v", unread)
	}
}

func TestSubmitValidation(t *testing.T) {
	h := newHarness(t)
	cases := []ReportInput{
		{Email: "a@example.com", ItemType: "cotton", Amount: "1"},
		{Email: "a@example.com", Location: "x", Amount: "1"},
		{Email: "a@example.com", Location: "x", ItemType: "cotton"},
		{Email: "a@example.com", Location: "x", ItemType: "cotton", Amount: "1", Category: "glass"},
		{Email: "a@example.com", Location: "x", ItemType: "cotton", Amount: "1", Verification: []byte("{nope")},
	}
	for i, in := range cases {
		if _, err := h.reports.Submit(context.Background(), in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
	if _, err := h.reports.Submit(context.Background(), ReportInput{Location: "x", ItemType: "y", Amount: "z"}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated without email, got %v", err)
	}
}

func TestListCollectionTasksExcludesOwnReports(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.submit(t, "alice@example.com")
	h.submit(t, "bob@example.com")
	h.submit(t, "bob@example.com")
	alice := h.user(t, "alice@example.com")

	tasks, err := h.reports.ListCollectionTasks(ctx, alice.ID, 0)
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	for _, task := range tasks {
		if task.UserID == alice.ID {
			t.Fatal("own report listed as a collection task")
		}
	}

	recent, _ := h.reports.ListRecent(ctx, 2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 recent reports, got %d", len(recent))
	}
	mine, _ := h.reports.ListByUser(ctx, alice.ID)
	if len(mine) != 1 {
		t.Fatalf("expected 1 owned report, got %d", len(mine))
	}
	pending, _ := h.reports.ListPending(ctx)
	if len(pending) != 3 {
		t.Fatalf("expected 3 pending reports, got %d", len(pending))
	}
}

func TestAnalyzeReturnsEstimate(t *testing.T) {
	h := newHarness(t)
	h.classifier.analysis = verification.Analysis{ItemType: "wool", Quantity: "2 kg", EstimatedValue: "Approximately 500-700 KSH", Confidence: 0.9}

	res, err := h.reports.Analyze(context.Background(), "clothes", evidence)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.EstimatedPoints != 60 {
		t.Fatalf("expected 60 points, got %d", res.EstimatedPoints)
	}

	if _, err := h.reports.Analyze(context.Background(), "clothes", verification.Image{}); !errors.Is(err, ErrEvidenceRequired) {
		t.Fatalf("expected ErrEvidenceRequired, got %v", err)
	}
	if _, err := h.reports.Analyze(context.Background(), "glass", evidence); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
