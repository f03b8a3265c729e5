package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// TaskError accumulates multiple errors produced during bulk seeding.
type TaskError struct {
	Errors []error
}

func (e *TaskError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	parts := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		parts = append(parts, err.Error())
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(parts, "; "))
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *TaskError) Unwrap() []error {
	return e.Errors
}

func (e *TaskError) append(err error) {
	if err == nil {
		return
	}
	e.Errors = append(e.Errors, err)
}

func (e *TaskError) asError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Seeder loads generated users and reports through the regular services
// with a pool of workers, so seeded data books the same ledger entries as
// live traffic.
type Seeder struct {
	users   *UserService
	reports *ReportService
	tasks   *TaskService
	workers int
}

// NewSeeder creates a Seeder with the provided concurrency.
func NewSeeder(users *UserService, reports *ReportService, tasks *TaskService, workers int) *Seeder {
	if workers <= 0 {
		workers = 4
	}
	return &Seeder{
		users:   users,
		reports: reports,
		tasks:   tasks,
		workers: workers,
	}
}

// SeedUsers creates the provided users concurrently.
func (s *Seeder) SeedUsers(ctx context.Context, users []UserSeed) error {
	return s.run(ctx, len(users), func(idx int) error {
		seed := users[idx]
		if _, err := s.users.Ensure(ctx, seed.Email, seed.Name); err != nil {
			return fmt.Errorf("user %s: %w", seed.Email, err)
		}
		return nil
	})
}

// SeedReports submits the provided reports concurrently and applies any claims.
func (s *Seeder) SeedReports(ctx context.Context, reports []ReportSeed) error {
	return s.run(ctx, len(reports), func(idx int) error {
		seed := reports[idx]
		receipt, err := s.reports.Submit(ctx, seed.toInput())
		if err != nil {
			return fmt.Errorf("report %d: %w", idx, err)
		}
		if seed.CollectorEmail == "" {
			return nil
		}
		collector, err := s.users.Ensure(ctx, seed.CollectorEmail, "")
		if err != nil {
			return fmt.Errorf("report %d collector: %w", idx, err)
		}
		if _, err := s.tasks.Claim(ctx, receipt.Report.ID, collector.ID); err != nil {
			return fmt.Errorf("report %d claim: %w", idx, err)
		}
		return nil
	})
}

func (s *Seeder) run(ctx context.Context, total int, workerFn func(idx int) error) error {
	if total == 0 {
		return nil
	}
	indexCh := make(chan int)
	errCh := make(chan error, total)
	var wg sync.WaitGroup

	worker := func() {
		defer wg.Done()
		for idx := range indexCh {
			if err := workerFn(idx); err != nil {
				errCh <- err
			}
		}
	}

	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go worker()
	}

Loop:
	for i := 0; i < total; i++ {
		select {
		case indexCh <- i:
		case <-ctx.Done():
			break Loop
		}
	}
	close(indexCh)
	wg.Wait()
	close(errCh)

	if err := ctx.Err(); err != nil {
		return err
	}
	var taskErr TaskError
	for err := range errCh {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		taskErr.append(err)
	}
	return taskErr.asError()
}
