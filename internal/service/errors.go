package service

import "errors"

var (
	// ErrInvalidInput wraps every request validation failure.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated indicates an operation needs a known actor.
	ErrUnauthenticated = errors.New("authentication required")

	ErrTaskUnavailable  = errors.New("task is not available")
	ErrSelfCollection   = errors.New("users cannot collect their own reports")
	ErrNotCollector     = errors.New("only the assigned collector can verify this task")
	ErrEvidenceRequired = errors.New("verification image is required")

	ErrInvalidKind         = errors.New("transaction kind is not an earning")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient points")
	ErrNothingToRedeem     = errors.New("no points to redeem")
	ErrUnknownPrize        = errors.New("unknown prize")
)
