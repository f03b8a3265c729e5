package server

import (
	"context"
	"errors"
	"fmt"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// Pinger is anything that can report its own connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DependencyHealth probes the relational store and, when enabled, the
// collection graph. Every dependency is checked; failures are joined.
type DependencyHealth struct {
	Store Pinger
	Graph GraphPinger
}

// GraphPinger is an optional dependency that may be switched off.
type GraphPinger interface {
	Pinger
	Enabled() bool
}

// Probe implements the HealthService interface.
func (s DependencyHealth) Probe(ctx context.Context) error {
	var errs []error
	if s.Store != nil {
		if err := s.Store.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if s.Graph != nil && s.Graph.Enabled() {
		if err := s.Graph.Ping(ctx); err != nil {
			errs = append(errs, fmt.Errorf("graph: %w", err))
		}
	}
	return errors.Join(errs...)
}
