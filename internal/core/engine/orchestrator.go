// Package engine coordinates scoring backends: concurrent fan-out per
// code unit, result aggregation, and batch execution with progress
// tracking.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/sqllens/sqllens/internal/core"
	"github.com/sqllens/sqllens/internal/core/backend"
)

// Orchestrator runs every enabled backend for one code unit
// concurrently and returns the complete result set once all have
// finished. Backends are drawn from an injected registry; there is no
// ambient global state.
type Orchestrator struct {
	Registry *backend.Registry

	// Timeout bounds each backend invocation. Zero disables the
	// deadline, matching the unhardened baseline behavior.
	Timeout time.Duration
}

// NewOrchestrator wires an orchestrator to a registry.
func NewOrchestrator(registry *backend.Registry, timeout time.Duration) *Orchestrator {
	return &Orchestrator{Registry: registry, Timeout: timeout}
}

// Evaluate fans one unit out to the enabled backends, one goroutine
// per backend, and joins on all of them. No early exit: a failing
// backend yields a degraded result while its siblings run to
// completion. An empty enabled set falls back to the registry's
// default backend, so every unit receives at least one result.
//
// Results come back in enabled order regardless of completion order.
func (o *Orchestrator) Evaluate(ctx context.Context, unit core.CodeUnit, enabled []string) []*core.BackendResult {
	if ctx == nil {
		ctx = context.Background()
	}

	names := o.Registry.Resolve(enabled)
	results := make([]*core.BackendResult, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			b, ok := o.Registry.Get(name)
			if !ok {
				results[i] = backend.DegradedResult(name, "backend is not registered")
				return
			}
			results[i] = backend.Run(ctx, b, unit, o.Timeout)
		}(i, name)
	}
	wg.Wait()

	return results
}
