package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/sqllens/sqllens/internal/core"
	"github.com/sqllens/sqllens/internal/metrics"
)

// DegradedResult builds the failure-shaped result every fault turns
// into: zero confidence, a diagnostic feedback line, and a generic
// remediation suggestion.
func DegradedResult(name, detail string) *core.BackendResult {
	return &core.BackendResult{
		Backend:     name,
		Feedback:    fmt.Sprintf("Evaluation failed: %s", detail),
		Suggestions: []string{"Please try again or contact support"},
		Confidence:  0,
	}
}

// Run invokes a backend under the failure boundary. Errors, panics, nil
// results, and deadline expiry all come back as a degraded result; Run
// never returns nil and never lets a fault escape.
//
// A positive timeout bounds the invocation. The backend runs on its own
// goroutine so a backend that ignores its context cannot stall the
// caller past the deadline.
func Run(ctx context.Context, b Backend, unit core.CodeUnit, timeout time.Duration) *core.BackendResult {
	if b == nil {
		return DegradedResult("unknown", "backend is not registered")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	start := time.Now()
	done := make(chan *core.BackendResult, 1)
	go func() {
		done <- invoke(ctx, b, unit)
	}()

	select {
	case result := <-done:
		metrics.RecordBackendEvaluation(b.Name(), !result.Failed(), time.Since(start))
		return result
	case <-ctx.Done():
		metrics.RecordBackendEvaluation(b.Name(), false, time.Since(start))
		return DegradedResult(b.Name(), fmt.Sprintf("backend timed out: %v", ctx.Err()))
	}
}

// invoke calls the backend, converting panics and errors into degraded
// results.
func invoke(ctx context.Context, b Backend, unit core.CodeUnit) (result *core.BackendResult) {
	defer func() {
		if r := recover(); r != nil {
			result = DegradedResult(b.Name(), fmt.Sprintf("backend panicked: %v", r))
		}
	}()

	result, err := b.Evaluate(ctx, unit)
	if err != nil {
		return DegradedResult(b.Name(), err.Error())
	}
	if result == nil {
		return DegradedResult(b.Name(), "backend returned no result")
	}
	if result.Backend == "" {
		result.Backend = b.Name()
	}
	return result
}
