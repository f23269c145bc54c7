package backend

import (
	"context"

	"github.com/sqllens/sqllens/internal/core"
	"github.com/sqllens/sqllens/internal/core/static"
)

// StaticName is the registry name of the deterministic analyzer.
const StaticName = "static"

// Static wraps the rule-based analyzer as a scoring backend. It is the
// default fallback: always constructible, no credentials, no I/O.
type Static struct {
	engine *static.Engine
}

// NewStatic returns the static analysis backend.
func NewStatic() *Static {
	return &Static{engine: static.NewEngine()}
}

// Name implements Backend.
func (s *Static) Name() string {
	return StaticName
}

// Evaluate implements Backend. It never returns an error; invalid input
// produces the analyzer's sentinel scores instead.
func (s *Static) Evaluate(_ context.Context, unit core.CodeUnit) (*core.BackendResult, error) {
	analysis := s.engine.Evaluate(unit.Source)
	return &core.BackendResult{
		Backend:     StaticName,
		Feedback:    analysis.Feedback,
		Suggestions: analysis.Suggestions,
		Confidence:  analysis.Confidence,
		Scores:      analysis.Scores,
	}, nil
}
