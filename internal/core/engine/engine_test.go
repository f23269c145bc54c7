package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sqllens/sqllens/internal/core"
	"github.com/sqllens/sqllens/internal/core/backend"
)

type stubBackend struct {
	name   string
	result *core.BackendResult
	err    error
	panics bool
	delay  time.Duration
}

func (s *stubBackend) Name() string {
	return s.name
}

func (s *stubBackend) Evaluate(ctx context.Context, unit core.CodeUnit) (*core.BackendResult, error) {
	if s.panics {
		panic("stub exploded")
	}
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.result, s.err
}

func goodResult(name string, confidence, score float64) *core.BackendResult {
	return &core.BackendResult{
		Backend:    name,
		Feedback:   "looks fine",
		Confidence: confidence,
		Scores:     core.UniformBreakdown(score),
	}
}

func newRegistry(t *testing.T, backends ...backend.Backend) *backend.Registry {
	t.Helper()
	registry := backend.NewRegistry(backend.StaticName)
	require.NoError(t, registry.Register(backend.NewStatic()))
	for _, b := range backends {
		require.NoError(t, registry.Register(b))
	}
	return registry
}

func testUnit() core.CodeUnit {
	return core.CodeUnit{ID: "u1", Language: core.LanguageSQL, Source: "SELECT id FROM users WHERE id=1;"}
}

func TestOrchestratorDefaultBackend(t *testing.T) {
	orchestrator := NewOrchestrator(newRegistry(t), 0)

	results := orchestrator.Evaluate(context.Background(), testUnit(), nil)
	require.Len(t, results, 1)
	require.Equal(t, backend.StaticName, results[0].Backend)
	require.False(t, results[0].Failed())
}

func TestOrchestratorJoinsAll(t *testing.T) {
	registry := newRegistry(t,
		&stubBackend{name: "a", result: goodResult("a", 0.5, 6), delay: 30 * time.Millisecond},
		&stubBackend{name: "b", err: errors.New("boom")},
		&stubBackend{name: "c", panics: true},
	)
	orchestrator := NewOrchestrator(registry, 0)

	results := orchestrator.Evaluate(context.Background(), testUnit(), []string{"a", "b", "c"})
	require.Len(t, results, 3)
	require.Equal(t, "a", results[0].Backend)
	require.False(t, results[0].Failed())
	require.True(t, results[1].Failed())
	require.True(t, results[2].Failed())
}

func TestOrchestratorUnknownBackend(t *testing.T) {
	orchestrator := NewOrchestrator(newRegistry(t), 0)

	results := orchestrator.Evaluate(context.Background(), testUnit(), []string{"static", "missing"})
	require.Len(t, results, 2)
	require.False(t, results[0].Failed())
	require.True(t, results[1].Failed())
}

func TestOrchestratorTimeout(t *testing.T) {
	registry := newRegistry(t,
		&stubBackend{name: "slow", result: goodResult("slow", 0.9, 8), delay: time.Second},
	)
	orchestrator := NewOrchestrator(registry, 20*time.Millisecond)

	start := time.Now()
	results := orchestrator.Evaluate(context.Background(), testUnit(), []string{"slow"})
	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.True(t, results[0].Failed())
}

func TestAggregateAllFailed(t *testing.T) {
	results := []*core.BackendResult{
		backend.DegradedResult("a", "boom"),
		backend.DegradedResult("b", "bust"),
	}

	evaluation := Aggregate(testUnit(), results)
	require.Equal(t, 0.0, evaluation.Overall)
	require.True(t, evaluation.Scores.IsZero())
	require.Empty(t, evaluation.Suggestions)
}

func TestAggregateHighestConfidenceWins(t *testing.T) {
	results := []*core.BackendResult{
		goodResult("a", 0.6, 4),
		goodResult("b", 0.9, 8),
		backend.DegradedResult("c", "boom"),
	}

	evaluation := Aggregate(testUnit(), results)
	require.Equal(t, core.UniformBreakdown(8), evaluation.Scores)
	require.InDelta(t, 8.0, evaluation.Overall, 1e-9)
}

func TestAggregateTieFirstSeen(t *testing.T) {
	results := []*core.BackendResult{
		goodResult("first", 0.7, 3),
		goodResult("second", 0.7, 9),
	}

	evaluation := Aggregate(testUnit(), results)
	require.Equal(t, core.UniformBreakdown(3), evaluation.Scores)
}

func TestAggregateSuggestionsUnion(t *testing.T) {
	a := goodResult("a", 0.6, 5)
	a.Suggestions = []string{"use limits", "avoid select *"}
	b := goodResult("b", 0.9, 7)
	b.Suggestions = []string{"avoid select *", "add indexes"}

	evaluation := Aggregate(testUnit(), []*core.BackendResult{a, b})
	require.Equal(t, []string{"use limits", "avoid select *", "add indexes"}, evaluation.Suggestions)
}

func TestAggregateIssues(t *testing.T) {
	a := goodResult("a", 0.6, 5)
	a.Feedback = "Critical security vulnerability detected."
	b := goodResult("b", 0.5, 5)
	b.Feedback = "performance could improve; minor error in join"

	evaluation := Aggregate(testUnit(), []*core.BackendResult{a, b})
	require.Contains(t, evaluation.Issues, "Security vulnerabilities detected")
	require.Contains(t, evaluation.Issues, "Performance issues identified")
	require.Contains(t, evaluation.Issues, "Code contains errors")
}

func TestRunnerCompletesBatch(t *testing.T) {
	registry := newRegistry(t)
	runner := &Runner{
		Orchestrator: NewOrchestrator(registry, 0),
		Enabled:      []string{backend.StaticName},
	}

	job := &core.BatchJob{ID: "job1", Status: core.JobPending}
	units := []core.CodeUnit{
		{ID: "c1", Language: core.LanguageSQL, Source: "SELECT id FROM users WHERE id=1;"},
		{ID: "c2", Language: core.LanguageSQL, Source: "xkq wqpz flbbb"},
	}

	results, err := runner.Run(context.Background(), job, units)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, core.JobCompleted, job.Status)
	require.Equal(t, 100.0, job.Progress)
	require.Equal(t, 2, job.ProcessedUnits)
	require.NotNil(t, job.CompletedAt)

	expected := (results[0].Overall + results[1].Overall) / 2
	require.InDelta(t, expected, job.Score, 1e-9)
}

func TestRunnerProgressMonotonic(t *testing.T) {
	registry := newRegistry(t)
	var observed []float64
	runner := &Runner{
		Orchestrator: NewOrchestrator(registry, 0),
		OnProgress: func(job *core.BatchJob) {
			observed = append(observed, job.Progress)
		},
	}

	job := &core.BatchJob{ID: "job2", Status: core.JobPending}
	units := []core.CodeUnit{
		{ID: "c1", Source: "SELECT id FROM users WHERE id=1;"},
		{ID: "c2", Source: "SELECT name FROM accounts WHERE id=2;"},
		{ID: "c3", Source: "DELETE FROM logs WHERE id=3;"},
	}

	_, err := runner.Run(context.Background(), job, units)
	require.NoError(t, err)

	last := -1.0
	for _, p := range observed {
		require.GreaterOrEqual(t, p, last)
		last = p
	}
	require.Equal(t, 100.0, last)
}

func TestRunnerPerUnitPanicDegrades(t *testing.T) {
	// A nil registry makes orchestration panic inside the per-unit
	// boundary; the batch must still complete with degraded results.
	runner := &Runner{Orchestrator: NewOrchestrator(nil, 0)}

	job := &core.BatchJob{ID: "job3", Status: core.JobPending}
	units := []core.CodeUnit{{ID: "c1", Source: "SELECT id FROM users WHERE id=1;"}}

	results, err := runner.Run(context.Background(), job, units)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, core.JobCompleted, job.Status)
	require.True(t, results[0].Scores.IsZero())
	require.Contains(t, results[0].Issues, "Evaluation error occurred")
}

func TestRunnerEmptyUnitsFails(t *testing.T) {
	runner := &Runner{Orchestrator: NewOrchestrator(newRegistry(t), 0)}

	job := &core.BatchJob{ID: "job4", Status: core.JobPending}
	_, err := runner.Run(context.Background(), job, nil)
	require.Error(t, err)
	require.Equal(t, core.JobFailed, job.Status)
	require.NotEmpty(t, job.ErrorMessage)
}

func TestRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &Runner{Orchestrator: NewOrchestrator(newRegistry(t), 0)}
	job := &core.BatchJob{ID: "job5", Status: core.JobPending}
	units := []core.CodeUnit{{ID: "c1", Source: "SELECT id FROM users WHERE id=1;"}}

	_, err := runner.Run(ctx, job, units)
	require.Error(t, err)
	require.Equal(t, core.JobFailed, job.Status)
}

func TestRunnerRejectsNonPendingJob(t *testing.T) {
	runner := &Runner{Orchestrator: NewOrchestrator(newRegistry(t), 0)}
	job := &core.BatchJob{ID: "job6", Status: core.JobCompleted}

	_, err := runner.Run(context.Background(), job, []core.CodeUnit{{ID: "c1", Source: "SELECT 1 FROM t"}})
	require.Error(t, err)
}

func TestRunnerFailAfterBeginTransitionsThroughProcessing(t *testing.T) {
	var statuses []core.JobStatus
	runner := &Runner{
		Orchestrator: NewOrchestrator(newRegistry(t), 0),
		OnProgress: func(job *core.BatchJob) {
			statuses = append(statuses, job.Status)
		},
	}

	job := &core.BatchJob{ID: "job7", Status: core.JobPending}
	require.NoError(t, runner.Begin(job))
	runner.Fail(job, "failed to parse submission: not a notebook")

	require.Equal(t, []core.JobStatus{core.JobProcessing, core.JobFailed}, statuses)
	require.NotNil(t, job.CompletedAt)
}

func TestRunnerBeginRejectsNonPendingJob(t *testing.T) {
	runner := &Runner{Orchestrator: NewOrchestrator(newRegistry(t), 0)}
	job := &core.BatchJob{ID: "job8", Status: core.JobFailed}
	require.Error(t, runner.Begin(job))
}
