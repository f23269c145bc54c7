package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sqllens/sqllens/internal/core"
)

// Progress checkpoints. Parsing the submission is worth the first 10
// points, unit evaluation spans the next 80, and completion pins 100.
const (
	progressParsed = 10.0
	progressSpan   = 80.0
	progressDone   = 100.0
)

// Runner applies orchestrator and aggregator to every unit of a batch,
// advancing the job's progress as it goes. Units are processed one at a
// time; the only parallelism is inside a single unit's evaluation.
type Runner struct {
	Orchestrator *Orchestrator
	Enabled      []string

	// OnProgress is called after every job mutation. Optional.
	OnProgress func(*core.BatchJob)

	// OnResult is called once per completed unit, before progress
	// advances. Optional.
	OnResult func(*core.BatchJob, *core.EvaluationResult)

	Clock func() time.Time
}

// Begin transitions a pending job to processing before any work is
// attempted, including submission parsing. A job only ever moves
// pending, processing, then completed or failed.
func (r *Runner) Begin(job *core.BatchJob) error {
	if job == nil {
		return errors.New("job is required")
	}
	if job.Status != core.JobPending {
		return fmt.Errorf("job %s is %s, expected pending", job.ID, job.Status)
	}
	job.Status = core.JobProcessing
	job.UpdatedAt = r.now()
	r.notify(job)
	return nil
}

// Run drives a pending or processing job to completed or failed. Per-unit failures
// are absorbed as degraded results and never fail the batch; only
// faults outside the per-unit boundary (cancellation, empty input) do.
func (r *Runner) Run(ctx context.Context, job *core.BatchJob, units []core.CodeUnit) ([]*core.EvaluationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if job == nil {
		return nil, errors.New("job is required")
	}
	if job.Status == core.JobPending {
		job.Status = core.JobProcessing
	}
	if job.Status != core.JobProcessing {
		return nil, fmt.Errorf("job %s is %s, expected pending or processing", job.ID, job.Status)
	}

	job.TotalUnits = len(units)
	job.UpdatedAt = r.now()
	r.notify(job)

	if len(units) == 0 {
		r.Fail(job, "no code units found in submission")
		return nil, errors.New("no code units found in submission")
	}

	job.Progress = progressParsed
	job.UpdatedAt = r.now()
	r.notify(job)

	results := make([]*core.EvaluationResult, 0, len(units))
	total := 0.0

	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			r.Fail(job, fmt.Sprintf("batch aborted: %v", err))
			return nil, err
		}

		result := r.evaluateUnit(ctx, unit)
		results = append(results, result)
		total += result.Overall

		if r.OnResult != nil {
			r.OnResult(job, result)
		}

		job.ProcessedUnits++
		job.Progress = progressParsed + progressSpan*float64(job.ProcessedUnits)/float64(job.TotalUnits)
		job.UpdatedAt = r.now()
		r.notify(job)
	}

	job.Status = core.JobCompleted
	job.Progress = progressDone
	job.Score = total / float64(len(units))
	now := r.now()
	job.UpdatedAt = now
	job.CompletedAt = &now
	r.notify(job)

	return results, nil
}

// Fail marks a job failed with a human-readable cause. Used both for
// batch-fatal faults inside Run and for errors before Run starts, such
// as submission parsing.
func (r *Runner) Fail(job *core.BatchJob, message string) {
	if job == nil {
		return
	}
	job.Status = core.JobFailed
	job.ErrorMessage = message
	now := r.now()
	job.UpdatedAt = now
	job.CompletedAt = &now
	r.notify(job)
}

// evaluateUnit is the per-unit failure boundary. A panic anywhere in
// orchestration or aggregation degrades this unit only.
func (r *Runner) evaluateUnit(ctx context.Context, unit core.CodeUnit) (result *core.EvaluationResult) {
	defer func() {
		if rec := recover(); rec != nil {
			result = &core.EvaluationResult{
				UnitID:      unit.ID,
				Language:    unit.Language,
				Suggestions: []string{"Please try again or contact support"},
				Issues:      []string{"Evaluation error occurred"},
			}
		}
	}()

	backendResults := r.Orchestrator.Evaluate(ctx, unit, r.Enabled)
	return Aggregate(unit, backendResults)
}

func (r *Runner) notify(job *core.BatchJob) {
	if r.OnProgress != nil {
		r.OnProgress(job)
	}
}

func (r *Runner) now() time.Time {
	if r.Clock != nil {
		return r.Clock()
	}
	return time.Now().UTC()
}
