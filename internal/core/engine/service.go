package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sqllens/sqllens/internal/core"
	"github.com/sqllens/sqllens/internal/core/extract"
	"github.com/sqllens/sqllens/internal/core/store"
	"github.com/sqllens/sqllens/internal/metrics"
)

// Service accepts submissions, runs them through the orchestrator as
// background jobs, and persists job state plus per-unit results.
type Service struct {
	Store        *store.Store
	Orchestrator *Orchestrator
	Enabled      []string
	Logger       *zap.Logger
}

// NewService assembles an evaluation service.
func NewService(st *store.Store, orchestrator *Orchestrator, enabled []string, logger *zap.Logger) *Service {
	return &Service{
		Store:        st,
		Orchestrator: orchestrator,
		Enabled:      enabled,
		Logger:       logger,
	}
}

// Submit registers a new batch job for the uploaded file and starts
// evaluating it in the background. The returned job is in the pending
// state; callers poll status or fetch results by job ID.
func (s *Service) Submit(ctx context.Context, filename string, data []byte) (*core.BatchJob, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("service is not initialized")
	}
	if len(data) == 0 {
		return nil, errors.New("submission is empty")
	}

	now := time.Now().UTC()
	job := &core.BatchJob{
		ID:        uuid.New().String(),
		Filename:  filename,
		Status:    core.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.CreateJob(ctx, job); err != nil {
		return nil, err
	}

	go s.run(*job, filename, data)

	return job, nil
}

// SubmitSync registers a job and evaluates it inline, returning the
// finished job with its results. Used by the CLI batch command.
func (s *Service) SubmitSync(ctx context.Context, filename string, data []byte) (*core.BatchJob, []*core.EvaluationResult, error) {
	if s == nil || s.Store == nil {
		return nil, nil, errors.New("service is not initialized")
	}
	if len(data) == 0 {
		return nil, nil, errors.New("submission is empty")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC()
	job := &core.BatchJob{
		ID:        uuid.New().String(),
		Filename:  filename,
		Status:    core.JobPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.Store.CreateJob(ctx, job); err != nil {
		return nil, nil, err
	}

	results, err := s.execute(ctx, job, filename, data)
	if err != nil {
		return job, nil, err
	}
	return job, results, nil
}

// run executes one job to completion. It owns its own context so the
// job outlives the submitting request.
func (s *Service) run(job core.BatchJob, filename string, data []byte) {
	_, _ = s.execute(context.Background(), &job, filename, data)
}

func (s *Service) execute(ctx context.Context, job *core.BatchJob, filename string, data []byte) ([]*core.EvaluationResult, error) {
	runner := &Runner{
		Orchestrator: s.Orchestrator,
		Enabled:      s.Enabled,
		OnProgress: func(j *core.BatchJob) {
			if err := s.Store.UpdateJob(ctx, j); err != nil {
				s.logWarn("failed to persist job progress", j.ID, err)
			}
		},
		OnResult: func(j *core.BatchJob, result *core.EvaluationResult) {
			metrics.RecordUnitProcessed()
			if err := s.Store.SaveUnitResult(ctx, j.ID, result); err != nil {
				s.logWarn("failed to persist unit result", j.ID, err)
			}
		},
	}

	if err := runner.Begin(job); err != nil {
		return nil, err
	}

	units, err := extract.Units(filename, data)
	if err != nil {
		runner.Fail(job, fmt.Sprintf("failed to parse submission: %v", err))
		metrics.RecordJob(string(core.JobFailed))
		return nil, fmt.Errorf("failed to parse submission: %w", err)
	}

	results, err := runner.Run(ctx, job, units)
	if err != nil {
		metrics.RecordJob(string(core.JobFailed))
		s.logWarn("batch evaluation failed", job.ID, err)
		return nil, err
	}

	metrics.RecordJob(string(core.JobCompleted))
	if s.Logger != nil {
		s.Logger.Info("batch evaluation completed",
			zap.String("job_id", job.ID),
			zap.Int("units", job.TotalUnits),
			zap.Float64("score", job.Score))
	}
	return results, nil
}

// EvaluateUnit scores a single code unit synchronously without
// persisting anything. Used by the CLI evaluate command.
func (s *Service) EvaluateUnit(ctx context.Context, unit core.CodeUnit) *core.EvaluationResult {
	results := s.Orchestrator.Evaluate(ctx, unit, s.Enabled)
	return Aggregate(unit, results)
}

// Job returns a job by ID, or nil when it does not exist.
func (s *Service) Job(ctx context.Context, id string) (*core.BatchJob, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("service is not initialized")
	}
	return s.Store.GetJob(ctx, id)
}

// JobResults returns a job together with its stored unit results.
func (s *Service) JobResults(ctx context.Context, id string) (*core.BatchJob, []*core.EvaluationResult, error) {
	job, err := s.Job(ctx, id)
	if err != nil || job == nil {
		return job, nil, err
	}

	results, err := s.Store.ListUnitResults(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return job, results, nil
}

// Jobs lists stored jobs, newest first.
func (s *Service) Jobs(ctx context.Context, limit int) ([]*core.BatchJob, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("service is not initialized")
	}
	return s.Store.ListJobs(ctx, limit)
}

// Delete removes a job and its results. Returns false when no job matched.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	if s == nil || s.Store == nil {
		return false, errors.New("service is not initialized")
	}
	return s.Store.DeleteJob(ctx, id)
}

// Statistics summarizes stored jobs.
func (s *Service) Statistics(ctx context.Context) (*core.Statistics, error) {
	if s == nil || s.Store == nil {
		return nil, errors.New("service is not initialized")
	}
	return s.Store.Statistics(ctx)
}

// Cleanup removes jobs older than the retention window and returns the
// number removed.
func (s *Service) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil || s.Store == nil {
		return 0, errors.New("service is not initialized")
	}
	return s.Store.CleanupOldJobs(ctx, olderThan)
}

func (s *Service) logWarn(msg, jobID string, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Warn(msg, zap.String("job_id", jobID), zap.Error(err))
}
