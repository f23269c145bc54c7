package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sqllens/sqllens/internal/core"
)

// CreateJob inserts a new batch job record.
func (s *Store) CreateJob(ctx context.Context, job *core.BatchJob) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if job == nil || strings.TrimSpace(job.ID) == "" {
		return errors.New("job id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var completedAt any
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.UTC().Unix()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO jobs (id, filename, status, progress, total_units, processed_units, score, error_message, created_at, updated_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.Filename, string(job.Status), job.Progress, job.TotalUnits, job.ProcessedUnits,
		job.Score, job.ErrorMessage, job.CreatedAt.UTC().Unix(), job.UpdatedAt.UTC().Unix(), completedAt)
	if err != nil {
		return fmt.Errorf("create job: %w", err)
	}

	return nil
}

// UpdateJob persists the mutable fields of an existing job.
func (s *Store) UpdateJob(ctx context.Context, job *core.BatchJob) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if job == nil || strings.TrimSpace(job.ID) == "" {
		return errors.New("job id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var completedAt any
	if job.CompletedAt != nil {
		completedAt = job.CompletedAt.UTC().Unix()
	}

	result, err := s.DB.ExecContext(ctx, `
		UPDATE jobs SET
			status = ?,
			progress = ?,
			total_units = ?,
			processed_units = ?,
			score = ?,
			error_message = ?,
			updated_at = ?,
			completed_at = ?
		WHERE id = ?
	`, string(job.Status), job.Progress, job.TotalUnits, job.ProcessedUnits, job.Score,
		job.ErrorMessage, time.Now().UTC().Unix(), completedAt, job.ID)
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update job: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("job %s not found", job.ID)
	}

	return nil
}

// GetJob fetches a single job by ID. Returns nil when the job does not exist.
func (s *Store) GetJob(ctx context.Context, id string) (*core.BatchJob, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("job id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx, `
		SELECT id, filename, status, progress, total_units, processed_units, score, error_message, created_at, updated_at, completed_at
		FROM jobs
		WHERE id = ?
	`, id)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch job: %w", err)
	}

	return job, nil
}

// ListJobs returns jobs ordered newest first, bounded by limit when positive.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]*core.BatchJob, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	query := `
		SELECT id, filename, status, progress, total_units, processed_units, score, error_message, created_at, updated_at, completed_at
		FROM jobs
		ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var jobs []*core.BatchJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("list jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}

	return jobs, nil
}

// DeleteJob removes a job and its unit results. Returns false when no job matched.
func (s *Store) DeleteJob(ctx context.Context, id string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}
	if strings.TrimSpace(id) == "" {
		return false, errors.New("job id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM unit_results WHERE job_id = ?`, id); err != nil {
		return false, fmt.Errorf("delete job results: %w", err)
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete job: %w", err)
	}

	return affected > 0, nil
}

// SaveUnitResult upserts the evaluation result for one code unit of a job.
func (s *Store) SaveUnitResult(ctx context.Context, jobID string, result *core.EvaluationResult) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if strings.TrimSpace(jobID) == "" {
		return errors.New("job id is required")
	}
	if result == nil || strings.TrimSpace(result.UnitID) == "" {
		return errors.New("unit result is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	scoresJSON, err := json.Marshal(result.Scores)
	if err != nil {
		return fmt.Errorf("encode unit scores: %w", err)
	}
	suggestionsJSON, err := json.Marshal(result.Suggestions)
	if err != nil {
		return fmt.Errorf("encode unit suggestions: %w", err)
	}
	issuesJSON, err := json.Marshal(result.Issues)
	if err != nil {
		return fmt.Errorf("encode unit issues: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO unit_results (job_id, unit_id, language, overall, scores, suggestions, issues, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id, unit_id) DO UPDATE SET
			language = excluded.language,
			overall = excluded.overall,
			scores = excluded.scores,
			suggestions = excluded.suggestions,
			issues = excluded.issues
	`, jobID, result.UnitID, string(result.Language), result.Overall,
		string(scoresJSON), string(suggestionsJSON), string(issuesJSON), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("store unit result: %w", err)
	}

	return nil
}

// ListUnitResults returns the stored unit results for a job in insertion order.
func (s *Store) ListUnitResults(ctx context.Context, jobID string) ([]*core.EvaluationResult, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.New("job id is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT unit_id, language, overall, scores, suggestions, issues
		FROM unit_results
		WHERE job_id = ?
		ORDER BY id ASC
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("list unit results: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var results []*core.EvaluationResult
	for rows.Next() {
		var (
			unitID      string
			language    string
			overall     float64
			scoresJSON  string
			suggestions sql.NullString
			issues      sql.NullString
		)
		if err := rows.Scan(&unitID, &language, &overall, &scoresJSON, &suggestions, &issues); err != nil {
			return nil, fmt.Errorf("list unit results: %w", err)
		}

		result := &core.EvaluationResult{
			UnitID:   unitID,
			Language: core.Language(language),
			Overall:  overall,
		}
		if err := json.Unmarshal([]byte(scoresJSON), &result.Scores); err != nil {
			return nil, fmt.Errorf("decode unit scores: %w", err)
		}
		if suggestions.Valid && suggestions.String != "" {
			if err := json.Unmarshal([]byte(suggestions.String), &result.Suggestions); err != nil {
				return nil, fmt.Errorf("decode unit suggestions: %w", err)
			}
		}
		if issues.Valid && issues.String != "" {
			if err := json.Unmarshal([]byte(issues.String), &result.Issues); err != nil {
				return nil, fmt.Errorf("decode unit issues: %w", err)
			}
		}

		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list unit results: %w", err)
	}

	return results, nil
}

// Statistics summarizes stored jobs and their unit languages.
func (s *Store) Statistics(ctx context.Context) (*core.Statistics, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	stats := &core.Statistics{
		Languages:    make(map[string]int),
		StatusCounts: make(map[core.JobStatus]int),
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("job statistics: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("job statistics: %w", err)
		}
		stats.StatusCounts[core.JobStatus(status)] = count
		stats.TotalJobs += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("job statistics: %w", err)
	}

	stats.CompletedJobs = stats.StatusCounts[core.JobCompleted]
	stats.FailedJobs = stats.StatusCounts[core.JobFailed]

	var avg sql.NullFloat64
	row := s.DB.QueryRowContext(ctx, `SELECT AVG(score) FROM jobs WHERE status = ?`, string(core.JobCompleted))
	if err := row.Scan(&avg); err != nil {
		return nil, fmt.Errorf("job statistics: %w", err)
	}
	if avg.Valid {
		stats.AverageScore = avg.Float64
	}

	langRows, err := s.DB.QueryContext(ctx, `SELECT language, COUNT(*) FROM unit_results GROUP BY language`)
	if err != nil {
		return nil, fmt.Errorf("job statistics: %w", err)
	}
	defer langRows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	for langRows.Next() {
		var (
			language string
			count    int
		)
		if err := langRows.Scan(&language, &count); err != nil {
			return nil, fmt.Errorf("job statistics: %w", err)
		}
		stats.Languages[language] = count
	}
	if err := langRows.Err(); err != nil {
		return nil, fmt.Errorf("job statistics: %w", err)
	}

	return stats, nil
}

// CleanupOldJobs removes jobs older than the retention window along with
// their unit results. Returns the number of jobs removed.
func (s *Store) CleanupOldJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if olderThan <= 0 {
		return 0, errors.New("retention window must be positive")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	cutoff := time.Now().UTC().Add(-olderThan).Unix()

	if _, err := s.DB.ExecContext(ctx, `
		DELETE FROM unit_results WHERE job_id IN (SELECT id FROM jobs WHERE created_at < ?)
	`, cutoff); err != nil {
		return 0, fmt.Errorf("cleanup job results: %w", err)
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM jobs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup jobs: %w", err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("cleanup jobs: %w", err)
	}

	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*core.BatchJob, error) {
	var (
		job          core.BatchJob
		status       string
		score        sql.NullFloat64
		errorMessage sql.NullString
		createdAt    int64
		updatedAt    int64
		completedAt  sql.NullInt64
	)

	if err := row.Scan(&job.ID, &job.Filename, &status, &job.Progress, &job.TotalUnits,
		&job.ProcessedUnits, &score, &errorMessage, &createdAt, &updatedAt, &completedAt); err != nil {
		return nil, err
	}

	job.Status = core.JobStatus(status)
	job.Score = score.Float64
	job.ErrorMessage = errorMessage.String
	job.CreatedAt = time.Unix(createdAt, 0).UTC()
	job.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	if completedAt.Valid {
		completed := time.Unix(completedAt.Int64, 0).UTC()
		job.CompletedAt = &completed
	}

	return &job, nil
}
