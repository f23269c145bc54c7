package output

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sqllens/sqllens/internal/core"
)

func sampleResult() *core.EvaluationResult {
	scores := core.UniformBreakdown(8)
	scores.Security = 9.5
	scores.Efficiency = 6.0

	return &core.EvaluationResult{
		UnitID:      "cell_1",
		Language:    core.LanguageSQL,
		Scores:      scores,
		Overall:     scores.Overall(),
		Suggestions: []string{"Add LIMIT clause when using ORDER BY"},
		Issues:      []string{"Performance issues identified"},
	}
}

func sampleJob() *core.BatchJob {
	created := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	return &core.BatchJob{
		ID:             "job-1",
		Filename:       "queries.sql",
		Status:         core.JobCompleted,
		Progress:       100,
		TotalUnits:     2,
		ProcessedUnits: 2,
		Score:          7.8,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestParseFormat(t *testing.T) {
	format, err := ParseFormat("table")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	format, err = ParseFormat("JSON")
	require.NoError(t, err)
	require.Equal(t, FormatJSON, format)

	format, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatTable, format)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestFormatResultListJSON(t *testing.T) {
	rendered, err := FormatResultList(FormatJSON, []*core.EvaluationResult{sampleResult()})
	require.NoError(t, err)
	require.Contains(t, rendered, "\"unit_id\": \"cell_1\"")
	require.Contains(t, rendered, "\"security\": 9.5")
}

func TestFormatters(t *testing.T) {
	result := sampleResult()

	tableRendered, err := NewFormatter(FormatTable).FormatResult(result)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "DIMENSION")
	require.Contains(t, tableRendered, "Best Practices")
	require.Contains(t, tableRendered, "9.5")
	require.Contains(t, tableRendered, "Suggestions:")
	require.Contains(t, tableRendered, "Add LIMIT clause when using ORDER BY")

	jsonRendered, err := NewFormatter(FormatJSON).FormatResult(result)
	require.NoError(t, err)
	require.Contains(t, jsonRendered, "\"unit_id\": \"cell_1\"")

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatResult(result)
	require.NoError(t, err)
	require.Contains(t, markdownRendered, "| Dimension | Score |")
	require.Contains(t, markdownRendered, "| Security | 9.5 |")
	require.Contains(t, markdownRendered, "**Overall**")
}

func TestFormatJob(t *testing.T) {
	job := sampleJob()
	results := []*core.EvaluationResult{sampleResult()}

	tableRendered, err := NewFormatter(FormatTable).FormatJob(job, results)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "job-1")
	require.Contains(t, tableRendered, "completed")
	require.Contains(t, tableRendered, "2/2")
	require.Contains(t, tableRendered, "cell_1")

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatJob(job, results)
	require.NoError(t, err)
	require.Contains(t, markdownRendered, "# Job job-1")
	require.Contains(t, markdownRendered, "**Score**: 7.8")
}

func TestFormatJobFailure(t *testing.T) {
	job := sampleJob()
	job.Status = core.JobFailed
	job.ErrorMessage = "no code units found in submission"

	rendered, err := NewFormatter(FormatTable).FormatJob(job, nil)
	require.NoError(t, err)
	require.Contains(t, rendered, "failed")
	require.Contains(t, rendered, "no code units found in submission")
	// score column shows a dash for non-completed jobs
	require.NotContains(t, rendered, "7.8")
}

func TestFormatJobList(t *testing.T) {
	jobs := []*core.BatchJob{sampleJob()}

	tableRendered, err := NewFormatter(FormatTable).FormatJobList(jobs)
	require.NoError(t, err)
	require.Contains(t, tableRendered, "queries.sql")
	require.Contains(t, tableRendered, "2026-03-15 10:30")

	markdownRendered, err := NewFormatter(FormatMarkdown).FormatJobList(jobs)
	require.NoError(t, err)
	require.Contains(t, markdownRendered, "| job-1 | queries.sql |")

	empty, err := NewFormatter(FormatTable).FormatJobList(nil)
	require.NoError(t, err)
	require.Equal(t, "No jobs found", empty)
}

func TestDimensionLabel(t *testing.T) {
	require.Equal(t, "Correctness", dimensionLabel(core.DimensionCorrectness))
	require.Equal(t, "Best Practices", dimensionLabel(core.DimensionBestPractices))
	require.Equal(t, "Error Handling", dimensionLabel(core.DimensionErrorHandling))
}

func TestMarkdownEscaping(t *testing.T) {
	result := sampleResult()
	result.UnitID = "pipe|test"

	rendered, err := NewFormatter(FormatMarkdown).FormatResult(result)
	require.NoError(t, err)
	require.Contains(t, rendered, "pipe\\|test")
}

func TestFormatResultListNonJSON(t *testing.T) {
	rendered, err := FormatResultList(FormatMarkdown, []*core.EvaluationResult{sampleResult()})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(rendered, "## "))
}
