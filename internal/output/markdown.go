package output

import (
	"fmt"
	"strings"

	"github.com/sqllens/sqllens/internal/core"
)

// MarkdownFormatter renders results as markdown tables.
type MarkdownFormatter struct{}

// FormatResult renders one evaluation result as Markdown.
func (f *MarkdownFormatter) FormatResult(result *core.EvaluationResult) (string, error) {
	if result == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## %s (%s)\n\n", escapeMarkdownCell(result.UnitID), result.Language))
	sb.WriteString("| Dimension | Score |\n")
	sb.WriteString("|-----------|-------|\n")

	for _, d := range core.Dimensions {
		sb.WriteString(fmt.Sprintf("| %s | %s |\n",
			escapeMarkdownCell(dimensionLabel(d)),
			formatScore(result.Scores.Get(d)),
		))
	}

	sb.WriteString(fmt.Sprintf("\n**Overall**: %s\n", formatScore(result.Overall)))
	sb.WriteString(renderListSection("Issues", result.Issues, true))
	sb.WriteString(renderListSection("Suggestions", result.Suggestions, true))
	return sb.String(), nil
}

// FormatJob renders a job summary with its unit results as Markdown.
func (f *MarkdownFormatter) FormatJob(job *core.BatchJob, results []*core.EvaluationResult) (string, error) {
	if job == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Job %s\n\n", escapeMarkdownCell(job.ID)))
	sb.WriteString(fmt.Sprintf("- **File**: %s\n", escapeMarkdownCell(job.Filename)))
	sb.WriteString(fmt.Sprintf("- **Status**: %s\n", job.Status))
	sb.WriteString(fmt.Sprintf("- **Progress**: %.0f%%\n", job.Progress))
	sb.WriteString(fmt.Sprintf("- **Units**: %d/%d\n", job.ProcessedUnits, job.TotalUnits))
	sb.WriteString(fmt.Sprintf("- **Score**: %s\n", jobScoreLabel(job)))
	if job.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("- **Error**: %s\n", escapeMarkdownCell(job.ErrorMessage)))
	}

	if len(results) > 0 {
		units, err := FormatResultList(FormatMarkdown, results)
		if err != nil {
			return "", err
		}
		sb.WriteString("\n" + units)
	}

	return sb.String(), nil
}

// FormatJobList renders stored jobs as a markdown table.
func (f *MarkdownFormatter) FormatJobList(jobs []*core.BatchJob) (string, error) {
	if len(jobs) == 0 {
		return "No jobs found", nil
	}

	var sb strings.Builder
	sb.WriteString("| ID | File | Status | Progress | Units | Score | Created |\n")
	sb.WriteString("|----|------|--------|----------|-------|-------|--------|\n")

	for _, job := range jobs {
		if job == nil {
			continue
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %.0f%% | %d/%d | %s | %s |\n",
			escapeMarkdownCell(job.ID),
			escapeMarkdownCell(job.Filename),
			job.Status,
			job.Progress,
			job.ProcessedUnits,
			job.TotalUnits,
			jobScoreLabel(job),
			job.CreatedAt.Format("2006-01-02 15:04"),
		))
	}

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
