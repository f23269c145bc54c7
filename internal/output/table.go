package output

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sqllens/sqllens/internal/core"
)

// TableFormatter renders results as an ASCII table.
type TableFormatter struct{}

// FormatResult renders one evaluation result as a per-dimension table.
func (f *TableFormatter) FormatResult(result *core.EvaluationResult) (string, error) {
	if result == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("%s (%s)", result.UnitID, result.Language))
	t.AppendHeader(table.Row{"Dimension", "Score"})

	for _, d := range core.Dimensions {
		t.AppendRow(table.Row{dimensionLabel(d), formatScore(result.Scores.Get(d))})
	}

	t.AppendFooter(table.Row{"Overall", formatScore(result.Overall)})

	rendered := t.Render()
	rendered += renderListSection("Issues", result.Issues, false)
	rendered += renderListSection("Suggestions", result.Suggestions, false)
	return rendered, nil
}

// FormatJob renders a job summary followed by its unit results.
func (f *TableFormatter) FormatJob(job *core.BatchJob, results []*core.EvaluationResult) (string, error) {
	if job == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Job", "Status", "Progress", "Units", "Score"})
	t.AppendRow(table.Row{
		job.ID,
		string(job.Status),
		fmt.Sprintf("%.0f%%", job.Progress),
		fmt.Sprintf("%d/%d", job.ProcessedUnits, job.TotalUnits),
		jobScoreLabel(job),
	})

	rendered := t.Render()
	if job.ErrorMessage != "" {
		rendered += "\n\nError: " + job.ErrorMessage
	}

	if len(results) > 0 {
		units, err := FormatResultList(FormatTable, results)
		if err != nil {
			return "", err
		}
		rendered += "\n\n" + units
	}

	return rendered, nil
}

// FormatJobList renders stored jobs as a table.
func (f *TableFormatter) FormatJobList(jobs []*core.BatchJob) (string, error) {
	if len(jobs) == 0 {
		return "No jobs found", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "File", "Status", "Progress", "Units", "Score", "Created"})

	for _, job := range jobs {
		if job == nil {
			continue
		}
		t.AppendRow(table.Row{
			job.ID,
			job.Filename,
			string(job.Status),
			fmt.Sprintf("%.0f%%", job.Progress),
			fmt.Sprintf("%d/%d", job.ProcessedUnits, job.TotalUnits),
			jobScoreLabel(job),
			job.CreatedAt.Format("2006-01-02 15:04"),
		})
	}

	return t.Render(), nil
}

// renderListSection renders a titled bullet list under a table or
// markdown block. Returns an empty string when there are no entries.
func renderListSection(title string, entries []string, markdown bool) string {
	if len(entries) == 0 {
		return ""
	}

	var sb strings.Builder
	if markdown {
		sb.WriteString(fmt.Sprintf("\n\n**%s**\n\n", title))
	} else {
		sb.WriteString(fmt.Sprintf("\n\n%s:\n", title))
	}
	for _, entry := range entries {
		if strings.TrimSpace(entry) == "" {
			continue
		}
		sb.WriteString("- " + entry + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
