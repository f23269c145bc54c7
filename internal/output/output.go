package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sqllens/sqllens/internal/core"
)

// Format represents an output format.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// Formatter renders evaluation results and batch jobs.
type Formatter interface {
	FormatResult(result *core.EvaluationResult) (string, error)
	FormatJob(job *core.BatchJob, results []*core.EvaluationResult) (string, error)
	FormatJobList(jobs []*core.BatchJob) (string, error)
}

// ParseFormat validates and normalizes a format string.
func ParseFormat(value string) (Format, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case "", string(FormatTable):
		return FormatTable, nil
	case string(FormatJSON):
		return FormatJSON, nil
	case string(FormatMarkdown):
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", value)
	}
}

// NewFormatter returns a formatter for the requested format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatMarkdown:
		return &MarkdownFormatter{}
	default:
		return &TableFormatter{}
	}
}

// FormatResultList renders multiple evaluation results using the requested format.
func FormatResultList(format Format, results []*core.EvaluationResult) (string, error) {
	if format == FormatJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	formatter := NewFormatter(format)
	rendered := make([]string, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue
		}
		value, err := formatter.FormatResult(result)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		rendered = append(rendered, value)
	}

	return strings.Join(rendered, "\n\n"), nil
}

// dimensionLabel renders a dimension name for display, e.g.
// best_practices becomes "Best Practices".
func dimensionLabel(d core.Dimension) string {
	parts := strings.Split(string(d), "_")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func formatScore(value float64) string {
	return fmt.Sprintf("%.1f", value)
}

func jobScoreLabel(job *core.BatchJob) string {
	if job.Status != core.JobCompleted {
		return "-"
	}
	return formatScore(job.Score)
}
