package output

import (
	"encoding/json"

	"github.com/sqllens/sqllens/internal/core"
)

// JSONFormatter renders results as JSON.
type JSONFormatter struct {
	Indent bool
}

// FormatResult renders one evaluation result as JSON.
func (f *JSONFormatter) FormatResult(result *core.EvaluationResult) (string, error) {
	if result == nil {
		return "", nil
	}
	return f.marshal(result)
}

// FormatJob renders a job with its unit results as JSON.
func (f *JSONFormatter) FormatJob(job *core.BatchJob, results []*core.EvaluationResult) (string, error) {
	if job == nil {
		return "", nil
	}

	payload := struct {
		Job     *core.BatchJob           `json:"job"`
		Results []*core.EvaluationResult `json:"results,omitempty"`
	}{Job: job, Results: results}

	return f.marshal(payload)
}

// FormatJobList renders stored jobs as JSON.
func (f *JSONFormatter) FormatJobList(jobs []*core.BatchJob) (string, error) {
	return f.marshal(jobs)
}

func (f *JSONFormatter) marshal(value any) (string, error) {
	var (
		data []byte
		err  error
	)

	if f.Indent {
		data, err = json.MarshalIndent(value, "", "  ")
	} else {
		data, err = json.Marshal(value)
	}
	if err != nil {
		return "", err
	}

	return string(data), nil
}
