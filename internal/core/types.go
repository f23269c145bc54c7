package core

import (
	"strings"
	"time"
)

// Language identifies the source language of a code unit.
type Language string

const (
	LanguageSQL     Language = "sql"
	LanguageUnknown Language = "unknown"
)

// Dimension names a scored quality axis.
type Dimension string

const (
	DimensionCorrectness   Dimension = "correctness"
	DimensionEfficiency    Dimension = "efficiency"
	DimensionReadability   Dimension = "readability"
	DimensionScalability   Dimension = "scalability"
	DimensionSecurity      Dimension = "security"
	DimensionModularity    Dimension = "modularity"
	DimensionDocumentation Dimension = "documentation"
	DimensionBestPractices Dimension = "best_practices"
	DimensionErrorHandling Dimension = "error_handling"
)

// Dimensions lists every scored axis in canonical order.
var Dimensions = []Dimension{
	DimensionCorrectness,
	DimensionEfficiency,
	DimensionReadability,
	DimensionScalability,
	DimensionSecurity,
	DimensionModularity,
	DimensionDocumentation,
	DimensionBestPractices,
	DimensionErrorHandling,
}

// ScoreBreakdown holds one score per quality dimension.
// Measured values live in [1, 10]. The zero value means "not measured";
// an all-ones breakdown is the deterministic analyzer's invalid-input marker.
type ScoreBreakdown struct {
	Correctness   float64 `json:"correctness"`
	Efficiency    float64 `json:"efficiency"`
	Readability   float64 `json:"readability"`
	Scalability   float64 `json:"scalability"`
	Security      float64 `json:"security"`
	Modularity    float64 `json:"modularity"`
	Documentation float64 `json:"documentation"`
	BestPractices float64 `json:"best_practices"`
	ErrorHandling float64 `json:"error_handling"`
}

// Values returns the dimension scores in canonical order.
func (b ScoreBreakdown) Values() []float64 {
	return []float64{
		b.Correctness,
		b.Efficiency,
		b.Readability,
		b.Scalability,
		b.Security,
		b.Modularity,
		b.Documentation,
		b.BestPractices,
		b.ErrorHandling,
	}
}

// Get returns the score for a single dimension.
func (b ScoreBreakdown) Get(d Dimension) float64 {
	switch d {
	case DimensionCorrectness:
		return b.Correctness
	case DimensionEfficiency:
		return b.Efficiency
	case DimensionReadability:
		return b.Readability
	case DimensionScalability:
		return b.Scalability
	case DimensionSecurity:
		return b.Security
	case DimensionModularity:
		return b.Modularity
	case DimensionDocumentation:
		return b.Documentation
	case DimensionBestPractices:
		return b.BestPractices
	case DimensionErrorHandling:
		return b.ErrorHandling
	default:
		return 0
	}
}

// Set assigns the score for a single dimension.
func (b *ScoreBreakdown) Set(d Dimension, value float64) {
	switch d {
	case DimensionCorrectness:
		b.Correctness = value
	case DimensionEfficiency:
		b.Efficiency = value
	case DimensionReadability:
		b.Readability = value
	case DimensionScalability:
		b.Scalability = value
	case DimensionSecurity:
		b.Security = value
	case DimensionModularity:
		b.Modularity = value
	case DimensionDocumentation:
		b.Documentation = value
	case DimensionBestPractices:
		b.BestPractices = value
	case DimensionErrorHandling:
		b.ErrorHandling = value
	}
}

// Overall returns the arithmetic mean across all dimensions.
func (b ScoreBreakdown) Overall() float64 {
	values := b.Values()
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values))
}

// IsZero reports whether no dimension was measured.
func (b ScoreBreakdown) IsZero() bool {
	for _, v := range b.Values() {
		if v != 0 {
			return false
		}
	}
	return true
}

// UniformBreakdown returns a breakdown with every dimension set to value.
func UniformBreakdown(value float64) ScoreBreakdown {
	var b ScoreBreakdown
	for _, d := range Dimensions {
		b.Set(d, value)
	}
	return b
}

// CodeUnit is a single evaluated code fragment.
type CodeUnit struct {
	ID        string   `json:"id"`
	Language  Language `json:"language"`
	Source    string   `json:"source"`
	LineCount int      `json:"line_count"`
}

// BackendResult is one backend's verdict on a code unit.
// Failed evaluations carry Confidence 0 and feedback prefixed
// with "Evaluation failed".
type BackendResult struct {
	Backend     string         `json:"backend"`
	Feedback    string         `json:"feedback"`
	Suggestions []string       `json:"suggestions"`
	Confidence  float64        `json:"confidence"`
	Scores      ScoreBreakdown `json:"scores"`
}

// Failed reports whether this result represents a failed evaluation.
func (r *BackendResult) Failed() bool {
	if r == nil {
		return true
	}
	return r.Confidence <= 0 || strings.HasPrefix(r.Feedback, "Evaluation failed")
}

// EvaluationResult is the aggregated outcome for one code unit.
type EvaluationResult struct {
	UnitID      string           `json:"unit_id"`
	Language    Language         `json:"language"`
	Results     []*BackendResult `json:"results"`
	Scores      ScoreBreakdown   `json:"scores"`
	Overall     float64          `json:"overall"`
	Suggestions []string         `json:"suggestions"`
	Issues      []string         `json:"issues"`
}

// JobStatus tracks a batch job through its lifecycle.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// BatchJob records the state of one batch evaluation.
type BatchJob struct {
	ID             string     `json:"id"`
	Filename       string     `json:"filename"`
	Status         JobStatus  `json:"status"`
	Progress       float64    `json:"progress"`
	TotalUnits     int        `json:"total_units"`
	ProcessedUnits int        `json:"processed_units"`
	Score          float64    `json:"score"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// Statistics summarizes stored batch jobs.
type Statistics struct {
	TotalJobs     int               `json:"total_jobs"`
	CompletedJobs int               `json:"completed_jobs"`
	FailedJobs    int               `json:"failed_jobs"`
	AverageScore  float64           `json:"average_score"`
	Languages     map[string]int    `json:"languages"`
	StatusCounts  map[JobStatus]int `json:"status_counts"`
}
