// Package static implements the deterministic SQL quality analyzer.
// It validates that input is plausibly SQL, splits it into statements,
// scores each statement against a fixed rule table, and aggregates the
// per-statement scores into one breakdown.
package static

import (
	"fmt"
	"strings"

	"github.com/sqllens/sqllens/internal/core"
)

// scored dimensions computed directly by the rule table; the remaining
// breakdown fields are derived during aggregation.
var ruleDimensions = []core.Dimension{
	core.DimensionCorrectness,
	core.DimensionEfficiency,
	core.DimensionReadability,
	core.DimensionSecurity,
	core.DimensionBestPractices,
}

const (
	baseScore = 10.0
	minScore  = 1.0
	maxScore  = 10.0

	// Fixed scores for dimensions SQL fragments cannot meaningfully
	// exercise on their own.
	modularityScore    = 8.0
	documentationScore = 7.0
	errorHandlingScore = 8.0
)

// Analysis is the engine's verdict on one code fragment.
type Analysis struct {
	Scores      core.ScoreBreakdown
	Confidence  float64
	Feedback    string
	Suggestions []string
	Statements  int
	Valid       bool
}

// Engine is the deterministic analyzer. It holds no state and performs
// no I/O; methods are safe for concurrent use.
type Engine struct{}

// NewEngine returns a ready analyzer.
func NewEngine() *Engine {
	return &Engine{}
}

// Validate reports whether the fragment is plausibly meaningful SQL.
func (e *Engine) Validate(code string) bool {
	if strings.TrimSpace(code) == "" {
		return false
	}
	return HasValidStructure(SplitStatements(code))
}

// AnalyzeStatement scores a single statement on the rule-table
// dimensions. Scores start at the base value and are clamped to
// [1, 10] after every rule has been applied.
func (e *Engine) AnalyzeStatement(stmt string) map[core.Dimension]float64 {
	scores, _ := analyzeStatement(stmt)
	return scores
}

func analyzeStatement(raw string) (map[core.Dimension]float64, []string) {
	s := newStatement(raw)

	scores := make(map[core.Dimension]float64, len(ruleDimensions))
	for _, d := range ruleDimensions {
		scores[d] = baseScore
	}

	var suggestions []string
	for _, rule := range ruleTable {
		if !rule.matches(s) {
			continue
		}
		if rule.SetTo > 0 {
			if scores[rule.Dimension] > rule.SetTo {
				scores[rule.Dimension] = rule.SetTo
			}
		} else {
			scores[rule.Dimension] += rule.Delta
		}
		if rule.Suggestion != "" {
			suggestions = append(suggestions, rule.Suggestion)
		}
	}

	for _, d := range ruleDimensions {
		scores[d] = clamp(scores[d])
	}

	return scores, suggestions
}

// Evaluate analyzes a whole fragment. It never fails: input that does
// not validate receives the all-ones sentinel breakdown with near-zero
// confidence instead of an error.
func (e *Engine) Evaluate(code string) *Analysis {
	statements := SplitStatements(code)

	if !e.Validate(code) {
		return &Analysis{
			Scores:     core.UniformBreakdown(minScore),
			Confidence: 0.1,
			Feedback:   "No valid SQL statements detected. The input does not appear to be meaningful SQL.",
			Suggestions: []string{
				"Provide at least one complete SQL statement",
			},
			Statements: len(statements),
		}
	}

	totals := make(map[core.Dimension]float64, len(ruleDimensions))
	suggestions := make([]string, 0, 4)
	seen := make(map[string]struct{})
	validCount := 0
	invalidCount := 0

	for _, stmt := range statements {
		if !ValidateStatement(stmt) {
			invalidCount++
			continue
		}
		validCount++
		scores, fired := analyzeStatement(stmt)
		for _, d := range ruleDimensions {
			totals[d] += scores[d]
		}
		for _, suggestion := range fired {
			if _, ok := seen[suggestion]; ok {
				continue
			}
			seen[suggestion] = struct{}{}
			suggestions = append(suggestions, suggestion)
		}
	}

	if validCount == 0 {
		return &Analysis{
			Scores:      core.UniformBreakdown(minScore),
			Confidence:  0.1,
			Feedback:    "No valid SQL statements detected. The input does not appear to be meaningful SQL.",
			Suggestions: []string{"Provide at least one complete SQL statement"},
			Statements:  len(statements),
		}
	}

	// Multi-statement scripts earn a small structure bonus.
	bonus := 0.0
	if len(statements) > 1 {
		bonus = 0.1 * float64(len(statements))
		if bonus > 1.0 {
			bonus = 1.0
		}
	}

	var breakdown core.ScoreBreakdown
	for _, d := range ruleDimensions {
		breakdown.Set(d, clamp(totals[d]/float64(validCount)+bonus))
	}
	breakdown.Scalability = breakdown.Efficiency
	breakdown.Modularity = clamp(modularityScore + bonus)
	breakdown.Documentation = clamp(documentationScore + bonus)
	breakdown.ErrorHandling = clamp(errorHandlingScore + bonus)

	return &Analysis{
		Scores:      breakdown,
		Confidence:  confidence(code, invalidCount > 0),
		Feedback:    feedbackFor(breakdown, validCount, len(statements)),
		Suggestions: suggestions,
		Statements:  len(statements),
		Valid:       true,
	}
}

// confidence reflects how decisively the rule patterns fired. Clear-cut
// findings raise confidence above the base.
func confidence(code string, anyInvalid bool) float64 {
	c := 0.8
	if injectionPattern.MatchString(code) || destructivePattern.MatchString(code) {
		c += 0.1
	}
	if anyInvalid {
		c += 0.1
	}
	if crossJoinPattern.MatchString(code) {
		c += 0.05
	}
	if c > 1.0 {
		c = 1.0
	}
	return c
}

func feedbackFor(scores core.ScoreBreakdown, valid, total int) string {
	parts := make([]string, 0, 4)

	switch {
	case scores.Security <= 2.0:
		parts = append(parts, "Critical security vulnerability detected.")
	case scores.Security <= 5.0:
		parts = append(parts, "Security concerns detected.")
	}
	if scores.Correctness <= 4.0 {
		parts = append(parts, "Logic errors detected in SQL.")
	}
	if scores.Efficiency <= 5.0 {
		parts = append(parts, "Performance issues detected.")
	}

	if len(parts) == 0 {
		parts = append(parts, "SQL code demonstrates good quality across all criteria.")
	}
	parts = append(parts, fmt.Sprintf("Analyzed %d of %d statements.", valid, total))

	return strings.Join(parts, " ")
}

func clamp(score float64) float64 {
	if score < minScore {
		return minScore
	}
	if score > maxScore {
		return maxScore
	}
	return score
}
