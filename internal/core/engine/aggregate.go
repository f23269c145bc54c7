package engine

import (
	"strings"

	"github.com/sqllens/sqllens/internal/core"
)

// issueTrigger maps feedback phrases to reported issues. All phrases in
// a trigger must occur (case-insensitive) somewhere in a backend's
// feedback for the issue to fire.
type issueTrigger struct {
	phrases []string
	issue   string
}

var issueTriggers = []issueTrigger{
	{phrases: []string{"error"}, issue: "Code contains errors"},
	{phrases: []string{"security", "vulnerability"}, issue: "Security vulnerabilities detected"},
	{phrases: []string{"performance"}, issue: "Performance issues identified"},
}

// Aggregate reduces the per-backend results for one unit into a single
// evaluation result.
//
// Failed results (zero confidence or failure-shaped feedback) are
// discarded. With nothing left the unit gets the explicit all-zero
// breakdown and overall 0.0, a "not measured" signal deliberately
// distinguishable from a genuinely low score. Otherwise the
// highest-confidence survivor supplies the authoritative breakdown,
// with ties broken by first-seen order.
func Aggregate(unit core.CodeUnit, results []*core.BackendResult) *core.EvaluationResult {
	evaluation := &core.EvaluationResult{
		UnitID:      unit.ID,
		Language:    unit.Language,
		Results:     results,
		Suggestions: []string{},
		Issues:      identifyIssues(results),
	}

	var best *core.BackendResult
	seen := make(map[string]struct{})
	for _, result := range results {
		if result == nil || result.Failed() {
			continue
		}
		if best == nil || result.Confidence > best.Confidence {
			best = result
		}
		for _, suggestion := range result.Suggestions {
			if _, ok := seen[suggestion]; ok {
				continue
			}
			seen[suggestion] = struct{}{}
			evaluation.Suggestions = append(evaluation.Suggestions, suggestion)
		}
	}

	if best == nil {
		return evaluation
	}

	evaluation.Scores = best.Scores
	evaluation.Overall = best.Scores.Overall()
	return evaluation
}

// identifyIssues scans every backend's feedback for the fixed trigger
// phrases.
func identifyIssues(results []*core.BackendResult) []string {
	issues := make([]string, 0, len(issueTriggers))
	for _, trigger := range issueTriggers {
		for _, result := range results {
			if result == nil {
				continue
			}
			if matchesAll(result.Feedback, trigger.phrases) {
				issues = append(issues, trigger.issue)
				break
			}
		}
	}
	return issues
}

func matchesAll(feedback string, phrases []string) bool {
	lower := strings.ToLower(feedback)
	for _, phrase := range phrases {
		if !strings.Contains(lower, phrase) {
			return false
		}
	}
	return true
}
