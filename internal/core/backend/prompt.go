package backend

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sqllens/sqllens/internal/core"
)

const systemPrompt = "You are a strict SQL code reviewer. You score code fragments and respond only with JSON."

// scorePayload is the JSON document remote models are instructed to
// return.
type scorePayload struct {
	Correctness   float64  `json:"correctness"`
	Efficiency    float64  `json:"efficiency"`
	Readability   float64  `json:"readability"`
	Scalability   float64  `json:"scalability"`
	Security      float64  `json:"security"`
	Modularity    float64  `json:"modularity"`
	Documentation float64  `json:"documentation"`
	BestPractices float64  `json:"best_practices"`
	ErrorHandling float64  `json:"error_handling"`
	Feedback      string   `json:"feedback"`
	Suggestions   []string `json:"suggestions"`
	Confidence    float64  `json:"confidence"`
}

// buildPrompt renders the scoring instructions for one code unit.
func buildPrompt(unit core.CodeUnit) string {
	return fmt.Sprintf(`Evaluate the following %s code fragment for quality.

Return your answer STRICTLY as JSON with this schema, nothing else:
{
  "correctness": <number 1-10>,
  "efficiency": <number 1-10>,
  "readability": <number 1-10>,
  "scalability": <number 1-10>,
  "security": <number 1-10>,
  "modularity": <number 1-10>,
  "documentation": <number 1-10>,
  "best_practices": <number 1-10>,
  "error_handling": <number 1-10>,
  "feedback": "<overall assessment>",
  "suggestions": ["<improvement>", ...],
  "confidence": <number 0-1>
}

Code:
%s`, unit.Language, unit.Source)
}

// parseScorePayload converts a model's JSON reply into a backend result.
// Fenced code blocks around the JSON are tolerated.
func parseScorePayload(name, content string) (*core.BackendResult, error) {
	trimmed := stripFences(content)
	if trimmed == "" {
		return nil, fmt.Errorf("empty model response")
	}

	var payload scorePayload
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil, fmt.Errorf("malformed model response: %w", err)
	}

	scores := core.ScoreBreakdown{
		Correctness:   clampScore(payload.Correctness),
		Efficiency:    clampScore(payload.Efficiency),
		Readability:   clampScore(payload.Readability),
		Scalability:   clampScore(payload.Scalability),
		Security:      clampScore(payload.Security),
		Modularity:    clampScore(payload.Modularity),
		Documentation: clampScore(payload.Documentation),
		BestPractices: clampScore(payload.BestPractices),
		ErrorHandling: clampScore(payload.ErrorHandling),
	}

	confidence := payload.Confidence
	if confidence <= 0 {
		confidence = 0.5
	}
	if confidence > 1 {
		confidence = 1
	}

	return &core.BackendResult{
		Backend:     name,
		Feedback:    payload.Feedback,
		Suggestions: payload.Suggestions,
		Confidence:  confidence,
		Scores:      scores,
	}, nil
}

func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}

func clampScore(v float64) float64 {
	if v < 1 {
		return 1
	}
	if v > 10 {
		return 10
	}
	return v
}
