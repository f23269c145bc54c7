package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sqllens/sqllens/internal/core"
)

type stubBackend struct {
	name   string
	result *core.BackendResult
	err    error
	panics bool
	delay  time.Duration
}

func (s *stubBackend) Name() string {
	return s.name
}

func (s *stubBackend) Evaluate(ctx context.Context, unit core.CodeUnit) (*core.BackendResult, error) {
	if s.panics {
		panic("stub exploded")
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func testUnit() core.CodeUnit {
	return core.CodeUnit{ID: "u1", Language: core.LanguageSQL, Source: "SELECT id FROM users WHERE id=1;"}
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry(StaticName)
	require.NoError(t, registry.Register(NewStatic()))

	require.Equal(t, []string{StaticName}, registry.Resolve(nil))
	require.Equal(t, []string{"a", "b"}, registry.Resolve([]string{"a", "b", "a", ""}))
}

func TestRegistryDuplicate(t *testing.T) {
	registry := NewRegistry(StaticName)
	require.NoError(t, registry.Register(NewStatic()))
	require.Error(t, registry.Register(NewStatic()))
}

func TestRunConvertsError(t *testing.T) {
	b := &stubBackend{name: "flaky", err: errors.New("boom")}

	result := Run(context.Background(), b, testUnit(), 0)
	require.True(t, result.Failed())
	require.Equal(t, "flaky", result.Backend)
	require.Contains(t, result.Feedback, "Evaluation failed")
	require.Contains(t, result.Suggestions, "Please try again or contact support")
}

func TestRunRecoversPanic(t *testing.T) {
	b := &stubBackend{name: "panicky", panics: true}

	result := Run(context.Background(), b, testUnit(), 0)
	require.True(t, result.Failed())
	require.Contains(t, result.Feedback, "panicked")
}

func TestRunTimeout(t *testing.T) {
	b := &stubBackend{name: "slow", delay: time.Second, result: &core.BackendResult{Backend: "slow", Confidence: 1}}

	start := time.Now()
	result := Run(context.Background(), b, testUnit(), 20*time.Millisecond)
	require.Less(t, time.Since(start), 500*time.Millisecond)
	require.True(t, result.Failed())
	require.Contains(t, result.Feedback, "timed out")
}

func TestRunNilResult(t *testing.T) {
	b := &stubBackend{name: "empty"}

	result := Run(context.Background(), b, testUnit(), 0)
	require.True(t, result.Failed())
}

func TestRunNilBackend(t *testing.T) {
	result := Run(context.Background(), nil, testUnit(), 0)
	require.True(t, result.Failed())
}

func TestStaticBackendEvaluate(t *testing.T) {
	b := NewStatic()

	result, err := b.Evaluate(context.Background(), testUnit())
	require.NoError(t, err)
	require.Equal(t, StaticName, result.Backend)
	require.False(t, result.Failed())
	require.GreaterOrEqual(t, result.Scores.Correctness, 7.0)
}

func TestStaticBackendGibberish(t *testing.T) {
	b := NewStatic()

	unit := core.CodeUnit{ID: "u2", Language: core.LanguageSQL, Source: "xkq wqpz flbbb"}
	result, err := b.Evaluate(context.Background(), unit)
	require.NoError(t, err)
	require.Equal(t, core.UniformBreakdown(1.0), result.Scores)
}

func TestParseScorePayload(t *testing.T) {
	content := `{"correctness": 8, "efficiency": 7, "readability": 9, "scalability": 7,
		"security": 12, "modularity": 8, "documentation": 6, "best_practices": 8,
		"error_handling": 0.5, "feedback": "solid", "suggestions": ["use limits"], "confidence": 0.9}`

	result, err := parseScorePayload("openai", content)
	require.NoError(t, err)
	require.Equal(t, 8.0, result.Scores.Correctness)
	require.Equal(t, 10.0, result.Scores.Security)
	require.Equal(t, 1.0, result.Scores.ErrorHandling)
	require.Equal(t, 0.9, result.Confidence)
	require.Equal(t, "solid", result.Feedback)
}

func TestParseScorePayloadFenced(t *testing.T) {
	content := "```json\n{\"correctness\": 5, \"feedback\": \"ok\"}\n```"

	result, err := parseScorePayload("openai", content)
	require.NoError(t, err)
	require.Equal(t, 5.0, result.Scores.Correctness)
	require.Equal(t, 0.5, result.Confidence)
}

func TestParseScorePayloadMalformed(t *testing.T) {
	_, err := parseScorePayload("openai", "not json")
	require.Error(t, err)

	_, err = parseScorePayload("openai", "")
	require.Error(t, err)
}

func TestOpenRouterEvaluate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"correctness\":7,\"confidence\":0.8,\"feedback\":\"fine\"}"}}]}`))
	}))
	defer server.Close()

	b, err := NewOpenRouter(OpenRouterConfig{APIKey: "test-key", BaseURL: server.URL})
	require.NoError(t, err)

	result, err := b.Evaluate(context.Background(), testUnit())
	require.NoError(t, err)
	require.Equal(t, OpenRouterName, result.Backend)
	require.Equal(t, 7.0, result.Scores.Correctness)
	require.Equal(t, 0.8, result.Confidence)
}

func TestOpenRouterRequiresKey(t *testing.T) {
	_, err := NewOpenRouter(OpenRouterConfig{})
	require.Error(t, err)

	_, err = NewOpenAI(OpenAIConfig{})
	require.Error(t, err)
}
