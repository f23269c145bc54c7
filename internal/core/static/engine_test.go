package static

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sqllens/sqllens/internal/core"
)

func TestSplitStatements(t *testing.T) {
	statements := SplitStatements("SELECT ';' FROM t; DELETE FROM t;")
	require.Len(t, statements, 2)
	require.Equal(t, "SELECT ';' FROM t", statements[0])
	require.Equal(t, "DELETE FROM t", statements[1])
}

func TestSplitStatementsTrailing(t *testing.T) {
	statements := SplitStatements("SELECT id FROM users")
	require.Equal(t, []string{"SELECT id FROM users"}, statements)
}

func TestSplitStatementsDoubleQuotes(t *testing.T) {
	statements := SplitStatements(`SELECT "a;b" FROM t; SELECT c FROM u;`)
	require.Len(t, statements, 2)
}

func TestSplitStatementsEmpty(t *testing.T) {
	require.Empty(t, SplitStatements(""))
	require.Empty(t, SplitStatements(" ; ; "))
}

func TestValidate(t *testing.T) {
	engine := NewEngine()

	require.False(t, engine.Validate(""))
	require.True(t, engine.Validate("SELECT name FROM users WHERE id=1;"))
	require.False(t, engine.Validate("hello world"))
	require.False(t, engine.Validate("SELECT id"))
	require.False(t, engine.Validate("INSERT users VALUES (1)"))
	require.False(t, engine.Validate("UPDATE users"))
	require.False(t, engine.Validate("delete all records now"))
	require.True(t, engine.Validate("DELETE FROM sessions WHERE expired = 1"))
}

func TestValidateGibberish(t *testing.T) {
	engine := NewEngine()
	require.False(t, engine.Validate("SELECT xkqwv FROM flbbbqz WHERE zzqrtp = 1"))
}

func TestAnalyzeStatementUnguardedDelete(t *testing.T) {
	engine := NewEngine()
	scores := engine.AnalyzeStatement("DELETE FROM users")
	require.LessOrEqual(t, scores[core.DimensionCorrectness], 2.0)
}

func TestAnalyzeStatementCleanSelect(t *testing.T) {
	engine := NewEngine()
	scores := engine.AnalyzeStatement("SELECT id FROM users WHERE id=1")
	require.GreaterOrEqual(t, scores[core.DimensionCorrectness], 7.0)
}

func TestAnalyzeStatementScoresClamped(t *testing.T) {
	engine := NewEngine()
	inputs := []string{
		"SELECT * FROM audit_logs CROSS JOIN history ORDER BY id",
		"DROP TABLE users",
		"DELETE FROM t",
		"SELECT a, b, COUNT(c) FROM t",
	}
	for _, input := range inputs {
		scores := engine.AnalyzeStatement(input)
		for d, score := range scores {
			require.GreaterOrEqual(t, score, 1.0, "dimension %s for %q", d, input)
			require.LessOrEqual(t, score, 10.0, "dimension %s for %q", d, input)
		}
	}
}

func TestAnalyzeStatementSelectStar(t *testing.T) {
	engine := NewEngine()

	plain := engine.AnalyzeStatement("SELECT * FROM users WHERE id=1")
	large := engine.AnalyzeStatement("SELECT * FROM audit_logs WHERE id=1")
	require.Less(t, plain[core.DimensionEfficiency], 10.0)
	require.Less(t, large[core.DimensionEfficiency], plain[core.DimensionEfficiency])
}

func TestAnalyzeStatementCrossJoin(t *testing.T) {
	engine := NewEngine()
	scores := engine.AnalyzeStatement("SELECT a.id FROM a CROSS JOIN b WHERE a.x=1")
	require.LessOrEqual(t, scores[core.DimensionEfficiency], 5.0)
}

func TestAnalyzeStatementInjection(t *testing.T) {
	engine := NewEngine()
	scores := engine.AnalyzeStatement("SELECT * FROM logs WHERE 1=1 OR 1=1")
	require.LessOrEqual(t, scores[core.DimensionSecurity], 1.0)
}

func TestEvaluateInvalidInput(t *testing.T) {
	engine := NewEngine()

	analysis := engine.Evaluate("xkq wqpz flbbb")
	require.False(t, analysis.Valid)
	require.Equal(t, core.UniformBreakdown(1.0), analysis.Scores)
	require.InDelta(t, 0.1, analysis.Confidence, 1e-9)
	require.NotEmpty(t, analysis.Suggestions)
}

func TestEvaluateSingleInvalidStatement(t *testing.T) {
	engine := NewEngine()
	analysis := engine.Evaluate("not sql at all")
	require.Equal(t, core.UniformBreakdown(1.0), analysis.Scores)
}

func TestEvaluateInjectionSuggestion(t *testing.T) {
	engine := NewEngine()

	analysis := engine.Evaluate("SELECT * FROM logs WHERE 1=1 OR 1=1;")
	require.True(t, analysis.Valid)
	require.LessOrEqual(t, analysis.Scores.Security, 2.0)
	require.Contains(t, analysis.Suggestions, "Use parameterized queries instead of string concatenation")
	require.Greater(t, analysis.Confidence, 0.8)
}

func TestEvaluateMultiStatementBonus(t *testing.T) {
	engine := NewEngine()

	single := engine.Evaluate("SELECT id FROM users WHERE id=1;")
	multi := engine.Evaluate("SELECT id FROM users WHERE id=1; SELECT name FROM accounts WHERE id=2;")

	require.True(t, single.Valid)
	require.True(t, multi.Valid)
	require.Greater(t, multi.Scores.Documentation, single.Scores.Documentation)
}

func TestEvaluateScoreBounds(t *testing.T) {
	engine := NewEngine()

	inputs := []string{
		"SELECT id FROM users WHERE id=1;",
		"SELECT * FROM audit_logs CROSS JOIN history ORDER BY id;",
		"DROP TABLE users; TRUNCATE accounts;",
		"UPDATE users SET name='x';",
	}
	for _, input := range inputs {
		analysis := engine.Evaluate(input)
		for _, v := range analysis.Scores.Values() {
			require.GreaterOrEqual(t, v, 1.0, "input %q", input)
			require.LessOrEqual(t, v, 10.0, "input %q", input)
		}
	}
}

func TestReformatBreaksClauses(t *testing.T) {
	lines := newStatement("SELECT id FROM users WHERE id=1").lines
	require.Len(t, lines, 3)
}

func TestInconsistentKeywordCase(t *testing.T) {
	require.True(t, inconsistentKeywordCase(newStatement("SELECT id FROM users WHERE id IN (select id FROM admins)")))
	require.False(t, inconsistentKeywordCase(newStatement("SELECT id FROM users WHERE id=1")))
}
