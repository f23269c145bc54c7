package static

import (
	"regexp"
	"strings"

	"github.com/sqllens/sqllens/internal/core"
)

// statement carries a normalized view of one SQL statement so rule
// predicates do not re-derive the same artifacts.
type statement struct {
	raw   string
	upper string
	valid bool
	lines []string
}

func newStatement(raw string) *statement {
	return &statement{
		raw:   raw,
		upper: strings.ToUpper(raw),
		valid: ValidateStatement(raw),
		lines: strings.Split(reformat(raw), "\n"),
	}
}

// Rule is one scoring adjustment. A rule fires when Pattern matches the
// statement (case-insensitive) or, for structural checks, when Check
// returns true. SetTo forces the dimension to a fixed score; otherwise
// Delta is added. Scores are clamped to [1, 10] after all rules run.
type Rule struct {
	Name       string
	Dimension  core.Dimension
	Pattern    *regexp.Regexp
	Check      func(*statement) bool
	Delta      float64
	SetTo      float64
	Suggestion string
}

func (r Rule) matches(s *statement) bool {
	if r.Check != nil {
		return r.Check(s)
	}
	if r.Pattern != nil {
		return r.Pattern.MatchString(s.raw)
	}
	return false
}

var (
	injectionPattern    = regexp.MustCompile(`(?i)(\bOR\s+['"]?1['"]?\s*=\s*['"]?1['"]?|\bOR\s+['"]?TRUE['"]?\s*=\s*['"]?TRUE['"]?|\bUNION\s+(ALL\s+)?SELECT\b|';?\s*(DROP\s+TABLE|DELETE\s+FROM|INSERT\s+INTO|EXEC(UTE)?\s))`)
	destructivePattern  = regexp.MustCompile(`(?i)\b(DROP\s+(TABLE|DATABASE|INDEX|VIEW)|TRUNCATE)\b`)
	concatPattern       = regexp.MustCompile(`(?i)('[^']*'\s*(\+|\|\|)\s*\w+|\w+\s*(\+|\|\|)\s*'[^']*')`)
	selectStarPattern   = regexp.MustCompile(`(?i)SELECT\s+\*`)
	bigTablePattern     = regexp.MustCompile(`(?i)SELECT\s+\*\s+FROM\s+\w*(log|history|audit)\w*`)
	crossJoinPattern    = regexp.MustCompile(`(?i)\bCROSS\s+JOIN\b`)
	deleteUpdatePattern = regexp.MustCompile(`(?i)\b(DELETE|UPDATE)\b`)
	wherePattern        = regexp.MustCompile(`(?i)\bWHERE\b`)
	orderByPattern      = regexp.MustCompile(`(?i)\bORDER\s+BY\b`)
	limitPattern        = regexp.MustCompile(`(?i)\bLIMIT\b`)
	aggregateFnPattern  = regexp.MustCompile(`(?i)\b(COUNT|SUM|AVG|MAX|MIN)\s*\(`)
	groupByPattern      = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	joinPattern         = regexp.MustCompile(`(?i)\bJOIN\s+(\w+)(\s+(AS\s+)?\w+)?`)
	keywordPattern      = regexp.MustCompile(`(?i)\b(select|from|where|insert|into|update|set|delete|join|group|order|by|having|limit|values|create|table|drop|alter)\b`)
)

// ruleTable is the fixed, ordered set of scoring rules. Rules are applied
// in order per dimension; later rules see the adjusted score.
var ruleTable = []Rule{
	{
		Name:       "correctness/unparsable",
		Dimension:  core.DimensionCorrectness,
		Check:      func(s *statement) bool { return !s.valid },
		SetTo:      2.0,
		Suggestion: "Fix SQL syntax errors",
	},
	{
		Name:       "correctness/unguarded-write",
		Dimension:  core.DimensionCorrectness,
		Check:      unguardedWrite,
		SetTo:      1.0,
		Suggestion: "Add WHERE clause to DELETE/UPDATE operations",
	},
	{
		Name:       "correctness/aggregate-without-group-by",
		Dimension:  core.DimensionCorrectness,
		Check:      aggregateWithoutGroupBy,
		Delta:      -3.0,
		Suggestion: "Add GROUP BY when mixing aggregate functions with plain columns",
	},
	{
		Name:       "efficiency/select-star",
		Dimension:  core.DimensionEfficiency,
		Pattern:    selectStarPattern,
		Delta:      -3.0,
		Suggestion: "SELECT * is inefficient - select only needed columns",
	},
	{
		Name:      "efficiency/select-star-large-table",
		Dimension: core.DimensionEfficiency,
		Pattern:   bigTablePattern,
		Delta:     -2.0,
	},
	{
		Name:       "efficiency/cross-join",
		Dimension:  core.DimensionEfficiency,
		Pattern:    crossJoinPattern,
		Delta:      -5.0,
		Suggestion: "CROSS JOIN can be very expensive - use INNER JOIN with proper conditions",
	},
	{
		Name:       "efficiency/order-by-without-limit",
		Dimension:  core.DimensionEfficiency,
		Check:      orderByWithoutLimit,
		Delta:      -2.0,
		Suggestion: "ORDER BY without LIMIT can be slow on large datasets",
	},
	{
		Name:       "security/injection",
		Dimension:  core.DimensionSecurity,
		Pattern:    injectionPattern,
		SetTo:      1.0,
		Suggestion: "Use parameterized queries instead of string concatenation",
	},
	{
		Name:       "security/destructive",
		Dimension:  core.DimensionSecurity,
		Pattern:    destructivePattern,
		Delta:      -6.0,
		Suggestion: "Guard destructive operations behind explicit confirmation",
	},
	{
		Name:       "security/string-concatenation",
		Dimension:  core.DimensionSecurity,
		Pattern:    concatPattern,
		Delta:      -4.0,
		Suggestion: "Use parameterized queries instead of string concatenation",
	},
	{
		Name:      "readability/multiline",
		Dimension: core.DimensionReadability,
		Check:     func(s *statement) bool { return len(s.lines) > 1 },
		Delta:     1.0,
	},
	{
		Name:      "readability/single-line",
		Dimension: core.DimensionReadability,
		Check:     func(s *statement) bool { return len(s.lines) <= 1 },
		Delta:     -1.0,
	},
	{
		Name:       "readability/long-line",
		Dimension:  core.DimensionReadability,
		Check:      hasLongLine,
		Delta:      -1.0,
		Suggestion: "Keep lines under 80 characters",
	},
	{
		Name:       "best_practices/inconsistent-casing",
		Dimension:  core.DimensionBestPractices,
		Check:      inconsistentKeywordCase,
		Delta:      -1.0,
		Suggestion: "Use consistent keyword casing",
	},
	{
		Name:       "best_practices/joins-without-aliases",
		Dimension:  core.DimensionBestPractices,
		Check:      manyJoinsWithoutAliases,
		Delta:      -1.0,
		Suggestion: "Alias tables when joining more than two of them",
	},
}

func unguardedWrite(s *statement) bool {
	return deleteUpdatePattern.MatchString(s.raw) && !wherePattern.MatchString(s.raw)
}

func aggregateWithoutGroupBy(s *statement) bool {
	if !aggregateFnPattern.MatchString(s.raw) || groupByPattern.MatchString(s.raw) {
		return false
	}
	return hasPlainSelectColumns(s.raw)
}

// hasPlainSelectColumns reports whether the select list mixes bare
// columns in with aggregate calls.
func hasPlainSelectColumns(raw string) bool {
	upper := strings.ToUpper(raw)
	start := strings.Index(upper, "SELECT")
	end := strings.Index(upper, "FROM")
	if start == -1 || end == -1 || end <= start {
		return false
	}

	list := raw[start+len("SELECT") : end]
	for _, col := range strings.Split(list, ",") {
		col = strings.TrimSpace(col)
		if col == "" || col == "*" {
			continue
		}
		if !aggregateFnPattern.MatchString(col) {
			return true
		}
	}
	return false
}

func orderByWithoutLimit(s *statement) bool {
	return orderByPattern.MatchString(s.raw) && !limitPattern.MatchString(s.raw)
}

func hasLongLine(s *statement) bool {
	for _, line := range s.lines {
		if len(line) > 80 {
			return true
		}
	}
	return false
}

func inconsistentKeywordCase(s *statement) bool {
	matches := keywordPattern.FindAllString(s.raw, -1)
	seen := make(map[string]string, len(matches))
	for _, m := range matches {
		if strings.ToUpper(m) == m || strings.ToLower(m) == m {
			key := strings.ToLower(m)
			prev, ok := seen[key]
			if ok && prev != m {
				return true
			}
			seen[key] = m
		}
	}
	return false
}

func manyJoinsWithoutAliases(s *statement) bool {
	joins := joinPattern.FindAllStringSubmatch(s.raw, -1)
	if len(joins) <= 2 {
		return false
	}
	for _, join := range joins {
		if strings.TrimSpace(join[2]) == "" {
			return true
		}
	}
	return false
}

// majorClauses start a new line during canonical reformatting.
var majorClauses = []string{
	"FROM", "WHERE", "JOIN", "INNER JOIN", "LEFT JOIN", "RIGHT JOIN",
	"CROSS JOIN", "GROUP BY", "ORDER BY", "HAVING", "VALUES", "SET",
	"UNION", "LIMIT",
}

var clausePattern = buildClausePattern()

func buildClausePattern() *regexp.Regexp {
	parts := make([]string, 0, len(majorClauses))
	for _, clause := range majorClauses {
		parts = append(parts, strings.ReplaceAll(clause, " ", `\s+`))
	}
	return regexp.MustCompile(`(?i)\s+(` + strings.Join(parts, "|") + `)\b`)
}

// reformat produces the canonical multi-line rendering of a statement:
// collapsed whitespace with each major clause starting its own line.
func reformat(raw string) string {
	collapsed := strings.Join(strings.Fields(raw), " ")
	return clausePattern.ReplaceAllString(collapsed, "\n$1")
}
