package static

import "strings"

var statementVerbs = []string{"select", "insert", "update", "delete", "create", "drop", "alter"}

// sqlKeywords are tokens exempt from the gibberish heuristic.
var sqlKeywords = map[string]struct{}{
	"select": {}, "insert": {}, "update": {}, "delete": {}, "create": {},
	"drop": {}, "alter": {}, "truncate": {}, "grant": {}, "revoke": {},
	"from": {}, "into": {}, "where": {}, "values": {}, "table": {},
	"database": {}, "index": {}, "view": {}, "join": {}, "inner": {},
	"outer": {}, "left": {}, "right": {}, "cross": {}, "group": {},
	"order": {}, "having": {}, "limit": {}, "offset": {}, "union": {},
	"distinct": {}, "between": {}, "like": {}, "null": {}, "not": {},
	"and": {}, "or": {}, "set": {}, "as": {}, "on": {}, "by": {},
	"asc": {}, "desc": {}, "all": {}, "exists": {}, "in": {}, "is": {},
	"primary": {}, "foreign": {}, "key": {}, "references": {}, "default": {},
	"constraint": {}, "unique": {}, "check": {}, "varchar": {}, "integer": {},
	"int": {}, "text": {}, "boolean": {}, "count": {}, "sum": {}, "avg": {},
	"min": {}, "max": {}, "case": {}, "when": {}, "then": {}, "else": {},
	"end": {}, "begin": {}, "commit": {}, "rollback": {}, "user": {},
}

// ValidateStatement reports whether a single statement looks like
// structurally plausible SQL. The check is keyword based: a recognized
// verb must be present along with its required companion clause, and the
// identifier tokens must not look like random noise.
func ValidateStatement(stmt string) bool {
	lower := strings.ToLower(strings.TrimSpace(stmt))
	if lower == "" {
		return false
	}

	hasVerb := false
	for _, verb := range statementVerbs {
		if strings.Contains(lower, verb) {
			hasVerb = true
			break
		}
	}
	if !hasVerb {
		return false
	}

	if strings.Contains(lower, "select") && !strings.Contains(lower, "from") {
		return false
	}
	if strings.Contains(lower, "insert") && !strings.Contains(lower, "into") {
		return false
	}
	if strings.Contains(lower, "update") && !strings.Contains(lower, "set") {
		return false
	}
	if strings.Contains(lower, "delete") && !strings.Contains(lower, "from") && !strings.Contains(lower, "where") {
		return false
	}

	return !looksRandom(lower)
}

// HasValidStructure reports whether at least half of the statements
// validate individually. An empty slice has no valid structure.
func HasValidStructure(statements []string) bool {
	if len(statements) == 0 {
		return false
	}

	valid := 0
	for _, stmt := range statements {
		if ValidateStatement(stmt) {
			valid++
		}
	}
	return float64(valid) >= float64(len(statements))*0.5
}

// looksRandom flags statements whose identifiers are mostly
// low-vowel noise, the typical shape of keyboard-mash input.
func looksRandom(lower string) bool {
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return r < 'a' || r > 'z'
	})

	checked := 0
	random := 0
	for _, token := range tokens {
		if len(token) <= 3 {
			continue
		}
		if _, ok := sqlKeywords[token]; ok {
			continue
		}
		checked++
		vowels := 0
		for _, r := range token {
			switch r {
			case 'a', 'e', 'i', 'o', 'u':
				vowels++
			}
		}
		if float64(vowels)/float64(len(token)) < 0.2 {
			random++
		}
	}

	return checked > 0 && float64(random) > float64(checked)*0.5
}
