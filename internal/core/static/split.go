package static

import "strings"

// SplitStatements breaks a SQL fragment into individual statements.
// A semicolon ends a statement unless it appears inside a quoted string.
// Single and double quotes each close only on their own kind. A trailing
// statement without a terminating semicolon is kept.
func SplitStatements(src string) []string {
	statements := make([]string, 0, 4)

	var sb strings.Builder
	inString := false
	var quote rune

	for _, ch := range src {
		switch {
		case (ch == '\'' || ch == '"') && !inString:
			inString = true
			quote = ch
			sb.WriteRune(ch)
		case ch == quote && inString:
			inString = false
			sb.WriteRune(ch)
		case ch == ';' && !inString:
			if stmt := strings.TrimSpace(sb.String()); stmt != "" {
				statements = append(statements, stmt)
			}
			sb.Reset()
		default:
			sb.WriteRune(ch)
		}
	}

	if stmt := strings.TrimSpace(sb.String()); stmt != "" {
		statements = append(statements, stmt)
	}

	return statements
}
