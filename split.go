package bit2

import (
	"strings"
)

// SplitStatements splits a SQL script into individual statements.
//
// Lines whose first non-blank characters are "--" are dropped before
// scanning, as are blank lines. A "--" that follows SQL on the same line
// is kept, and block comments are not recognized. Semicolons inside single-
// or double-quoted literals do not end a statement; a doubled single quote
// is treated as an escaped quote. An unterminated quote swallows the rest of
// the script into one trailing statement. Kept lines are not modified, so a
// carriage return inside a literal survives.
func SplitStatements(script string) []string {
	lines := strings.Split(script, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		kept = append(kept, line)
	}
	cleaned := []rune(strings.Join(kept, "\n"))

	var (
		statements    []string
		current       strings.Builder
		inSingleQuote bool
		inDoubleQuote bool
	)

	flush := func() {
		if statement := strings.TrimSpace(current.String()); statement != "" {
			statements = append(statements, statement)
		}
		current.Reset()
	}

	for i := 0; i < len(cleaned); i++ {
		char := cleaned[i]

		switch {
		case char == '\'' && !inDoubleQuote:
			if i+1 < len(cleaned) && cleaned[i+1] == '\'' {
				// Doubled quote, write both characters
				current.WriteString("''")
				i++
				continue
			}
			inSingleQuote = !inSingleQuote
			current.WriteRune(char)
		case char == '"' && !inSingleQuote:
			inDoubleQuote = !inDoubleQuote
			current.WriteRune(char)
		case char == ';' && !inSingleQuote && !inDoubleQuote:
			flush()
		default:
			current.WriteRune(char)
		}
	}

	// Last statement without a trailing semicolon
	flush()

	return statements
}
