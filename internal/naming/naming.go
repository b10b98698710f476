// Package naming converts Go identifiers into the snake_case and kebab-case
// segments used for tree paths, environment variable names, and CLI flags.
package naming

import (
	"strings"
	"unicode"
)

// Snake converts a Go identifier to snake_case. Acronym runs are kept
// together: "HTTPAddress" becomes "http_address", "DatabaseURL" becomes
// "database_url".
func Snake(name string) string {
	runes := []rune(name)
	var sb strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			boundary := i > 0 &&
				(unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]) ||
					(i+1 < len(runes) && unicode.IsLower(runes[i+1])))
			if boundary {
				sb.WriteByte('_')
			}
			sb.WriteRune(unicode.ToLower(r))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Kebab converts a Go identifier to kebab-case.
func Kebab(name string) string {
	return strings.ReplaceAll(Snake(name), "_", "-")
}
