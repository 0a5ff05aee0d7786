package dispatch

import "strings"

// EscapeSingleQuoted prepares s for embedding between single quotes in a POSIX
// shell command line. Each single quote closes the quoted run, emits an
// escaped quote and reopens it:
//
//	O'Brien  ->  O'\''Brien
func EscapeSingleQuoted(s string) string {
	return strings.ReplaceAll(s, "'", `'\''`)
}

// QuoteSingle returns s escaped and wrapped in single quotes.
func QuoteSingle(s string) string {
	return "'" + EscapeSingleQuoted(s) + "'"
}
