// Package text canonicalizes free text before it is embedded.
package text

import "strings"

// Normalize lower-cases s, collapses every run of whitespace (spaces, tabs,
// newlines, and other Unicode spaces) into a single space, and trims the ends.
// The same function must run on corpus text at vectorization time and on
// query text at match time.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
