package ical

import "strings"

// textEscaper rewrites the characters that are structurally significant in
// RFC 5545 TEXT values. Backslash must be listed first conceptually, but
// strings.Replacer applies non-overlapping replacements in one pass, so
// ordering here is safe.
var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\;`,
	",", `\,`,
	"\r\n", `\n`,
	"\n", `\n`,
	"\r", `\n`,
)

// escapeText escapes free text for embedding in a single content line, so
// upstream descriptions can never break the document structure.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}
