package shared

import "strings"

// SanitizeName makes a block name safe for use inside a generated
// block name: path separators and whitespace become underscores.
func SanitizeName(s string) string {
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	return s
}
