package utils

import (
	"strings"
	"unicode"
)

// SanitizeStem normalizes a filename stem to lowercase ASCII with
// underscores so a record id is always safe to use as a filesystem name.
func SanitizeStem(stem string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range stem {
		switch {
		case r > unicode.MaxASCII:
			continue
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_")
}
