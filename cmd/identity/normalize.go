package identity

import "strings"

// NormalizePhone canonicalizes a phone number used as a login handle.
// Surrounding whitespace and the visual separators " -().", are dropped; a
// leading '+' is kept. No country-code inference is attempted.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch r {
		case ' ', '-', '(', ')', '.', '\t':
			continue
		case '+':
			if i == 0 {
				b.WriteRune(r)
			}
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
