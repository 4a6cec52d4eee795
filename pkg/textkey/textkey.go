// Package textkey folds free-form labels into comparable lookup keys.
package textkey

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold lowercases s, strips diacritics and collapses spaces, dashes and
// underscores into single underscores: "  Date de Naissance " -> "date_de_naissance".
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(stripped)) {
		switch {
		case r == ' ' || r == '-' || r == '_' || r == '\t':
			pendingSep = b.Len() > 0
		case r == '\uFEFF':
			continue
		default:
			if pendingSep {
				b.WriteByte('_')
				pendingSep = false
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}
