package export

import (
	"alcyxob/trainerscribe/internal/domain"
	"strings"
	"time"
	"unicode"
)

// FileName builds "<First>_<Last>_Protocol_<yyyy-MM-dd>.pdf". Whitespace inside
// a name becomes an underscore, any rune other than a letter, digit, '-' or '_'
// is dropped and a name left empty is skipped. The result is always a single
// path segment.
func FileName(c domain.Customer, at time.Time) string {
	var parts []string
	for _, name := range []string{c.FirstName, c.LastName} {
		if s := underscored(name); s != "" {
			parts = append(parts, s)
		}
	}
	parts = append(parts, "Protocol", at.Format(time.DateOnly))
	return strings.Join(parts, "_") + ".pdf"
}

func underscored(s string) string {
	var words []string
	for _, w := range strings.Fields(s) {
		if w = strings.Map(fileNameRune, w); w != "" {
			words = append(words, w)
		}
	}
	return strings.Join(words, "_")
}

func fileNameRune(r rune) rune {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
		return r
	}
	return -1
}
