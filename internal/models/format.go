package models

import (
	"strings"
	"unicode"
)

// FormatID derives a stable identifier from a human label. The label is
// trimmed, punctuation is dropped, and each remaining whitespace run becomes
// one underscore, so whitespace left at the edges by dropped punctuation
// survives: "Phase 2 -" becomes "phase_2_".
func FormatID(label string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range strings.TrimSpace(label) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(unicode.ToLower(r))
			inSpace = false
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
		}
	}
	return b.String()
}

// ProperCase turns an identifier such as "st._louis_county" into a display
// label: underscores become spaces and words of three or more letters are
// capitalised.
func ProperCase(text string) string {
	res := []rune(strings.ToLower(strings.ReplaceAll(text, "_", " ")))
	isWord := func(r rune) bool {
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
	}
	isLower := func(i int) bool {
		return i < len(res) && res[i] >= 'a' && res[i] <= 'z'
	}
	for i := range res {
		if (i == 0 || !isWord(res[i-1])) && isLower(i) && isLower(i+1) && isLower(i+2) {
			res[i] = unicode.ToUpper(res[i])
		}
	}
	out := string(res)
	switch {
	case strings.HasPrefix(out, "us "):
		return "US " + out[3:]
	case strings.HasPrefix(out, "st. "):
		return "St. " + out[4:]
	}
	return out
}
