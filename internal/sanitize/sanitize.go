// Package sanitize implements the character-level normalization applied to
// raw text before tokenization.
//
// Sanitize is total, deterministic and idempotent: its output only contains
// lowercase ASCII letters, digits, apostrophes and single spaces, no character
// repeated more than twice in a row and no repeated apostrophes.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Invisible code points first, then compatibility composition, then
	// diacritics stripped by decomposing and dropping nonspacing marks.
	fold = transform.Chain(
		runes.Remove(runes.In(invisible)),
		norm.NFKC,
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)

	urlRe = regexp.MustCompile(`https?://\S+|www\.\S+`)
)

// Sanitize normalizes text for vocabulary lookup.
func Sanitize(text string) string {
	if text == "" {
		return ""
	}
	s := foldUnicode(text)
	s = strings.ToLower(s)
	s = urlRe.ReplaceAllLiteralString(s, " ")
	s = mapRunes(s)
	return squeeze(s)
}

func foldUnicode(s string) string {
	out, _, err := transform.String(fold, s)
	if err != nil {
		// Whatever survives is still cleaned by the allowed-set filter.
		return s
	}
	return out
}

// mapRunes applies the confusable, punctuation and leet tables and replaces
// every rune outside [a-z0-9'] and whitespace with a space. Nonspacing marks
// produced by lowercasing (İ -> i + U+0307) are dropped.
func mapRunes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) || unicode.Is(invisible, r) {
			continue
		}
		if c, ok := confusables[r]; ok {
			r = c
		}
		if c, ok := punctuation[r]; ok {
			r = c
		}
		if c, ok := leet[r]; ok {
			r = c
		}
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '\'':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return b.String()
}

// squeeze caps character runs at two (apostrophes at one) and collapses
// whitespace to single interior spaces. Input must be ASCII.
func squeeze(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev byte
	run := 0
	pendingSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ' ' {
			pendingSpace = b.Len() > 0
			prev, run = 0, 0
			continue
		}
		if c == prev {
			run++
		} else {
			prev, run = c, 1
		}
		limit := 2
		if c == '\'' {
			limit = 1
		}
		if run > limit {
			continue
		}
		if pendingSpace {
			b.WriteByte(' ')
			pendingSpace = false
		}
		b.WriteByte(c)
	}
	return b.String()
}
