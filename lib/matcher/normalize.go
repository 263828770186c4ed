package matcher

import (
	"strings"
	"unicode"
)

var leetReplacer = strings.NewReplacer(
	"4", "a",
	"3", "e",
	"1", "i",
	"0", "o",
	"5", "s",
	"7", "t",
	"$", "s",
)

// DeLeet replaces leetspeak digits and symbols with letters they usually stand for.
// The result never contains mapped symbols, so applying it twice changes nothing.
func DeLeet(s string) string {
	return leetReplacer.Replace(s)
}

// Squeeze removes whitespace and separators used to split a word, like "a-n-j-i-n-g" or "a.n.j.i.n.g".
func Squeeze(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '_' || r == '.' {
			return -1
		}
		return r
	}, s)
}
