package grid

import (
	"unicode"

	"golang.org/x/text/width"
)

// RuneWidth reports the display width of r in cells: 0 for NUL and
// non-printing/combining marks, 2 for East Asian wide/fullwidth code
// points, 1 otherwise. Grid.Write uses this to decide whether a code point
// occupies one cell or two; it gives zero-width code points a cell of
// their own.
func RuneWidth(r rune) int {
	switch {
	case r == 0, !unicode.IsPrint(r):
		return 0
	case isCombining(r):
		return 0
	case isWide(r):
		return 2
	default:
		return 1
	}
}

// isCombining reports whether r is a nonspacing, enclosing, or spacing
// combining mark (Unicode categories Mn, Me, Mc), which have no display
// width of their own.
func isCombining(r rune) bool {
	return unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Me, r) || unicode.Is(unicode.Mc, r)
}

// isWide reports whether r's East Asian Width property is Wide or
// Fullwidth.
func isWide(r rune) bool {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return true
	default:
		return false
	}
}

// StringWidth sums RuneWidth over every code point in s.
func StringWidth(s string) int {
	total := 0
	for _, r := range s {
		total += RuneWidth(r)
	}
	return total
}
