package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"
)

// FormatTime renders a duration given in seconds with a unit chosen by
// magnitude: microseconds below 1 ms, milliseconds below 1 s, seconds above.
func FormatTime(seconds float64) string {
	switch {
	case seconds < 0.001:
		return fmt.Sprintf("%.1f μs", seconds*1_000_000)
	case seconds < 1.0:
		return fmt.Sprintf("%.1f ms", seconds*1000)
	default:
		return fmt.Sprintf("%.3f s", seconds)
	}
}

// FormatSigned formats v with the given precision and an explicit "+" for
// positive values. Negative values keep the sign produced by fmt.
func FormatSigned(v float64, precision int) string {
	s := fmt.Sprintf("%.*f", precision, v)
	if v > 0 {
		return "+" + s
	}
	return s
}

// FormatPercent is FormatSigned with one decimal and a "%" suffix. A nil
// value (undefined ratio) renders as "n/a".
func FormatPercent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return FormatSigned(*v, 1) + "%"
}

// displayWidth counts terminal cells: East Asian wide and fullwidth runes
// take two cells, everything else one.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// padRight left-aligns s in a column of cols terminal cells.
func padRight(s string, cols int) string {
	if w := displayWidth(s); w < cols {
		return s + strings.Repeat(" ", cols-w)
	}
	return s
}
