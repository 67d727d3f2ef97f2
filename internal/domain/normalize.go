package domain

import (
	"math"
	"strconv"
	"strings"
)

// negativeRainTokens are the literals normalized to "not rain" before
// comparison. "nan" covers pandas-style missing markers that arrive as text.
var negativeRainTokens = map[string]struct{}{
	"":      {},
	"no":    {},
	"null":  {},
	"none":  {},
	"na":    {},
	"nan":   {},
	"false": {},
	"0":     {},
	"n":     {},
}

// ParseNumber coerces one cell to float64. It trims whitespace and rewrites
// a comma decimal separator to a dot before parsing, so "19,32" and "19.32"
// produce the same value. Unparseable cells return NaN rather than an error.
func ParseNumber(cell string) float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN()
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// CleanNumericColumn coerces a whole column via ParseNumber. Pure: the input
// slice is not modified and the result has the same length.
func CleanNumericColumn(cells []string) []float64 {
	out := make([]float64, len(cells))
	for i, c := range cells {
		out[i] = ParseNumber(c)
	}
	return out
}

// NormalizeRainFlag maps a rain-flag cell to a boolean. Only the token "si"
// (lowercased, trimmed) is affirmative. Known negative synonyms and any
// unrecognized token both map to false; unknown tokens defaulting to "no
// rain" preserves the upstream dashboard's behavior.
func NormalizeRainFlag(cell string) bool {
	return strings.ToLower(strings.TrimSpace(cell)) == "si"
}

// KnownRainToken reports whether a rain-flag cell is one of the recognized
// affirmative or negative literals. Unrecognized tokens still normalize to
// false, but callers can count them to surface suspect data.
func KnownRainToken(cell string) bool {
	s := strings.ToLower(strings.TrimSpace(cell))
	if s == "si" {
		return true
	}
	_, ok := negativeRainTokens[s]
	return ok
}

// NormalizeRainColumn applies NormalizeRainFlag to a whole column.
func NormalizeRainColumn(cells []string) []bool {
	out := make([]bool, len(cells))
	for i, c := range cells {
		out[i] = NormalizeRainFlag(c)
	}
	return out
}
