package view

import (
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Placeholder stands in for any value the service did not provide.
const Placeholder = "--"

// NormalizeConfidence converts a raw service confidence to a percentage in
// [0, 100]. Values above 1 are taken to be percentages already, everything
// else is a fraction. ok is false for a missing or NaN value.
func NormalizeConfidence(raw *float64) (pct float64, ok bool) {
	if raw == nil || math.IsNaN(*raw) {
		return 0, false
	}
	pct = *raw
	if pct <= 1 {
		pct *= 100
	}
	return math.Max(0, math.Min(100, pct)), true
}

// ConfidenceText renders raw as "87%" or "42.5%", or Placeholder when absent.
func ConfidenceText(raw *float64) string {
	pct, ok := NormalizeConfidence(raw)
	if !ok {
		return Placeholder
	}
	rounded := math.Round(pct*10) / 10
	return strconv.FormatFloat(rounded, 'f', -1, 64) + "%"
}

// FormatLabel turns a raw class name such as "early_blight" into "Early Blight".
// Hyphenated parts are capitalized too, so "two-spotted" becomes "Two-Spotted".
// Applying it to its own output returns the same string.
func FormatLabel(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		parts := strings.Split(w, "-")
		for j, p := range parts {
			parts[j] = capitalize(p)
		}
		words[i] = strings.Join(parts, "-")
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}
