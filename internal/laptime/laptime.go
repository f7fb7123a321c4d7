// Package laptime converts lap times between the textual encoding used on
// timing sheets ("M:SS.mmm" or "SS.mmm") and canonical seconds.
package laptime

import (
	"fmt"
	"math"
	"strings"
)

// NotAvailable is the textual marker for a missing lap time. It is emitted in
// place of a numeric-looking string so an absent time can never be mistaken
// for a real one downstream.
const NotAvailable = "N/A"

// Parse converts a lap time string to seconds. The second return is false for
// blank or malformed input; one bad lap time degrades to "missing" instead of
// failing the sheet it came from.
func Parse(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	var minutes float64
	rest := s
	if i := strings.IndexByte(s, ':'); i >= 0 {
		m, ok := parseDigits(s[:i])
		if !ok {
			return 0, false
		}
		minutes = m
		rest = s[i+1:]
	}

	seconds, ok := parseSeconds(rest)
	if !ok {
		return 0, false
	}
	return minutes*60 + seconds, true
}

// Format converts canonical seconds back to "M:SS.mmm". Negative or
// non-finite input yields NotAvailable.
func Format(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return NotAvailable
	}

	// Round to whole milliseconds before splitting so values like 89.9996
	// render as 1:30.000 rather than 1:29.1000.
	ms := int64(math.Round(seconds * 1000))
	minutes := ms / 60000
	rem := ms % 60000
	return fmt.Sprintf("%d:%02d.%03d", minutes, rem/1000, rem%1000)
}

// FormatPtr formats an optional lap time; nil yields NotAvailable.
func FormatPtr(seconds *float64) string {
	if seconds == nil {
		return NotAvailable
	}
	return Format(*seconds)
}

// parseDigits parses a non-empty run of ASCII digits.
func parseDigits(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	var v float64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		v = v*10 + float64(c-'0')
	}
	return v, true
}

// parseSeconds parses "SS" or "SS.mmm". Signs, exponents and a second dot are
// all malformed; ParseFloat would accept encodings like "1e3" that never
// appear on a timing sheet.
func parseSeconds(s string) (float64, bool) {
	whole := s
	var frac string
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
		if frac == "" {
			return 0, false
		}
	}

	v, ok := parseDigits(whole)
	if !ok {
		return 0, false
	}
	if frac != "" {
		f, ok := parseDigits(frac)
		if !ok {
			return 0, false
		}
		v += f / math.Pow(10, float64(len(frac)))
	}
	return v, true
}
