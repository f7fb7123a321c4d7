// Package filter narrows course collections by pilot, circuit, kart, date
// and measure ranges. Every analysis and chart endpoint funnels its query
// parameters through one Filter so the selection semantics stay identical
// across the API surface.
package filter

import (
	"strings"

	"github.com/muthuarun3/kart/internal/db"
)

// Filter is a conjunction of independent predicates. Zero-valued fields
// select everything: an empty set means all values and a nil bound leaves
// that side of a range open.
type Filter struct {
	Pilotes    []string // matched case-insensitively
	CircuitIDs []int
	Karts      []int

	// Dates are ISO YYYY-MM-DD, compared inclusively on both ends.
	DateFrom string
	DateTo   string

	HumiditeMin *float64
	HumiditeMax *float64

	// Best-lap bounds in seconds.
	MeilleurTourMin *float64
	MeilleurTourMax *float64
}

// IsZero reports whether the filter selects everything.
func (f Filter) IsZero() bool {
	return len(f.Pilotes) == 0 && len(f.CircuitIDs) == 0 && len(f.Karts) == 0 &&
		f.DateFrom == "" && f.DateTo == "" &&
		f.HumiditeMin == nil && f.HumiditeMax == nil &&
		f.MeilleurTourMin == nil && f.MeilleurTourMax == nil
}

// Apply returns the courses matching every predicate of f. The input slice
// is never mutated. A course missing a value (no kart, no timed lap) fails
// any range or set predicate over that value, but passes trivially when the
// predicate selects everything.
func Apply(courses []db.CourseDetail, f Filter) []db.CourseDetail {
	if f.IsZero() {
		out := make([]db.CourseDetail, len(courses))
		copy(out, courses)
		return out
	}

	out := make([]db.CourseDetail, 0, len(courses))
	for _, c := range courses {
		if f.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

func (f Filter) matches(c db.CourseDetail) bool {
	if len(f.Pilotes) > 0 && !containsFold(f.Pilotes, c.Pilote) {
		return false
	}
	if len(f.CircuitIDs) > 0 && !containsInt(f.CircuitIDs, c.CircuitID) {
		return false
	}
	if len(f.Karts) > 0 {
		if c.Kart == nil || !containsInt(f.Karts, *c.Kart) {
			return false
		}
	}
	if f.DateFrom != "" && c.Date < f.DateFrom {
		return false
	}
	if f.DateTo != "" && c.Date > f.DateTo {
		return false
	}
	if f.HumiditeMin != nil && c.Humidite < *f.HumiditeMin {
		return false
	}
	if f.HumiditeMax != nil && c.Humidite > *f.HumiditeMax {
		return false
	}
	if f.MeilleurTourMin != nil || f.MeilleurTourMax != nil {
		if c.MeilleurTourS == nil {
			return false
		}
		if f.MeilleurTourMin != nil && *c.MeilleurTourS < *f.MeilleurTourMin {
			return false
		}
		if f.MeilleurTourMax != nil && *c.MeilleurTourS > *f.MeilleurTourMax {
			return false
		}
	}
	return true
}

func containsFold(set []string, v string) bool {
	for _, s := range set {
		if strings.EqualFold(s, v) {
			return true
		}
	}
	return false
}

func containsInt(set []int, v int) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
