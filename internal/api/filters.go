package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/muthuarun3/kart/internal/db"
	"github.com/muthuarun3/kart/internal/filter"
)

// parseFilter reads the common selection parameters shared by the stats and
// chart endpoints: pilote (repeatable), kart (repeatable), circuit_id,
// date_from, date_to (ISO), humidite_min, humidite_max.
func parseFilter(r *http.Request) (filter.Filter, error) {
	var f filter.Filter
	q := r.URL.Query()

	f.Pilotes = q["pilote"]

	for _, raw := range q["kart"] {
		kart, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("invalid 'kart' parameter")
		}
		f.Karts = append(f.Karts, kart)
	}

	if raw := q.Get("circuit_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return f, fmt.Errorf("invalid 'circuit_id' parameter")
		}
		f.CircuitIDs = []int{id}
	}

	if raw := q.Get("date_from"); raw != "" {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return f, fmt.Errorf("invalid 'date_from' parameter, want YYYY-MM-DD")
		}
		f.DateFrom = raw
	}
	if raw := q.Get("date_to"); raw != "" {
		if _, err := time.Parse("2006-01-02", raw); err != nil {
			return f, fmt.Errorf("invalid 'date_to' parameter, want YYYY-MM-DD")
		}
		f.DateTo = raw
	}

	if raw := q.Get("humidite_min"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, fmt.Errorf("invalid 'humidite_min' parameter")
		}
		f.HumiditeMin = &v
	}
	if raw := q.Get("humidite_max"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, fmt.Errorf("invalid 'humidite_max' parameter")
		}
		f.HumiditeMax = &v
	}

	return f, nil
}

// loadFilteredCourses fetches the joined course view and applies an
// already-parsed filter, keeping parameter errors (400) separate from
// store errors (500) in the handlers.
func (s *Server) loadFilteredCourses(f filter.Filter) ([]db.CourseDetail, error) {
	courses, err := s.db.ListAllCourseDetails()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve courses: %w", err)
	}
	return filter.Apply(courses, f), nil
}
