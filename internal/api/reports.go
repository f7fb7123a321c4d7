package api

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/muthuarun3/kart/internal/report"
)

// generateReports renders the PNG report set into the configured report
// directory. The usual filter parameters narrow the courses the report
// covers.
func (s *Server) generateReports(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	courses, err := s.loadFilteredCourses(f)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	gen := report.NewGenerator(s.cfg.GetReportDir())
	files, err := gen.Generate(courses)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to generate report: %v", err))
		return
	}

	names := make([]string, 0, len(files))
	for _, path := range files {
		names = append(names, filepath.Base(path))
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "Rapport généré.",
		"repertoire": gen.OutputDir(),
		"fichiers":   names,
	})
}
