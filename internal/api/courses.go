package api

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/muthuarun3/kart/internal/db"
	"github.com/muthuarun3/kart/internal/ingest"
)

type courseImportResponse struct {
	Message           string            `json:"message"`
	CoursesMisesAJour int               `json:"courses_mises_a_jour"`
	CoursesCreees     int               `json:"courses_crees"`
	Erreurs           []ingest.RowError `json:"erreurs"`
}

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := s.parsePagination(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	courses, err := s.db.ListCourses(offset, limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve courses: %v", err))
		return
	}
	if courses == nil {
		courses = []db.Course{}
	}
	s.writeJSON(w, http.StatusOK, courses)
}

func (s *Server) getCourse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid course id")
		return
	}

	course, err := s.db.GetCourse(id)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeJSONError(w, http.StatusNotFound, "course not found")
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve course: %v", err))
		return
	}
	s.writeJSON(w, http.StatusOK, course)
}

func (s *Server) importCourses(w http.ResponseWriter, r *http.Request) {
	payload, err := s.readImportPayload(w, r)
	if err != nil {
		if errors.Is(err, errNotCSV) {
			s.writeJSONError(w, http.StatusBadRequest, "Seuls les fichiers .csv sont acceptés.")
			return
		}
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer payload.reader.Close()

	opts := ingest.Options{HumidityScale: ingest.HumidityScale(s.cfg.GetHumidityScale())}
	report, err := s.db.ImportCourses(payload.reader, payload.filename, opts)
	if err != nil {
		var structural *ingest.StructuralError
		if errors.As(err, &structural) {
			s.writeJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Erreur de lecture ou de format CSV: %v", structural))
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to import courses: %v", err))
		return
	}

	resp := courseImportResponse{
		Message:           "Opération UPSERT (basée sur Section, Pilote, Date) terminée.",
		CoursesMisesAJour: report.Updated,
		CoursesCreees:     report.Created,
		Erreurs:           report.RowErrors,
	}
	if resp.Erreurs == nil {
		resp.Erreurs = []ingest.RowError{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) exportCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := s.db.ListAllCourseDetails()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to export courses: %v", err))
		return
	}
	if len(courses) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "Aucune course trouvée pour l'exportation.")
		return
	}

	var buf bytes.Buffer
	if err := WriteCoursesCSV(&buf, courses); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to encode courses: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="export_courses.csv"`)
	w.Write(buf.Bytes())
}
