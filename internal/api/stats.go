package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/muthuarun3/kart/internal/analysis"
	"github.com/muthuarun3/kart/internal/db"
)

func (s *Server) showGlobalStats(w http.ResponseWriter, r *http.Request) {
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
	totalCircuits, err := s.db.CountCircuits()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to count circuits: %v", err))
		return
	}

	s.writeJSON(w, http.StatusOK, analysis.ComputeGlobalStats(courses, totalCircuits))
}

func (s *Server) showCircuitStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid circuit id")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	circuit, err := s.db.GetCircuit(id)
	if err != nil {
		if db.IsNotFound(err) {
			s.writeJSONError(w, http.StatusNotFound, "circuit not found")
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve circuit: %v", err))
		return
	}

	courses, err := s.loadFilteredCourses(f)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, analysis.ComputeCircuitPerformance(*circuit, courses))
}

func (s *Server) showPilotStats(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing pilot name")
		return
	}
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

	threshold := float64(s.cfg.GetPodiumThreshold())
	s.writeJSON(w, http.StatusOK, analysis.ComputePilotStats(name, courses, threshold))
}

func (s *Server) showKartRanking(w http.ResponseWriter, r *http.Request) {
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

	ranks, err := analysis.ComputeKartRanking(courses, s.cfg.GetScoreBoundaries(), s.cfg.GetScoreLabels())
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to rank karts: %v", err))
		return
	}
	if ranks == nil {
		ranks = []analysis.KartRank{}
	}
	s.writeJSON(w, http.StatusOK, ranks)
}
