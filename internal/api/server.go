// Package api serves the karting HTTP surface: circuit and course CRUD,
// CSV import/export, import history, the derived stats views, echarts
// pages and report generation.
package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/muthuarun3/kart/internal/config"
	"github.com/muthuarun3/kart/internal/db"
	"github.com/muthuarun3/kart/internal/version"
)

// ANSI escape codes for cyan and reset
const colorCyan = "\033[36m"
const colorReset = "\033[0m"
const colorYellow = "\033[33m"
const colorBoldGreen = "\033[1;32m"
const colorBoldRed = "\033[1;31m"

type Server struct {
	db  *db.DB
	cfg *config.TuningConfig
}

func NewServer(database *db.DB, cfg *config.TuningConfig) *Server {
	if cfg == nil {
		cfg = config.DefaultTuningConfig()
	}
	return &Server{
		db:  database,
		cfg: cfg,
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /api/circuits", s.listCircuits)
	mux.HandleFunc("GET /api/circuits/export", s.exportCircuits)
	mux.HandleFunc("PUT /api/circuits/import", s.importCircuits)
	mux.HandleFunc("GET /api/circuits/{id}", s.getCircuit)
	mux.HandleFunc("GET /api/circuits/{id}/stats", s.showCircuitStats)

	mux.HandleFunc("GET /api/courses", s.listCourses)
	mux.HandleFunc("GET /api/courses/export", s.exportCourses)
	mux.HandleFunc("PUT /api/courses/import", s.importCourses)
	mux.HandleFunc("GET /api/courses/{id}", s.getCourse)

	mux.HandleFunc("GET /api/imports", s.listImports)

	mux.HandleFunc("GET /api/stats", s.showGlobalStats)
	mux.HandleFunc("GET /api/pilots/{name}/stats", s.showPilotStats)
	mux.HandleFunc("GET /api/karts/ranking", s.showKartRanking)

	mux.HandleFunc("GET /api/charts/circuits", s.chartCircuits)
	mux.HandleFunc("GET /api/charts/pilots/{name}/evolution", s.chartPilotEvolution)
	mux.HandleFunc("GET /api/charts/humidity", s.chartHumidity)
	mux.HandleFunc("GET /api/charts/karts/heatmap", s.chartKartHeatmap)

	mux.HandleFunc("POST /api/reports", s.generateReports)

	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "ok", "service": "kart", "version": %q, "timestamp": "%s"}`,
		version.Version, time.Now().UTC().Format(time.RFC3339))
}

// parsePagination reads offset/limit with the configured defaults. limit is
// clamped to the configured maximum.
func (s *Server) parsePagination(r *http.Request) (offset, limit int, err error) {
	offset = 0
	limit = s.cfg.GetDefaultPageSize()

	if o := r.URL.Query().Get("offset"); o != "" {
		parsed, convErr := strconv.Atoi(o)
		if convErr != nil || parsed < 0 {
			return 0, 0, fmt.Errorf("invalid 'offset' parameter")
		}
		offset = parsed
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, convErr := strconv.Atoi(l)
		if convErr != nil || parsed < 1 {
			return 0, 0, fmt.Errorf("invalid 'limit' parameter")
		}
		limit = parsed
	}
	if max := s.cfg.GetMaxPageSize(); limit > max {
		limit = max
	}
	return offset, limit, nil
}
