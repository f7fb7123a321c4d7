package api

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/muthuarun3/kart/internal/db"
)

// importPayload is the CSV body of an import request with the name the
// import batch will be recorded under.
type importPayload struct {
	reader   io.ReadCloser
	filename string
}

// readImportPayload accepts either a multipart form with a "file" field or
// a raw CSV body. Multipart filenames must end in .csv; a raw body is taken
// on trust since there is no name to check.
func (s *Server) readImportPayload(w http.ResponseWriter, r *http.Request) (*importPayload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.GetMaxImportBytes())

	mediaType := r.Header.Get("Content-Type")
	if mediaType != "" {
		parsed, _, err := mime.ParseMediaType(mediaType)
		if err == nil {
			mediaType = parsed
		}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("failed to read uploaded file: %w", err)
		}
		if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
			file.Close()
			return nil, errNotCSV
		}
		return &importPayload{reader: file, filename: header.Filename}, nil
	}

	return &importPayload{reader: r.Body, filename: "upload.csv"}, nil
}

var errNotCSV = fmt.Errorf("seuls les fichiers .csv sont acceptés")

// listImports returns the import batch history, most recent first.
func (s *Server) listImports(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.GetDefaultPageSize()
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			s.writeJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}
	if max := s.cfg.GetMaxPageSize(); limit > max {
		limit = max
	}

	batches, err := s.db.ListImportBatches(limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve import history: %v", err))
		return
	}
	if batches == nil {
		batches = []db.ImportBatch{}
	}
	s.writeJSON(w, http.StatusOK, batches)
}
