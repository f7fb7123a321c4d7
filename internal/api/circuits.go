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

type circuitImportResponse struct {
	Message          string            `json:"message"`
	CircuitsMisAJour int               `json:"circuits_mis_a_jour"`
	CircuitsCrees    int               `json:"circuits_crees"`
	Erreurs          []ingest.RowError `json:"erreurs"`
}

func (s *Server) listCircuits(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := s.parsePagination(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	circuits, err := s.db.ListCircuits(offset, limit)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve circuits: %v", err))
		return
	}
	if circuits == nil {
		circuits = []db.Circuit{}
	}
	s.writeJSON(w, http.StatusOK, circuits)
}

func (s *Server) getCircuit(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "Invalid circuit id")
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
	s.writeJSON(w, http.StatusOK, circuit)
}

func (s *Server) importCircuits(w http.ResponseWriter, r *http.Request) {
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

	report, err := s.db.ImportCircuits(payload.reader, payload.filename)
	if err != nil {
		var structural *ingest.StructuralError
		if errors.As(err, &structural) {
			s.writeJSONError(w, http.StatusUnprocessableEntity, fmt.Sprintf("Erreur de lecture ou de format CSV: %v", structural))
			return
		}
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to import circuits: %v", err))
		return
	}

	resp := circuitImportResponse{
		Message:          "Opération UPSERT terminée.",
		CircuitsMisAJour: report.Updated,
		CircuitsCrees:    report.Created,
		Erreurs:          report.RowErrors,
	}
	if resp.Erreurs == nil {
		resp.Erreurs = []ingest.RowError{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) exportCircuits(w http.ResponseWriter, r *http.Request) {
	circuits, err := s.db.ListAllCircuits()
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to export circuits: %v", err))
		return
	}
	if len(circuits) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "Aucun circuit trouvé pour l'exportation.")
		return
	}

	var buf bytes.Buffer
	if err := WriteCircuitsCSV(&buf, circuits); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to encode circuits: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="export_circuits.csv"`)
	w.Write(buf.Bytes())
}
