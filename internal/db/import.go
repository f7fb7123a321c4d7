package db

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/muthuarun3/kart/internal/ingest"
)

// ImportReport summarises one CSV import: reconciliation counts plus the
// rows that were rejected. Rejected rows never abort the batch; they are
// reported back with their source line numbers.
type ImportReport struct {
	BatchID   string
	Created   int
	Updated   int
	RowErrors []ingest.RowError
}

// ImportCircuits decodes a circuits CSV payload and reconciles it into the
// store. Structural problems (unreadable payload, missing key columns)
// return an ingest.StructuralError; bad rows are collected in the report.
func (db *DB) ImportCircuits(r io.Reader, filename string) (*ImportReport, error) {
	startedAt := db.clock.Now()

	raws, rowErrs, err := ingest.DecodeRows(r, ingest.CircuitColumns)
	if err != nil {
		return nil, err
	}

	circuits, normErrs := ingest.NormalizeCircuits(raws)
	rowErrs = append(rowErrs, normErrs...)

	result, err := db.UpsertCircuits(circuits)
	if err != nil {
		return nil, fmt.Errorf("failed to import circuits: %w", err)
	}

	return db.finishImport("circuits", filename, startedAt, result, rowErrs)
}

// ImportCourses decodes a courses CSV payload and reconciles it into the
// store. Unknown circuits get placeholders, matches are updated in place.
func (db *DB) ImportCourses(r io.Reader, filename string, opts ingest.Options) (*ImportReport, error) {
	startedAt := db.clock.Now()

	raws, rowErrs, err := ingest.DecodeRows(r, ingest.CourseColumns)
	if err != nil {
		return nil, err
	}

	courses, normErrs := ingest.NormalizeCourses(raws, opts)
	rowErrs = append(rowErrs, normErrs...)

	result, err := db.UpsertCourses(courses)
	if err != nil {
		return nil, fmt.Errorf("failed to import courses: %w", err)
	}

	return db.finishImport("courses", filename, startedAt, result, rowErrs)
}

func (db *DB) finishImport(entity, filename string, startedAt time.Time, result *UpsertResult, rowErrs []ingest.RowError) (*ImportReport, error) {
	sort.SliceStable(rowErrs, func(i, j int) bool {
		return rowErrs[i].Line < rowErrs[j].Line
	})

	batch := &ImportBatch{
		ID:         uuid.New().String(),
		Entity:     entity,
		Filename:   filename,
		Created:    result.Created,
		Updated:    result.Updated,
		RowErrors:  len(rowErrs),
		StartedAt:  startedAt.UTC().Format(time.RFC3339),
		FinishedAt: db.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := db.recordImportBatch(batch); err != nil {
		return nil, err
	}

	return &ImportReport{
		BatchID:   batch.ID,
		Created:   result.Created,
		Updated:   result.Updated,
		RowErrors: rowErrs,
	}, nil
}
