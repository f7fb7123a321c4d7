package db

import (
	"database/sql"
	"fmt"
)

// ImportBatch is one recorded CSV import run. StartedAt and FinishedAt are
// RFC3339 so lexical order matches time order.
type ImportBatch struct {
	ID         string `json:"id"`
	Entity     string `json:"entity"`
	Filename   string `json:"filename"`
	Created    int    `json:"created"`
	Updated    int    `json:"updated"`
	RowErrors  int    `json:"row_errors"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
}

func (db *DB) recordImportBatch(batch *ImportBatch) error {
	query := `
		INSERT INTO import_batches (id, entity, filename, created, updated,
			row_errors, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.DB.Exec(
		query,
		batch.ID,
		batch.Entity,
		batch.Filename,
		batch.Created,
		batch.Updated,
		batch.RowErrors,
		batch.StartedAt,
		batch.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record import batch: %w", err)
	}
	return nil
}

// ListImportBatches retrieves the most recent import batches, newest first.
func (db *DB) ListImportBatches(limit int) ([]ImportBatch, error) {
	query := `
		SELECT id, entity, filename, created, updated, row_errors,
			started_at, finished_at
		FROM import_batches
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`

	rows, err := db.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query import batches: %w", err)
	}
	defer rows.Close()

	var batches []ImportBatch
	for rows.Next() {
		var batch ImportBatch
		err := rows.Scan(
			&batch.ID,
			&batch.Entity,
			&batch.Filename,
			&batch.Created,
			&batch.Updated,
			&batch.RowErrors,
			&batch.StartedAt,
			&batch.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import batch: %w", err)
		}
		batches = append(batches, batch)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating import batches: %w", err)
	}

	return batches, nil
}

// GetImportBatch retrieves one import batch by its ID.
func (db *DB) GetImportBatch(id string) (*ImportBatch, error) {
	query := `
		SELECT id, entity, filename, created, updated, row_errors,
			started_at, finished_at
		FROM import_batches
		WHERE id = ?
	`

	var batch ImportBatch
	err := db.DB.QueryRow(query, id).Scan(
		&batch.ID,
		&batch.Entity,
		&batch.Filename,
		&batch.Created,
		&batch.Updated,
		&batch.RowErrors,
		&batch.StartedAt,
		&batch.FinishedAt,
	)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "import batch", Ref: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get import batch: %w", err)
	}

	return &batch, nil
}
