package db

import (
	"database/sql"
	"fmt"

	"github.com/muthuarun3/kart/internal/ingest"
)

// UpsertResult counts what a reconciliation pass did. Re-importing the same
// file twice yields Created=N then Updated=N.
type UpsertResult struct {
	Created int
	Updated int
}

// UpsertCircuits reconciles normalized circuit rows against the circuits
// table, keyed on (nom_circuit, configuration_piste). Matches refresh
// longueur and adresse, misses insert. Each row commits in its own
// transaction so a failure never unwinds rows already applied.
func (db *DB) UpsertCircuits(rows []ingest.CircuitRow) (*UpsertResult, error) {
	result := &UpsertResult{}

	for _, row := range rows {
		if err := db.upsertCircuitRow(row, result); err != nil {
			return nil, fmt.Errorf("line %d: %w", row.SourceLine, err)
		}
	}

	return result, nil
}

func (db *DB) upsertCircuitRow(row ingest.CircuitRow, result *UpsertResult) error {
	tx, err := db.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var id int
	err = tx.QueryRow(
		`SELECT id FROM circuits WHERE nom_circuit = ? AND configuration_piste = ?`,
		row.NomCircuit, row.ConfigurationPiste,
	).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(
			`INSERT INTO circuits (nom_circuit, configuration_piste, longueur, adresse)
			 VALUES (?, ?, ?, ?)`,
			row.NomCircuit, row.ConfigurationPiste, row.Longueur, row.Adresse,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert circuit: %w", err)
		}
		result.Created++
	case err != nil:
		tx.Rollback()
		return fmt.Errorf("failed to look up circuit: %w", err)
	default:
		_, err = tx.Exec(
			`UPDATE circuits SET longueur = ?, adresse = ?,
			 updated_at = strftime('%s', 'now') WHERE id = ?`,
			row.Longueur, row.Adresse, id,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to update circuit: %w", err)
		}
		result.Updated++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpsertCourses reconciles normalized course rows against the courses table,
// keyed on (section, pilote, date). A row naming an unknown circuit first
// gets a placeholder circuit (longueur and adresse "N/A") so the import
// never drops telemetry; a later circuits import fills the placeholder in.
// Matches refresh every measure but keep their original circuit binding.
func (db *DB) UpsertCourses(rows []ingest.CourseRow) (*UpsertResult, error) {
	result := &UpsertResult{}

	// Circuit lookups are cached per batch. Entries are only added after
	// the circuit row is committed, so a rolled-back course row can never
	// leave a dangling id in the cache.
	circuitIDs := make(map[string]int)

	for _, row := range rows {
		circuitID, err := db.ensureCircuit(circuitIDs, row.NomCircuit, row.ConfigurationPiste)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", row.SourceLine, err)
		}
		if err := db.upsertCourseRow(row, circuitID, result); err != nil {
			return nil, fmt.Errorf("line %d: %w", row.SourceLine, err)
		}
	}

	return result, nil
}

func (db *DB) ensureCircuit(cache map[string]int, nomCircuit, configurationPiste string) (int, error) {
	key := nomCircuit + "\x00" + configurationPiste
	if id, ok := cache[key]; ok {
		return id, nil
	}

	id, found, err := db.lookupCircuitID(nomCircuit, configurationPiste)
	if err != nil {
		return 0, err
	}
	if !found {
		placeholder := &Circuit{
			NomCircuit:         nomCircuit,
			ConfigurationPiste: configurationPiste,
			Longueur:           "N/A",
			Adresse:            "N/A",
		}
		if err := db.CreateCircuit(placeholder); err != nil {
			return 0, err
		}
		id = placeholder.ID
	}

	cache[key] = id
	return id, nil
}

func (db *DB) upsertCourseRow(row ingest.CourseRow, circuitID int, result *UpsertResult) error {
	date := row.Date.Format("2006-01-02")

	tx, err := db.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	var id int
	err = tx.QueryRow(
		`SELECT id FROM courses WHERE section = ? AND pilote = ? AND date = ?`,
		row.Section, row.Pilote, date,
	).Scan(&id)

	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(
			`INSERT INTO courses (section, pilote, date, circuit_id, kart, note,
			 meilleur_tour_s, ecart, tours, humidite)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			row.Section, row.Pilote, date, circuitID, row.Kart, row.Note,
			row.MeilleurTourS, row.Ecart, row.Tours, row.Humidite,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert course: %w", err)
		}
		result.Created++
	case err != nil:
		tx.Rollback()
		return fmt.Errorf("failed to look up course: %w", err)
	default:
		// circuit_id stays as set at creation.
		_, err = tx.Exec(
			`UPDATE courses SET kart = ?, note = ?, meilleur_tour_s = ?,
			 ecart = ?, tours = ?, humidite = ?,
			 updated_at = strftime('%s', 'now') WHERE id = ?`,
			row.Kart, row.Note, row.MeilleurTourS, row.Ecart, row.Tours,
			row.Humidite, id,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to update course: %w", err)
		}
		result.Updated++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
