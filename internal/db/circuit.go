package db

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"
)

// Circuit represents a karting track layout. The pair
// (Nom_Circuit, Configuration_Piste) is the natural key: the same venue can
// carry several layouts, each its own circuit.
type Circuit struct {
	ID                 int       `json:"id"`
	NomCircuit         string    `json:"Nom_Circuit"`
	ConfigurationPiste string    `json:"Configuration_Piste"`
	Longueur           string    `json:"Longueur"`
	Adresse            string    `json:"Adresse"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateCircuit creates a new circuit in the database
func (db *DB) CreateCircuit(circuit *Circuit) error {
	query := `
		INSERT INTO circuits (nom_circuit, configuration_piste, longueur, adresse)
		VALUES (?, ?, ?, ?)
	`

	result, err := db.DB.Exec(
		query,
		circuit.NomCircuit,
		circuit.ConfigurationPiste,
		circuit.Longueur,
		circuit.Adresse,
	)
	if err != nil {
		return fmt.Errorf("failed to create circuit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}

	circuit.ID = int(id)
	return nil
}

// GetCircuit retrieves a circuit by ID
func (db *DB) GetCircuit(id int) (*Circuit, error) {
	query := `
		SELECT id, nom_circuit, configuration_piste, longueur, adresse,
			created_at, updated_at
		FROM circuits
		WHERE id = ?
	`

	var circuit Circuit
	var createdAtUnix, updatedAtUnix int64

	err := db.DB.QueryRow(query, id).Scan(
		&circuit.ID,
		&circuit.NomCircuit,
		&circuit.ConfigurationPiste,
		&circuit.Longueur,
		&circuit.Adresse,
		&createdAtUnix,
		&updatedAtUnix,
	)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Entity: "circuit", Ref: "id " + strconv.Itoa(id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get circuit: %w", err)
	}

	circuit.CreatedAt = time.Unix(createdAtUnix, 0)
	circuit.UpdatedAt = time.Unix(updatedAtUnix, 0)

	return &circuit, nil
}

// ListCircuits retrieves a page of circuits ordered by name then layout.
func (db *DB) ListCircuits(offset, limit int) ([]Circuit, error) {
	query := `
		SELECT id, nom_circuit, configuration_piste, longueur, adresse,
			created_at, updated_at
		FROM circuits
		ORDER BY nom_circuit ASC, configuration_piste ASC
		LIMIT ? OFFSET ?
	`

	rows, err := db.DB.Query(query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query circuits: %w", err)
	}
	defer rows.Close()

	var circuits []Circuit
	for rows.Next() {
		var circuit Circuit
		var createdAtUnix, updatedAtUnix int64

		err := rows.Scan(
			&circuit.ID,
			&circuit.NomCircuit,
			&circuit.ConfigurationPiste,
			&circuit.Longueur,
			&circuit.Adresse,
			&createdAtUnix,
			&updatedAtUnix,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan circuit: %w", err)
		}

		circuit.CreatedAt = time.Unix(createdAtUnix, 0)
		circuit.UpdatedAt = time.Unix(updatedAtUnix, 0)

		circuits = append(circuits, circuit)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating circuits: %w", err)
	}

	return circuits, nil
}

// ListAllCircuits retrieves every circuit, for export and analysis.
func (db *DB) ListAllCircuits() ([]Circuit, error) {
	count, err := db.CountCircuits()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	return db.ListCircuits(0, count)
}

// UpdateCircuit updates an existing circuit in the database
func (db *DB) UpdateCircuit(circuit *Circuit) error {
	query := `
		UPDATE circuits SET
			nom_circuit = ?,
			configuration_piste = ?,
			longueur = ?,
			adresse = ?,
			updated_at = strftime('%s', 'now')
		WHERE id = ?
	`

	result, err := db.DB.Exec(
		query,
		circuit.NomCircuit,
		circuit.ConfigurationPiste,
		circuit.Longueur,
		circuit.Adresse,
		circuit.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update circuit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &NotFoundError{Entity: "circuit", Ref: "id " + strconv.Itoa(circuit.ID)}
	}

	return nil
}

// DeleteCircuit deletes a circuit from the database. Deleting a circuit that
// still has courses fails on the foreign key.
func (db *DB) DeleteCircuit(id int) error {
	result, err := db.DB.Exec(`DELETE FROM circuits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete circuit: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &NotFoundError{Entity: "circuit", Ref: "id " + strconv.Itoa(id)}
	}

	return nil
}

// CountCircuits returns the number of circuits.
func (db *DB) CountCircuits() (int, error) {
	var count int
	if err := db.DB.QueryRow(`SELECT COUNT(*) FROM circuits`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count circuits: %w", err)
	}
	return count, nil
}

// lookupCircuitID resolves a circuit by its natural key. The second return
// reports whether the circuit exists.
func (db *DB) lookupCircuitID(nomCircuit, configurationPiste string) (int, bool, error) {
	var id int
	err := db.DB.QueryRow(
		`SELECT id FROM circuits WHERE nom_circuit = ? AND configuration_piste = ?`,
		nomCircuit, configurationPiste,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to look up circuit: %w", err)
	}
	return id, true, nil
}
