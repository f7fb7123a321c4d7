package db

import (
	"testing"
)

// Helper functions for creating pointer values
func strPtr(s string) *string {
	return &s
}

func floatPtr(f float64) *float64 {
	return &f
}

func intPtr(n int) *int {
	return &n
}

// createTestCircuit creates a circuit with descriptive fields filled in.
func createTestCircuit(t *testing.T, db *DB, nomCircuit, configurationPiste string) *Circuit {
	t.Helper()

	circuit := &Circuit{
		NomCircuit:         nomCircuit,
		ConfigurationPiste: configurationPiste,
		Longueur:           "1200m",
		Adresse:            "Route des Stands, Le Mans",
	}

	if err := db.CreateCircuit(circuit); err != nil {
		t.Fatalf("CreateCircuit failed: %v", err)
	}
	return circuit
}

// createTestCourse creates a course bound to circuitID with a full set of
// measures. Date must be ISO YYYY-MM-DD.
func createTestCourse(t *testing.T, db *DB, circuitID, section int, pilote, date string) *Course {
	t.Helper()

	course := &Course{
		Section:       section,
		Pilote:        pilote,
		Date:          date,
		CircuitID:     circuitID,
		Kart:          intPtr(7),
		Note:          8,
		MeilleurTourS: floatPtr(62.5),
		Ecart:         strPtr("0.5"),
		Tours:         12,
		Humidite:      40,
	}

	if err := db.CreateCourse(course); err != nil {
		t.Fatalf("CreateCourse failed: %v", err)
	}
	return course
}
