package api

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muthuarun3/kart/internal/db"
)

func TestWriteCircuitsCSV(t *testing.T) {
	circuits := []db.Circuit{
		{ID: 1, NomCircuit: "Lyon", ConfigurationPiste: "GP", Longueur: "1200m", Adresse: "12 Route des Stands, Lyon"},
		{ID: 2, NomCircuit: "Paris", ConfigurationPiste: "Indoor", Longueur: "800m", Adresse: "3 Rue du Circuit"},
	}

	var buf bytes.Buffer
	if err := WriteCircuitsCSV(&buf, circuits); err != nil {
		t.Fatalf("WriteCircuitsCSV returned error: %v", err)
	}

	want := "Nom_Circuit,Configuration_Piste,Longueur,Adresse\n" +
		"Lyon,GP,1200m,\"12 Route des Stands, Lyon\"\n" +
		"Paris,Indoor,800m,3 Rue du Circuit\n"
	if buf.String() != want {
		t.Errorf("CSV mismatch:\ngot  %q\nwant %q", buf.String(), want)
	}
}

func TestWriteCoursesCSV(t *testing.T) {
	courses := []db.CourseDetail{
		{
			Course: db.Course{
				Section: 1, Pilote: "Antoine", Date: "2024-03-15",
				Kart: intPtr(7), Note: 16, MeilleurTourS: floatPtr(61.25),
				Ecart: strPtr("+0.000"), Tours: 12, Humidite: 52.5,
			},
			NomCircuit: "Lyon", ConfigurationPiste: "GP",
		},
		{
			Course: db.Course{
				Section: 2, Pilote: "Margaux", Date: "2024-03-15",
				Note: 9, MeilleurTourS: floatPtr(59.8), Tours: 10, Humidite: 40,
			},
			NomCircuit: "Lyon", ConfigurationPiste: "GP",
		},
	}

	var buf bytes.Buffer
	if err := WriteCoursesCSV(&buf, courses); err != nil {
		t.Fatalf("WriteCoursesCSV returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("Expected 3 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "Section,Pilote,Date,Nom_Circuit,Configuration_Piste,Kart,Note,Meilleur_Tour,Ecart,Tours,Humidite" {
		t.Errorf("Header mismatch: got %q", lines[0])
	}
	// Dates go back to DD/MM/YYYY and lap times to M:SS.mmm.
	if lines[1] != "1,Antoine,15/03/2024,Lyon,GP,7,16,1:01.250,+0.000,12,52.5" {
		t.Errorf("Row mismatch: got %q", lines[1])
	}
	// Sub-minute laps keep the minute digit; absent kart and ecart are empty.
	if lines[2] != "2,Margaux,15/03/2024,Lyon,GP,,9,0:59.800,,10,40" {
		t.Errorf("Row mismatch: got %q", lines[2])
	}
}

func TestExportDate_PassesThroughMalformed(t *testing.T) {
	if got := exportDate("2024-03-15"); got != "15/03/2024" {
		t.Errorf("exportDate mismatch: got %q, want %q", got, "15/03/2024")
	}
	// Anything that is not a stored ISO date is left alone.
	if got := exportDate("inconnue"); got != "inconnue" {
		t.Errorf("exportDate mismatch: got %q, want %q", got, "inconnue")
	}
}
