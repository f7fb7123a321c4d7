package api

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/muthuarun3/kart/internal/db"
	"github.com/muthuarun3/kart/internal/ingest"
	"github.com/muthuarun3/kart/internal/laptime"
)

// Export column orders mirror the import sheets so an exported file can be
// fed straight back into the import endpoints.
var circuitExportHeader = []string{"Nom_Circuit", "Configuration_Piste", "Longueur", "Adresse"}

var courseExportHeader = []string{
	"Section", "Pilote", "Date",
	"Nom_Circuit", "Configuration_Piste",
	"Kart", "Note", "Meilleur_Tour", "Ecart", "Tours", "Humidite",
}

// WriteCircuitsCSV encodes circuits without their surrogate ids. The export
// subcommand shares this encoder with the export endpoint.
func WriteCircuitsCSV(w io.Writer, circuits []db.Circuit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(circuitExportHeader); err != nil {
		return err
	}
	for _, c := range circuits {
		if err := cw.Write([]string{c.NomCircuit, c.ConfigurationPiste, c.Longueur, c.Adresse}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCoursesCSV encodes joined courses. Ids are dropped, the circuit's
// natural key is denormalized into each row, dates go back to DD/MM/YYYY
// and lap times to M:SS.mmm. Absent kart, lap and ecart become empty cells.
func WriteCoursesCSV(w io.Writer, courses []db.CourseDetail) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(courseExportHeader); err != nil {
		return err
	}
	for _, c := range courses {
		record := []string{
			strconv.Itoa(c.Section),
			c.Pilote,
			exportDate(c.Date),
			c.NomCircuit,
			c.ConfigurationPiste,
			optionalInt(c.Kart),
			strconv.Itoa(c.Note),
			optionalLap(c.MeilleurTourS),
			optionalString(c.Ecart),
			strconv.Itoa(c.Tours),
			strconv.FormatFloat(c.Humidite, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// exportDate converts a stored ISO date back to the sheet format.
func exportDate(iso string) string {
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return t.Format(ingest.DateLayout)
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func optionalString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func optionalLap(v *float64) string {
	if v == nil {
		return ""
	}
	return laptime.Format(*v)
}
