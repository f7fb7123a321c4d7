package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Canonical column names. Source CSVs may carry the human-friendly variants
// listed in headerRenames; everything downstream uses these.
const (
	FieldNomCircuit         = "Nom_Circuit"
	FieldConfigurationPiste = "Configuration_Piste"
	FieldLongueur           = "Longueur"
	FieldAdresse            = "Adresse"
	FieldSection            = "Section"
	FieldPilote             = "Pilote"
	FieldDate               = "Date"
	FieldKart               = "Kart"
	FieldNote               = "Note"
	FieldMeilleurTour       = "Meilleur_Tour"
	FieldEcart              = "Ecart"
	FieldTours              = "Tours"
	FieldHumidite           = "Humidite"
)

// headerRenames maps lowercased source headers to canonical names.
var headerRenames = map[string]string{
	"circuit":       FieldNomCircuit,
	"piste":         FieldConfigurationPiste,
	"meilleur tour": FieldMeilleurTour,
}

// canonicalNames indexes the canonical columns by lowercased name so header
// matching is case and whitespace insensitive.
var canonicalNames = map[string]string{
	strings.ToLower(FieldNomCircuit):         FieldNomCircuit,
	strings.ToLower(FieldConfigurationPiste): FieldConfigurationPiste,
	strings.ToLower(FieldLongueur):           FieldLongueur,
	strings.ToLower(FieldAdresse):            FieldAdresse,
	strings.ToLower(FieldSection):            FieldSection,
	strings.ToLower(FieldPilote):             FieldPilote,
	strings.ToLower(FieldDate):               FieldDate,
	strings.ToLower(FieldKart):               FieldKart,
	strings.ToLower(FieldNote):               FieldNote,
	strings.ToLower(FieldMeilleurTour):       FieldMeilleurTour,
	strings.ToLower(FieldEcart):              FieldEcart,
	strings.ToLower(FieldTours):              FieldTours,
	strings.ToLower(FieldHumidite):           FieldHumidite,
}

// CircuitColumns are the columns a circuit sheet must carry (post rename).
var CircuitColumns = []string{FieldNomCircuit, FieldConfigurationPiste, FieldLongueur, FieldAdresse}

// CourseColumns are the columns a course sheet must carry (post rename).
var CourseColumns = []string{
	FieldSection, FieldPilote, FieldDate,
	FieldNomCircuit, FieldConfigurationPiste,
	FieldKart, FieldNote, FieldMeilleurTour, FieldEcart, FieldTours, FieldHumidite,
}

// RawRow is one decoded data row: canonical column name to trimmed cell
// value, plus the 1-based line number in the source file (the header is
// line 1, so the first data row is line 2).
type RawRow struct {
	Line   int
	Fields map[string]string
}

// CanonicalHeader normalizes one source header cell: trims whitespace,
// applies the rename table, and fixes the casing of known columns. Unknown
// headers pass through trimmed so extra columns are carried but ignored.
func CanonicalHeader(h string) string {
	trimmed := strings.TrimSpace(h)
	key := strings.ToLower(trimmed)
	if renamed, ok := headerRenames[key]; ok {
		return renamed
	}
	if canonical, ok := canonicalNames[key]; ok {
		return canonical
	}
	return trimmed
}

// DecodeRows reads a CSV payload into raw rows keyed by canonical column
// name, checking that every column in required is present. A payload that is
// empty, missing required columns, or structurally broken returns a
// StructuralError and no rows. Rows with the wrong number of cells become
// RowErrors; decoding continues with the next row.
func DecodeRows(r io.Reader, required []string) ([]RawRow, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, &StructuralError{Reason: "empty CSV payload"}
	}
	if err != nil {
		return nil, nil, &StructuralError{Reason: "failed to read CSV header", Err: err}
	}

	columns := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		columns[i] = CanonicalHeader(h)
		seen[columns[i]] = true
	}

	var missing []string
	for _, col := range required {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, &StructuralError{
			Reason: fmt.Sprintf("missing required columns: %s", strings.Join(missing, ", ")),
		}
	}

	var rows []RawRow
	var rowErrs []RowError
	for i := 0; ; i++ {
		line := i + 2
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, &StructuralError{Reason: fmt.Sprintf("failed to read CSV row at line %d", line), Err: err}
		}
		if len(record) != len(columns) {
			rowErrs = append(rowErrs, RowError{Line: line, Msg: "wrong number of columns"})
			continue
		}

		fields := make(map[string]string, len(columns))
		for j, col := range columns {
			fields[col] = strings.TrimSpace(record[j])
		}
		rows = append(rows, RawRow{Line: line, Fields: fields})
	}

	return rows, rowErrs, nil
}
