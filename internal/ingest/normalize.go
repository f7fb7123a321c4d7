package ingest

import (
	"strconv"
	"time"

	"github.com/muthuarun3/kart/internal/laptime"
	"github.com/muthuarun3/kart/internal/monitoring"
)

// DateLayout is the day-first format used by the source sheets.
const DateLayout = "02/01/2006"

// HumidityScale names the unit Humidite values arrive in.
type HumidityScale string

const (
	// ScalePercent means humidity cells already read 0 to 100.
	ScalePercent HumidityScale = "percent"
	// ScaleFraction means humidity cells read 0 to 1 and are converted to
	// percent during normalization.
	ScaleFraction HumidityScale = "fraction"
)

// Options tunes how raw rows are normalized. The zero value treats humidity
// as percent.
type Options struct {
	HumidityScale HumidityScale
}

// CircuitRow is one normalized circuit record. Longueur and Adresse stay
// free-form text; the sheets mix units and abbreviations in them.
type CircuitRow struct {
	SourceLine         int
	NomCircuit         string
	ConfigurationPiste string
	Longueur           string
	Adresse            string
}

// CourseRow is one normalized session record. Pointer fields are absent when
// the source cell was empty or unusable. Ecart stays free-form text; the
// sheets record gaps as times, lap counts, or commentary.
type CourseRow struct {
	SourceLine         int
	Section            int
	Pilote             string
	Date               time.Time
	NomCircuit         string
	ConfigurationPiste string
	Kart               *int
	Note               int
	MeilleurTourS      *float64
	Ecart              *string
	Tours              int
	Humidite           float64
}

// NormalizeCircuit coerces one raw row into a CircuitRow. The natural key
// (Nom_Circuit, Configuration_Piste) must be present; a row missing either
// fails.
func NormalizeCircuit(row RawRow) (CircuitRow, *RowError) {
	out := CircuitRow{
		SourceLine:         row.Line,
		NomCircuit:         row.Fields[FieldNomCircuit],
		ConfigurationPiste: row.Fields[FieldConfigurationPiste],
		Longueur:           row.Fields[FieldLongueur],
		Adresse:            row.Fields[FieldAdresse],
	}
	if out.NomCircuit == "" {
		return CircuitRow{}, &RowError{Line: row.Line, Field: FieldNomCircuit, Msg: "empty value in key column"}
	}
	if out.ConfigurationPiste == "" {
		return CircuitRow{}, &RowError{Line: row.Line, Field: FieldConfigurationPiste, Msg: "empty value in key column"}
	}
	return out, nil
}

// NormalizeCircuits normalizes a decoded batch, collecting per-row errors.
func NormalizeCircuits(rows []RawRow) ([]CircuitRow, []RowError) {
	var out []CircuitRow
	var errs []RowError
	for _, row := range rows {
		cr, rerr := NormalizeCircuit(row)
		if rerr != nil {
			errs = append(errs, *rerr)
			continue
		}
		out = append(out, cr)
	}
	return out, errs
}

// NormalizeCourse coerces one raw row into a CourseRow. Key columns (Section,
// Pilote, Date, and the circuit pair used to resolve the foreign key) fail the
// row when unusable; every other column recovers to its default or absent
// form.
func NormalizeCourse(row RawRow, opts Options) (CourseRow, *RowError) {
	out := CourseRow{
		SourceLine:         row.Line,
		Pilote:             row.Fields[FieldPilote],
		NomCircuit:         row.Fields[FieldNomCircuit],
		ConfigurationPiste: row.Fields[FieldConfigurationPiste],
	}

	if out.Pilote == "" {
		return CourseRow{}, &RowError{Line: row.Line, Field: FieldPilote, Msg: "empty value in key column"}
	}
	if out.NomCircuit == "" {
		return CourseRow{}, &RowError{Line: row.Line, Field: FieldNomCircuit, Msg: "empty value in key column"}
	}
	if out.ConfigurationPiste == "" {
		return CourseRow{}, &RowError{Line: row.Line, Field: FieldConfigurationPiste, Msg: "empty value in key column"}
	}

	section, fe := coerceInt(FieldSection, row.Fields[FieldSection])
	if fe != nil {
		return CourseRow{}, rowError(row.Line, fe)
	}
	out.Section = section

	if row.Fields[FieldDate] == "" {
		return CourseRow{}, &RowError{Line: row.Line, Field: FieldDate, Msg: "empty value in key column"}
	}
	date, fe := coerceDate(FieldDate, row.Fields[FieldDate])
	if fe != nil {
		return CourseRow{}, rowError(row.Line, fe)
	}
	out.Date = date

	kart, fe := coerceOptionalInt(FieldKart, row.Fields[FieldKart])
	out.Kart = recoverOptionalInt(row.Line, kart, fe)
	if out.Kart != nil && *out.Kart <= 0 {
		out.Kart = nil
	}

	note, fe := coerceInt(FieldNote, row.Fields[FieldNote])
	out.Note = recoverInt(row.Line, note, fe)
	tours, fe := coerceInt(FieldTours, row.Fields[FieldTours])
	out.Tours = recoverInt(row.Line, tours, fe)
	humidite, fe := coerceFloat(FieldHumidite, row.Fields[FieldHumidite])
	out.Humidite = recoverFloat(row.Line, humidite, fe)
	if opts.HumidityScale == ScaleFraction {
		out.Humidite *= 100
	}

	if s, ok := laptime.Parse(row.Fields[FieldMeilleurTour]); ok {
		out.MeilleurTourS = &s
	}
	if v := row.Fields[FieldEcart]; v != "" {
		out.Ecart = &v
	}

	return out, nil
}

// NormalizeCourses normalizes a decoded batch, collecting per-row errors.
func NormalizeCourses(rows []RawRow, opts Options) ([]CourseRow, []RowError) {
	var out []CourseRow
	var errs []RowError
	for _, row := range rows {
		cr, rerr := NormalizeCourse(row, opts)
		if rerr != nil {
			errs = append(errs, *rerr)
			continue
		}
		out = append(out, cr)
	}
	return out, errs
}

// coerceInt parses an integer cell. Empty cells default to zero, matching the
// source sheets where unrated sessions leave Note and Tours blank.
func coerceInt(field, s string) (int, *FieldError) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, &FieldError{Field: field, Value: s, Msg: "not an integer"}
	}
	return n, nil
}

// coerceFloat parses a numeric cell. Empty cells default to zero.
func coerceFloat(field, s string) (float64, *FieldError) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &FieldError{Field: field, Value: s, Msg: "not a number"}
	}
	return f, nil
}

// coerceOptionalInt parses an integer cell where empty means absent.
func coerceOptionalInt(field, s string) (*int, *FieldError) {
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, &FieldError{Field: field, Value: s, Msg: "not an integer"}
	}
	return &n, nil
}

// coerceDate parses a day-first date cell.
func coerceDate(field, s string) (time.Time, *FieldError) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &FieldError{Field: field, Value: s, Msg: "not a DD/MM/YYYY date"}
	}
	return t, nil
}

func recoverInt(line int, n int, fe *FieldError) int {
	if fe != nil {
		monitoring.Debugf("ingest: line %d: %v, using 0", line, fe)
		return 0
	}
	return n
}

func recoverFloat(line int, f float64, fe *FieldError) float64 {
	if fe != nil {
		monitoring.Debugf("ingest: line %d: %v, using 0", line, fe)
		return 0
	}
	return f
}

func recoverOptionalInt(line int, n *int, fe *FieldError) *int {
	if fe != nil {
		monitoring.Debugf("ingest: line %d: %v, treating as absent", line, fe)
		return nil
	}
	return n
}
