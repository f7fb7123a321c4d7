package analysis

import (
	"math"
	"testing"

	"github.com/muthuarun3/kart/internal/db"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

type courseSpec struct {
	pilote   string
	date     string
	circuit  int
	kart     *int
	note     int
	tours    int
	humidite float64
	lap      *float64
}

func buildCourses(specs []courseSpec) []db.CourseDetail {
	out := make([]db.CourseDetail, 0, len(specs))
	for i, s := range specs {
		out = append(out, db.CourseDetail{
			Course: db.Course{
				ID:            i + 1,
				Section:       i + 1,
				Pilote:        s.pilote,
				Date:          s.date,
				CircuitID:     s.circuit,
				Kart:          s.kart,
				Note:          s.note,
				Tours:         s.tours,
				Humidite:      s.humidite,
				MeilleurTourS: s.lap,
			},
		})
	}
	return out
}

func TestComputeGlobalStats(t *testing.T) {
	courses := buildCourses([]courseSpec{
		{pilote: "Margaux", date: "2024-03-02", circuit: 1, note: 8, humidite: 40, lap: floatPtr(60)},
		{pilote: "Antoine", date: "2024-03-09", circuit: 1, note: 6, humidite: 60, lap: floatPtr(64)},
		{pilote: "Lucie", date: "2024-04-06", circuit: 2, note: 10, humidite: 50, lap: nil},
	})

	g := ComputeGlobalStats(courses, 5)

	if g.TotalCourses != 3 {
		t.Errorf("TotalCourses mismatch: got %d, want 3", g.TotalCourses)
	}
	if g.TotalCircuits != 5 {
		t.Errorf("TotalCircuits mismatch: got %d, want 5", g.TotalCircuits)
	}
	if g.MoyenneNote == nil || *g.MoyenneNote != 8 {
		t.Errorf("MoyenneNote mismatch: got %v, want 8", g.MoyenneNote)
	}
	if g.MoyenneHumidite == nil || *g.MoyenneHumidite != 50 {
		t.Errorf("MoyenneHumidite mismatch: got %v, want 50", g.MoyenneHumidite)
	}
	// Mean over the two timed courses only.
	if g.MeilleurTourMoyen == nil || *g.MeilleurTourMoyen != 62 {
		t.Errorf("MeilleurTourMoyen mismatch: got %v, want 62", g.MeilleurTourMoyen)
	}
	if len(g.MoyenneTempsParCircuit) != 1 {
		t.Fatalf("Expected 1 circuit with timed laps, got %d", len(g.MoyenneTempsParCircuit))
	}
	if g.MoyenneTempsParCircuit[1] != 62 {
		t.Errorf("Circuit 1 mean mismatch: got %v, want 62", g.MoyenneTempsParCircuit[1])
	}
}

func TestComputeGlobalStats_Empty(t *testing.T) {
	g := ComputeGlobalStats(nil, 0)

	if g.TotalCourses != 0 {
		t.Errorf("Expected 0 courses, got %d", g.TotalCourses)
	}
	if g.MoyenneNote != nil || g.MoyenneHumidite != nil || g.MeilleurTourMoyen != nil {
		t.Error("Expected nil means on empty input")
	}
	if len(g.MoyenneTempsParCircuit) != 0 {
		t.Errorf("Expected empty per-circuit map, got %v", g.MoyenneTempsParCircuit)
	}
}

func TestComputeCircuitPerformance(t *testing.T) {
	circuit := db.Circuit{ID: 1, NomCircuit: "Le Mans Karting"}
	courses := buildCourses([]courseSpec{
		{pilote: "Margaux", date: "2024-03-02", circuit: 1, kart: intPtr(7), note: 9, humidite: 40, lap: floatPtr(62)},
		{pilote: "Antoine", date: "2024-03-09", circuit: 1, kart: intPtr(12), note: 9, humidite: 60, lap: floatPtr(60)},
		{pilote: "Lucie", date: "2024-04-06", circuit: 2, kart: intPtr(3), note: 10, humidite: 80, lap: floatPtr(55)},
	})

	perf := ComputeCircuitPerformance(circuit, courses)

	if perf.NomCircuit != "Le Mans Karting" {
		t.Errorf("NomCircuit mismatch: got %s", perf.NomCircuit)
	}
	// The circuit 2 course is ignored.
	if perf.TotalCourses != 2 {
		t.Errorf("TotalCourses mismatch: got %d, want 2", perf.TotalCourses)
	}
	if perf.MeilleurTourMoyen == nil || *perf.MeilleurTourMoyen != 61 {
		t.Errorf("MeilleurTourMoyen mismatch: got %v, want 61", perf.MeilleurTourMoyen)
	}
	if perf.MeilleurTourRecord == nil || *perf.MeilleurTourRecord != 60 {
		t.Errorf("MeilleurTourRecord mismatch: got %v, want 60", perf.MeilleurTourRecord)
	}

	// Both karts share note 9; the faster mean lap wins.
	if perf.KartTopPerformance == nil {
		t.Fatal("Expected a top kart")
	}
	if perf.KartTopPerformance.KartID != 12 {
		t.Errorf("Top kart mismatch: got %d, want 12", perf.KartTopPerformance.KartID)
	}
	if perf.KartTopPerformance.NombreCourses != 1 {
		t.Errorf("Top kart course count mismatch: got %d, want 1", perf.KartTopPerformance.NombreCourses)
	}
}

func TestComputeCircuitPerformance_TopKartByNote(t *testing.T) {
	circuit := db.Circuit{ID: 1, NomCircuit: "Circuit de la Sarthe"}
	courses := buildCourses([]courseSpec{
		{pilote: "Margaux", date: "2024-03-02", circuit: 1, kart: intPtr(7), note: 10, lap: floatPtr(70)},
		{pilote: "Antoine", date: "2024-03-09", circuit: 1, kart: intPtr(12), note: 6, lap: floatPtr(58)},
	})

	perf := ComputeCircuitPerformance(circuit, courses)

	// Note outranks lap time in the top-kart ordering.
	if perf.KartTopPerformance == nil || perf.KartTopPerformance.KartID != 7 {
		t.Errorf("Expected kart 7 on note, got %+v", perf.KartTopPerformance)
	}
}

func TestComputeCircuitPerformance_NoKarts(t *testing.T) {
	circuit := db.Circuit{ID: 1, NomCircuit: "Piste des Vignes"}
	courses := buildCourses([]courseSpec{
		{pilote: "Margaux", date: "2024-03-02", circuit: 1, note: 7, lap: floatPtr(63)},
	})

	perf := ComputeCircuitPerformance(circuit, courses)

	if perf.KartTopPerformance != nil {
		t.Errorf("Expected no top kart without kart data, got %+v", perf.KartTopPerformance)
	}
	if perf.TotalCourses != 1 {
		t.Errorf("TotalCourses mismatch: got %d, want 1", perf.TotalCourses)
	}
}

func TestComputeCircuitPerformance_EmptyCircuit(t *testing.T) {
	circuit := db.Circuit{ID: 9, NomCircuit: "Circuit sans historique"}

	perf := ComputeCircuitPerformance(circuit, nil)

	if perf.TotalCourses != 0 {
		t.Errorf("Expected 0 courses, got %d", perf.TotalCourses)
	}
	if perf.MoyenneNote != nil || perf.MeilleurTourRecord != nil {
		t.Error("Expected nil statistics for a circuit without courses")
	}
}

func TestComputePilotStats(t *testing.T) {
	courses := buildCourses([]courseSpec{
		{pilote: "Margaux", date: "2024-03-02", circuit: 1, note: 9, humidite: 40, lap: floatPtr(62)},
		{pilote: "Margaux", date: "2024-03-16", circuit: 1, note: 10, humidite: 50, lap: floatPtr(60)},
		{pilote: "Margaux", date: "2024-04-06", circuit: 2, note: 6, humidite: 60, lap: floatPtr(64)},
		{pilote: "Antoine", date: "2024-04-06", circuit: 2, note: 10, humidite: 60, lap: floatPtr(59)},
	})

	p := ComputePilotStats("margaux", courses, 9)

	if p.NomPilote != "margaux" {
		t.Errorf("Expected the requested name echoed back, got %s", p.NomPilote)
	}
	if p.TotalCourses != 3 {
		t.Errorf("TotalCourses mismatch: got %d, want 3", p.TotalCourses)
	}
	if p.MeilleurTourRecord == nil || *p.MeilleurTourRecord != 60 {
		t.Errorf("MeilleurTourRecord mismatch: got %v, want 60", p.MeilleurTourRecord)
	}

	// Two of three courses at note >= 9.
	if math.Abs(p.TauxPodiums-2.0/3.0) > 1e-9 {
		t.Errorf("TauxPodiums mismatch: got %v, want 2/3", p.TauxPodiums)
	}

	if len(p.Evolution) != 2 {
		t.Fatalf("Expected 2 months of evolution, got %d", len(p.Evolution))
	}
	march := p.Evolution[0]
	if march.Mois != "2024-03" {
		t.Errorf("Expected 2024-03 first, got %s", march.Mois)
	}
	if march.NombreCourses != 2 {
		t.Errorf("March course count mismatch: got %d, want 2", march.NombreCourses)
	}
	if march.MoyenneNote != 9.5 {
		t.Errorf("March mean note mismatch: got %v, want 9.5", march.MoyenneNote)
	}
	if march.MoyenneTemps == nil || *march.MoyenneTemps != 61 {
		t.Errorf("March mean time mismatch: got %v, want 61", march.MoyenneTemps)
	}
	if p.Evolution[1].Mois != "2024-04" {
		t.Errorf("Expected 2024-04 second, got %s", p.Evolution[1].Mois)
	}
}

func TestComputePilotStats_UnknownPilot(t *testing.T) {
	courses := buildCourses([]courseSpec{
		{pilote: "Margaux", date: "2024-03-02", circuit: 1, note: 9},
	})

	p := ComputePilotStats("Paul", courses, 9)

	if p.TotalCourses != 0 {
		t.Errorf("Expected 0 courses, got %d", p.TotalCourses)
	}
	if p.TauxPodiums != 0 {
		t.Errorf("Expected zero podium rate, got %v", p.TauxPodiums)
	}
	if p.Evolution != nil {
		t.Errorf("Expected no evolution, got %v", p.Evolution)
	}
}
