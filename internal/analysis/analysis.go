// Package analysis derives the read-only performance views served by the
// stats endpoints: global figures, per-circuit and per-pilot summaries, the
// kart ranking and the pilot/kart heatmap. All functions are pure over a
// slice of joined courses; callers filter first, then compute.
//
// Means over a measure that can be absent (best lap) are pointers and nil
// when no course carries a value, which serializes as JSON null rather than
// an unencodable NaN.
package analysis

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/muthuarun3/kart/internal/db"
	"github.com/muthuarun3/kart/internal/stats"
)

// GlobalStats summarizes every course in the current selection.
type GlobalStats struct {
	TotalCourses           int             `json:"total_courses"`
	TotalCircuits          int             `json:"total_circuits"`
	MoyenneNote            *float64        `json:"moyenne_note"`
	MoyenneHumidite        *float64        `json:"moyenne_humidite"`
	MeilleurTourMoyen      *float64        `json:"meilleur_tour_moyen"`
	MoyenneTempsParCircuit map[int]float64 `json:"moyenne_temps_par_circuit"`
}

// TopKart is the best performing kart of a circuit, ordered by mean note
// then mean lap time.
type TopKart struct {
	KartID        int      `json:"kart_id"`
	MoyenneNote   float64  `json:"moyenne_note"`
	MoyenneTemps  *float64 `json:"moyenne_temps"`
	NombreCourses int      `json:"nombre_courses"`
}

// CircuitPerformance summarizes the courses run on one circuit.
type CircuitPerformance struct {
	NomCircuit         string   `json:"nom_circuit"`
	TotalCourses       int      `json:"total_courses"`
	MoyenneNote        *float64 `json:"moyenne_note"`
	MoyenneHumidite    *float64 `json:"moyenne_humidite"`
	MeilleurTourMoyen  *float64 `json:"meilleur_tour_moyen"`
	MeilleurTourRecord *float64 `json:"meilleur_tour_record"`
	KartTopPerformance *TopKart `json:"kart_top_performance"`
}

// MonthlyPerformance is one calendar month of a pilot's history.
type MonthlyPerformance struct {
	Mois          string   `json:"mois"` // YYYY-MM
	MoyenneNote   float64  `json:"moyenne_note"`
	MoyenneTemps  *float64 `json:"moyenne_temps"`
	NombreCourses int      `json:"nombre_courses"`
}

// PilotStats summarizes one pilot's courses.
type PilotStats struct {
	NomPilote          string               `json:"nom_pilote"`
	TotalCourses       int                  `json:"total_courses"`
	MoyenneNote        *float64             `json:"moyenne_note"`
	MoyenneHumidite    *float64             `json:"moyenne_humidite"`
	MeilleurTourMoyen  *float64             `json:"meilleur_tour_moyen"`
	MeilleurTourRecord *float64             `json:"meilleur_tour_record"`
	TauxPodiums        float64              `json:"taux_podiums"`
	Evolution          []MonthlyPerformance `json:"evolution_temporelle"`
}

// ComputeGlobalStats builds the global view. totalCircuits comes from the
// store since circuits without courses still count.
func ComputeGlobalStats(courses []db.CourseDetail, totalCircuits int) GlobalStats {
	g := GlobalStats{
		TotalCourses:           len(courses),
		TotalCircuits:          totalCircuits,
		MoyenneNote:            meanPtr(notes(courses)),
		MoyenneHumidite:        meanPtr(humidities(courses)),
		MeilleurTourMoyen:      meanPtr(laps(courses)),
		MoyenneTempsParCircuit: map[int]float64{},
	}

	var obs []stats.Observation
	for _, c := range courses {
		if c.MeilleurTourS == nil {
			continue
		}
		obs = append(obs, stats.Observation{
			Key:   []string{strconv.Itoa(c.CircuitID)},
			Value: *c.MeilleurTourS,
		})
	}
	for _, grp := range stats.Aggregate(obs) {
		id, err := strconv.Atoi(grp.Key[0])
		if err != nil {
			continue
		}
		g.MoyenneTempsParCircuit[id] = grp.Mean
	}
	return g
}

// ComputeCircuitPerformance builds the per-circuit view. Courses run on
// other circuits are ignored, so callers can pass an unrestricted slice.
func ComputeCircuitPerformance(circuit db.Circuit, courses []db.CourseDetail) CircuitPerformance {
	var own []db.CourseDetail
	for _, c := range courses {
		if c.CircuitID == circuit.ID {
			own = append(own, c)
		}
	}

	lapValues := laps(own)
	return CircuitPerformance{
		NomCircuit:         circuit.NomCircuit,
		TotalCourses:       len(own),
		MoyenneNote:        meanPtr(notes(own)),
		MoyenneHumidite:    meanPtr(humidities(own)),
		MeilleurTourMoyen:  meanPtr(lapValues),
		MeilleurTourRecord: minPtr(lapValues),
		KartTopPerformance: topKart(own),
	}
}

// topKart picks the kart with the highest mean note, breaking ties on mean
// lap time then kart number. Courses without a kart do not compete.
func topKart(courses []db.CourseDetail) *TopKart {
	type kartAgg struct {
		kart  int
		notes []float64
		laps  []float64
		count int
	}
	byKart := map[int]*kartAgg{}
	for _, c := range courses {
		if c.Kart == nil {
			continue
		}
		agg := byKart[*c.Kart]
		if agg == nil {
			agg = &kartAgg{kart: *c.Kart}
			byKart[*c.Kart] = agg
		}
		agg.count++
		agg.notes = append(agg.notes, float64(c.Note))
		if c.MeilleurTourS != nil {
			agg.laps = append(agg.laps, *c.MeilleurTourS)
		}
	}
	if len(byKart) == 0 {
		return nil
	}

	candidates := make([]*kartAgg, 0, len(byKart))
	for _, agg := range byKart {
		candidates = append(candidates, agg)
	}
	sort.Slice(candidates, func(i, j int) bool {
		ni, nj := stat.Mean(candidates[i].notes, nil), stat.Mean(candidates[j].notes, nil)
		if ni != nj {
			return ni > nj
		}
		// Untimed karts rank behind timed ones on the lap tiebreak.
		ti, tj := meanOrInf(candidates[i].laps), meanOrInf(candidates[j].laps)
		if ti != tj {
			return ti < tj
		}
		return candidates[i].kart < candidates[j].kart
	})

	best := candidates[0]
	return &TopKart{
		KartID:        best.kart,
		MoyenneNote:   stat.Mean(best.notes, nil),
		MoyenneTemps:  meanPtr(best.laps),
		NombreCourses: best.count,
	}
}

// ComputePilotStats builds the per-pilot view. The name matches
// case-insensitively and is echoed back as given.
func ComputePilotStats(name string, courses []db.CourseDetail, podiumThreshold float64) PilotStats {
	var own []db.CourseDetail
	for _, c := range courses {
		if strings.EqualFold(c.Pilote, name) {
			own = append(own, c)
		}
	}

	rate, ok := stats.Rate(own, func(c db.CourseDetail) bool {
		return float64(c.Note) >= podiumThreshold
	})
	if !ok {
		rate = 0
	}

	lapValues := laps(own)
	return PilotStats{
		NomPilote:          name,
		TotalCourses:       len(own),
		MoyenneNote:        meanPtr(notes(own)),
		MoyenneHumidite:    meanPtr(humidities(own)),
		MeilleurTourMoyen:  meanPtr(lapValues),
		MeilleurTourRecord: minPtr(lapValues),
		TauxPodiums:        rate,
		Evolution:          monthlyEvolution(own),
	}
}

// monthlyEvolution buckets a pilot's courses by calendar month, oldest
// first.
func monthlyEvolution(courses []db.CourseDetail) []MonthlyPerformance {
	type monthAgg struct {
		notes []float64
		laps  []float64
		count int
	}
	byMonth := map[string]*monthAgg{}
	for _, c := range courses {
		if len(c.Date) < 7 {
			continue
		}
		month := c.Date[:7]
		agg := byMonth[month]
		if agg == nil {
			agg = &monthAgg{}
			byMonth[month] = agg
		}
		agg.count++
		agg.notes = append(agg.notes, float64(c.Note))
		if c.MeilleurTourS != nil {
			agg.laps = append(agg.laps, *c.MeilleurTourS)
		}
	}
	if len(byMonth) == 0 {
		return nil
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Strings(months)

	out := make([]MonthlyPerformance, 0, len(months))
	for _, m := range months {
		agg := byMonth[m]
		out = append(out, MonthlyPerformance{
			Mois:          m,
			MoyenneNote:   stat.Mean(agg.notes, nil),
			MoyenneTemps:  meanPtr(agg.laps),
			NombreCourses: agg.count,
		})
	}
	return out
}

func notes(courses []db.CourseDetail) []float64 {
	out := make([]float64, 0, len(courses))
	for _, c := range courses {
		out = append(out, float64(c.Note))
	}
	return out
}

func humidities(courses []db.CourseDetail) []float64 {
	out := make([]float64, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Humidite)
	}
	return out
}

func laps(courses []db.CourseDetail) []float64 {
	var out []float64
	for _, c := range courses {
		if c.MeilleurTourS != nil {
			out = append(out, *c.MeilleurTourS)
		}
	}
	return out
}

func meanPtr(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	m := stat.Mean(vals, nil)
	return &m
}

func minPtr(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	min := vals[0]
	for _, v := range vals {
		if v < min {
			min = v
		}
	}
	return &min
}

func meanOrInf(vals []float64) float64 {
	if len(vals) == 0 {
		return math.Inf(1)
	}
	return stat.Mean(vals, nil)
}
