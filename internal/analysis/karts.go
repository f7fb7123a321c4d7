package analysis

import (
	"errors"
	"math"
	"sort"
	"strconv"

	"github.com/muthuarun3/kart/internal/db"
	"github.com/muthuarun3/kart/internal/stats"
)

// KartRank is one kart's entry in the fleet ranking. Lap statistics cover
// the kart's timed courses; NombreDeTours sums laps driven across all of
// its courses.
type KartRank struct {
	Kart            int      `json:"kart"`
	NombreDeTours   int      `json:"nombre_de_tours"`
	TempsMoyen      float64  `json:"temps_moyen"`
	MeilleurTemps   float64  `json:"meilleur_temps"`
	TempsLePlusLent float64  `json:"temps_le_plus_lent"`
	EcartType       *float64 `json:"ecart_type"`
	Score           float64  `json:"score"`
	Categorie       string   `json:"categorie"`
}

// ComputeKartRanking scores every kart on its mean lap time, best kart
// first. innerBoundaries and labels drive the category buckets: boundaries
// [30, 70] with three labels yield (-inf,30], (30,70], (70,+inf). Courses
// without a kart are excluded; a kart with no timed lap cannot be ranked.
// When all karts share one mean the min-max scale is undefined and every
// kart scores a flat 100.
func ComputeKartRanking(courses []db.CourseDetail, innerBoundaries []float64, labels []string) ([]KartRank, error) {
	boundaries := make([]float64, 0, len(innerBoundaries)+2)
	boundaries = append(boundaries, math.Inf(-1))
	boundaries = append(boundaries, innerBoundaries...)
	boundaries = append(boundaries, math.Inf(1))
	buckets, err := stats.NewBuckets(boundaries, labels)
	if err != nil {
		return nil, err
	}

	tours := map[int]int{}
	var obs []stats.Observation
	for _, c := range courses {
		if c.Kart == nil {
			continue
		}
		tours[*c.Kart] += c.Tours
		if c.MeilleurTourS != nil {
			obs = append(obs, stats.Observation{
				Key:   []string{strconv.Itoa(*c.Kart)},
				Value: *c.MeilleurTourS,
			})
		}
	}

	groups := stats.Aggregate(obs)
	if len(groups) == 0 {
		return nil, nil
	}

	scored, err := stats.RankAndScore(groups, stats.MeasureMean, true)
	if err != nil {
		var undefined *stats.UndefinedMetricError
		if !errors.As(err, &undefined) {
			return nil, err
		}
		// Zero spread across the fleet, every kart is the best kart.
		scored = make([]stats.ScoredGroup, 0, len(groups))
		for _, g := range groups {
			scored = append(scored, stats.ScoredGroup{GroupStats: g, Score: 100})
		}
	}

	ranks := make([]KartRank, 0, len(scored))
	for _, g := range scored {
		kart, err := strconv.Atoi(g.Key[0])
		if err != nil {
			continue
		}
		var ecartType *float64
		if !math.IsNaN(g.Std) {
			std := g.Std
			ecartType = &std
		}
		label, _ := buckets.Label(g.Score)
		ranks = append(ranks, KartRank{
			Kart:            kart,
			NombreDeTours:   tours[kart],
			TempsMoyen:      g.Mean,
			MeilleurTemps:   g.Min,
			TempsLePlusLent: g.Max,
			EcartType:       ecartType,
			Score:           g.Score,
			Categorie:       label,
		})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Score != ranks[j].Score {
			return ranks[i].Score > ranks[j].Score
		}
		return ranks[i].Kart < ranks[j].Kart
	})
	return ranks, nil
}

// HeatmapData is the pilot by kart matrix of mean lap times. Values is
// indexed [pilot][kart] following the Pilotes and Karts orders; a nil cell
// means that pilot never set a timed lap in that kart.
type HeatmapData struct {
	Pilotes []string     `json:"pilotes"`
	Karts   []int        `json:"karts"`
	Values  [][]*float64 `json:"valeurs"`
}

// ComputeHeatmap builds the pilot/kart matrix. A heatmap needs contrast on
// both axes, so it returns nil unless the selection spans at least two
// pilots and two karts.
func ComputeHeatmap(courses []db.CourseDetail) *HeatmapData {
	pilotSet := map[string]bool{}
	kartSet := map[int]bool{}
	for _, c := range courses {
		pilotSet[c.Pilote] = true
		if c.Kart != nil {
			kartSet[*c.Kart] = true
		}
	}
	if len(pilotSet) < 2 || len(kartSet) < 2 {
		return nil
	}

	pilotes := make([]string, 0, len(pilotSet))
	for p := range pilotSet {
		pilotes = append(pilotes, p)
	}
	sort.Strings(pilotes)

	karts := make([]int, 0, len(kartSet))
	for k := range kartSet {
		karts = append(karts, k)
	}
	sort.Ints(karts)

	type cell struct {
		pilot string
		kart  int
	}
	cells := map[cell][]float64{}
	for _, c := range courses {
		if c.Kart == nil || c.MeilleurTourS == nil {
			continue
		}
		key := cell{pilot: c.Pilote, kart: *c.Kart}
		cells[key] = append(cells[key], *c.MeilleurTourS)
	}

	values := make([][]*float64, len(pilotes))
	for i, p := range pilotes {
		values[i] = make([]*float64, len(karts))
		for j, k := range karts {
			values[i][j] = meanPtr(cells[cell{pilot: p, kart: k}])
		}
	}
	return &HeatmapData{Pilotes: pilotes, Karts: karts, Values: values}
}
