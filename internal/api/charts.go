package api

import (
	"bytes"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/muthuarun3/kart/internal/analysis"
)

// echartsAssetsPrefix is where rendered chart pages load the echarts
// runtime from.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// chartCircuits renders grouped bars of mean note and mean lap time per
// circuit.
func (s *Server) chartCircuits(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	courses, err := s.loadFilteredCourses(f)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type circuitAgg struct {
		label string
		notes []float64
		laps  []float64
	}
	byCircuit := map[int]*circuitAgg{}
	for _, c := range courses {
		agg := byCircuit[c.CircuitID]
		if agg == nil {
			agg = &circuitAgg{label: fmt.Sprintf("%s (%s)", c.NomCircuit, c.ConfigurationPiste)}
			byCircuit[c.CircuitID] = agg
		}
		agg.notes = append(agg.notes, float64(c.Note))
		if c.MeilleurTourS != nil {
			agg.laps = append(agg.laps, *c.MeilleurTourS)
		}
	}

	aggs := make([]*circuitAgg, 0, len(byCircuit))
	for _, agg := range byCircuit {
		aggs = append(aggs, agg)
	}
	sort.Slice(aggs, func(i, j int) bool { return aggs[i].label < aggs[j].label })

	labels := make([]string, 0, len(aggs))
	noteBars := make([]opts.BarData, 0, len(aggs))
	lapBars := make([]opts.BarData, 0, len(aggs))
	for _, agg := range aggs {
		labels = append(labels, agg.label)
		noteBars = append(noteBars, opts.BarData{Value: round2(mean(agg.notes))})
		if len(agg.laps) == 0 {
			// Circuits with no timed laps get a gap, not a zero bar.
			lapBars = append(lapBars, opts.BarData{Value: nil})
		} else {
			lapBars = append(lapBars, opts.BarData{Value: round2(mean(agg.laps))})
		}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Comparaison des circuits", Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Comparaison des performances moyennes par circuit", Subtitle: fmt.Sprintf("courses=%d circuits=%d", len(courses), len(aggs))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(labels).
		AddSeries("Note moyenne", noteBars).
		AddSeries("Temps moyen (s)", lapBars)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// chartPilotEvolution renders the month-by-month line of a pilot's mean
// note and mean lap time.
func (s *Server) chartPilotEvolution(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if name == "" {
		s.writeJSONError(w, http.StatusBadRequest, "Missing pilot name")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	courses, err := s.loadFilteredCourses(f)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pilot := analysis.ComputePilotStats(name, courses, float64(s.cfg.GetPodiumThreshold()))

	months := make([]string, 0, len(pilot.Evolution))
	noteLine := make([]opts.LineData, 0, len(pilot.Evolution))
	lapLine := make([]opts.LineData, 0, len(pilot.Evolution))
	for _, m := range pilot.Evolution {
		months = append(months, m.Mois)
		noteLine = append(noteLine, opts.LineData{Value: round2(m.MoyenneNote)})
		if m.MoyenneTemps == nil {
			// Months without timed laps leave a gap in the line.
			lapLine = append(lapLine, opts.LineData{Value: nil})
		} else {
			lapLine = append(lapLine, opts.LineData{Value: round2(*m.MoyenneTemps)})
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Évolution pilote", Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf("Évolution des performances de %s", name), Subtitle: fmt.Sprintf("courses=%d mois=%d", pilot.TotalCourses, len(months))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(months).
		AddSeries("Note moyenne", noteLine).
		AddSeries("Temps moyen (s)", lapLine)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// chartHumidity renders the humidity versus note scatter, optionally
// narrowed to one circuit via the circuit_id query parameter.
func (s *Server) chartHumidity(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	courses, err := s.loadFilteredCourses(f)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	points := make([]opts.ScatterData, 0, len(courses))
	for _, c := range courses {
		points = append(points, opts.ScatterData{Value: []interface{}{c.Humidite, c.Note}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Humidité et performance", Width: "900px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Corrélation entre humidité et performance (Note)", Subtitle: fmt.Sprintf("courses=%d", len(points))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Humidité (%)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Note", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("courses", points, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 8}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// chartKartHeatmap renders the pilot by kart matrix of mean lap times.
func (s *Server) chartKartHeatmap(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	courses, err := s.loadFilteredCourses(f)
	if err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h := analysis.ComputeHeatmap(courses)
	if h == nil {
		s.writeJSONError(w, http.StatusNotFound, "Pas assez de données pour la heatmap (au moins 2 pilotes et 2 karts requis).")
		return
	}

	kartLabels := make([]string, 0, len(h.Karts))
	for _, k := range h.Karts {
		kartLabels = append(kartLabels, strconv.Itoa(k))
	}

	minVal, maxVal := math.Inf(1), math.Inf(-1)
	var cells []opts.HeatMapData
	for i := range h.Pilotes {
		for j := range h.Karts {
			v := h.Values[i][j]
			if v == nil {
				continue
			}
			if *v < minVal {
				minVal = *v
			}
			if *v > maxVal {
				maxVal = *v
			}
			cells = append(cells, opts.HeatMapData{Value: [3]interface{}{j, i, round2(*v)}})
		}
	}
	if len(cells) == 0 {
		s.writeJSONError(w, http.StatusNotFound, "Pas assez de données pour la heatmap (au moins 2 pilotes et 2 karts requis).")
		return
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Heatmap pilotes et karts", Width: "900px", Height: "600px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: "Temps moyens par pilote et kart", Subtitle: fmt.Sprintf("pilotes=%d karts=%d", len(h.Pilotes), len(h.Karts))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: kartLabels, Name: "Kart"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: h.Pilotes, Name: "Pilote"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(minVal),
			Max:        float32(maxVal),
			InRange:    &opts.VisualMapInRange{Color: []string{"#440154", "#31688e", "#35b779", "#fde725"}},
		}),
	)
	hm.AddSeries("temps moyen (s)", cells)

	var buf bytes.Buffer
	if err := hm.Render(&buf); err != nil {
		s.writeJSONError(w, http.StatusInternalServerError, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}
