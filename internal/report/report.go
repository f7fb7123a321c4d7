// Package report renders the static PNG report set from course data.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/muthuarun3/kart/internal/db"
	"github.com/muthuarun3/kart/internal/security"
	"github.com/muthuarun3/kart/internal/stats"
)

// Generator writes PNG charts summarizing courses into one output
// directory.
type Generator struct {
	outputDir string
}

// NewGenerator returns a Generator writing into outputDir.
func NewGenerator(outputDir string) *Generator {
	return &Generator{outputDir: outputDir}
}

// OutputDir returns the directory the report set is written into.
func (g *Generator) OutputDir() string {
	return g.outputDir
}

// Generate renders the report set and returns the paths written, in
// generation order. Charts with no backing data are skipped rather
// than rendered empty.
func (g *Generator) Generate(courses []db.CourseDetail) ([]string, error) {
	if g.outputDir == "" {
		return nil, fmt.Errorf("no output directory configured")
	}
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	var files []string

	path, err := g.kartMeanTimes(courses)
	if err != nil {
		return files, err
	}
	if path != "" {
		files = append(files, path)
	}

	path, err = g.pilotEvolution(courses)
	if err != nil {
		return files, err
	}
	if path != "" {
		files = append(files, path)
	}

	perPilot, err := g.perPilotLapTimes(courses)
	if err != nil {
		return files, err
	}
	files = append(files, perPilot...)

	return files, nil
}

// kartMeanTimes renders a bar chart of mean lap seconds per kart.
// Courses without a kart or a timed lap contribute nothing.
func (g *Generator) kartMeanTimes(courses []db.CourseDetail) (string, error) {
	var obs []stats.Observation
	for _, c := range courses {
		if c.Kart == nil || c.MeilleurTourS == nil {
			continue
		}
		obs = append(obs, stats.Observation{Key: []string{strconv.Itoa(*c.Kart)}, Value: *c.MeilleurTourS})
	}
	groups := stats.Aggregate(obs)
	if len(groups) == 0 {
		return "", nil
	}

	// Aggregate orders keys lexically, which puts kart 12 before kart 7.
	sort.Slice(groups, func(i, j int) bool {
		a, _ := strconv.Atoi(groups[i].Key[0])
		b, _ := strconv.Atoi(groups[j].Key[0])
		return a < b
	})

	values := make(plotter.Values, 0, len(groups))
	labels := make([]string, 0, len(groups))
	for _, grp := range groups {
		values = append(values, grp.Mean)
		labels = append(labels, grp.Key[0])
	}

	p := plot.New()
	p.Title.Text = "Temps moyen par kart"
	p.X.Label.Text = "Kart"
	p.Y.Label.Text = "Temps (s)"

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return "", fmt.Errorf("kart bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(labels...)

	return g.save(p, "kart_mean_times.png", 10*vg.Inch, 6*vg.Inch)
}

// pilotEvolution renders one line per pilot of monthly mean note.
func (g *Generator) pilotEvolution(courses []db.CourseDetail) (string, error) {
	var obs []stats.Observation
	monthSet := map[string]bool{}
	for _, c := range courses {
		if len(c.Date) < 7 {
			continue
		}
		month := c.Date[:7]
		monthSet[month] = true
		obs = append(obs, stats.Observation{Key: []string{c.Pilote, month}, Value: float64(c.Note)})
	}
	groups := stats.Aggregate(obs)
	if len(groups) == 0 {
		return "", nil
	}

	months := make([]string, 0, len(monthSet))
	for m := range monthSet {
		months = append(months, m)
	}
	sort.Strings(months)
	monthIdx := make(map[string]int, len(months))
	for i, m := range months {
		monthIdx[m] = i
	}

	series := map[string]plotter.XYs{}
	for _, grp := range groups {
		name, month := grp.Key[0], grp.Key[1]
		series[name] = append(series[name], plotter.XY{X: float64(monthIdx[month]), Y: grp.Mean})
	}
	pilots := make([]string, 0, len(series))
	for name := range series {
		pilots = append(pilots, name)
	}
	sort.Strings(pilots)

	p := plot.New()
	p.Title.Text = "Évolution mensuelle de la note moyenne"
	p.X.Label.Text = "Mois"
	p.Y.Label.Text = "Note moyenne"

	for i, name := range pilots {
		pts := series[name]
		sort.Slice(pts, func(a, b int) bool { return pts[a].X < pts[b].X })
		line, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("evolution line for %s: %w", name, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.NominalX(months...)

	return g.save(p, "pilot_evolution.png", 12*vg.Inch, 6*vg.Inch)
}

// perPilotLapTimes renders, for each pilot with timed laps, a line of
// their monthly mean lap time. File names embed a sanitized form of
// the pilot name.
func (g *Generator) perPilotLapTimes(courses []db.CourseDetail) ([]string, error) {
	byPilot := map[string][]db.CourseDetail{}
	for _, c := range courses {
		byPilot[c.Pilote] = append(byPilot[c.Pilote], c)
	}
	pilots := make([]string, 0, len(byPilot))
	for name := range byPilot {
		pilots = append(pilots, name)
	}
	sort.Strings(pilots)

	var files []string
	for _, name := range pilots {
		var obs []stats.Observation
		for _, c := range byPilot[name] {
			if c.MeilleurTourS == nil || len(c.Date) < 7 {
				continue
			}
			obs = append(obs, stats.Observation{Key: []string{c.Date[:7]}, Value: *c.MeilleurTourS})
		}
		groups := stats.Aggregate(obs)
		if len(groups) == 0 {
			continue
		}

		months := make([]string, 0, len(groups))
		pts := make(plotter.XYs, 0, len(groups))
		for i, grp := range groups {
			months = append(months, grp.Key[0])
			pts = append(pts, plotter.XY{X: float64(i), Y: grp.Mean})
		}

		p := plot.New()
		p.Title.Text = fmt.Sprintf("Temps moyen par mois pour %s", name)
		p.X.Label.Text = "Mois"
		p.Y.Label.Text = "Temps (s)"

		line, err := plotter.NewLine(pts)
		if err != nil {
			return files, fmt.Errorf("lap time line for %s: %w", name, err)
		}
		line.Color = plotutil.Color(1)
		line.Width = vg.Points(1)
		p.Add(line)
		p.NominalX(months...)

		path, err := g.save(p, fmt.Sprintf("evolution_%s.png", security.SanitizeFilename(name)), 10*vg.Inch, 6*vg.Inch)
		if err != nil {
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

// save rejects targets that resolve outside the output directory, then
// writes the plot.
func (g *Generator) save(p *plot.Plot, name string, w, h vg.Length) (string, error) {
	path := filepath.Join(g.outputDir, name)
	if err := security.ValidatePathWithinDirectory(path, g.outputDir); err != nil {
		return "", fmt.Errorf("report path rejected: %w", err)
	}
	if err := p.Save(w, h, path); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return path, nil
}
