package report

import (
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/muthuarun3/kart/internal/db"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func detail(pilote, date string, kart *int, note int, lap *float64) db.CourseDetail {
	return db.CourseDetail{
		Course: db.Course{
			Section:       1,
			Pilote:        pilote,
			Date:          date,
			CircuitID:     1,
			Kart:          kart,
			Note:          note,
			MeilleurTourS: lap,
			Tours:         10,
			Humidite:      55,
		},
		NomCircuit:         "Lyon",
		ConfigurationPiste: "GP",
	}
}

func TestNewGenerator(t *testing.T) {
	g := NewGenerator("/tmp/reports")

	if g == nil {
		t.Fatal("NewGenerator returned nil")
	}
	if g.OutputDir() != "/tmp/reports" {
		t.Errorf("expected output dir '/tmp/reports', got '%s'", g.OutputDir())
	}
}

func TestGenerate_NoOutputDir(t *testing.T) {
	g := NewGenerator("")

	files, err := g.Generate(nil)
	if err == nil {
		t.Error("expected error when no output directory configured")
	}
	if len(files) != 0 {
		t.Errorf("expected 0 files, got %d", len(files))
	}
}

func TestGenerate_NoCourses(t *testing.T) {
	g := NewGenerator(t.TempDir())

	files, err := g.Generate(nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected 0 files with no courses, got %d", len(files))
	}
}

func TestGenerate_CreatesNestedOutputDir(t *testing.T) {
	nested := filepath.Join(t.TempDir(), "out", "reports")
	g := NewGenerator(nested)

	_, err := g.Generate(nil)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	info, err := os.Stat(nested)
	if err != nil {
		t.Fatalf("output directory not created: %v", err)
	}
	if !info.IsDir() {
		t.Error("expected directory, got file")
	}
}

func TestGenerate_WritesReportSet(t *testing.T) {
	g := NewGenerator(t.TempDir())

	courses := []db.CourseDetail{
		detail("Antoine", "2024-03-10", intPtr(7), 8, floatPtr(61.2)),
		detail("Antoine", "2024-04-12", intPtr(7), 9, floatPtr(60.8)),
		detail("Margaux", "2024-03-15", intPtr(12), 7, floatPtr(62.5)),
		detail("Margaux", "2024-04-20", intPtr(12), 10, floatPtr(59.9)),
	}

	files, err := g.Generate(courses)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(files) != 4 {
		t.Fatalf("expected 4 files, got %d: %v", len(files), files)
	}

	got := map[string]bool{}
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			t.Errorf("report file missing: %v", err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("report file %s is empty", f)
		}
		got[filepath.Base(f)] = true
	}

	for _, want := range []string{"kart_mean_times.png", "pilot_evolution.png", "evolution_Antoine.png", "evolution_Margaux.png"} {
		if !got[want] {
			t.Errorf("expected file %s in report set, got %v", want, files)
		}
	}
}

func TestGenerate_SkipsChartsWithoutData(t *testing.T) {
	g := NewGenerator(t.TempDir())

	// No kart and no timed lap: only the note evolution has data.
	courses := []db.CourseDetail{
		detail("Antoine", "2024-03-10", nil, 8, nil),
	}

	files, err := g.Generate(courses)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(files) != 1 {
		t.Fatalf("expected 1 file, got %d: %v", len(files), files)
	}
	if filepath.Base(files[0]) != "pilot_evolution.png" {
		t.Errorf("expected pilot_evolution.png, got %s", files[0])
	}
}

func TestGenerate_SanitizesPilotFilenames(t *testing.T) {
	g := NewGenerator(t.TempDir())

	courses := []db.CourseDetail{
		detail("Jean Pierre", "2024-03-10", intPtr(3), 8, floatPtr(63.0)),
	}

	files, err := g.Generate(courses)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	found := false
	for _, f := range files {
		if filepath.Base(f) == "evolution_Jean_Pierre.png" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected sanitized per-pilot file, got %v", files)
	}
}

func TestSave_RejectsPathEscape(t *testing.T) {
	g := NewGenerator(t.TempDir())

	p := plot.New()
	_, err := g.save(p, filepath.Join("..", "escape.png"), 4*vg.Inch, 4*vg.Inch)
	if err == nil {
		t.Error("expected error for path escaping the output directory")
	}
}
