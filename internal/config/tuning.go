package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// TuningConfig represents the root configuration for tuning parameters.
// Fields are pointers so a partial JSON file only overrides what it names;
// the Get* methods supply defaults for everything left nil.
type TuningConfig struct {
	// Ingestion params
	HumidityScale  *string `json:"humidity_scale,omitempty"` // "percent" or "fraction"
	MaxImportBytes *int64  `json:"max_import_bytes,omitempty"`

	// Analysis params
	PodiumThreshold *int      `json:"podium_threshold,omitempty"` // minimum Note counted as a podium
	ScoreBoundaries []float64 `json:"score_boundaries,omitempty"`
	ScoreLabels     []string  `json:"score_labels,omitempty"`

	// API params
	DefaultPageSize *int `json:"default_page_size,omitempty"`
	MaxPageSize     *int `json:"max_page_size,omitempty"`

	// Report params
	ReportDir *string `json:"report_dir,omitempty"`
}

// Helper functions to create pointers
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }
func ptrInt64(v int64) *int64    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field explicitly set
// to its default. Used to generate the defaults file and in tests.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		HumidityScale:   ptrString("percent"),
		MaxImportBytes:  ptrInt64(10 * 1024 * 1024),
		PodiumThreshold: ptrInt(9),
		ScoreBoundaries: []float64{30, 70},
		ScoreLabels:     []string{"pas ouf", "mid", "au top"},
		DefaultPageSize: ptrInt(100),
		MaxPageSize:     ptrInt(1000),
		ReportDir:       ptrString("reports"),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	// Validate the config file path.
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse JSON into empty config. The Get* methods provide fallback
	// defaults for any fields not specified in the JSON.
	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	// Try paths from current dir up to repo root
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.HumidityScale != nil {
		switch *c.HumidityScale {
		case "", "percent", "fraction":
		default:
			return fmt.Errorf("humidity_scale must be \"percent\" or \"fraction\", got %q", *c.HumidityScale)
		}
	}

	if c.MaxImportBytes != nil && *c.MaxImportBytes <= 0 {
		return fmt.Errorf("max_import_bytes must be positive, got %d", *c.MaxImportBytes)
	}

	if c.PodiumThreshold != nil {
		if *c.PodiumThreshold < 0 || *c.PodiumThreshold > 10 {
			return fmt.Errorf("podium_threshold must be between 0 and 10, got %d", *c.PodiumThreshold)
		}
	}

	// Boundaries and labels travel together: n boundaries cut n+1 buckets.
	if len(c.ScoreBoundaries) > 0 || len(c.ScoreLabels) > 0 {
		for i := 1; i < len(c.ScoreBoundaries); i++ {
			if c.ScoreBoundaries[i] <= c.ScoreBoundaries[i-1] {
				return fmt.Errorf("score_boundaries must be strictly increasing, got %v", c.ScoreBoundaries)
			}
		}
		if len(c.ScoreLabels) != len(c.ScoreBoundaries)+1 {
			return fmt.Errorf("score_labels must have %d entries for %d boundaries, got %d",
				len(c.ScoreBoundaries)+1, len(c.ScoreBoundaries), len(c.ScoreLabels))
		}
	}

	if c.DefaultPageSize != nil && *c.DefaultPageSize < 1 {
		return fmt.Errorf("default_page_size must be at least 1, got %d", *c.DefaultPageSize)
	}
	if c.MaxPageSize != nil && *c.MaxPageSize < 1 {
		return fmt.Errorf("max_page_size must be at least 1, got %d", *c.MaxPageSize)
	}
	if c.DefaultPageSize != nil && c.MaxPageSize != nil && *c.DefaultPageSize > *c.MaxPageSize {
		return fmt.Errorf("default_page_size %d exceeds max_page_size %d", *c.DefaultPageSize, *c.MaxPageSize)
	}

	return nil
}

// GetHumidityScale returns the humidity_scale value or the default.
func (c *TuningConfig) GetHumidityScale() string {
	if c.HumidityScale == nil || *c.HumidityScale == "" {
		return "percent" // default
	}
	return *c.HumidityScale
}

// GetMaxImportBytes returns the max_import_bytes value or the default.
func (c *TuningConfig) GetMaxImportBytes() int64 {
	if c.MaxImportBytes == nil {
		return 10 * 1024 * 1024 // 10MB
	}
	return *c.MaxImportBytes
}

// GetPodiumThreshold returns the podium_threshold value or the default.
func (c *TuningConfig) GetPodiumThreshold() int {
	if c.PodiumThreshold == nil {
		return 9 // default
	}
	return *c.PodiumThreshold
}

// GetScoreBoundaries returns the score_boundaries value or the default.
func (c *TuningConfig) GetScoreBoundaries() []float64 {
	if len(c.ScoreBoundaries) == 0 {
		return []float64{30, 70}
	}
	return c.ScoreBoundaries
}

// GetScoreLabels returns the score_labels value or the default.
func (c *TuningConfig) GetScoreLabels() []string {
	if len(c.ScoreLabels) == 0 {
		return []string{"pas ouf", "mid", "au top"}
	}
	return c.ScoreLabels
}

// GetDefaultPageSize returns the default_page_size value or the default.
func (c *TuningConfig) GetDefaultPageSize() int {
	if c.DefaultPageSize == nil {
		return 100
	}
	return *c.DefaultPageSize
}

// GetMaxPageSize returns the max_page_size value or the default.
func (c *TuningConfig) GetMaxPageSize() int {
	if c.MaxPageSize == nil {
		return 1000
	}
	return *c.MaxPageSize
}

// GetReportDir returns the report_dir value or the default.
func (c *TuningConfig) GetReportDir() string {
	if c.ReportDir == nil || *c.ReportDir == "" {
		return "reports"
	}
	return *c.ReportDir
}
