// Package config holds uninames configuration: file paths, processing
// thresholds and logging. Config is YAML on disk with environment-variable
// overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all uninames configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	Paths      PathsConfig      `yaml:"paths"`
	Processing ProcessingConfig `yaml:"processing"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// PathsConfig configures default file locations.
type PathsConfig struct {
	GoldenReference string `yaml:"golden_reference"`
	GoldenDB        string `yaml:"golden_db"`
	DefaultInput    string `yaml:"default_input"`
	DefaultOutput   string `yaml:"default_output"`
	NewAliasesOut   string `yaml:"new_aliases_out"`
	WatchDir        string `yaml:"watch_dir"`
}

// ProcessingConfig configures matching and clustering behavior.
// Thresholds are on the 0-1 scale.
type ProcessingConfig struct {
	AutoMergeThreshold       float64 `yaml:"auto_merge_threshold"`
	UnsureThreshold          float64 `yaml:"unsure_threshold"`
	GoldenMatchThreshold     float64 `yaml:"golden_match_threshold"`
	ClusterDistanceThreshold float64 `yaml:"cluster_distance_threshold"`
	MaxClusterRows           int     `yaml:"max_cluster_rows"`

	EnableClustering       bool `yaml:"enable_clustering"`
	EnableSmartExtraction  bool `yaml:"enable_smart_extraction"`
	SplitPersonsFacilities bool `yaml:"split_persons_facilities"`

	// MatchWorkers bounds the fuzzy-match fan-out. Zero means NumCPU.
	MatchWorkers int `yaml:"match_workers"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
	File   string `yaml:"file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "uninames",
		Version: "1.0.0",
		Paths: PathsConfig{
			GoldenReference: "reference/golden_doctors.xlsx",
			GoldenDB:        "data/golden.db",
			DefaultInput:    "Doctor List.xlsx",
			DefaultOutput:   "Doctor_List_ML.xlsx",
			NewAliasesOut:   "Doctor_List_Final_Names.xlsx",
			WatchDir:        "inbox",
		},
		Processing: ProcessingConfig{
			AutoMergeThreshold:       0.90,
			UnsureThreshold:          0.70,
			GoldenMatchThreshold:     0.80,
			ClusterDistanceThreshold: 0.30,
			MaxClusterRows:           30000,
			EnableClustering:         true,
			EnableSmartExtraction:    true,
			SplitPersonsFacilities:   true,
			MatchWorkers:             0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "uninames.log",
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults; environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	cfg.clamp()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("config: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// applyEnvOverrides lets environment variables win over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("UNINAMES_GOLDEN"); v != "" {
		c.Paths.GoldenReference = v
	}
	if v := os.Getenv("UNINAMES_GOLDEN_DB"); v != "" {
		c.Paths.GoldenDB = v
	}
	if v := os.Getenv("UNINAMES_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Processing.UnsureThreshold = f
		}
	}
	if v := os.Getenv("UNINAMES_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func (c *Config) clamp() {
	p := &c.Processing
	p.AutoMergeThreshold = clamp01(p.AutoMergeThreshold)
	p.UnsureThreshold = clamp01(p.UnsureThreshold)
	p.GoldenMatchThreshold = clamp01(p.GoldenMatchThreshold)
	p.ClusterDistanceThreshold = clamp01(p.ClusterDistanceThreshold)
	if p.MatchWorkers <= 0 {
		p.MatchWorkers = runtime.NumCPU()
	}
}

// goldenCandidates lists golden reference locations in priority order,
// relative to a base directory.
var goldenCandidates = []string{
	filepath.Join("reference", "golden_doctors.xlsx"),
	filepath.Join("reference", "golden_reference.xlsx"),
	"golden_reference.xlsx",
	filepath.Join("doctor_cleaner", "golden_reference.xlsx"),
}

// BestGoldenReference probes the conventional golden reference locations
// under baseDir and returns the first that exists.
func BestGoldenReference(baseDir string) (string, bool) {
	for _, rel := range goldenCandidates {
		p := filepath.Join(baseDir, rel)
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, true
		}
	}
	return "", false
}
