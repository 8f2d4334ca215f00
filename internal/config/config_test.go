package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"salescope/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "salescope", "config.toml") {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantResults := filepath.Join(tempHome, ".local", "share", "salescope", "results")
	if cfg.Paths.ResultsDir != wantResults {
		t.Fatalf("unexpected results dir: got %q want %q", cfg.Paths.ResultsDir, wantResults)
	}
	if cfg.Paths.Database != filepath.Join(tempHome, ".local", "share", "salescope", "salescope.db") {
		t.Fatalf("unexpected database path: %q", cfg.Paths.Database)
	}
	if cfg.Analysis.SubjectTrackID != -1 {
		t.Fatalf("unexpected subject id: %d", cfg.Analysis.SubjectTrackID)
	}
	if cfg.Analysis.SlowdownThreshold != 0.5 {
		t.Fatalf("unexpected slowdown threshold: %v", cfg.Analysis.SlowdownThreshold)
	}
	if cfg.Analysis.VideoStride != 3 {
		t.Fatalf("unexpected video stride: %d", cfg.Analysis.VideoStride)
	}
	if !cfg.Consolidation.InPlace || !cfg.Consolidation.Backup {
		t.Fatal("expected in-place consolidation with backups by default")
	}
	if cfg.FFprobeBinary() != "ffprobe" {
		t.Fatalf("unexpected ffprobe binary: %q", cfg.FFprobeBinary())
	}
	if cfg.FFprobeTimeout() != 30*time.Second {
		t.Fatalf("unexpected ffprobe timeout: %v", cfg.FFprobeTimeout())
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "salescope.toml")

	type payload struct {
		Paths struct {
			ResultsDir string `toml:"results_dir"`
		} `toml:"paths"`
		Analysis struct {
			LabelExt          string  `toml:"label_ext"`
			SlowdownThreshold float64 `toml:"slowdown_threshold"`
			Workers           int     `toml:"workers"`
		} `toml:"analysis"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.ResultsDir = filepath.Join(tempDir, "results")
	custom.Analysis.LabelExt = ".TXT"
	custom.Analysis.SlowdownThreshold = 0.7
	custom.Analysis.Workers = 2
	custom.Logging.Format = "JSON"
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Paths.ResultsDir != filepath.Join(tempDir, "results") {
		t.Fatalf("unexpected results dir: %q", cfg.Paths.ResultsDir)
	}
	if cfg.Analysis.LabelExt != "txt" {
		t.Fatalf("expected normalized extension, got %q", cfg.Analysis.LabelExt)
	}
	if cfg.Analysis.SlowdownThreshold != 0.7 || cfg.Analysis.Workers != 2 {
		t.Fatalf("unexpected analysis section: %+v", cfg.Analysis)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json format, got %q", cfg.Logging.Format)
	}
	if cfg.Analysis.LabelsDir != "labels" {
		t.Fatalf("expected default labels dir, got %q", cfg.Analysis.LabelsDir)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "salescope.toml")
	if err := os.WriteFile(configPath, []byte("[analysis]\nthreshold = 0.4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected error for unknown key")
	}
}

func TestDisabledConsolidationClearsInPlace(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "salescope.toml")
	if err := os.WriteFile(configPath, []byte("[consolidation]\nenabled = false\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Consolidation.InPlace {
		t.Fatal("expected in_place to be cleared when consolidation is disabled")
	}
}

func TestEnvOverridesFFprobeBinary(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "salescope.toml")
	if err := os.WriteFile(configPath, []byte("[ffprobe]\nbinary = \"/opt/file/ffprobe\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("SALESCOPE_FFPROBE", "/usr/local/bin/ffprobe")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.FFprobeBinary() != "/usr/local/bin/ffprobe" {
		t.Fatalf("expected env override, got %q", cfg.FFprobeBinary())
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(contents), "subject_track_id = -1") {
		t.Fatalf("sample config missing subject id: %s", contents)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.ResultsDir, "salescope") {
		t.Fatalf("expected results dir to contain salescope, got %q", cfg.Paths.ResultsDir)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("sample config should validate: %v", err)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.Database = filepath.Join(base, "db", "salescope.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, filepath.Dir(cfg.Paths.Database)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %s, err=%v", dir, err)
		}
	}
}

func TestResultDir(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.ResultsDir = "/data/results"
	if got := cfg.ResultDir("Harbor", "2024-05-01_cam1.mp4"); got != "/data/results/Harbor/2024-05-01_cam1.mp4" {
		t.Fatalf("unexpected result dir: %q", got)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"subject id":        func(c *config.Config) { c.Analysis.SubjectTrackID = 7 },
		"threshold zero":    func(c *config.Config) { c.Analysis.SlowdownThreshold = 0 },
		"threshold one":     func(c *config.Config) { c.Analysis.SlowdownThreshold = 1 },
		"workers":           func(c *config.Config) { c.Analysis.Workers = 0 },
		"stride":            func(c *config.Config) { c.Analysis.VideoStride = -3 },
		"labels dir nested": func(c *config.Config) { c.Analysis.LabelsDir = "a/b" },
		"ext separator":     func(c *config.Config) { c.Analysis.LabelExt = "a/txt" },
		"ffprobe timeout":   func(c *config.Config) { c.FFprobe.TimeoutSeconds = 0 },
		"log level":         func(c *config.Config) { c.Logging.Level = "verbose" },
		"results dir":       func(c *config.Config) { c.Paths.ResultsDir = "" },
		"roster date":       func(c *config.Config) { c.Salesmen = config.Roster{"Harbor": {"May 1": "Alice"}} },
		"roster name":       func(c *config.Config) { c.Salesmen = config.Roster{"Harbor": {"2024-05-01": " "}} },
		"roster duplicate":  func(c *config.Config) { c.Salesmen = config.Roster{"Harbor": {}, "harbor": {}} },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadSalesmenRoster(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "salescope.toml")
	contents := "[salesmen.Harbor]\n\"2024-05-01\" = \"Alice\"\n\"2024-05-02\" = \"Bruno\"\n"
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	cases := []struct {
		shop, date, want string
	}{
		{"Harbor", "2024-05-01", "Alice"},
		{"harbor", "2024-05-02", "Bruno"},
		{"Harbor", "2024-05-03", config.UnknownSalesman},
		{"Mall", "2024-05-01", config.UnknownSalesman},
		{"Harbor", "", config.UnknownSalesman},
	}
	for _, tc := range cases {
		if got := cfg.Salesmen.Lookup(tc.shop, tc.date); got != tc.want {
			t.Fatalf("Lookup(%q, %q) = %q, want %q", tc.shop, tc.date, got, tc.want)
		}
	}
}

func TestNilRosterFallsBackToUnknown(t *testing.T) {
	var roster config.Roster
	if got := roster.Lookup("Harbor", "2024-05-01"); got != config.UnknownSalesman {
		t.Fatalf("expected %q, got %q", config.UnknownSalesman, got)
	}
}
