package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"salescope/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The results directory exists; the log directory and database are created on demand.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.ResultsDir = filepath.Join(base, "results")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.Database = filepath.Join(base, "db", "salescope.db")
	cfgVal.Analysis.Workers = 2
	if err := os.MkdirAll(cfgVal.Paths.ResultsDir, 0o755); err != nil {
		t.Fatalf("mkdir results dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithInPlaceConsolidation enables label rewriting for the test config.
func WithInPlaceConsolidation() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Consolidation.Enabled = true
		b.cfg.Consolidation.InPlace = true
	}
}

// WithStubbedFFprobe writes an ffprobe stand-in that reports a single video
// stream of the given size and points the config at it.
func WithStubbedFFprobe(width, height int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.FFprobe.Binary = StubFFprobe(b.t, filepath.Join(b.baseDir, "bin"), width, height)
	}
}

// StubFFprobe writes an executable ffprobe stand-in into dir and returns its path.
func StubFFprobe(t testing.TB, dir string, width, height int) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir bin dir: %v", err)
	}
	payload := fmt.Sprintf(`{"streams":[{"index":0,"codec_type":"video","codec_name":"h264","width":%d,"height":%d}],"format":{"filename":"stub","nb_streams":1,"duration":"10.0"}}`, width, height)
	script := "#!/bin/sh\ncat <<'EOF'\n" + payload + "\nEOF\n"
	target := filepath.Join(dir, "ffprobe")
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}
	return target
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.ResultsDir)
}
