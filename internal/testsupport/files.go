package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"salescope/internal/config"
)

// WriteLabels writes one label file per frame into dir using the tracker's
// "<stem>_<frame>.txt" naming.
func WriteLabels(t testing.TB, dir, stem string, frames map[int]string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for frame, content := range frames {
		path := filepath.Join(dir, fmt.Sprintf("%s_%d.txt", stem, frame))
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

// NewResultDir lays out <results>/<shop>/<video>/ with a placeholder video
// file and the given label frames, returning the result directory.
func NewResultDir(t testing.TB, cfg *config.Config, shop, video string, frames map[int]string) string {
	t.Helper()

	dir := cfg.ResultDir(shop, video)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, cfg.Analysis.VideoName), []byte{0x42}, 0o644); err != nil {
		t.Fatalf("write placeholder video: %v", err)
	}
	WriteLabels(t, filepath.Join(dir, cfg.Analysis.LabelsDir), "frame", frames)
	return dir
}
