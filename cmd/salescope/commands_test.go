package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"salescope/internal/config"
	"salescope/internal/consolidate"
	"salescope/internal/testsupport"
)

// Fragments 4 and 7 are disjoint halves of the salesman; 9 overlaps 4.
var fragmentedFrames = map[int]string{
	1: "0 0.5 0.5 0.2 0.2 4\n",
	2: "0 0.5 0.5 0.2 0.2 4\n0 0.5 0.5 0.4 0.4 9\n",
	3: "0 0.5 0.5 0.2 0.2 4\n0 0.5 0.5 0.4 0.4 9\n",
	4: "0 0.5 0.5 0.2 0.2 7\n",
	5: "0 0.5 0.5 0.2 0.2 7\n",
	6: "0 0.5 0.5 0.2 0.2 7\n",
}

type analyzeOutput struct {
	RunID  string `json:"run_id"`
	Failed int    `json:"failed"`
	Videos []struct {
		Shop         string             `json:"shop"`
		Date         string             `json:"date"`
		Video        string             `json:"video"`
		Metrics      map[string]float64 `json:"metrics"`
		Consolidated []string           `json:"consolidated"`
		Error        string             `json:"error"`
	} `json:"videos"`
}

func TestAnalyzeDiscoversAndPersists(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewResultDir(t, env.cfg, "Harbor", "2024-05-01_cam1.mp4", fragmentedFrames)

	out, _, err := runCLI(t, []string{"analyze", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var got analyzeOutput
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode analyze output: %v\n%s", err, out)
	}
	if got.RunID == "" || got.Failed != 0 || len(got.Videos) != 1 {
		t.Fatalf("unexpected batch: %+v", got)
	}
	video := got.Videos[0]
	if video.Shop != "Harbor" || video.Date != "2024-05-01" {
		t.Fatalf("unexpected metadata: %+v", video)
	}
	wantMetrics := map[string]float64{
		"area_metric":         1,
		"speed_metric":        0,
		"interaction_metric":  1,
		"salesman_attendance": 1,
	}
	if diff := cmp.Diff(wantMetrics, video.Metrics); diff != "" {
		t.Fatalf("unexpected metrics (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"4", "7"}, video.Consolidated); diff != "" {
		t.Fatalf("unexpected fragments (-want +got):\n%s", diff)
	}

	out, _, err = runCLI(t, []string{"results", "--shop", "harbor", "--run", got.RunID}, env.configPath)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	requireContains(t, out, "2024-05-01_cam1.mp4")
	requireContains(t, out, "ok (subject 4,7)")
}

func TestResultsShowSalesman(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Salesmen = config.Roster{"Harbor": {"2024-05-01": "Alice"}}
	writeTestConfig(t, env.configPath, env.cfg)
	testsupport.NewResultDir(t, env.cfg, "Harbor", "2024-05-01_cam1.mp4", fragmentedFrames)
	testsupport.NewResultDir(t, env.cfg, "Harbor", "2024-05-02_cam1.mp4", fragmentedFrames)

	if _, _, err := runCLI(t, []string{"analyze"}, env.configPath); err != nil {
		t.Fatalf("analyze: %v", err)
	}

	out, _, err := runCLI(t, []string{"results"}, env.configPath)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	requireContains(t, out, "SALESMAN")
	requireContains(t, out, "Alice")
	requireContains(t, out, config.UnknownSalesman)

	out, _, err = runCLI(t, []string{"results", "--salesman", "alice", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	var rows []struct {
		Video    string `json:"video"`
		Salesman string `json:"salesman"`
	}
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(rows) != 1 || rows[0].Video != "2024-05-01_cam1.mp4" || rows[0].Salesman != "Alice" {
		t.Fatalf("unexpected salesman rows: %+v", rows)
	}
}

func TestAnalyzeReportsFailedVideos(t *testing.T) {
	env := setupCLITestEnv(t)
	good := testsupport.NewResultDir(t, env.cfg, "Harbor", "2024-05-01_cam1.mp4", fragmentedFrames)
	broken := testsupport.NewResultDir(t, env.cfg, "Harbor", "2024-05-02_cam1.mp4", fragmentedFrames)
	if err := os.Remove(filepath.Join(broken, env.cfg.Analysis.VideoName)); err != nil {
		t.Fatalf("remove video: %v", err)
	}

	out, _, err := runCLI(t, []string{"analyze", good, broken}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "1 of 2 videos failed") {
		t.Fatalf("expected failure summary, got %v", err)
	}
	requireContains(t, out, "1 failed")

	out, _, err = runCLI(t, []string{"results", "--failed", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	var rows []struct {
		Video string `json:"video"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode results: %v", err)
	}
	if len(rows) != 1 || rows[0].Video != "2024-05-02_cam1.mp4" || !strings.Contains(rows[0].Error, "video dimensions unavailable") {
		t.Fatalf("unexpected failed rows: %+v", rows)
	}

	label, err := os.ReadFile(filepath.Join(broken, "labels", "frame_1.txt"))
	if err != nil {
		t.Fatalf("read label: %v", err)
	}
	if string(label) != fragmentedFrames[1] {
		t.Fatalf("failed video must not be consolidated, got %q", label)
	}

	out, _, err = runCLI(t, []string{"logs", "--level", "error", "--video", "2024-05-02_cam1.mp4"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "video analysis failed")
	if strings.Contains(out, "2024-05-01_cam1.mp4") {
		t.Fatalf("logs filter leaked other videos:\n%s", out)
	}
}

func TestAnalyzeNoSave(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.NewResultDir(t, env.cfg, "Harbor", "2024-05-01_cam1.mp4", fragmentedFrames)

	if _, _, err := runCLI(t, []string{"analyze", "--no-save", "--dry-run"}, env.configPath); err != nil {
		t.Fatalf("analyze: %v", err)
	}
	out, _, err := runCLI(t, []string{"results"}, env.configPath)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	requireContains(t, out, "No results recorded")
}

func TestAnalyzeEmptyResultsTree(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"analyze"}, env.configPath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	requireContains(t, out, "No result directories found")
}

func TestConsolidateCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := testsupport.NewResultDir(t, env.cfg, "Harbor", "2024-05-01_cam1.mp4", fragmentedFrames)
	labels := filepath.Join(dir, env.cfg.Analysis.LabelsDir)

	out, _, err := runCLI(t, []string{"consolidate", "--dry-run", labels}, env.configPath)
	if err != nil {
		t.Fatalf("consolidate --dry-run: %v", err)
	}
	requireContains(t, out, "4, 7")
	requireContains(t, out, "Dry run")

	out, _, err = runCLI(t, []string{"consolidate", "--json", "--no-backup", labels}, env.configPath)
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	var result consolidate.Result
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.FilesRewritten != 6 || result.LinesRewritten != 6 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if _, err := os.Stat(filepath.Join(labels, "frame_1.txt"+consolidate.BackupSuffix)); !os.IsNotExist(err) {
		t.Fatalf("--no-backup should skip backups, stat err=%v", err)
	}
}

func TestResultsRejectsBadDate(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"results", "--date", "May 1"}, env.configPath); err == nil {
		t.Fatal("expected invalid date error")
	}
	if _, _, err := runCLI(t, []string{"results", "--failed", "--ok"}, env.configPath); err == nil {
		t.Fatal("expected mutually exclusive flag error")
	}
}

func TestStatusCommand(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[OK] Ready")
	requireContains(t, out, "Consolidation:")
	requireContains(t, out, "Runs:")
}

func TestStatusFailsWithoutFFprobe(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.FFprobe.Binary = filepath.Join(env.baseDir, "missing-ffprobe")
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "missing dependencies") {
		t.Fatalf("expected missing dependency error, got %v", err)
	}
	requireContains(t, out, "[ERROR]")
}

func TestConfigInitValidateShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, "slowdown_threshold = 0.5")
	requireContains(t, out, env.cfg.Paths.ResultsDir)
}

func TestLogLevelOverrideIsValidated(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"--log-level", "loud", "results"}, env.configPath); err == nil {
		t.Fatal("expected invalid log level error")
	}
}
