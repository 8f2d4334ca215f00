package analysis_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"salescope/internal/analysis"
	"salescope/internal/config"
	"salescope/internal/detection"
	"salescope/internal/metrics"
	"salescope/internal/testsupport"
)

type fakeProber struct {
	dims     detection.Dimensions
	failures map[string]error
}

func (p *fakeProber) Dimensions(ctx context.Context, videoPath string) (detection.Dimensions, error) {
	if err := ctx.Err(); err != nil {
		return detection.Dimensions{}, err
	}
	for fragment, err := range p.failures {
		if strings.Contains(videoPath, fragment) {
			return detection.Dimensions{}, err
		}
	}
	return p.dims, nil
}

// Subject fragments 4 (frames 1-3) and 7 (frames 4-6) are disjoint; track 9
// overlaps fragment 4 in frames 2-3 with a larger box.
var fragmentedFrames = map[int]string{
	1: "0 0.5 0.5 0.2 0.2 4\n",
	2: "0 0.5 0.5 0.2 0.2 4\n0 0.5 0.5 0.4 0.4 9\n",
	3: "0 0.5 0.5 0.2 0.2 4\n0 0.5 0.5 0.4 0.4 9\nbroken\n",
	4: "0 0.5 0.5 0.2 0.2 7\n",
	5: "0 0.5 0.5 0.2 0.2 7\n",
	6: "0 0.5 0.5 0.2 0.2 7\n",
}

func newAnalyzer(cfg *config.Config, prober analysis.Prober) *analysis.Analyzer {
	return analysis.New(analysis.OptionsFromConfig(cfg), prober, nil)
}

func mustJob(t *testing.T, dir string) analysis.Job {
	t.Helper()
	job, err := analysis.JobFromDir(dir)
	if err != nil {
		t.Fatalf("JobFromDir: %v", err)
	}
	return job
}

func TestAnalyzeConsolidatesInPlace(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInPlaceConsolidation())
	dir := testsupport.NewResultDir(t, cfg, "Harbor", "2024-05-01_cam1.mp4", fragmentedFrames)
	prober := &fakeProber{dims: detection.Dimensions{Width: 100, Height: 100}}

	report := newAnalyzer(cfg, prober).Analyze(context.Background(), mustJob(t, dir))
	if report.Err != nil {
		t.Fatalf("Analyze: %v", report.Err)
	}

	want := metrics.Results{Area: 1, Speed: 0, Interaction: 1, Attendance: 1}
	if diff := cmp.Diff(want, report.Results); diff != "" {
		t.Fatalf("unexpected metrics (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]detection.TrackID{detection.IntTrack(4), detection.IntTrack(7)}, report.Consolidated()); diff != "" {
		t.Fatalf("unexpected consolidation (-want +got):\n%s", diff)
	}
	if report.Frames != 6 || report.Tracks != 2 {
		t.Fatalf("unexpected index size: frames=%d tracks=%d", report.Frames, report.Tracks)
	}
	if report.Stats.LinesDropped != 1 {
		t.Fatalf("expected the broken line to be dropped, got %+v", report.Stats)
	}
	if report.VideoStride != cfg.Analysis.VideoStride {
		t.Fatalf("video stride not recorded: %d", report.VideoStride)
	}

	label, err := os.ReadFile(filepath.Join(dir, "labels", "frame_5.txt"))
	if err != nil {
		t.Fatalf("read label: %v", err)
	}
	if string(label) != "0 0.5 0.5 0.2 0.2 -1\n" {
		t.Fatalf("expected rewritten label, got %q", label)
	}
}

func TestAnalyzeParsesLabelsOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInPlaceConsolidation())
	dir := testsupport.NewResultDir(t, cfg, "Harbor", "2024-05-01_cam1.mp4", fragmentedFrames)
	if err := os.WriteFile(filepath.Join(dir, "labels", "notes.txt"), []byte("0 0.5 0.5 0.2 0.2 4\n"), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	prober := &fakeProber{dims: detection.Dimensions{Width: 100, Height: 100}}

	report := analysis.New(analysis.OptionsFromConfig(cfg), prober, logger).Analyze(context.Background(), mustJob(t, dir))
	if report.Err != nil {
		t.Fatalf("Analyze: %v", report.Err)
	}
	if got := strings.Count(buf.String(), `"frame_index_unparsed"`); got != 1 {
		t.Fatalf("expected one frame_index_unparsed warning, got %d:\n%s", got, buf.String())
	}
	if report.Stats.FilesSkipped != 1 || report.Stats.LinesDropped != 1 {
		t.Fatalf("unexpected parse stats: %+v", report.Stats)
	}
	if report.Tracks != 2 {
		t.Fatalf("expected relabelled records to feed the index, got %d tracks", report.Tracks)
	}
}

func TestAnalyzeAttributesSalesman(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Salesmen = config.Roster{"harbor": {"2024-05-01": "Alice"}}
	prober := &fakeProber{dims: detection.Dimensions{Width: 100, Height: 100}}
	analyzer := newAnalyzer(cfg, prober)

	rostered := testsupport.NewResultDir(t, cfg, "Harbor", "2024-05-01_cam1.mp4", fragmentedFrames)
	if got := analyzer.Analyze(context.Background(), mustJob(t, rostered)).Salesman; got != "Alice" {
		t.Fatalf("expected Alice, got %q", got)
	}
	offDuty := testsupport.NewResultDir(t, cfg, "Harbor", "2024-05-02_cam1.mp4", fragmentedFrames)
	if got := analyzer.Analyze(context.Background(), mustJob(t, offDuty)).Salesman; got != config.UnknownSalesman {
		t.Fatalf("expected fallback salesman, got %q", got)
	}
}

func TestAnalyzeDryRunLeavesLabels(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Consolidation.InPlace = false
	dir := testsupport.NewResultDir(t, cfg, "Harbor", "2024-05-01_cam1.mp4", fragmentedFrames)
	prober := &fakeProber{dims: detection.Dimensions{Width: 100, Height: 100}}

	report := newAnalyzer(cfg, prober).Analyze(context.Background(), mustJob(t, dir))
	if report.Err != nil {
		t.Fatalf("Analyze: %v", report.Err)
	}
	if len(report.Consolidated()) != 2 {
		t.Fatalf("expected accepted fragments to be reported, got %v", report.Consolidated())
	}
	if report.Results != (metrics.Results{}) {
		t.Fatalf("subject absent without rewrite, expected zero metrics, got %+v", report.Results)
	}

	label, err := os.ReadFile(filepath.Join(dir, "labels", "frame_5.txt"))
	if err != nil {
		t.Fatalf("read label: %v", err)
	}
	if string(label) != fragmentedFrames[5] {
		t.Fatalf("dry run modified label: %q", label)
	}
}

func TestAnalyzeDimensionsUnavailableSkipsRewrite(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInPlaceConsolidation())
	dir := testsupport.NewResultDir(t, cfg, "Harbor", "cam1.mp4", fragmentedFrames)
	prober := &fakeProber{failures: map[string]error{
		"cam1.mp4": detection.ErrDimensionsUnavailable,
	}}

	report := newAnalyzer(cfg, prober).Analyze(context.Background(), mustJob(t, dir))
	if !errors.Is(report.Err, detection.ErrDimensionsUnavailable) {
		t.Fatalf("expected ErrDimensionsUnavailable, got %v", report.Err)
	}
	if report.Consolidation != nil {
		t.Fatal("consolidation must not run before dimensions are known")
	}
	label, err := os.ReadFile(filepath.Join(dir, "labels", "frame_1.txt"))
	if err != nil {
		t.Fatalf("read label: %v", err)
	}
	if string(label) != fragmentedFrames[1] {
		t.Fatalf("label rewritten despite probe failure: %q", label)
	}
}

func TestAnalyzeWithFFprobeStub(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedFFprobe(100, 100), testsupport.WithInPlaceConsolidation())
	dir := testsupport.NewResultDir(t, cfg, "Mall", "2024-06-02_cam3.mp4", fragmentedFrames)

	report := newAnalyzer(cfg, analysis.NewFFprobe(cfg)).Analyze(context.Background(), mustJob(t, dir))
	if report.Err != nil {
		t.Fatalf("Analyze: %v", report.Err)
	}
	if report.Dimensions != (detection.Dimensions{Width: 100, Height: 100}) {
		t.Fatalf("unexpected dimensions: %v", report.Dimensions)
	}
	if report.Results.Attendance != 1 {
		t.Fatalf("unexpected attendance: %v", report.Results.Attendance)
	}
}

func TestFFprobeDimensionsFailures(t *testing.T) {
	base := t.TempDir()
	video := filepath.Join(base, "clip.mp4")
	if err := os.WriteFile(video, []byte{0x1}, 0o644); err != nil {
		t.Fatal(err)
	}

	cases := map[string]struct {
		prober analysis.FFprobe
		path   string
	}{
		"missing video": {analysis.FFprobe{Binary: testsupport.StubFFprobe(t, filepath.Join(base, "ok"), 640, 360)}, filepath.Join(base, "absent.mp4")},
		"zero size":     {analysis.FFprobe{Binary: testsupport.StubFFprobe(t, filepath.Join(base, "zero"), 0, 0)}, video},
		"no binary":     {analysis.FFprobe{Binary: filepath.Join(base, "nope")}, video},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := tc.prober.Dimensions(context.Background(), tc.path); !errors.Is(err, detection.ErrDimensionsUnavailable) {
				t.Fatalf("expected ErrDimensionsUnavailable, got %v", err)
			}
		})
	}
}

func TestAnalyzeBatchRecordsFailuresPerVideo(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInPlaceConsolidation())
	var jobs []analysis.Job
	for _, video := range []string{"2024-05-01_a.mp4", "2024-05-01_broken.mp4", "2024-05-02_c.mp4"} {
		jobs = append(jobs, mustJob(t, testsupport.NewResultDir(t, cfg, "Harbor", video, fragmentedFrames)))
	}
	prober := &fakeProber{
		dims:     detection.Dimensions{Width: 100, Height: 100},
		failures: map[string]error{"broken": detection.ErrDimensionsUnavailable},
	}

	batch := newAnalyzer(cfg, prober).AnalyzeBatch(context.Background(), jobs)
	if _, err := uuid.Parse(batch.RunID); err != nil {
		t.Fatalf("run id is not a uuid: %q", batch.RunID)
	}
	if len(batch.Reports) != 3 || batch.FailedCount() != 1 {
		t.Fatalf("unexpected reports: %d failed=%d", len(batch.Reports), batch.FailedCount())
	}
	for i, report := range batch.Reports {
		if report.RunID != batch.RunID {
			t.Fatalf("report %d has run id %q", i, report.RunID)
		}
		if report.Job.Video != jobs[i].Video {
			t.Fatalf("report %d out of order: %s", i, report.Job.Video)
		}
	}
	if !batch.Reports[1].Failed() || batch.Reports[0].Failed() || batch.Reports[2].Failed() {
		t.Fatal("only the broken video should fail")
	}
	if batch.FinishedAt.Before(batch.StartedAt) {
		t.Fatal("finished before started")
	}
}

func TestAnalyzeBatchCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	jobs := []analysis.Job{
		mustJob(t, testsupport.NewResultDir(t, cfg, "Harbor", "a.mp4", fragmentedFrames)),
		mustJob(t, testsupport.NewResultDir(t, cfg, "Harbor", "b.mp4", fragmentedFrames)),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := newAnalyzer(cfg, &fakeProber{dims: detection.Dimensions{Width: 10, Height: 10}}).AnalyzeBatch(ctx, jobs)
	if batch.FailedCount() != len(jobs) {
		t.Fatalf("expected every job to fail after cancel, got %d", batch.FailedCount())
	}
	for _, report := range batch.Reports {
		if !errors.Is(report.Err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", report.Err)
		}
	}
}

func TestAnalyzeBatchEmpty(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	batch := newAnalyzer(cfg, &fakeProber{}).AnalyzeBatch(context.Background(), nil)
	if len(batch.Reports) != 0 || batch.RunID == "" {
		t.Fatalf("unexpected empty batch: %+v", batch)
	}
}
