package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"salescope/internal/config"
	"salescope/internal/consolidate"
	"salescope/internal/detection"
	"salescope/internal/logging"
	"salescope/internal/metrics"
	"salescope/internal/preflight"
	"salescope/internal/trackindex"
)

// ErrLabelsNotWritable reports that in-place consolidation was requested for
// a labels directory the process cannot modify.
var ErrLabelsNotWritable = errors.New("labels directory is not writable")

// Options controls how each video is analyzed.
type Options struct {
	LabelsDir   string
	LabelExt    string
	VideoName   string
	Consolidate bool
	InPlace     bool
	Backup      bool
	Metrics     metrics.Options
	Workers     int
	VideoStride int
	// Salesmen attributes each video to the salesman on duty.
	Salesmen config.Roster
}

// OptionsFromConfig maps the [analysis], [consolidation] and [salesmen] sections.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		LabelsDir:   cfg.Analysis.LabelsDir,
		LabelExt:    cfg.Analysis.LabelExt,
		VideoName:   cfg.Analysis.VideoName,
		Consolidate: cfg.Consolidation.Enabled,
		InPlace:     cfg.Consolidation.Enabled && cfg.Consolidation.InPlace,
		Backup:      cfg.Consolidation.Backup,
		Metrics:     metrics.Options{SlowdownThreshold: cfg.Analysis.SlowdownThreshold},
		Workers:     cfg.Analysis.Workers,
		VideoStride: cfg.Analysis.VideoStride,
		Salesmen:    cfg.Salesmen,
	}
}

// Report is the outcome of analyzing one video. Err is set when the video
// could not be analyzed; the other fields then hold whatever was known.
type Report struct {
	RunID         string
	Job           Job
	Salesman      string
	Dimensions    detection.Dimensions
	VideoStride   int
	Results       metrics.Results
	Consolidation *consolidate.Result
	Stats         detection.Stats
	Frames        int
	Tracks        int
	Elapsed       time.Duration
	Err           error
}

// Consolidated returns the accepted subject fragments, if consolidation ran.
func (r Report) Consolidated() []detection.TrackID {
	if r.Consolidation == nil {
		return nil
	}
	return r.Consolidation.Accepted
}

// Failed reports whether the video could not be analyzed.
func (r Report) Failed() bool { return r.Err != nil }

// Batch groups the reports of one AnalyzeBatch call. Reports keep job order.
type Batch struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Reports    []Report
}

// FailedCount returns how many videos failed.
func (b Batch) FailedCount() int {
	n := 0
	for _, r := range b.Reports {
		if r.Failed() {
			n++
		}
	}
	return n
}

// Analyzer runs the per-video pipeline.
type Analyzer struct {
	opts   Options
	prober Prober
	logger *slog.Logger
}

// New constructs an Analyzer. A nil logger discards output.
func New(opts Options, prober Prober, logger *slog.Logger) *Analyzer {
	if opts.LabelExt == "" {
		opts.LabelExt = detection.DefaultExt
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Analyzer{
		opts:   opts,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "analysis"),
	}
}

// Analyze processes one result directory. Dimensions are probed before any
// label file is rewritten so a missing video never leaves a half-done job.
func (a *Analyzer) Analyze(ctx context.Context, job Job) Report {
	started := time.Now()
	ctx = logging.WithVideo(logging.WithShop(ctx, job.Shop), job.Video)
	logger := logging.WithContext(ctx, a.logger)

	report := Report{
		Job:         job,
		Salesman:    a.opts.Salesmen.Lookup(job.Shop, job.Date),
		VideoStride: a.opts.VideoStride,
	}
	finish := func(err error) Report {
		report.Elapsed = time.Since(started)
		report.Err = err
		if err != nil {
			logging.ErrorWithContext(logger, "video analysis failed", "analysis_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, hintFor(err)),
			)
		}
		return report
	}

	labelsDir := filepath.Join(job.Dir, a.opts.LabelsDir)
	dims, err := a.prober.Dimensions(ctx, filepath.Join(job.Dir, a.opts.VideoName))
	if err != nil {
		return finish(err)
	}
	report.Dimensions = dims

	var (
		records []detection.Record
		stats   detection.Stats
	)
	if a.opts.Consolidate {
		if a.opts.InPlace {
			if check := preflight.CheckDirectoryAccess("labels", labelsDir); !check.Passed {
				return finish(fmt.Errorf("%w: %s", ErrLabelsNotWritable, check.Detail))
			}
		}
		result, err := consolidate.Run(ctx, labelsDir, consolidate.Options{
			InPlace: a.opts.InPlace,
			Backup:  a.opts.Backup,
			Ext:     a.opts.LabelExt,
			Logger:  logger,
		})
		if err != nil {
			return finish(fmt.Errorf("consolidate tracks: %w", err))
		}
		report.Consolidation = &result
		records, stats = result.Records, result.Stats
		report.Stats = stats
	} else {
		parser := detection.NewParser(a.opts.LabelExt, logger)
		files, err := parser.ListFiles(labelsDir)
		if err != nil {
			return finish(err)
		}
		records, stats, err = parser.ParseFiles(files)
		report.Stats = stats
		if err != nil {
			return finish(err)
		}
	}

	idx, err := trackindex.Build(records, dims)
	if err != nil {
		return finish(err)
	}
	report.Frames = idx.FrameCount()
	report.Tracks = len(idx.TrackIDs())

	results, err := metrics.ComputeAll(ctx, idx, a.opts.Metrics)
	if err != nil {
		return finish(err)
	}
	report.Results = results

	logger.Info("video analyzed",
		logging.String("dimensions", dims.String()),
		logging.Int("frames", report.Frames),
		logging.Int("tracks", report.Tracks),
		logging.Int("lines_dropped", stats.LinesDropped),
		logging.Int(metrics.Area.Name(), results.Area),
		logging.Int(metrics.SpeedReduction.Name(), results.Speed),
		logging.Int(metrics.Interaction.Name(), results.Interaction),
		logging.Float64(metrics.Attendance.Name(), results.Attendance),
	)
	return finish(nil)
}

// AnalyzeBatch analyzes jobs over a bounded worker pool under a fresh run id.
// Jobs not started before ctx is cancelled are reported with ctx's error.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, jobs []Job) Batch {
	batch := Batch{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Reports:   make([]Report, len(jobs)),
	}
	ctx = logging.WithRunID(ctx, batch.RunID)
	logger := logging.WithContext(ctx, a.logger)
	logger.Info("analysis run started",
		logging.Int("videos", len(jobs)),
		logging.Int("workers", a.opts.Workers),
	)

	work := make(chan int)
	var wg sync.WaitGroup
	workers := min(a.opts.Workers, len(jobs))
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				batch.Reports[i] = a.Analyze(ctx, jobs[i])
			}
		}()
	}

	next := 0
dispatch:
	for ; next < len(jobs); next++ {
		select {
		case work <- next:
		case <-ctx.Done():
			break dispatch
		}
	}
	close(work)
	wg.Wait()

	for i := next; i < len(jobs); i++ {
		batch.Reports[i] = Report{Job: jobs[i], VideoStride: a.opts.VideoStride, Err: ctx.Err()}
	}
	for i := range batch.Reports {
		batch.Reports[i].RunID = batch.RunID
	}
	batch.FinishedAt = time.Now().UTC()

	attrs := []logging.Attr{
		logging.Int("videos", len(jobs)),
		logging.Int("failed", batch.FailedCount()),
		logging.Duration("elapsed", batch.FinishedAt.Sub(batch.StartedAt)),
	}
	if batch.FailedCount() > 0 {
		attrs = append(attrs, logging.Alert("failed_videos"))
	}
	logger.Info("analysis run finished", logging.Args(attrs...)...)
	return batch
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, detection.ErrDimensionsUnavailable):
		return "check that the video file exists and ffprobe can read it"
	case errors.Is(err, ErrLabelsNotWritable):
		return "fix directory permissions or disable consolidation.in_place"
	case errors.Is(err, consolidate.ErrLocked):
		return "another salescope process is consolidating this video; retry when it finishes"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "the run was interrupted; rerun analyze for this video"
	default:
		return "check logs for details"
	}
}
