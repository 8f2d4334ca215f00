package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"salescope/internal/analysis"
	"salescope/internal/config"
	"salescope/internal/logging"
	"salescope/internal/store"
)

type analyzeFlags struct {
	dryRun        bool
	noConsolidate bool
	noBackup      bool
	workers       int
	noSave        bool
	jsonOut       bool
}

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var flags analyzeFlags

	cmd := &cobra.Command{
		Use:   "analyze [result-dir...]",
		Short: "Compute metrics for tracker result directories",
		Long: `Compute the area, speed, interaction and attendance metrics for each
result directory. Without arguments every <shop>/<video> directory under the
configured results_dir is analyzed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			jobs, err := resolveJobs(cfg, args)
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No result directories found under %s\n", cfg.Paths.ResultsDir)
				return nil
			}

			opts := analysis.OptionsFromConfig(cfg)
			if flags.noConsolidate {
				opts.Consolidate = false
				opts.InPlace = false
			}
			if flags.dryRun {
				opts.InPlace = false
			}
			if flags.noBackup {
				opts.Backup = false
			}
			if flags.workers > 0 {
				opts.Workers = flags.workers
			}

			analyzer := analysis.New(opts, analysis.NewFFprobe(cfg), logger)
			batch := analyzer.AnalyzeBatch(cmd.Context(), jobs)

			if !flags.noSave {
				if err := saveBatch(cmd.Context(), ctx, cfg, opts, batch); err != nil {
					logging.WarnWithContext(logger, "results not saved", "store_save_failed",
						logging.Error(err),
						logging.String(logging.FieldImpact, "metrics are printed but not persisted"),
					)
				}
			}

			if flags.jsonOut {
				if err := writeJSON(cmd, batchJSON(batch)); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), renderBatch(batch))
			}

			if err := cmd.Context().Err(); err != nil {
				return err
			}
			if failed := batch.FailedCount(); failed > 0 {
				return fmt.Errorf("%d of %d videos failed", failed, len(batch.Reports))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "Report subject fragments without rewriting label files")
	cmd.Flags().BoolVar(&flags.noConsolidate, "no-consolidate", false, "Skip track consolidation")
	cmd.Flags().BoolVar(&flags.noBackup, "no-backup", false, "Do not keep .bak copies of rewritten label files")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Videos analyzed concurrently (default from config)")
	cmd.Flags().BoolVar(&flags.noSave, "no-save", false, "Do not record results in the database")
	cmd.Flags().BoolVar(&flags.jsonOut, "json", false, "Output as JSON")
	return cmd
}

func resolveJobs(cfg *config.Config, args []string) ([]analysis.Job, error) {
	if len(args) == 0 {
		return analysis.Discover(cfg.Paths.ResultsDir, cfg.Analysis.LabelsDir)
	}
	jobs := make([]analysis.Job, 0, len(args))
	for _, arg := range args {
		dir, err := config.ExpandPath(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", arg, err)
		}
		job, err := analysis.JobFromDir(dir)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func saveBatch(ctx context.Context, cmdCtx *commandContext, cfg *config.Config, opts analysis.Options, batch analysis.Batch) error {
	st, err := cmdCtx.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	run := store.Run{
		ID:                batch.RunID,
		StartedAt:         batch.StartedAt,
		FinishedAt:        batch.FinishedAt,
		Videos:            len(batch.Reports),
		Failed:            batch.FailedCount(),
		SlowdownThreshold: cfg.Analysis.SlowdownThreshold,
		Consolidated:      opts.Consolidate && opts.InPlace,
	}
	results := make([]store.VideoResult, 0, len(batch.Reports))
	for _, report := range batch.Reports {
		results = append(results, videoResultFromReport(report))
	}
	// Persist even when the run was interrupted.
	return st.SaveRun(context.WithoutCancel(ctx), run, results)
}

func videoResultFromReport(report analysis.Report) store.VideoResult {
	result := store.VideoResult{
		RunID:       report.RunID,
		Shop:        report.Job.Shop,
		ShopKey:     report.Job.ShopKey,
		Date:        report.Job.Date,
		Salesman:    report.Salesman,
		Video:       report.Job.Video,
		ResultDir:   report.Job.Dir,
		Width:       report.Dimensions.Width,
		Height:      report.Dimensions.Height,
		VideoStride: report.VideoStride,
		Frames:      report.Frames,
		Tracks:      report.Tracks,
		Metrics:     report.Results,
	}
	for _, id := range report.Consolidated() {
		result.Consolidated = append(result.Consolidated, id.String())
	}
	if report.Err != nil {
		result.Error = report.Err.Error()
	}
	return result
}

type reportJSON struct {
	Shop          string         `json:"shop"`
	Date          string         `json:"date,omitempty"`
	Salesman      string         `json:"salesman"`
	Video         string         `json:"video"`
	Dir           string         `json:"dir"`
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	VideoStride   int            `json:"video_stride"`
	Frames        int            `json:"frames"`
	Tracks        int            `json:"tracks"`
	Metrics       map[string]any `json:"metrics,omitempty"`
	Consolidated  []string       `json:"consolidated,omitempty"`
	LinesDropped  int            `json:"lines_dropped"`
	FilesSkipped  int            `json:"files_skipped"`
	ElapsedMillis int64          `json:"elapsed_ms"`
	Error         string         `json:"error,omitempty"`
}

type batchOutput struct {
	RunID      string       `json:"run_id"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
	Failed     int          `json:"failed"`
	Videos     []reportJSON `json:"videos"`
}

func batchJSON(batch analysis.Batch) batchOutput {
	out := batchOutput{
		RunID:      batch.RunID,
		StartedAt:  batch.StartedAt,
		FinishedAt: batch.FinishedAt,
		Failed:     batch.FailedCount(),
		Videos:     make([]reportJSON, 0, len(batch.Reports)),
	}
	for _, report := range batch.Reports {
		stored := videoResultFromReport(report)
		entry := reportJSON{
			Shop:          stored.Shop,
			Date:          stored.Date,
			Salesman:      stored.Salesman,
			Video:         stored.Video,
			Dir:           stored.ResultDir,
			Width:         stored.Width,
			Height:        stored.Height,
			VideoStride:   stored.VideoStride,
			Frames:        stored.Frames,
			Tracks:        stored.Tracks,
			Consolidated:  stored.Consolidated,
			LinesDropped:  report.Stats.LinesDropped,
			FilesSkipped:  report.Stats.FilesSkipped,
			ElapsedMillis: report.Elapsed.Milliseconds(),
			Error:         stored.Error,
		}
		if !report.Failed() {
			entry.Metrics = report.Results.AsMap()
		}
		out.Videos = append(out.Videos, entry)
	}
	return out
}
