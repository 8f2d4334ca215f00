package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"salescope/internal/analysis"
	"salescope/internal/metrics"
	"salescope/internal/store"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var (
		filter     store.Filter
		failedOnly bool
		okOnly     bool
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List recorded video metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if failedOnly && okOnly {
				return errors.New("--failed and --ok are mutually exclusive")
			}
			if date := strings.TrimSpace(filter.Date); date != "" && analysis.ParseDate(date) != date {
				return fmt.Errorf("invalid --date %q (want YYYY-MM-DD)", date)
			}
			switch {
			case failedOnly:
				failed := true
				filter.Failed = &failed
			case okOnly:
				failed := false
				filter.Failed = &failed
			}

			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			results, err := st.List(cmd.Context(), filter)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, resultsJSON(results))
			}
			if len(results) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No results recorded")
				return nil
			}
			fmt.Fprint(cmd.OutOrStdout(), renderResults(results))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Shop, "shop", "", "Only show this shop")
	cmd.Flags().StringVar(&filter.Date, "date", "", "Only show videos recorded on this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&filter.Salesman, "salesman", "", "Only show videos attributed to this salesman")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show results of this run id")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 50, "Maximum rows (0 for all)")
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Only show failed videos")
	cmd.Flags().BoolVar(&okOnly, "ok", false, "Only show analyzed videos")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

type resultJSON struct {
	RunID        string           `json:"run_id"`
	Shop         string           `json:"shop"`
	Date         string           `json:"date,omitempty"`
	Salesman     string           `json:"salesman"`
	Video        string           `json:"video"`
	Dir          string           `json:"dir"`
	Width        int              `json:"width,omitempty"`
	Height       int              `json:"height,omitempty"`
	VideoStride  int              `json:"video_stride"`
	Frames       int              `json:"frames"`
	Tracks       int              `json:"tracks"`
	Metrics      *metrics.Results `json:"metrics,omitempty"`
	Consolidated []string         `json:"consolidated,omitempty"`
	Error        string           `json:"error,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

func resultsJSON(results []store.VideoResult) []resultJSON {
	out := make([]resultJSON, 0, len(results))
	for _, r := range results {
		entry := resultJSON{
			RunID:        r.RunID,
			Shop:         r.Shop,
			Date:         r.Date,
			Salesman:     r.Salesman,
			Video:        r.Video,
			Dir:          r.ResultDir,
			Width:        r.Width,
			Height:       r.Height,
			VideoStride:  r.VideoStride,
			Frames:       r.Frames,
			Tracks:       r.Tracks,
			Consolidated: r.Consolidated,
			Error:        r.Error,
			CreatedAt:    r.CreatedAt,
		}
		if !r.Failed() {
			m := r.Metrics
			entry.Metrics = &m
		}
		out = append(out, entry)
	}
	return out
}
