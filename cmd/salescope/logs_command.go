package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"salescope/internal/logging"
	"salescope/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		level  string
		runID  string
		shop   string
		video  string
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the salescope log",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			path := filepath.Join(cfg.Paths.LogDir, logging.LogFileName)
			filter := logs.Filter{MinLevel: level, Contains: []string{runID, shop, video}}

			out := cmd.OutOrStdout()
			recent, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, logs.DefaultPoll, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&runID, "run", "", "Only lines of this run id")
	cmd.Flags().StringVar(&shop, "shop", "", "Only lines mentioning this shop")
	cmd.Flags().StringVar(&video, "video", "", "Only lines mentioning this video")
	return cmd
}
