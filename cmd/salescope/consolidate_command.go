package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"salescope/internal/config"
	"salescope/internal/consolidate"
	"salescope/internal/preflight"
)

func newConsolidateCommand(ctx *commandContext) *cobra.Command {
	var dryRun, noBackup, jsonOut bool

	cmd := &cobra.Command{
		Use:   "consolidate <labels-dir>",
		Short: "Merge salesman track fragments in a labels directory",
		Long: `Select the non-overlapping track fragments that make up the salesman and
relabel them with the subject id. With --dry-run the selection is only reported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			dir, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve labels directory: %w", err)
			}

			inPlace := !dryRun
			if inPlace {
				if check := preflight.CheckDirectoryAccess("labels", dir); !check.Passed {
					return fmt.Errorf("labels directory %s: %s", dir, check.Detail)
				}
			}

			result, err := consolidate.Run(cmd.Context(), dir, consolidate.Options{
				InPlace: inPlace,
				Backup:  cfg.Consolidation.Backup && !noBackup,
				Ext:     cfg.Analysis.LabelExt,
				Logger:  logger,
			})
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderConsolidation(result))
			if !inPlace {
				fmt.Fprintln(out, "Dry run: no label files were changed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report the selection without rewriting label files")
	cmd.Flags().BoolVar(&noBackup, "no-backup", false, "Do not keep .bak copies of rewritten label files")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func renderConsolidation(result consolidate.Result) string {
	accepted := make([]string, len(result.Accepted))
	for i, id := range result.Accepted {
		accepted[i] = id.String()
	}
	selection := strings.Join(accepted, ", ")
	if selection == "" {
		selection = "none"
	}
	spec := tableSpec{
		headers: []string{"Field", "Value"},
		rows: [][]string{
			{"Accepted tracks", selection},
			{"Label files", strconv.Itoa(result.Files)},
			{"Frames covered", strconv.Itoa(result.CoveredFrames)},
			{"Files rewritten", strconv.Itoa(result.FilesRewritten)},
			{"Lines rewritten", strconv.Itoa(result.LinesRewritten)},
		},
	}
	return spec.render() + "\n"
}
