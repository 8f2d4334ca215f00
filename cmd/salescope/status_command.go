package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"salescope/internal/deps"
	"salescope/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check dependencies, directories and the results database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			configMessage := ctx.configPath
			if !ctx.configExists {
				configMessage += " (not found, using defaults)"
			}
			lines = append(lines,
				renderStatusLine("Config", statusInfo, configMessage, colorize),
				renderStatusLine("Consolidation", statusInfo, consolidationMode(cfg.Consolidation.Enabled, cfg.Consolidation.InPlace), colorize),
				renderStatusLine("Backups", statusInfo, yesNo(cfg.Consolidation.Backup), colorize),
				"",
			)

			statuses := preflight.CheckSystemDeps(cfg)
			lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
			lines = append(lines, dependencyLines(statuses, colorize)...)
			lines = append(lines, "")

			checks := preflight.RunAll(cmd.Context(), cfg)
			lines = append(lines, renderSectionHeader("Directories", colorize)...)
			lines = append(lines, preflightLines(checks, colorize)...)
			lines = append(lines, "")

			lines = append(lines, renderSectionHeader("Results Database", colorize)...)
			dbFailed := false
			st, err := ctx.openStore()
			if err != nil {
				dbFailed = true
				lines = append(lines, renderStatusLine("Database", statusError, err.Error(), colorize))
			} else {
				summary, err := st.Summarize(cmd.Context())
				st.Close()
				if err != nil {
					dbFailed = true
					lines = append(lines, renderStatusLine("Database", statusError, err.Error(), colorize))
				} else {
					dbFailed = !summary.Integrity
					lines = append(lines, databaseLines(summary, colorize)...)
				}
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))

			var problems []string
			if missing := deps.Missing(statuses); len(missing) > 0 {
				problems = append(problems, fmt.Sprintf("%d missing dependencies", len(missing)))
			}
			if failed := preflight.Failed(checks); len(failed) > 0 {
				problems = append(problems, fmt.Sprintf("%d failed directory checks", len(failed)))
			}
			if dbFailed {
				problems = append(problems, "results database unavailable")
			}
			if len(problems) > 0 {
				return fmt.Errorf("status: %s", strings.Join(problems, ", "))
			}
			return nil
		},
	}
}

func consolidationMode(enabled, inPlace bool) string {
	switch {
	case !enabled:
		return "disabled"
	case inPlace:
		return "in place"
	default:
		return "dry run"
	}
}
