package preflight

import (
	"context"
	"path/filepath"

	"salescope/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for the given config. The results tree
// must be readable, and writable when in-place consolidation is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	if cfg.Consolidation.Enabled && cfg.Consolidation.InPlace {
		results = append(results, CheckDirectoryAccess("Results directory", cfg.Paths.ResultsDir))
	} else {
		results = append(results, CheckDirectoryReadable("Results directory", cfg.Paths.ResultsDir))
	}

	if cfg.Paths.Database != "" {
		results = append(results, CheckDirectoryAccess("Database directory", filepath.Dir(cfg.Paths.Database)))
	}

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	if err := ctx.Err(); err != nil {
		results = append(results, Result{Name: "Preflight", Detail: err.Error()})
	}
	return results
}

// Failed returns the subset of results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
