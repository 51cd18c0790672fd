package preflight

import (
	"context"

	"research2crossref/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Deposit checks are only run when create_doi is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckLedger(cfg.LedgerPath()),
		CheckWatermark(cfg.WatermarkPath()),
		CheckCRIS(ctx, cfg.CRIS.APIURL, cfg.CRIS.APIToken, cfg.RequestTimeout()),
	}

	if cfg.Workflow.CreateDOI {
		results = append(results, CheckDepositConfig(cfg))
	}

	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
