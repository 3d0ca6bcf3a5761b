package preflight

import (
	"context"

	"vidsub/internal/config"
	"vidsub/internal/deps"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Report bundles every check for display.
type Report struct {
	Dependencies []deps.Status `json:"dependencies"`
	Checks       []Result      `json:"checks"`
}

// Ready reports whether every required dependency and check passed.
func (r Report) Ready() bool {
	if len(deps.MissingRequired(r.Dependencies)) > 0 {
		return false
	}
	for _, check := range r.Checks {
		if !check.Passed {
			return false
		}
	}
	return true
}

// RunAll executes the directory and credential checks plus the binary lookup.
// A live translation probe is only issued when probe is true.
func RunAll(ctx context.Context, cfg *config.Config, probe bool) Report {
	if cfg == nil {
		return Report{}
	}
	report := Report{Dependencies: CheckSystemDeps(cfg)}
	report.Checks = append(report.Checks,
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
	)
	if probe {
		report.Checks = append(report.Checks, CheckTranslation(ctx, cfg.Translation))
	} else {
		report.Checks = append(report.Checks, CheckCredential(cfg.Translation))
	}
	return report
}
