package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidsub/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var probe bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show dependency and preflight status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			report := preflight.RunAll(cmd.Context(), cfg, probe)

			var historyLine string
			store, err := ctx.openLedger()
			if err == nil {
				records, listErr := store.List(cmd.Context(), 0)
				store.Close()
				if listErr == nil {
					historyLine = fmt.Sprintf("%d recent run(s) in %s", len(records), cfg.Paths.LedgerPath)
				} else {
					err = listErr
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, renderStatus(report, historyLine, err, newPalette(isTerminal(out))))
			if !report.Ready() {
				return fmt.Errorf("vidsub is not ready; resolve the failed checks above")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&probe, "probe", false, "Send a one-token request to verify the translation credential")
	return cmd
}

func renderStatus(report preflight.Report, historyLine string, historyErr error, p palette) string {
	var b strings.Builder
	writeLines := func(lines ...string) {
		for _, line := range lines {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	writeLines(renderSectionHeader(p, "Dependencies")...)
	for _, dep := range report.Dependencies {
		kind := statusOK
		message := dep.Path
		switch {
		case !dep.Available && dep.Optional:
			kind, message = statusWarn, dep.Detail
		case !dep.Available:
			kind, message = statusError, dep.Detail
		}
		writeLines(renderStatusLine(p, dep.Name, kind, message))
	}

	b.WriteByte('\n')
	writeLines(renderSectionHeader(p, "Checks")...)
	for _, check := range report.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusError
		}
		writeLines(renderStatusLine(p, check.Name, kind, check.Detail))
	}

	b.WriteByte('\n')
	writeLines(renderSectionHeader(p, "History")...)
	if historyErr != nil {
		writeLines(renderStatusLine(p, "Ledger", statusError, historyErr.Error()))
	} else {
		writeLines(renderStatusLine(p, "Ledger", statusInfo, historyLine))
	}
	return b.String()
}
