package main

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"vidsub/internal/ledger"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect or clear recorded runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No runs recorded yet.")
				return nil
			}
			fmt.Fprintln(out, renderHistory(records))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", ledger.DefaultListLimit, "Maximum number of runs to show")
	return cmd
}

func renderHistory(records []ledger.Record) string {
	headers := []string{"ID", "When", "Type", "Quality", "Status", "Title", "Output"}
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		output := ""
		if rec.FinalPath != "" {
			output = filepath.Base(rec.FinalPath)
		}
		rows = append(rows, []string{
			strconv.FormatInt(rec.ID, 10),
			humanize.Time(rec.ProcessDate),
			rec.ProcessType,
			rec.Quality,
			rec.Status,
			rec.Title,
			output,
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignRight})
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every recorded run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to clear history without --yes")
			}
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			deleted, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from history\n", pluralRuns(deleted))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&confirmed, "yes", "y", false, "Confirm deletion")
	return cmd
}

func pluralRuns(n int64) string {
	if n == 1 {
		return "1 run"
	}
	return humanize.Comma(n) + " runs"
}
