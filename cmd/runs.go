package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/meshclimate/internal/ledger"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List transform and check run history",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		led, err := openLedger(ctx, cfg.Ledger.Path)
		if err != nil {
			return err
		}
		if led == nil {
			return eris.New("runs: ledger is disabled (ledger.path is empty)")
		}
		defer led.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")
		runs, err := led.List(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(cmd.OutOrStdout(), runs)
		return nil
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		led, err := openLedger(ctx, cfg.Ledger.Path)
		if err != nil {
			return err
		}
		if led == nil {
			return eris.New("runs: ledger is disabled (ledger.path is empty)")
		}
		defer led.Close() //nolint:errcheck

		run, err := led.Get(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		return writeYAML(cmd.OutOrStdout(), run)
	},
}

func init() {
	runsCmd.Flags().Int("limit", 50, "max number of runs to display")
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []ledger.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tCOMMAND\tSOURCE\tSTATUS\tUNITS\tWRITTEN\tSKIPPED\tDIFFS\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t-------\t------\t------\t-----\t-------\t-------\t-----\t-------\t--------")

	for _, r := range runs {
		dur := ""
		if r.FinishedAt != nil {
			dur = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}

		source := r.Source
		if len(source) > 30 {
			source = "..." + source[len(source)-27:]
		}

		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			truncateID(r.ID),
			r.Command,
			source,
			r.Status,
			r.Units,
			r.Written,
			r.Skipped,
			r.Differences,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
