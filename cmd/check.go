package main

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/meshclimate/internal/check"
	"github.com/sells-group/meshclimate/internal/discovery"
	"github.com/sells-group/meshclimate/internal/ledger"
	"github.com/sells-group/meshclimate/internal/metrics"
	"github.com/sells-group/meshclimate/internal/model"
	"github.com/sells-group/meshclimate/internal/report"
	"github.com/sells-group/meshclimate/internal/store"
)

var checkCmd = &cobra.Command{
	Use:   "check <src>",
	Short: "Compare persisted datasets against the raw archives",
	Long: "Re-decodes every *.dat archive under src and compares each reading with the persisted dataset. " +
		"Every mismatch is written to the difference report; differences do not fail the command.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts := checkOptionsFrom(cmd, args[0])

		led, err := openLedger(ctx, cfg.Ledger.Path)
		if err != nil {
			return err
		}
		if led != nil {
			defer led.Close() //nolint:errcheck
		}

		diffs, err := runCheck(ctx, afero.NewOsFs(), led, opts)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d differences written to %s\n", len(diffs), opts.Report)
		return nil
	},
}

type checkOptions struct {
	Source      string
	OutDir      string
	Report      string
	Processes   int
	KeepGoing   bool
	MetricsFile string
}

func checkOptionsFrom(cmd *cobra.Command, src string) checkOptions {
	opts := checkOptions{
		Source:      src,
		OutDir:      cfg.Transform.OutDir,
		Report:      cfg.Check.Report,
		Processes:   cfg.Check.Processes,
		KeepGoing:   cfg.Check.KeepGoing,
		MetricsFile: cfg.Metrics.Textfile,
	}
	f := cmd.Flags()
	if f.Changed("out") {
		opts.OutDir, _ = f.GetString("out")
	}
	if f.Changed("report") {
		opts.Report, _ = f.GetString("report")
	}
	if f.Changed("processes") {
		opts.Processes, _ = f.GetInt("processes")
	}
	if f.Changed("keep-going") {
		opts.KeepGoing, _ = f.GetBool("keep-going")
	}
	return opts
}

// runCheck checks every archive and writes the difference report. The
// report is only written when every archive could be checked.
func runCheck(ctx context.Context, fs afero.Fs, led *ledger.Ledger, opts checkOptions) ([]model.Difference, error) {
	log := zap.L().With(zap.String("component", "check"))

	paths, err := discovery.Archives(fs, opts.Source)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, eris.Wrapf(errNoArchives, "check: %s", opts.Source)
	}

	rec := startRun(ctx, led, "check", opts.Source, len(paths))
	log.Info("check run", zap.String("run_id", rec.ID()), zap.Int("archives", len(paths)), zap.String("out", opts.OutDir))

	m := metrics.New()
	c := check.New(fs, store.NewFileStore(fs, opts.OutDir), check.WithMetrics(m))
	diffs, runErr := c.Run(ctx, paths, opts.Processes, policyFor(opts.KeepGoing))

	if runErr == nil {
		runErr = report.WriteDifferences(fs, opts.Report, diffs)
	}
	if err := m.WriteTextfile(opts.MetricsFile); err != nil {
		log.Warn("metrics textfile not written", zap.Error(err))
	}
	rec.finish(ctx, ledger.Counts{Differences: len(diffs)}, runErr)

	if runErr != nil {
		return diffs, eris.Wrap(runErr, "check")
	}
	log.Info("check complete", zap.Int("differences", len(diffs)))
	return diffs, nil
}

func init() {
	f := checkCmd.Flags()
	f.String("out", "out", "output root holding the persisted datasets")
	f.IntP("processes", "p", 0, "worker count (0 = three quarters of the CPUs)")
	f.Bool("keep-going", false, "check every archive even after one fails (the run still fails)")
	f.String("report", "check_differences.csv", "difference report path")
	rootCmd.AddCommand(checkCmd)
}
