package main

import (
	"context"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/meshclimate/internal/discovery"
	"github.com/sells-group/meshclimate/internal/ledger"
	"github.com/sells-group/meshclimate/internal/metrics"
	"github.com/sells-group/meshclimate/internal/model"
	"github.com/sells-group/meshclimate/internal/pipeline"
	"github.com/sells-group/meshclimate/internal/report"
	"github.com/sells-group/meshclimate/internal/store"
)

var transformCmd = &cobra.Command{
	Use:   "transform <src>",
	Short: "Merge raw archives into one dataset per mesh cell",
	Long: "Finds every *.dat archive under src, groups them by region, and writes one dataset per mesh cell " +
		"under the output directory. Existing datasets are never overwritten; they are listed in the skip report.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		opts := transformOptionsFrom(cmd, args[0])

		led, err := openLedger(ctx, cfg.Ledger.Path)
		if err != nil {
			return err
		}
		if led != nil {
			defer led.Close() //nolint:errcheck
		}

		results, err := runTransform(ctx, afero.NewOsFs(), led, opts)
		printTransformSummary(cmd.OutOrStdout(), results, opts.Report)
		return err
	},
}

type transformOptions struct {
	Source      string
	OutDir      string
	Report      string
	Regions     []string
	Processes   int
	KeepGoing   bool
	MetricsFile string
}

// transformOptionsFrom merges config values with flags that were set.
func transformOptionsFrom(cmd *cobra.Command, src string) transformOptions {
	opts := transformOptions{
		Source:      src,
		OutDir:      cfg.Transform.OutDir,
		Report:      cfg.Transform.Report,
		Regions:     cfg.Transform.Regions,
		Processes:   cfg.Transform.Processes,
		KeepGoing:   cfg.Transform.KeepGoing,
		MetricsFile: cfg.Metrics.Textfile,
	}
	f := cmd.Flags()
	if f.Changed("out") {
		opts.OutDir, _ = f.GetString("out")
	}
	if f.Changed("report") {
		opts.Report, _ = f.GetString("report")
	}
	if f.Changed("regions") {
		opts.Regions, _ = f.GetStringSlice("regions")
	}
	if f.Changed("processes") {
		opts.Processes, _ = f.GetInt("processes")
	}
	if f.Changed("keep-going") {
		opts.KeepGoing, _ = f.GetBool("keep-going")
	}
	return opts
}

// runTransform discovers, groups and transforms every region, then writes
// the skip report. The report is written even when a region failed.
func runTransform(ctx context.Context, fs afero.Fs, led *ledger.Ledger, opts transformOptions) ([]model.RegionResult, error) {
	log := zap.L().With(zap.String("component", "transform"))

	paths, err := discovery.Archives(fs, opts.Source)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, eris.Wrapf(errNoArchives, "transform: %s", opts.Source)
	}
	regions, err := pipeline.GroupRegions(paths, opts.Regions)
	if err != nil {
		return nil, eris.Wrap(err, "transform: group archives")
	}

	rec := startRun(ctx, led, "transform", opts.Source, len(regions))
	log.Info("transform run",
		zap.String("run_id", rec.ID()),
		zap.Int("archives", len(paths)),
		zap.Int("regions", len(regions)),
		zap.String("out", opts.OutDir),
	)

	m := metrics.New()
	p := pipeline.New(fs, store.NewFileStore(fs, opts.OutDir), pipeline.WithMetrics(m))
	results, runErr := p.Run(ctx, regions, opts.Processes, policyFor(opts.KeepGoing))

	counts := ledger.Counts{}
	for _, r := range results {
		counts.Written += r.Written
		counts.Skipped += len(r.Skipped)
	}

	if err := report.WriteSkipped(fs, opts.Report, results); err != nil && runErr == nil {
		runErr = err
	}
	if err := m.WriteTextfile(opts.MetricsFile); err != nil {
		log.Warn("metrics textfile not written", zap.Error(err))
	}
	rec.finish(ctx, counts, runErr)

	if runErr != nil {
		return results, eris.Wrap(runErr, "transform")
	}
	log.Info("transform complete", zap.Int("written", counts.Written), zap.Int("skipped", counts.Skipped))
	return results, nil
}

func printTransformSummary(w io.Writer, results []model.RegionResult, reportPath string) {
	written, skipped := 0, 0
	for _, r := range results {
		written += r.Written
		skipped += len(r.Skipped)
	}
	_, _ = fmt.Fprintf(w, "%d regions, %d datasets written, %d skipped (see %s)\n",
		len(results), written, skipped, reportPath)
}

func init() {
	f := transformCmd.Flags()
	f.String("out", "out", "output root for datasets")
	f.StringSliceP("regions", "k", nil, "only transform these region codes (comma separated)")
	f.IntP("processes", "p", 0, "worker count (0 = three quarters of the CPUs)")
	f.Bool("keep-going", false, "process every region even after one fails (the run still fails)")
	f.String("report", "overwritten.log", "skip report path")
	rootCmd.AddCommand(transformCmd)
}

