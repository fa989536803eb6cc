package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/meshclimate/internal/config"
	"github.com/sells-group/meshclimate/internal/ledger"
	"github.com/sells-group/meshclimate/internal/workpool"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "meshclimate",
	Short: "Daily mesh climate archive transformer",
	Long:  "Decodes fixed-width daily mesh climate archives, merges the six components into one dataset per mesh cell, and verifies persisted datasets against the raw archives.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := c.Validate(); err != nil {
			return err
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// policyFor maps --keep-going onto a pool policy.
func policyFor(keepGoing bool) workpool.Policy {
	if keepGoing {
		return workpool.ContinueOnError
	}
	return workpool.FailFast
}

// openLedger opens and migrates the run ledger, or returns nil when it is
// disabled.
func openLedger(ctx context.Context, path string) (*ledger.Ledger, error) {
	if path == "" {
		return nil, nil
	}
	l, err := ledger.Open(path, nil)
	if err != nil {
		return nil, err
	}
	if err := l.Migrate(ctx); err != nil {
		l.Close() //nolint:errcheck
		return nil, err
	}
	return l, nil
}

// runRecorder wraps an optional ledger entry. All methods are no-ops when
// the ledger is disabled, and ledger failures are logged rather than
// failing the run.
type runRecorder struct {
	ledger *ledger.Ledger
	run    *ledger.Run
}

func startRun(ctx context.Context, l *ledger.Ledger, command, source string, units int) *runRecorder {
	r := &runRecorder{ledger: l}
	if l == nil {
		return r
	}
	run, err := l.Start(ctx, command, source, units)
	if err != nil {
		zap.L().Warn("ledger: start run", zap.Error(err))
		return r
	}
	r.run = run
	return r
}

func (r *runRecorder) finish(ctx context.Context, counts ledger.Counts, runErr error) {
	if r.ledger == nil || r.run == nil {
		return
	}
	var err error
	if runErr != nil {
		err = r.ledger.Fail(ctx, r.run.ID, counts, runErr)
	} else {
		err = r.ledger.Complete(ctx, r.run.ID, counts)
	}
	if err != nil {
		zap.L().Warn("ledger: finish run", zap.String("run_id", r.run.ID), zap.Error(err))
	}
}

// ID returns the ledger id of the run, or "" when none was recorded.
func (r *runRecorder) ID() string {
	if r.run == nil {
		return ""
	}
	return r.run.ID
}

var errNoArchives = eris.New("no archives found")
