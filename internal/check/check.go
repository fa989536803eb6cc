// Package check re-derives persisted values from raw archives and reports
// every day where the two disagree.
package check

import (
	"context"
	"math"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/meshclimate/internal/archive"
	"github.com/sells-group/meshclimate/internal/calendar"
	"github.com/sells-group/meshclimate/internal/dataset"
	"github.com/sells-group/meshclimate/internal/metrics"
	"github.com/sells-group/meshclimate/internal/model"
	"github.com/sells-group/meshclimate/internal/store"
	"github.com/sells-group/meshclimate/internal/workpool"
)

// ErrMissingDay is returned when a persisted dataset has no row for a day
// the archive reports.
var ErrMissingDay = eris.New("check: persisted dataset has no row for date")

// Checker compares archives against persisted datasets.
type Checker struct {
	fs      afero.Fs
	store   store.Store
	metrics *metrics.Metrics
	clock   clockwork.Clock
}

// Option configures a Checker.
type Option func(*Checker)

// WithMetrics records per-archive metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Checker) { c.metrics = m }
}

// WithClock replaces the clock used to time units.
func WithClock(clk clockwork.Clock) Option {
	return func(c *Checker) { c.clock = clk }
}

// New creates a Checker reading archives from fs and datasets from st.
func New(fs afero.Fs, st store.Store, opts ...Option) *Checker {
	c := &Checker{fs: fs, store: st, clock: clockwork.NewRealClock()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// persisted is a loaded dataset with its date lookup.
type persisted struct {
	ds  dataset.Dataset
	idx map[string]int
}

// CheckArchive recomputes every reading of one archive and compares it with
// the matching column of the persisted dataset. Differences are returned,
// not raised; an error means the archive or a dataset could not be read.
func (c *Checker) CheckArchive(ctx context.Context, path string) ([]model.Difference, error) {
	name, err := model.ParseArchiveName(path)
	if err != nil {
		return nil, err
	}
	if _, err := calendar.ForToken(name.YearToken); err != nil {
		return nil, err
	}

	f, err := c.fs.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "check: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	var (
		diffs   []model.Difference
		current *persisted
		code    model.LocationCode
		cache   = make(map[model.LocationCode]*persisted)
	)

	sc := archive.NewScanner(f)
	for sc.Scan() {
		l := sc.Line()
		switch l.Kind {
		case archive.KindHeader:
			code = l.Header.Code
			current = cache[code]
			if current == nil {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				ds, err := c.store.Load(code)
				if err != nil {
					return nil, eris.Wrapf(err, "check: %s line %d", path, l.Number)
				}
				current = &persisted{ds: ds, idx: ds.RowIndex()}
				cache[code] = current
			}

		case archive.KindData:
			if current == nil {
				return nil, eris.Wrapf(archive.ErrNoHeader, "check: %s line %d", path, l.Number)
			}
			rec := l.Record
			if rec.YearToken != name.YearToken {
				return nil, eris.Wrapf(archive.ErrYearMismatch, "check: %s line %d: %02d, expected %02d",
					path, l.Number, rec.YearToken, name.YearToken)
			}
			for i, raw := range rec.Values {
				label := calendar.Label(rec.Month, i+1)
				row, ok := current.idx[label]
				if !ok {
					return nil, eris.Wrapf(ErrMissingDay, "check: %s line %d: %s %s", path, l.Number, code, label)
				}
				want := Recompute(name.Component, raw)
				got, _ := current.ds.Rows[row].Value(name.Component)
				if got != want {
					diffs = append(diffs, model.Difference{
						Region:     name.Region,
						Location:   code,
						Date:       label,
						Component:  name.Component,
						Persisted:  got,
						Recomputed: want,
					})
					c.metrics.DifferenceFound(name.Component)
				}
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrapf(err, "check: %s", path)
	}

	c.metrics.ArchiveDecoded(name.Component)
	return diffs, nil
}

// Recompute decodes and scales one raw reading the way the transform does.
func Recompute(comp model.Component, raw int) float64 {
	v := archive.Scale(comp, archive.Decode(comp, raw))
	if comp == model.ComponentPR {
		v = math.Trunc(v)
	}
	return v
}

// Run checks every archive on a worker pool and returns all differences
// sorted by region, location, date and component.
func (c *Checker) Run(ctx context.Context, paths []string, workers int, policy workpool.Policy) ([]model.Difference, error) {
	log := zap.L().With(zap.String("component", "check"))
	workers = workpool.DefaultWorkers(workers)
	log.Info("check starting",
		zap.Int("archives", len(paths)),
		zap.Int("workers", workers),
		zap.Stringer("policy", policy),
	)

	results, runErr := workpool.Run(ctx, workers, paths, policy, func(ctx context.Context, path string) ([]model.Difference, error) {
		start := c.clock.Now()
		diffs, err := c.CheckArchive(ctx, path)
		c.metrics.UnitDone("check", c.clock.Since(start), err)
		return diffs, err
	})

	for _, r := range workpool.Failed(results) {
		log.Error("archive failed", zap.String("path", r.Task), zap.Error(r.Err))
	}
	var all []model.Difference
	for _, r := range results {
		if r.Err == nil {
			all = append(all, r.Value...)
		}
	}
	model.SortDifferences(all)
	return all, runErr
}
