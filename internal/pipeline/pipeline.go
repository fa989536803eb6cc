// Package pipeline turns each region's six component archives into one
// persisted dataset per location.
package pipeline

import (
	"context"

	"github.com/jonboulle/clockwork"
	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/sells-group/meshclimate/internal/archive"
	"github.com/sells-group/meshclimate/internal/dataset"
	"github.com/sells-group/meshclimate/internal/metrics"
	"github.com/sells-group/meshclimate/internal/model"
	"github.com/sells-group/meshclimate/internal/store"
	"github.com/sells-group/meshclimate/internal/workpool"
)

// Pipeline runs the transform over regions.
type Pipeline struct {
	fs      afero.Fs
	store   store.Store
	metrics *metrics.Metrics
	clock   clockwork.Clock
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMetrics records per-unit metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock replaces the clock used to time units.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// New creates a Pipeline that reads archives from fs and writes through st.
func New(fs afero.Fs, st store.Store, opts ...Option) *Pipeline {
	p := &Pipeline{fs: fs, store: st, clock: clockwork.NewRealClock()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ProcessRegion loads the region's archives, merges every location reported
// by mean temperature and writes each dataset once. Locations that already
// had a record are returned as skipped.
func (p *Pipeline) ProcessRegion(ctx context.Context, r Region) (model.RegionResult, error) {
	start := p.clock.Now()
	log := zap.L().With(zap.String("component", "pipeline"), zap.String("region", r.Code))

	files, err := r.Archives()
	if err != nil {
		return model.RegionResult{}, err
	}

	archives := make([]*archive.Archive, 0, len(files))
	for _, c := range model.Measured {
		if err := ctx.Err(); err != nil {
			return model.RegionResult{}, err
		}
		a, err := archive.LoadFile(p.fs, files[c].Path)
		if err != nil {
			return model.RegionResult{}, eris.Wrapf(err, "pipeline: region %s", r.Code)
		}
		p.metrics.ArchiveDecoded(c)
		archives = append(archives, a)
	}

	cal := archives[0].Calendar
	src := dataset.FromArchives(archives...)
	res := model.RegionResult{Region: r.Code}

	for _, code := range src.Locations() {
		if err := ctx.Err(); err != nil {
			return model.RegionResult{}, err
		}
		ds, err := dataset.Merge(cal, code, src)
		if err != nil {
			return model.RegionResult{}, eris.Wrapf(err, "pipeline: region %s", r.Code)
		}
		written, err := p.store.Write(ds)
		if err != nil {
			return model.RegionResult{}, eris.Wrapf(err, "pipeline: region %s", r.Code)
		}
		p.metrics.DatasetStored(written)
		if written {
			res.Written++
		} else {
			res.Skipped = append(res.Skipped, code)
		}
	}

	res.Elapsed = p.clock.Since(start)
	log.Info("region done",
		zap.Int("year", cal.Year),
		zap.Int("written", res.Written),
		zap.Int("skipped", len(res.Skipped)),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// Run processes regions on a worker pool. The successful results are
// returned sorted by region, whatever the completion order.
func (p *Pipeline) Run(ctx context.Context, regions []Region, workers int, policy workpool.Policy) ([]model.RegionResult, error) {
	log := zap.L().With(zap.String("component", "pipeline"))
	workers = workpool.DefaultWorkers(workers)
	log.Info("transform starting",
		zap.Int("regions", len(regions)),
		zap.Int("workers", workers),
		zap.Stringer("policy", policy),
	)

	results, runErr := workpool.Run(ctx, workers, regions, policy, func(ctx context.Context, r Region) (model.RegionResult, error) {
		start := p.clock.Now()
		res, err := p.ProcessRegion(ctx, r)
		p.metrics.UnitDone("transform", p.clock.Since(start), err)
		return res, err
	})

	for _, r := range workpool.Failed(results) {
		log.Error("region failed", zap.String("region", r.Task.Code), zap.Error(r.Err))
	}
	out := make([]model.RegionResult, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	model.SortRegionResults(out)
	return out, runErr
}
