// Package metrics collects run metrics and exports them in the node-exporter
// textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"

	"github.com/sells-group/meshclimate/internal/model"
)

const namespace = "meshclimate"

// Metrics holds the counters and histograms of one run. A nil *Metrics
// accepts every observation and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	ArchivesDecoded *prometheus.CounterVec   // labels: component
	DatasetsWritten prometheus.Counter
	DatasetsSkipped prometheus.Counter
	Differences     *prometheus.CounterVec   // labels: component
	UnitDuration    *prometheus.HistogramVec // labels: command, outcome={ok,error}
}

// New creates metrics registered on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ArchivesDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archives_decoded_total",
			Help:      "Raw archives fully decoded, by component.",
		}, []string{"component"}),
		DatasetsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_written_total",
			Help:      "Location datasets persisted.",
		}),
		DatasetsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "datasets_skipped_total",
			Help:      "Location datasets not written because a record already existed.",
		}),
		Differences: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "differences_total",
			Help:      "Persisted values that disagree with the raw archive, by component.",
		}, []string{"component"}),
		UnitDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unit_duration_seconds",
			Help:      "Duration of one region or archive unit.",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"command", "outcome"}),
	}

	m.registry.MustRegister(
		m.ArchivesDecoded,
		m.DatasetsWritten,
		m.DatasetsSkipped,
		m.Differences,
		m.UnitDuration,
	)
	return m
}

func (m *Metrics) ArchiveDecoded(c model.Component) {
	if m == nil {
		return
	}
	m.ArchivesDecoded.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) DatasetStored(written bool) {
	if m == nil {
		return
	}
	if written {
		m.DatasetsWritten.Inc()
		return
	}
	m.DatasetsSkipped.Inc()
}

func (m *Metrics) DifferenceFound(c model.Component) {
	if m == nil {
		return
	}
	m.Differences.WithLabelValues(c.String()).Inc()
}

func (m *Metrics) UnitDone(command string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.UnitDuration.WithLabelValues(command, outcome).Observe(elapsed.Seconds())
}

// WriteTextfile writes the current values to path for the node-exporter
// textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return eris.Wrapf(prometheus.WriteToTextfile(path, m.registry), "metrics: write %s", path)
}
