package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"sh3d-importer/internal/importer/mapper"
	"sh3d-importer/internal/importer/models"
)

// ============================================================
// Import Metrics
// ============================================================

// Metrics: коллекторы Prometheus сервиса импорта
type Metrics struct {
	imports       *prometheus.CounterVec
	warnings      *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	entities      *prometheus.CounterVec
	archiveBytes  prometheus.Histogram
}

// New регистрирует коллекторы в registerer (nil, реестр по умолчанию)
func New(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		imports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sh3d_imports_total",
				Help: "Total number of imports by outcome (ok or fatal error kind)",
			},
			[]string{"outcome"},
		),
		warnings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sh3d_import_warnings_total",
				Help: "Entity-level warnings by stage and code",
			},
			[]string{"stage", "code"},
		),
		stageDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sh3d_import_stage_duration_ms",
				Help:    "Duration of pipeline stages in milliseconds",
				Buckets: []float64{0.5, 1, 5, 10, 25, 50, 100, 250, 500, 1000, 5000},
			},
			[]string{"stage"},
		),
		entities: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sh3d_imported_entities_total",
				Help: "Imported entities by kind",
			},
			[]string{"kind"},
		),
		archiveBytes: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sh3d_archive_size_bytes",
				Help:    "Size of uploaded archives",
				Buckets: prometheus.ExponentialBuckets(1<<14, 4, 8),
			},
		),
	}
}

// RecordArchive учитывает размер загруженного архива
func (m *Metrics) RecordArchive(size int) {
	m.archiveBytes.Observe(float64(size))
}

// RecordSuccess учитывает успешный импорт
func (m *Metrics) RecordSuccess(res *mapper.Result) {
	m.imports.WithLabelValues("ok").Inc()

	for _, w := range res.Warnings {
		m.warnings.WithLabelValues(string(w.Stage), string(w.Code)).Inc()
	}
	for stage, d := range res.Timings {
		m.stageDuration.WithLabelValues(string(stage)).Observe(float64(d.Microseconds()) / 1000)
	}

	c := res.Counts
	m.entities.WithLabelValues("level").Add(float64(c.Levels))
	m.entities.WithLabelValues("wall").Add(float64(c.Walls))
	m.entities.WithLabelValues("room").Add(float64(c.Rooms))
	m.entities.WithLabelValues("furniture").Add(float64(c.Furniture))
	m.entities.WithLabelValues("opening").Add(float64(c.Openings))
	m.entities.WithLabelValues("light").Add(float64(c.Lights))
	m.entities.WithLabelValues("camera").Add(float64(c.Cameras))
	m.entities.WithLabelValues("cut_out").Add(float64(c.CutOuts))
}

// RecordFailure учитывает фатальную ошибку импорта
func (m *Metrics) RecordFailure(err error) {
	outcome := string(models.KindOf(err))
	if outcome == "" {
		outcome = "internal"
	}
	m.imports.WithLabelValues(outcome).Inc()
}
