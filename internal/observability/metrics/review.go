package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ReviewMetrics counts review session events. It satisfies review.Recorder.
type ReviewMetrics struct {
	loadsTotal           *prometheus.CounterVec
	recordsLoaded        prometheus.Gauge
	savesTotal           *prometheus.CounterVec
	saveDuration         *prometheus.HistogramVec
	swapsTotal           *prometheus.CounterVec
	danceTypeCorrections prometheus.Counter
	relocationFailures   prometheus.Counter
	missingVideos        prometheus.Counter
}

// NewReviewMetrics creates the review collectors and registers them.
func NewReviewMetrics(registry *prometheus.Registry) (*ReviewMetrics, error) {
	m := &ReviewMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register review metrics: %w", err)
	}
	return m, nil
}

func (m *ReviewMetrics) initMetrics() {
	m.loadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dancereview_loads_total",
			Help: "Total number of review directory loads",
		},
		[]string{"status"},
	)

	m.recordsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "dancereview_records_loaded",
		Help: "Number of records in the currently loaded dataset",
	})

	m.savesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dancereview_saves_total",
			Help: "Total number of page saves",
		},
		[]string{"direction", "status"},
	)

	m.saveDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dancereview_save_duration_seconds",
			Help:    "Time taken to commit a page",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"direction"},
	)

	m.swapsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dancereview_category_swaps_total",
			Help: "Total number of category swaps by target category",
		},
		[]string{"target"},
	)

	m.danceTypeCorrections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dancereview_dance_type_corrections_total",
		Help: "Total number of dance type corrections written",
	})

	m.relocationFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dancereview_relocation_failures_total",
		Help: "Total number of video moves that failed",
	})

	m.missingVideos = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "dancereview_missing_videos_total",
		Help: "Total number of swaps whose video was not found",
	})
}

// RecordLoad records a load attempt.
func (m *ReviewMetrics) RecordLoad(status string, records int) {
	m.loadsTotal.WithLabelValues(status).Inc()
	if status == StatusSuccess {
		m.recordsLoaded.Set(float64(records))
	}
}

// RecordSave records a page save and how long it took.
func (m *ReviewMetrics) RecordSave(direction, status string, duration time.Duration) {
	m.savesTotal.WithLabelValues(direction, status).Inc()
	m.saveDuration.WithLabelValues(direction).Observe(duration.Seconds())
}

// RecordSwap records one category swap.
func (m *ReviewMetrics) RecordSwap(target string) {
	m.swapsTotal.WithLabelValues(target).Inc()
}

func (m *ReviewMetrics) RecordDanceTypeCorrection() { m.danceTypeCorrections.Inc() }
func (m *ReviewMetrics) RecordRelocationFailure()   { m.relocationFailures.Inc() }
func (m *ReviewMetrics) RecordMissingVideo()        { m.missingVideos.Inc() }

// Describe implements the prometheus.Collector interface.
func (m *ReviewMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.loadsTotal.Describe(ch)
	ch <- m.recordsLoaded.Desc()
	m.savesTotal.Describe(ch)
	m.saveDuration.Describe(ch)
	m.swapsTotal.Describe(ch)
	ch <- m.danceTypeCorrections.Desc()
	ch <- m.relocationFailures.Desc()
	ch <- m.missingVideos.Desc()
}

// Collect implements the prometheus.Collector interface.
func (m *ReviewMetrics) Collect(ch chan<- prometheus.Metric) {
	m.loadsTotal.Collect(ch)
	ch <- m.recordsLoaded
	m.savesTotal.Collect(ch)
	m.saveDuration.Collect(ch)
	m.swapsTotal.Collect(ch)
	ch <- m.danceTypeCorrections
	ch <- m.relocationFailures
	ch <- m.missingVideos
}
