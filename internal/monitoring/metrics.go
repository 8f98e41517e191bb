package monitoring

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the segmentation counters. A nil *Metrics is valid and
// records nothing, so library callers can skip metrics entirely.
type Metrics struct {
	registry *prometheus.Registry

	SegmentationsTotal   *prometheus.CounterVec
	SegmentationDuration prometheus.Histogram
	OrgansTotal          *prometheus.CounterVec
	MergesTotal          *prometheus.CounterVec
	RemainVoxels         prometheus.Histogram
}

// NewMetrics registers every metric on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	factory := promauto.With(m.registry)

	m.SegmentationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phenomenal_segmentations_total",
			Help: "Segmentation calls by outcome",
		},
		[]string{"result"},
	)
	m.SegmentationDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "phenomenal_segmentation_duration_seconds",
			Help:    "Wall time of one segmentation call",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)
	m.OrgansTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phenomenal_organs_total",
			Help: "Organs emitted by label",
		},
		[]string{"label"},
	)
	m.MergesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "phenomenal_fragment_merges_total",
			Help: "Fragment merges performed by leaf class",
		},
		[]string{"class"},
	)
	m.RemainVoxels = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "phenomenal_remain_voxels",
			Help:    "Voxels left unclaimed after annexation",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		},
	)
	return m
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveSegmentation records the outcome and duration of one call.
func (m *Metrics) ObserveSegmentation(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.SegmentationsTotal.WithLabelValues(result).Inc()
	m.SegmentationDuration.Observe(elapsed.Seconds())
}

// AddOrgans counts emitted organs for a label.
func (m *Metrics) AddOrgans(label string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.OrgansTotal.WithLabelValues(label).Add(float64(n))
}

// AddMerges counts fragment merges for a leaf class.
func (m *Metrics) AddMerges(class string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.MergesTotal.WithLabelValues(class).Add(float64(n))
}

// ObserveRemain records how many voxels no organ claimed.
func (m *Metrics) ObserveRemain(n int) {
	if m == nil {
		return
	}
	m.RemainVoxels.Observe(float64(n))
}

// WriteText dumps every metric in the Prometheus text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	if m == nil {
		return nil
	}
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	_, err = w.Write(buf.Bytes())
	return err
}
