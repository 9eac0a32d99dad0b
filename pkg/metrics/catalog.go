package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// CatalogMetrics records catalog synchronization and mutation activity.
type CatalogMetrics struct {
	duration     *prometheus.HistogramVec
	mutations    *prometheus.CounterVec
	snapshots    *prometheus.CounterVec
	seeds        prometheus.Counter
	blobWarnings prometheus.Counter
	watchErrors  prometheus.Counter
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "catalog_mutation_duration_seconds",
		Help:      "Duration of catalog mutations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_mutations_total",
		Help:      "Catalog mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	snapshots := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_snapshots_total",
		Help:      "Full catalog snapshots applied to local state.",
	}, []string{"source"})
	seeds := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_seeds_total",
		Help:      "First-run baseline catalog seeds written.",
	})
	blobWarnings := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_blob_delete_warnings_total",
		Help:      "Image blob deletions that failed without blocking the product delete.",
	})
	watchErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_subscription_errors_total",
		Help:      "Live catalog subscriptions that ended with an error.",
	})
	reg.MustRegister(duration, mutations, snapshots, seeds, blobWarnings, watchErrors)
	return &CatalogMetrics{
		duration:     duration,
		mutations:    mutations,
		snapshots:    snapshots,
		seeds:        seeds,
		blobWarnings: blobWarnings,
		watchErrors:  watchErrors,
	}
}

// ObserveMutation records the duration and outcome of a catalog mutation.
func (c *CatalogMetrics) ObserveMutation(op string, duration time.Duration, err error) {
	if c == nil || c.duration == nil {
		return
	}
	op = normalizeLabel(op)
	c.duration.WithLabelValues(op).Observe(duration.Seconds())
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	c.mutations.WithLabelValues(op, outcome).Inc()
}

// IncSnapshot counts a snapshot applied from the given source.
func (c *CatalogMetrics) IncSnapshot(source string) {
	if c == nil || c.snapshots == nil {
		return
	}
	c.snapshots.WithLabelValues(normalizeLabel(source)).Inc()
}

// IncSeed counts a baseline seed write.
func (c *CatalogMetrics) IncSeed() {
	if c == nil || c.seeds == nil {
		return
	}
	c.seeds.Inc()
}

// IncBlobWarning counts a non-blocking image delete failure.
func (c *CatalogMetrics) IncBlobWarning() {
	if c == nil || c.blobWarnings == nil {
		return
	}
	c.blobWarnings.Inc()
}

// IncSubscriptionError counts a live subscription that broke.
func (c *CatalogMetrics) IncSubscriptionError() {
	if c == nil || c.watchErrors == nil {
		return
	}
	c.watchErrors.Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
