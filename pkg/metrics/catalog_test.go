package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCatalogMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewCatalogMetrics(reg)

	metrics.ObserveMutation("create", 250*time.Millisecond, nil)
	metrics.ObserveMutation("create", 10*time.Millisecond, errors.New("boom"))
	metrics.IncSnapshot("subscription")
	metrics.IncSnapshot("subscription")
	metrics.IncSeed()
	metrics.IncBlobWarning()
	metrics.IncSubscriptionError()

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "storefront_catalog_mutations_total", "outcome", "success"); err != nil {
		t.Fatalf("fetch success: %v", err)
	} else if got != 1 {
		t.Fatalf("expected success=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_catalog_mutations_total", "outcome", "failure"); err != nil {
		t.Fatalf("fetch failure: %v", err)
	} else if got != 1 {
		t.Fatalf("expected failure=1, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "storefront_catalog_snapshots_total", "source", "subscription"); err != nil {
		t.Fatalf("fetch snapshots: %v", err)
	} else if got != 2 {
		t.Fatalf("expected snapshots=2, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "storefront_catalog_mutation_duration_seconds", "op", "create"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}

	if mf := findMetricFamily(mfs, "storefront_catalog_seeds_total"); mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one seed recorded")
	}
	if mf := findMetricFamily(mfs, "storefront_catalog_subscription_errors_total"); mf == nil || mf.GetMetric()[0].GetCounter().GetValue() != 1 {
		t.Fatalf("expected one subscription error recorded")
	}
}

func TestNilCatalogMetricsAreNoops(t *testing.T) {
	var metrics *CatalogMetrics
	metrics.ObserveMutation("create", time.Second, nil)
	metrics.IncSnapshot("fetch")
	metrics.IncSeed()
	metrics.IncBlobWarning()
	metrics.IncSubscriptionError()

	unregistered := NewCatalogMetrics(nil)
	unregistered.ObserveMutation("delete", time.Second, nil)
	unregistered.IncBlobWarning()
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
