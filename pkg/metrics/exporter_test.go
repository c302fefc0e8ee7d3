package metrics_test

import (
	"testing"
	"time"

	"github.com/downfa11-org/go-lake/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func getCounterValue(c prometheus.Counter) float64 {
	m := &dto.Metric{}
	_ = c.Write(m)
	return m.GetCounter().GetValue()
}

func getHistogramCount(h prometheus.Histogram) uint64 {
	m := &dto.Metric{}
	_ = h.Write(m)
	return m.GetHistogram().GetSampleCount()
}

func TestObservePublish(t *testing.T) {
	initialFlushes := getCounterValue(metrics.Flushes)
	initialRecords := getCounterValue(metrics.PublishedRecords)
	initialLatency := getHistogramCount(metrics.PublishLatency)

	metrics.ObservePublish(100, 50*time.Millisecond)
	metrics.ObservePublish(20, 10*time.Millisecond)

	if got := getCounterValue(metrics.Flushes); got != initialFlushes+2 {
		t.Fatalf("Flushes counter expected %v, got %v", initialFlushes+2, got)
	}
	if got := getCounterValue(metrics.PublishedRecords); got != initialRecords+120 {
		t.Fatalf("PublishedRecords expected %v, got %v", initialRecords+120, got)
	}
	if got := getHistogramCount(metrics.PublishLatency); got != initialLatency+2 {
		t.Fatalf("PublishLatency count expected %v, got %v", initialLatency+2, got)
	}
}

func TestObserveCompaction(t *testing.T) {
	initialRuns := getCounterValue(metrics.Compactions)
	initialFiles := getCounterValue(metrics.CompactedFiles)
	initialLeft := getCounterValue(metrics.PartialDeletions)

	metrics.ObserveCompaction(51, 0)
	metrics.ObserveCompaction(3, 2)

	if got := getCounterValue(metrics.Compactions); got != initialRuns+2 {
		t.Fatalf("Compactions expected %v, got %v", initialRuns+2, got)
	}
	if got := getCounterValue(metrics.CompactedFiles); got != initialFiles+54 {
		t.Fatalf("CompactedFiles expected %v, got %v", initialFiles+54, got)
	}
	if got := getCounterValue(metrics.PartialDeletions); got != initialLeft+2 {
		t.Fatalf("PartialDeletions expected %v, got %v", initialLeft+2, got)
	}
}
