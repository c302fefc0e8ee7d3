package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RecordsFetched = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_records_fetched_total",
		Help: "Total number of records fetched from the record source",
	})

	FetchFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_fetch_failures_total",
		Help: "Total number of fetch cycles that ended in an error after retries",
	})

	FetchRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_fetch_retries_total",
		Help: "Total number of retried fetch attempts",
	})

	BufferedRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lake_buffered_records",
		Help: "Records currently held in the ingestion buffer",
	})

	Flushes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_flushes_total",
		Help: "Total number of buffer flushes published to the landing zone",
	})

	FlushFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_flush_failures_total",
		Help: "Total number of flushes that failed and kept the buffer",
	})

	PublishedRecords = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_published_records_total",
		Help: "Total number of records published in landing files",
	})

	PublishLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "lake_publish_duration_seconds",
		Help:    "Histogram of staging write plus atomic publish duration",
		Buckets: prometheus.DefBuckets,
	})

	Compactions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_compactions_total",
		Help: "Total number of successful compactions",
	})

	CompactionFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_compaction_failures_total",
		Help: "Total number of compactions that failed before publishing",
	})

	CompactedFiles = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_compacted_files_total",
		Help: "Total number of small files merged by compaction",
	})

	PartialDeletions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "lake_partial_deletions_total",
		Help: "Total number of compacted originals that could not be deleted",
	})

	CompactionInProgress = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "lake_compaction_in_progress",
		Help: "1 while a compaction is running, 0 otherwise",
	})
)
