package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/downfa11-org/go-lake/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func init() {
	prometheus.MustRegister(RecordsFetched, FetchFailures, FetchRetries, BufferedRecords)
	prometheus.MustRegister(Flushes, FlushFailures, PublishedRecords, PublishLatency)
	prometheus.MustRegister(Compactions, CompactionFailures, CompactedFiles, PartialDeletions, CompactionInProgress)
}

func StartMetricsServer(port int) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		addr := fmt.Sprintf(":%d", port)
		util.Info("[METRICS] Prometheus exporter listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			util.Error("[METRICS] Failed to start metrics server: %v", err)
		}
	}()
}

// ObservePublish records one successful flush of rows records.
func ObservePublish(rows int, elapsed time.Duration) {
	Flushes.Inc()
	PublishedRecords.Add(float64(rows))
	PublishLatency.Observe(elapsed.Seconds())
}

// ObserveCompaction records one successful compaction of files inputs.
func ObserveCompaction(files int, leftover int) {
	Compactions.Inc()
	CompactedFiles.Add(float64(files))
	if leftover > 0 {
		PartialDeletions.Add(float64(leftover))
	}
}
