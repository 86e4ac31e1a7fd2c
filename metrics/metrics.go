// Package metrics exposes Prometheus collectors for the live transcription
// pipeline. Collectors register on the default registry; embedders can serve
// them with Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	SessionsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_sessions_started_total",
		Help: "Total number of live transcription sessions started",
	})

	SessionsFinalized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_sessions_finalized_total",
		Help: "Total number of sessions that reached a final result",
	})

	SessionsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_sessions_cancelled_total",
		Help: "Total number of sessions discarded via cancel",
	})

	ChunksScheduled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_chunks_scheduled_total",
		Help: "Total number of audio chunks cut by the scheduler",
	})

	ChunksCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_chunks_completed_total",
		Help: "Total number of chunks transcribed successfully",
	})

	ChunksFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_chunks_failed_total",
		Help: "Total number of chunk transcriptions that failed",
	})

	ASRRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_asr_requests_total",
		Help: "Total number of transcription backend calls (chunks and fallbacks)",
	})

	LowConfidenceMerges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_low_confidence_merges_total",
		Help: "Total number of transcript merges without a suffix/prefix alignment",
	})

	FallbacksTriggered = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_fallbacks_triggered_total",
		Help: "Total number of sessions that degraded to full-recording fallback",
	})

	FallbacksUsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ghosttype_fallbacks_used_total",
		Help: "Total number of final results produced by the fallback transcription",
	})

	BacklogSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghosttype_backlog_seconds",
		Help: "Gap between recorded audio and committed transcript, in seconds",
	})

	ChunkLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ghosttype_chunk_latency_seconds",
		Help:    "Wall-clock latency from chunk scheduling to merged result",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~51s
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ghosttype_queue_depth",
		Help: "Chunks waiting for a dispatch slot",
	})
)

// Handler serves the default registry, for embedders that expose /metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
