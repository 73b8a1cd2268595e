package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PacketsDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gt06_packets_decoded_total",
		Help: "Location packets decoded successfully",
	})
	DecodeErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gt06_decode_errors_total",
		Help: "Packets rejected by the decoder, by reason",
	}, []string{"reason"})
	DecodeLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gt06_decode_latency_seconds",
		Help:    "Time spent decoding one packet",
		Buckets: []float64{1e-7, 5e-7, 1e-6, 5e-6, 1e-5, 5e-5, 1e-4},
	})
	PositionsStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gt06_positions_stored_total",
		Help: "Decoded positions written to the repository",
	})
	CacheErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gt06_cache_errors_total",
		Help: "Failed writes of the latest position to Redis",
	})
	PublishDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gt06_publish_dropped_total",
		Help: "Positions dropped because the publish queue was full",
	})
	PublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gt06_publish_errors_total",
		Help: "Positions the message queue producer failed to send",
	})
)

func ObserveDecodeLatency(start time.Time) {
	DecodeLatency.Observe(time.Since(start).Seconds())
}
