package gateway

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// RequestsTotal counts calls to transcription providers
var RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "voicescribe_gateway_requests_total",
	Help: "Calls made to transcription providers, by provider, operation and outcome.",
}, []string{"provider", "operation", "outcome"})

// RequestDuration observes provider call latency
var RequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "voicescribe_gateway_request_duration_seconds",
	Help:    "Latency of calls to transcription providers.",
	Buckets: prometheus.DefBuckets,
}, []string{"provider", "operation"})

// Outcome labels a finished gateway call
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if IsRetryable(err) {
		return "transient"
	}
	return "error"
}
