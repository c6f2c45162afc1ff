package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicescribe_events_published_total",
		Help: "Job events published, by bus and event type.",
	}, []string{"bus", "type"})

	droppedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicescribe_events_dropped_total",
		Help: "Job events dropped because a subscriber was not keeping up.",
	}, []string{"bus"})
)
