package quota

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicescribe_quota_rejections_total",
		Help: "Requests rejected by a quota check, by limit key.",
	}, []string{"limit_key"})

	debitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicescribe_quota_debits_total",
		Help: "Completed jobs debited against the quota ledger.",
	})

	debitedMinutesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicescribe_quota_debited_minutes_total",
		Help: "Audio minutes debited against the quota ledger.",
	})

	limitsCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicescribe_limits_cache_hits_total",
		Help: "Default limits served from cache.",
	})

	limitsCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicescribe_limits_cache_misses_total",
		Help: "Default limits loaded from the settings table.",
	})
)
