package lifecycle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicescribe_job_transitions_total",
		Help: "Job status transitions that changed a row, by target status.",
	}, []string{"status"})

	submissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicescribe_job_submissions_total",
		Help: "Submissions to the transcription provider, by provider and outcome.",
	}, []string{"provider", "outcome"})

	ignoredUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voicescribe_job_ignored_updates_total",
		Help: "Provider updates and finalizations that found the job already settled.",
	}, []string{"reason"})

	debitFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voicescribe_job_debit_failures_total",
		Help: "Completed jobs whose quota debit failed.",
	})
)
