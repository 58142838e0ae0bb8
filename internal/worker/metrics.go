package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	jobsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faktura_worker_jobs_completed_total",
		Help: "Report jobs finished successfully",
	})

	jobsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faktura_worker_jobs_failed_total",
		Help: "Report jobs finished with a failure",
	})
)
