package reaper

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var jobsReaped = promauto.NewCounter(prometheus.CounterOpts{
	Name: "faktura_reaper_jobs_reaped_total",
	Help: "Running jobs force-failed due to a stale heartbeat",
})
