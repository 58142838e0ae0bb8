package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faktura_dispatch_started_total",
		Help: "Report jobs enqueued by the dispatcher",
	})

	dispatchesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "faktura_dispatch_skipped_total",
		Help: "Dispatch calls skipped by the idempotency policy",
	})
)
