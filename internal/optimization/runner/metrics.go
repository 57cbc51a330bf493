package runner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "descent_runs_started_total",
		Help: "Number of optimization runs launched.",
	})
	runsFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "descent_runs_finished_total",
		Help: "Number of optimization runs that reached a terminal state, by status.",
	}, []string{"status"})
	runsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "descent_runs_active",
		Help: "Number of runs whose outcome has not yet been observed.",
	})
)
