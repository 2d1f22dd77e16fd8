package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	synthesisRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_synthesis_runs_total",
		Help: "Запуски синтеза совокупного отчёта по статусам.",
	}, []string{"status"})

	producerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "insight_producer_failures_total",
		Help: "Отказы производителей анализов по возможностям.",
	}, []string{"capability"})
)
