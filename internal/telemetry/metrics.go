package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/Weft/internal/domain"
)

// Метрики движка. Экспортируются через /metrics в `weft serve`.
var (
	// FlowRunsTotal — количество завершённых запусков по статусам.
	FlowRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weft",
		Name:      "flow_runs_total",
		Help:      "Finished flow runs by terminal status.",
	}, []string{"status"})

	// TasksTotal — количество задач по финальным статусам.
	TasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weft",
		Name:      "tasks_total",
		Help:      "Finished tasks by terminal status.",
	}, []string{"status"})

	// FlowRunDuration — продолжительность запусков.
	FlowRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "weft",
		Name:      "flow_run_duration_seconds",
		Help:      "Flow run duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// ScheduleFiresTotal — срабатывания расписаний по исходу.
	ScheduleFiresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weft",
		Name:      "schedule_fires_total",
		Help:      "Schedule fires by outcome.",
	}, []string{"status"})
)

// ObserveRun фиксирует метрики завершённого запуска.
func ObserveRun(run *domain.FlowRun) {
	FlowRunsTotal.WithLabelValues(string(run.Status)).Inc()
	FlowRunDuration.Observe(run.DurationSec)
	for i := range run.Tasks {
		TasksTotal.WithLabelValues(string(run.Tasks[i].Status)).Inc()
	}
}
