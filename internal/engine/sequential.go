package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Weft/internal/domain"
	"github.com/shaiso/Weft/internal/history"
	"github.com/shaiso/Weft/internal/registry"
	"github.com/shaiso/Weft/internal/telemetry"
)

// Sequential — последовательный исполнитель flow.
//
// Выполняет задачи по одной в топологическом порядке и прерывается
// на первой ошибке: уже применённые побочные эффекты остаются как
// есть, дальнейшие задачи не запускаются.
type Sequential struct {
	registry *registry.Registry
	history  history.Store
	logger   *slog.Logger
}

// NewSequential создаёт последовательный исполнитель.
func NewSequential(reg *registry.Registry, store history.Store, logger *slog.Logger) *Sequential {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequential{registry: reg, history: store, logger: logger}
}

// Run выполняет flow и возвращает результаты по именам задач
// вместе с финализированной записью о запуске.
//
// Блокирующий вызов. Запись FlowRun сохраняется ровно один раз —
// при успешном завершении или первой ошибке.
func (e *Sequential) Run(ctx context.Context, def *domain.FlowDefinition, inputs map[string]any) (map[string]any, *domain.FlowRun, error) {
	run := domain.NewFlowRun(def)
	logger := telemetry.WithRunID(telemetry.WithFlow(e.logger, def.Name), run.FlowID)

	g, err := buildGraph(def, e.registry)
	if err != nil {
		run.MarkFailed(err.Error(), "")
		e.persistFailed(ctx, run, logger)
		return nil, run, err
	}

	logger.Info("flow started", "tasks", len(g.order), "mode", "sequential")

	results := make(map[string]any, len(g.order))
	for _, n := range g.order {
		args := resolveArgs(n, results, inputs)

		rec := domain.TaskRecord{
			Name:      n.name,
			StartTime: time.Now(),
		}
		logger.Debug("task started", "task", n.name)

		result, err := executeTask(ctx, n.task, args)
		rec.EndTime = time.Now()
		rec.DurationSec = rec.EndTime.Sub(rec.StartTime).Seconds()

		if err != nil {
			rec.Status = domain.NodeStatusFailed
			rec.Error = err.Error()
			run.Tasks = append(run.Tasks, rec)

			logger.Error("task failed", "task", n.name, "error", err)
			run.MarkFailed(err.Error(), errTrace(err))
			e.persistFailed(ctx, run, logger)
			return nil, run, err
		}

		rec.Status = domain.NodeStatusCompleted
		run.Tasks = append(run.Tasks, rec)
		results[n.name] = result
		logger.Debug("task completed", "task", n.name, "duration_sec", rec.DurationSec)
	}

	run.Finalize(domain.RunStatusCompleted)
	telemetry.ObserveRun(run)
	logger.Info("flow completed", "duration_sec", run.DurationSec)

	if err := e.history.Save(ctx, run); err != nil {
		return results, run, fmt.Errorf("save flow run: %w", err)
	}
	return results, run, nil
}

// persistFailed сохраняет запись об упавшем запуске.
// Ошибка сохранения логируется, но не подменяет исходную ошибку flow.
func (e *Sequential) persistFailed(ctx context.Context, run *domain.FlowRun, logger *slog.Logger) {
	telemetry.ObserveRun(run)
	if err := e.history.Save(ctx, run); err != nil {
		logger.Warn("failed to save flow run", "error", err)
	}
}
