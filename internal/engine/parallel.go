package engine

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/shaiso/Weft/internal/domain"
	"github.com/shaiso/Weft/internal/history"
	"github.com/shaiso/Weft/internal/registry"
	"github.com/shaiso/Weft/internal/telemetry"
)

// Parallel — параллельный исполнитель flow.
//
// Строит явный граф TaskNode и выполняет готовые задачи на пуле
// воркеров фиксированного размера. Падение задачи изолируется:
// транзитивные зависимые помечаются SKIPPED, независимые ветки
// доходят до конца.
type Parallel struct {
	registry   *registry.Registry
	history    history.Store
	logger     *slog.Logger
	maxWorkers int
}

// ParallelConfig — конфигурация параллельного исполнителя.
type ParallelConfig struct {
	Registry *registry.Registry
	History  history.Store
	Logger   *slog.Logger

	// MaxWorkers — верхняя граница размера пула.
	// 0 — использовать runtime.NumCPU().
	MaxWorkers int
}

// NewParallel создаёт параллельный исполнитель.
func NewParallel(cfg ParallelConfig) *Parallel {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Parallel{
		registry:   cfg.Registry,
		history:    cfg.History,
		logger:     logger,
		maxWorkers: cfg.MaxWorkers,
	}
}

// taskNode — состояние одной задачи в рамках запуска.
//
// Изменяемые поля пишутся один раз за запуск и только диспетчером;
// воркеры передают измерения через канал результатов.
type taskNode struct {
	node   *node
	status domain.NodeStatus

	start  time.Time
	end    time.Time
	result any
	err    error

	// remaining — сколько зависимостей ещё не COMPLETED.
	remaining int
}

// workItem — единица работы для воркера.
// Аргументы собираются диспетчером в момент диспетчеризации:
// воркеры не читают общий контекст результатов.
type workItem struct {
	name string
	task registry.Task
	args map[string]any
}

// workResult — явный результат воркера.
// Ошибка пересекает границу горутины только как значение.
type workResult struct {
	name   string
	result any
	err    error
	start  time.Time
	end    time.Time
}

// Run выполняет flow на пуле воркеров.
//
// Возвращает общий контекст результатов (имя задачи → результат
// для COMPLETED задач) и финализированную запись FlowRun. Ошибка
// возвращается только для структурных проблем до запуска задач
// (парсинг графа, незарегистрированные задачи, цикл); падения
// отдельных задач отражаются в статусах записи.
func (e *Parallel) Run(ctx context.Context, def *domain.FlowDefinition, inputs map[string]any) (map[string]any, *domain.FlowRun, error) {
	run := domain.NewFlowRun(def)
	logger := telemetry.WithRunID(telemetry.WithFlow(e.logger, def.Name), run.FlowID)

	g, err := buildGraph(def, e.registry)
	if err != nil {
		run.MarkFailed(err.Error(), "")
		telemetry.ObserveRun(run)
		e.persist(ctx, run, logger)
		return nil, run, err
	}

	nodes := make(map[string]*taskNode, len(g.nodes))
	for name, n := range g.nodes {
		nodes[name] = &taskNode{
			node:      n,
			status:    domain.NodeStatusPending,
			remaining: n.inDegree,
		}
	}

	workers := e.maxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(g.roots) {
		workers = len(g.roots)
	}
	if workers < 1 {
		workers = 1
	}

	logger.Info("flow started",
		"tasks", len(nodes),
		"mode", "parallel",
		"workers", workers,
	)

	readyCh := make(chan workItem, len(nodes))
	resultCh := make(chan workResult, len(nodes))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runWorker(ctx, readyCh, resultCh)
		}()
	}

	// Общий контекст результатов. Пишет только диспетчер; воркеры
	// получают уже собранные аргументы, поэтому блокировки не нужны.
	results := make(map[string]any, len(nodes))

	dispatch := func(tn *taskNode) {
		tn.status = domain.NodeStatusRunning
		readyCh <- workItem{
			name: tn.node.name,
			task: tn.node.task,
			args: resolveArgs(tn.node, results, inputs),
		}
	}

	for _, root := range g.roots {
		dispatch(nodes[root.name])
	}

	// Цикл диспетчера: каждый узел достигает финального статуса
	// ровно один раз — либо через workResult, либо через skip.
	unresolved := len(nodes)
	for unresolved > 0 {
		res := <-resultCh
		tn := nodes[res.name]
		tn.start = res.start
		tn.end = res.end
		unresolved--

		if res.err != nil {
			tn.status = domain.NodeStatusFailed
			tn.err = res.err
			logger.Error("task failed", "task", res.name, "error", res.err)

			skipped := skipDependents(tn, nodes)
			unresolved -= skipped
			if skipped > 0 {
				logger.Warn("skipped dependents of failed task",
					"task", res.name,
					"skipped", skipped,
				)
			}
			continue
		}

		tn.status = domain.NodeStatusCompleted
		tn.result = res.result
		results[res.name] = res.result
		logger.Debug("task completed", "task", res.name)

		for _, dep := range tn.node.dependents {
			dtn := nodes[dep.name]
			if dtn.status != domain.NodeStatusPending {
				continue
			}
			dtn.remaining--
			if dtn.remaining == 0 {
				dispatch(dtn)
			}
		}
	}

	close(readyCh)
	wg.Wait()

	e.finalize(run, g, nodes)
	telemetry.ObserveRun(run)
	logger.Info("flow finished",
		"status", run.Status,
		"duration_sec", run.DurationSec,
	)
	e.persist(ctx, run, logger)

	return results, run, nil
}

// runWorker выполняет задачи из readyCh, пока канал не закрыт.
// Воркер блокируется только на получении работы и на теле задачи.
func runWorker(ctx context.Context, readyCh <-chan workItem, resultCh chan<- workResult) {
	for item := range readyCh {
		start := time.Now()
		result, err := executeTask(ctx, item.task, item.args)
		resultCh <- workResult{
			name:   item.name,
			result: result,
			err:    err,
			start:  start,
			end:    time.Now(),
		}
	}
}

// skipDependents транзитивно помечает SKIPPED всех ещё не запущенных
// зависимых упавшего узла. Возвращает количество пропущенных.
func skipDependents(failed *taskNode, nodes map[string]*taskNode) int {
	skipped := 0
	stack := make([]*node, 0, len(failed.node.dependents))
	stack = append(stack, failed.node.dependents...)

	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		tn := nodes[n.name]
		if tn.status != domain.NodeStatusPending {
			continue
		}
		tn.status = domain.NodeStatusSkipped
		skipped++
		stack = append(stack, n.dependents...)
	}
	return skipped
}

// finalize вычисляет статус flow и заполняет записи задач
// в топологическом порядке.
func (e *Parallel) finalize(run *domain.FlowRun, g *graph, nodes map[string]*taskNode) {
	var completed, failed int
	var failures []string

	run.Tasks = make([]domain.TaskRecord, 0, len(g.order))
	for _, n := range g.order {
		tn := nodes[n.name]

		rec := domain.TaskRecord{
			Name:      tn.node.name,
			Status:    tn.status,
			StartTime: tn.start,
			EndTime:   tn.end,
		}
		if !tn.start.IsZero() && !tn.end.IsZero() {
			rec.DurationSec = tn.end.Sub(tn.start).Seconds()
		}
		if tn.err != nil {
			rec.Error = tn.err.Error()
			failures = append(failures, tn.err.Error())
			if run.Trace == "" {
				run.Trace = errTrace(tn.err)
			}
		}
		run.Tasks = append(run.Tasks, rec)

		switch tn.status {
		case domain.NodeStatusCompleted:
			completed++
		case domain.NodeStatusFailed:
			failed++
		}
	}

	switch {
	case failed == 0:
		run.Finalize(domain.RunStatusCompleted)
	case completed > 0:
		run.Error = strings.Join(failures, "; ")
		run.Finalize(domain.RunStatusPartiallyCompleted)
	default:
		run.Error = strings.Join(failures, "; ")
		run.Finalize(domain.RunStatusFailed)
	}
}

// persist сохраняет запись о запуске; ошибка сохранения логируется.
func (e *Parallel) persist(ctx context.Context, run *domain.FlowRun, logger *slog.Logger) {
	if err := e.history.Save(ctx, run); err != nil {
		logger.Warn("failed to save flow run", "error", err)
	}
}
