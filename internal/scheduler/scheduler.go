package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Weft/internal/domain"
	"github.com/shaiso/Weft/internal/dsl"
	"github.com/shaiso/Weft/internal/engine"
	"github.com/shaiso/Weft/internal/notify"
	"github.com/shaiso/Weft/internal/telemetry"
)

// Scheduler периодически запускает flow по расписаниям.
type Scheduler struct {
	store      Store
	sequential *engine.Sequential
	parallel   *engine.Parallel
	notifier   notify.Notifier
	logger     *slog.Logger
}

// Config — конфигурация Scheduler.
type Config struct {
	Store      Store
	Sequential *engine.Sequential
	Parallel   *engine.Parallel

	// Notifier — опциональный получатель событий о запусках.
	Notifier notify.Notifier

	Logger *slog.Logger
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		store:      cfg.Store,
		sequential: cfg.Sequential,
		parallel:   cfg.Parallel,
		notifier:   cfg.Notifier,
		logger:     logger,
	}
}

// Create регистрирует новое расписание.
//
// Присваивает идентификатор, проверяет параметры и вычисляет первое
// время запуска. Новое расписание активно.
func (s *Scheduler) Create(ctx context.Context, sched *domain.Schedule) error {
	if err := Validate(sched); err != nil {
		return fmt.Errorf("validate schedule: %w", err)
	}

	next, err := NextRun(sched, time.Now())
	if err != nil {
		return err
	}

	now := time.Now()
	sched.ID = uuid.New()
	sched.NextRun = next
	sched.Enabled = true
	sched.CreatedAt = now
	sched.UpdatedAt = now

	if err := s.store.Save(ctx, sched); err != nil {
		return err
	}

	s.logger.Info("schedule created",
		"schedule_id", sched.ID,
		"type", sched.Type,
		"dsl_path", sched.DSLPath,
		"next_run", sched.NextRun,
	)
	return nil
}

// Update сохраняет изменённое расписание.
// Параметры перепроверяются, время следующего запуска пересчитывается.
func (s *Scheduler) Update(ctx context.Context, sched *domain.Schedule) error {
	if _, err := s.store.Load(ctx, sched.ID); err != nil {
		return err
	}
	if err := Validate(sched); err != nil {
		return fmt.Errorf("validate schedule: %w", err)
	}

	next, err := NextRun(sched, time.Now())
	if err != nil {
		return err
	}
	sched.NextRun = next
	sched.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, sched); err != nil {
		return err
	}

	s.logger.Info("schedule updated",
		"schedule_id", sched.ID,
		"type", sched.Type,
		"next_run", sched.NextRun,
	)
	return nil
}

// Delete удаляет расписание.
func (s *Scheduler) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("schedule deleted", "schedule_id", id)
	return nil
}

// SetEnabled включает или выключает расписание.
// При включении время следующего запуска пересчитывается от текущего
// момента, чтобы не выстрелили все пропущенные срабатывания разом.
func (s *Scheduler) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	sched, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}

	sched.Enabled = enabled
	sched.UpdatedAt = time.Now()

	if enabled {
		next, err := NextRun(sched, time.Now())
		if err != nil {
			return err
		}
		sched.NextRun = next
	}

	if err := s.store.Save(ctx, sched); err != nil {
		return err
	}

	s.logger.Info("schedule updated", "schedule_id", id, "enabled", enabled)
	return nil
}

// List возвращает все расписания.
func (s *Scheduler) List(ctx context.Context) ([]domain.Schedule, error) {
	return s.store.List(ctx)
}

// RunNow немедленно запускает расписание, не дожидаясь next_run.
// Исход фиксируется так же, как при автоматическом срабатывании.
func (s *Scheduler) RunNow(ctx context.Context, id uuid.UUID) error {
	sched, err := s.store.Load(ctx, id)
	if err != nil {
		return err
	}
	return s.fire(ctx, sched)
}

// Tick выполняет один тик планировщика: запускает все расписания
// с истекшим next_run. Ошибка одного расписания логируется и не
// блокирует остальные.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := time.Now()

	schedules, err := s.store.List(ctx)
	if err != nil {
		return fmt.Errorf("list schedules: %w", err)
	}

	for i := range schedules {
		sched := &schedules[i]
		if !sched.IsDue(now) {
			continue
		}

		if err := s.fire(ctx, sched); err != nil {
			s.logger.Error("failed to fire schedule",
				"schedule_id", sched.ID,
				"dsl_path", sched.DSLPath,
				"error", err,
			)
		}
	}

	return nil
}

// fire выполняет одно срабатывание расписания.
//
// DSL-файл читается заново при каждом срабатывании. Исход запуска
// фиксируется в last_status; следующее время вычисляется от момента
// завершения, поэтому интервальные расписания дрейфуют на время
// выполнения flow.
func (s *Scheduler) fire(ctx context.Context, sched *domain.Schedule) error {
	logger := telemetry.WithScheduleID(s.logger, sched.ID.String())
	logger.Info("schedule fired", "dsl_path", sched.DSLPath, "parallel", sched.Parallel)

	status := domain.ScheduleRunSuccess
	run, err := s.runFlow(ctx, sched)
	if err != nil {
		status = domain.ScheduleRunFailed
		logger.Error("scheduled run failed", "error", err)
	}

	telemetry.ScheduleFiresTotal.WithLabelValues(status).Inc()

	// Уведомление — best-effort: ошибка доставки не влияет на расписание.
	if s.notifier != nil && run != nil {
		if err := s.notifier.Notify(ctx, notify.NewEvent(run)); err != nil {
			logger.Warn("failed to send notification", "error", err)
		}
	}

	next, err := NextRun(sched, time.Now())
	if err != nil {
		// Расписание стало невалидным (например, сломали cron-выражение
		// при правке) — выключаем, чтобы не жечь тики.
		logger.Error("failed to calculate next run, disabling schedule", "error", err)
		sched.Enabled = false
		sched.UpdatedAt = time.Now()
		return s.store.Save(ctx, sched)
	}

	sched.RecordRun(status, next)
	if err := s.store.Save(ctx, sched); err != nil {
		return fmt.Errorf("save schedule: %w", err)
	}

	logger.Info("schedule completed",
		"status", status,
		"next_run", sched.NextRun,
	)
	return nil
}

// runFlow читает DSL-файл и выполняет flow выбранным исполнителем.
// Запись о запуске возвращается и для неуспешных исходов.
func (s *Scheduler) runFlow(ctx context.Context, sched *domain.Schedule) (*domain.FlowRun, error) {
	text, err := os.ReadFile(sched.DSLPath)
	if err != nil {
		return nil, fmt.Errorf("read flow file: %w", err)
	}

	def, err := dsl.Parse(string(text))
	if err != nil {
		return nil, fmt.Errorf("parse flow: %w", err)
	}

	if sched.Parallel {
		_, run, err := s.parallel.Run(ctx, def, sched.InputData)
		if err != nil {
			return run, err
		}
		if run.Status != domain.RunStatusCompleted {
			return run, fmt.Errorf("flow finished with status %s: %s", run.Status, run.Error)
		}
		return run, nil
	}

	_, run, err := s.sequential.Run(ctx, def, sched.InputData)
	return run, err
}

// Start запускает цикл планировщика с заданным периодом тика.
// Блокируется до отмены контекста.
func (s *Scheduler) Start(ctx context.Context, tick time.Duration) {
	if tick <= 0 {
		tick = time.Second
	}

	s.logger.Info("scheduler started", "tick", tick)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil {
				s.logger.Error("scheduler tick failed", "error", err)
			}
		}
	}
}
