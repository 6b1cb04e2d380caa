package domain

import (
	"time"

	"github.com/google/uuid"
)

// ScheduleType — тип расписания.
type ScheduleType string

const (
	// ScheduleInterval — запуск каждые N минут после завершения предыдущего.
	ScheduleInterval ScheduleType = "interval"

	// ScheduleDaily — запуск каждый день в заданное время.
	ScheduleDaily ScheduleType = "daily"

	// ScheduleWeekly — запуск в заданный день недели и время.
	ScheduleWeekly ScheduleType = "weekly"

	// ScheduleMonthly — запуск в заданный день месяца и время.
	ScheduleMonthly ScheduleType = "monthly"

	// ScheduleCron — запуск по произвольному cron-выражению.
	ScheduleCron ScheduleType = "cron"
)

// Статусы последнего запуска расписания.
const (
	ScheduleRunSuccess = "SUCCESS"
	ScheduleRunFailed  = "FAILED"
)

// Schedule — расписание периодического запуска flow.
//
// Scheduler сравнивает NextRun с текущим временем и запускает flow,
// когда время подошло. Каждый запуск читает DSL-файл заново,
// поэтому правки файла подхватываются без пересоздания расписания.
type Schedule struct {
	// ID — уникальный идентификатор расписания.
	ID uuid.UUID `json:"schedule_id"`

	// DSLPath — путь к файлу с определением flow.
	DSLPath string `json:"dsl_path"`

	// InputData — входные параметры, передаваемые в каждый запуск.
	InputData map[string]any `json:"input_data,omitempty"`

	// Type — тип расписания.
	Type ScheduleType `json:"schedule_type"`

	// IntervalMinutes — интервал для type=interval.
	// Отсчитывается от завершения предыдущего запуска, а не от
	// настенных часов: дрейф накапливается сознательно.
	IntervalMinutes int `json:"interval_minutes,omitempty"`

	// CronExpr — cron-выражение для type=cron.
	CronExpr string `json:"cron_expression,omitempty"`

	// At — время суток "HH:MM" для daily/weekly/monthly.
	At string `json:"at,omitempty"`

	// Weekday — день недели для weekly (0 = воскресенье, как в cron).
	Weekday int `json:"weekday,omitempty"`

	// MonthDay — день месяца (1..31) для monthly.
	MonthDay int `json:"month_day,omitempty"`

	// Parallel — выполнять flow параллельным исполнителем.
	Parallel bool `json:"parallel,omitempty"`

	// NextRun — вычисленное время следующего запуска.
	NextRun time.Time `json:"next_run"`

	// Enabled — активность расписания. Выключенные расписания
	// сохраняются, но не запускаются.
	Enabled bool `json:"enabled"`

	// LastRun — время последнего запуска.
	LastRun time.Time `json:"last_run,omitzero"`

	// LastStatus — исход последнего запуска: SUCCESS или FAILED.
	LastStatus string `json:"last_status,omitempty"`

	// CreatedAt — время создания расписания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего изменения.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsDue проверяет, пора ли запускать расписание.
func (s *Schedule) IsDue(now time.Time) bool {
	if !s.Enabled || s.NextRun.IsZero() {
		return false
	}
	return !now.Before(s.NextRun)
}

// RecordRun фиксирует исход запуска и время следующего.
func (s *Schedule) RecordRun(status string, nextRun time.Time) {
	now := time.Now()
	s.LastRun = now
	s.LastStatus = status
	s.NextRun = nextRun
	s.UpdatedAt = now
}
