package domain

import (
	"time"
)

// flowIDTimeLayout — формат временной метки в идентификаторе запуска.
// Наносекунды исключают коллизии при частых запусках одного flow.
const flowIDTimeLayout = "20060102T150405.000000000"

// FlowRun — запись об одном выполнении flow.
//
// Создаётся в начале выполнения, финализируется ровно один раз —
// при успешном завершении или первой невосстановимой ошибке —
// и в этом виде сохраняется в History Store.
type FlowRun struct {
	// FlowID — идентификатор запуска: "{flow_name}_{timestamp}".
	FlowID string `json:"flow_id"`

	// Name — имя flow.
	Name string `json:"name"`

	// Description — описание flow на момент запуска.
	Description string `json:"description,omitempty"`

	// Status — итоговый статус выполнения.
	Status RunStatus `json:"status"`

	// StartTime — время начала выполнения.
	StartTime time.Time `json:"start_time"`

	// EndTime — время завершения.
	EndTime time.Time `json:"end_time,omitzero"`

	// DurationSec — продолжительность выполнения в секундах.
	DurationSec float64 `json:"duration"`

	// Tasks — записи о задачах в топологическом порядке выполнения.
	Tasks []TaskRecord `json:"tasks"`

	// Error — текст ошибки, если Status != COMPLETED.
	Error string `json:"error,omitempty"`

	// Trace — стек ошибки для диагностики.
	Trace string `json:"trace,omitempty"`
}

// TaskRecord — запись о выполнении одной задачи внутри запуска.
type TaskRecord struct {
	// Name — имя задачи.
	Name string `json:"name"`

	// Status — финальный статус задачи.
	Status NodeStatus `json:"status"`

	// StartTime — время начала выполнения. Нулевое для SKIPPED.
	StartTime time.Time `json:"start_time,omitzero"`

	// EndTime — время завершения. Нулевое для SKIPPED.
	EndTime time.Time `json:"end_time,omitzero"`

	// DurationSec — продолжительность в секундах.
	DurationSec float64 `json:"duration"`

	// Error — текст ошибки для FAILED.
	Error string `json:"error,omitempty"`
}

// NewFlowRun создаёт запись о запуске в статусе RUNNING.
func NewFlowRun(def *FlowDefinition) *FlowRun {
	now := time.Now()
	return &FlowRun{
		FlowID:      def.Name + "_" + now.UTC().Format(flowIDTimeLayout),
		Name:        def.Name,
		Description: def.Description,
		Status:      RunStatusRunning,
		StartTime:   now,
	}
}

// Finalize выставляет итоговый статус, время завершения и продолжительность.
func (r *FlowRun) Finalize(status RunStatus) {
	r.Status = status
	r.EndTime = time.Now()
	r.DurationSec = r.EndTime.Sub(r.StartTime).Seconds()
}

// MarkFailed финализирует запуск со статусом FAILED и ошибкой.
func (r *FlowRun) MarkFailed(errMsg, trace string) {
	r.Error = errMsg
	r.Trace = trace
	r.Finalize(RunStatusFailed)
}

// Duration возвращает продолжительность записи задачи.
func (t *TaskRecord) Duration() time.Duration {
	if t.StartTime.IsZero() || t.EndTime.IsZero() {
		return 0
	}
	return t.EndTime.Sub(t.StartTime)
}
