package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Weft/internal/domain"
)

// Event — событие о завершении запуска flow.
type Event struct {
	// ID — уникальный идентификатор события.
	ID string `json:"id"`

	// FlowID — идентификатор запуска.
	FlowID string `json:"flow_id"`

	// Flow — имя flow.
	Flow string `json:"flow"`

	// Status — финальный статус запуска.
	Status domain.RunStatus `json:"status"`

	// Message — человекочитаемое описание (текст ошибки для
	// неуспешных запусков).
	Message string `json:"message,omitempty"`

	// Timestamp — время создания события.
	Timestamp time.Time `json:"timestamp"`
}

// Notifier доставляет события о завершении запусков.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// NewEvent собирает событие из финализированной записи запуска.
func NewEvent(run *domain.FlowRun) Event {
	return Event{
		ID:        uuid.New().String(),
		FlowID:    run.FlowID,
		Flow:      run.Name,
		Status:    run.Status,
		Message:   run.Error,
		Timestamp: time.Now(),
	}
}

// LogNotifier пишет события в структурированный лог.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier создаёт лог-уведомитель.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify логирует событие. Всегда успешен.
func (n *LogNotifier) Notify(_ context.Context, event Event) error {
	level := slog.LevelInfo
	if event.Status != domain.RunStatusCompleted {
		level = slog.LevelWarn
	}
	n.logger.Log(context.Background(), level, "flow run finished",
		"flow", event.Flow,
		"flow_id", event.FlowID,
		"status", event.Status,
		"message", event.Message,
	)
	return nil
}
