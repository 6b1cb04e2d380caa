// Package history содержит хранилище истории запусков flow.
//
// Запись FlowRun durable и пишется ровно один раз — при финальном
// переходе запуска (COMPLETED/FAILED/PARTIALLY_COMPLETED).
// Реализации:
//   - FileStore     — JSON-файл на запуск в каталоге данных (по умолчанию)
//   - PostgresStore — таблица flow_runs через pgxpool (при заданном DB_URL)
package history

import (
	"context"
	"errors"

	"github.com/shaiso/Weft/internal/domain"
)

// ErrNotFound — запись о запуске не найдена.
var ErrNotFound = errors.New("flow run not found")

// Store — контракт хранилища истории запусков.
type Store interface {
	// Save сохраняет финализированную запись о запуске.
	Save(ctx context.Context, run *domain.FlowRun) error

	// Load возвращает запись по flow_id.
	// Возвращает ErrNotFound, если записи нет.
	Load(ctx context.Context, flowID string) (*domain.FlowRun, error)

	// List возвращает все записи, отсортированные по времени
	// начала по убыванию (свежие первыми).
	List(ctx context.Context) ([]domain.FlowRun, error)
}
