package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/shaiso/Weft/internal/domain"
)

// ErrNotFound возвращается, когда расписание не существует.
var ErrNotFound = errors.New("schedule not found")

// Store — хранилище расписаний.
type Store interface {
	Save(ctx context.Context, s *domain.Schedule) error
	Load(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)
	List(ctx context.Context) ([]domain.Schedule, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// FileStore — файловое хранилище: один JSON-файл на расписание.
type FileStore struct {
	dir string
}

// NewFileStore создаёт хранилище в каталоге dir.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create schedules dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save записывает расписание в файл "{schedule_id}.json".
// Повторный Save перезаписывает файл.
func (s *FileStore) Save(_ context.Context, sched *domain.Schedule) error {
	data, err := json.MarshalIndent(sched, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal schedule: %w", err)
	}

	if err := os.WriteFile(s.path(sched.ID), data, 0o644); err != nil {
		return fmt.Errorf("write schedule %s: %w", sched.ID, err)
	}
	return nil
}

// Load читает расписание по идентификатору.
func (s *FileStore) Load(_ context.Context, id uuid.UUID) (*domain.Schedule, error) {
	data, err := os.ReadFile(s.path(id))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read schedule %s: %w", id, err)
	}

	var sched domain.Schedule
	if err := json.Unmarshal(data, &sched); err != nil {
		return nil, fmt.Errorf("unmarshal schedule %s: %w", id, err)
	}
	return &sched, nil
}

// List возвращает все расписания, отсортированные по времени создания.
// Повреждённые файлы пропускаются.
func (s *FileStore) List(_ context.Context) ([]domain.Schedule, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read schedules dir: %w", err)
	}

	schedules := make([]domain.Schedule, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}

		var sched domain.Schedule
		if err := json.Unmarshal(data, &sched); err != nil {
			continue
		}
		schedules = append(schedules, sched)
	}

	sort.Slice(schedules, func(i, j int) bool {
		return schedules[i].CreatedAt.Before(schedules[j].CreatedAt)
	})
	return schedules, nil
}

// Delete удаляет расписание. Отсутствующее расписание — ErrNotFound.
func (s *FileStore) Delete(_ context.Context, id uuid.UUID) error {
	err := os.Remove(s.path(id))
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return fmt.Errorf("delete schedule %s: %w", id, err)
	}
	return nil
}

func (s *FileStore) path(id uuid.UUID) string {
	return filepath.Join(s.dir, id.String()+".json")
}
