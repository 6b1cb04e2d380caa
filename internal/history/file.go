package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/shaiso/Weft/internal/domain"
)

// FileStore — файловое хранилище истории: один JSON-файл на запуск.
//
// List сканирует весь каталог и сортирует записи в памяти — O(n)
// на каждый вызов. Для операционного масштаба движка (единицы
// запусков в минуту) индекс не нужен.
type FileStore struct {
	dir string
}

// NewFileStore создаёт хранилище в каталоге dir.
// Каталог создаётся, если его нет.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Save записывает run в файл "{flow_id}.json".
func (s *FileStore) Save(_ context.Context, run *domain.FlowRun) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal flow run: %w", err)
	}

	if err := os.WriteFile(s.path(run.FlowID), data, 0o644); err != nil {
		return fmt.Errorf("write flow run %s: %w", run.FlowID, err)
	}
	return nil
}

// Load читает запись по flow_id.
func (s *FileStore) Load(_ context.Context, flowID string) (*domain.FlowRun, error) {
	data, err := os.ReadFile(s.path(flowID))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, flowID)
	}
	if err != nil {
		return nil, fmt.Errorf("read flow run %s: %w", flowID, err)
	}

	var run domain.FlowRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("unmarshal flow run %s: %w", flowID, err)
	}
	return &run, nil
}

// List возвращает все записи, свежие первыми.
// Повреждённые файлы пропускаются, чтобы одна битая запись
// не ломала весь листинг.
func (s *FileStore) List(_ context.Context) ([]domain.FlowRun, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read history dir: %w", err)
	}

	runs := make([]domain.FlowRun, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}

		var run domain.FlowRun
		if err := json.Unmarshal(data, &run); err != nil {
			continue
		}
		runs = append(runs, run)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})
	return runs, nil
}

func (s *FileStore) path(flowID string) string {
	return filepath.Join(s.dir, flowID+".json")
}
