package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Weft/internal/domain"
	"github.com/shaiso/Weft/internal/engine"
	"github.com/shaiso/Weft/internal/history"
	"github.com/shaiso/Weft/internal/registry"
	"github.com/shaiso/Weft/internal/scheduler"
	"github.com/shaiso/Weft/internal/telemetry"
)

// app — общее окружение команд: логгер, реестр задач и хранилища.
type app struct {
	logger    *slog.Logger
	registry  *registry.Registry
	history   history.Store
	schedules scheduler.Store

	// pool непустой только для WEFT_STORAGE=postgres.
	pool *pgxpool.Pool
}

// dataDir возвращает каталог данных движка.
func dataDir() (string, error) {
	if dir := os.Getenv("WEFT_DATA_DIR"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".weft"), nil
}

// newApp собирает окружение. Бэкенд хранилищ выбирается через
// WEFT_STORAGE: "postgres" или файловый (по умолчанию).
func newApp(ctx context.Context) (*app, error) {
	a := &app{
		logger:   telemetry.SetupLogger(),
		registry: BuiltinRegistry(),
	}

	if os.Getenv("WEFT_STORAGE") == "postgres" {
		pool, err := history.NewPool(ctx)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool
		a.history = history.NewPostgresStore(pool)
		a.schedules = scheduler.NewPostgresStore(pool)
		return a, nil
	}

	dir, err := dataDir()
	if err != nil {
		return nil, err
	}

	historyStore, err := history.NewFileStore(filepath.Join(dir, "history"))
	if err != nil {
		return nil, err
	}
	scheduleStore, err := scheduler.NewFileStore(filepath.Join(dir, "schedules"))
	if err != nil {
		return nil, err
	}

	a.history = historyStore
	a.schedules = scheduleStore
	return a, nil
}

// close освобождает ресурсы окружения.
func (a *app) close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// sequential собирает последовательный исполнитель.
func (a *app) sequential() *engine.Sequential {
	return engine.NewSequential(a.registry, a.history, a.logger)
}

// validate проверяет flow против текущего реестра без выполнения.
func (a *app) validate(def *domain.FlowDefinition) error {
	return engine.Validate(def, a.registry)
}

// parallel собирает параллельный исполнитель.
func (a *app) parallel(maxWorkers int) *engine.Parallel {
	return engine.NewParallel(engine.ParallelConfig{
		Registry:   a.registry,
		History:    a.history,
		Logger:     a.logger,
		MaxWorkers: maxWorkers,
	})
}
