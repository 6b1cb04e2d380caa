package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Weft/internal/domain"
)

// PostgresStore — хранилище истории в таблице flow_runs.
//
// Схема:
//
//	CREATE TABLE flow_runs (
//	    flow_id      text PRIMARY KEY,
//	    name         text NOT NULL,
//	    description  text,
//	    status       text NOT NULL,
//	    start_time   timestamptz NOT NULL,
//	    end_time     timestamptz,
//	    duration_sec double precision NOT NULL DEFAULT 0,
//	    tasks        jsonb NOT NULL DEFAULT '[]',
//	    error        text,
//	    trace        text
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище поверх готового пула.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Save сохраняет запись. Повторное сохранение того же flow_id
// перезаписывает запись — Save идемпотентен.
func (s *PostgresStore) Save(ctx context.Context, run *domain.FlowRun) error {
	tasksJSON, err := json.Marshal(run.Tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}

	query := `
		INSERT INTO flow_runs (flow_id, name, description, status, start_time, end_time, duration_sec, tasks, error, trace)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (flow_id) DO UPDATE
		SET status = EXCLUDED.status, end_time = EXCLUDED.end_time,
		    duration_sec = EXCLUDED.duration_sec, tasks = EXCLUDED.tasks,
		    error = EXCLUDED.error, trace = EXCLUDED.trace
	`
	_, err = s.pool.Exec(ctx, query,
		run.FlowID,
		run.Name,
		nullString(run.Description),
		run.Status,
		run.StartTime,
		run.EndTime,
		run.DurationSec,
		tasksJSON,
		nullString(run.Error),
		nullString(run.Trace),
	)
	if err != nil {
		return fmt.Errorf("insert flow run: %w", err)
	}
	return nil
}

// Load возвращает запись по flow_id.
func (s *PostgresStore) Load(ctx context.Context, flowID string) (*domain.FlowRun, error) {
	query := `
		SELECT flow_id, name, description, status, start_time, end_time, duration_sec, tasks, error, trace
		FROM flow_runs
		WHERE flow_id = $1
	`
	run, err := scanRun(s.pool.QueryRow(ctx, query, flowID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, flowID)
	}
	return run, err
}

// List возвращает все записи, свежие первыми.
func (s *PostgresStore) List(ctx context.Context) ([]domain.FlowRun, error) {
	query := `
		SELECT flow_id, name, description, status, start_time, end_time, duration_sec, tasks, error, trace
		FROM flow_runs
		ORDER BY start_time DESC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list flow runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.FlowRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// scanRun сканирует одну строку в FlowRun.
func scanRun(row pgx.Row) (*domain.FlowRun, error) {
	var run domain.FlowRun
	var tasksJSON []byte
	var description, runError, trace *string

	err := row.Scan(
		&run.FlowID,
		&run.Name,
		&description,
		&run.Status,
		&run.StartTime,
		&run.EndTime,
		&run.DurationSec,
		&tasksJSON,
		&runError,
		&trace,
	)
	if err != nil {
		return nil, err
	}

	if tasksJSON != nil {
		if err := json.Unmarshal(tasksJSON, &run.Tasks); err != nil {
			return nil, fmt.Errorf("unmarshal tasks: %w", err)
		}
	}

	if description != nil {
		run.Description = *description
	}
	if runError != nil {
		run.Error = *runError
	}
	if trace != nil {
		run.Trace = *trace
	}
	return &run, nil
}

// nullString возвращает nil для пустой строки (NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
