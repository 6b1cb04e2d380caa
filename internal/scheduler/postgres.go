package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Weft/internal/domain"
)

// PostgresStore — хранилище расписаний в таблице schedules.
//
// Схема:
//
//	CREATE TABLE schedules (
//	    id               uuid PRIMARY KEY,
//	    dsl_path         text NOT NULL,
//	    input_data       jsonb,
//	    schedule_type    text NOT NULL,
//	    interval_minutes int NOT NULL DEFAULT 0,
//	    cron_expression  text,
//	    at_time          text,
//	    weekday          int NOT NULL DEFAULT 0,
//	    month_day        int NOT NULL DEFAULT 0,
//	    parallel         boolean NOT NULL DEFAULT false,
//	    next_run         timestamptz,
//	    enabled          boolean NOT NULL DEFAULT true,
//	    last_run         timestamptz,
//	    last_status      text,
//	    created_at       timestamptz NOT NULL,
//	    updated_at       timestamptz NOT NULL
//	);
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore создаёт хранилище поверх готового пула.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const scheduleColumns = `id, dsl_path, input_data, schedule_type, interval_minutes,
	cron_expression, at_time, weekday, month_day, parallel,
	next_run, enabled, last_run, last_status, created_at, updated_at`

// Save сохраняет расписание. Повторный Save того же id
// перезаписывает запись.
func (s *PostgresStore) Save(ctx context.Context, sched *domain.Schedule) error {
	inputJSON, err := json.Marshal(sched.InputData)
	if err != nil {
		return fmt.Errorf("marshal input data: %w", err)
	}

	query := `
		INSERT INTO schedules (` + scheduleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE
		SET dsl_path = EXCLUDED.dsl_path, input_data = EXCLUDED.input_data,
		    schedule_type = EXCLUDED.schedule_type, interval_minutes = EXCLUDED.interval_minutes,
		    cron_expression = EXCLUDED.cron_expression, at_time = EXCLUDED.at_time,
		    weekday = EXCLUDED.weekday, month_day = EXCLUDED.month_day,
		    parallel = EXCLUDED.parallel, next_run = EXCLUDED.next_run,
		    enabled = EXCLUDED.enabled, last_run = EXCLUDED.last_run,
		    last_status = EXCLUDED.last_status, updated_at = EXCLUDED.updated_at
	`
	_, err = s.pool.Exec(ctx, query,
		sched.ID,
		sched.DSLPath,
		inputJSON,
		sched.Type,
		sched.IntervalMinutes,
		nullString(sched.CronExpr),
		nullString(sched.At),
		sched.Weekday,
		sched.MonthDay,
		sched.Parallel,
		sched.NextRun,
		sched.Enabled,
		sched.LastRun,
		nullString(sched.LastStatus),
		sched.CreatedAt,
		sched.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert schedule: %w", err)
	}
	return nil
}

// Load возвращает расписание по идентификатору.
func (s *PostgresStore) Load(ctx context.Context, id uuid.UUID) (*domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE id = $1`
	sched, err := scanSchedule(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return sched, err
}

// List возвращает все расписания, старые первыми.
func (s *PostgresStore) List(ctx context.Context) ([]domain.Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules ORDER BY created_at`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	defer rows.Close()

	var schedules []domain.Schedule
	for rows.Next() {
		sched, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *sched)
	}
	return schedules, rows.Err()
}

// Delete удаляет расписание. Отсутствующая запись — ErrNotFound.
func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// scanSchedule сканирует одну строку в Schedule.
func scanSchedule(row pgx.Row) (*domain.Schedule, error) {
	var sched domain.Schedule
	var inputJSON []byte
	var cronExpr, at, lastStatus *string

	err := row.Scan(
		&sched.ID,
		&sched.DSLPath,
		&inputJSON,
		&sched.Type,
		&sched.IntervalMinutes,
		&cronExpr,
		&at,
		&sched.Weekday,
		&sched.MonthDay,
		&sched.Parallel,
		&sched.NextRun,
		&sched.Enabled,
		&sched.LastRun,
		&lastStatus,
		&sched.CreatedAt,
		&sched.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if inputJSON != nil {
		if err := json.Unmarshal(inputJSON, &sched.InputData); err != nil {
			return nil, fmt.Errorf("unmarshal input data: %w", err)
		}
	}

	if cronExpr != nil {
		sched.CronExpr = *cronExpr
	}
	if at != nil {
		sched.At = *at
	}
	if lastStatus != nil {
		sched.LastStatus = *lastStatus
	}
	return &sched, nil
}

// nullString возвращает nil для пустой строки (NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
