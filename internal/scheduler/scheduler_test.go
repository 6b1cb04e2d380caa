package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Weft/internal/domain"
	"github.com/shaiso/Weft/internal/engine"
	"github.com/shaiso/Weft/internal/history"
	"github.com/shaiso/Weft/internal/registry"
)

func writeFlowFile(t *testing.T, text string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "flow.weft")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatalf("write flow file: %v", err)
	}
	return path
}

func newScheduler(t *testing.T, reg *registry.Registry) (*Scheduler, Store, history.Store) {
	t.Helper()

	scheduleStore, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new schedule store: %v", err)
	}
	historyStore, err := history.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new history store: %v", err)
	}

	sched := New(Config{
		Store:      scheduleStore,
		Sequential: engine.NewSequential(reg, historyStore, nil),
		Parallel: engine.NewParallel(engine.ParallelConfig{
			Registry: reg,
			History:  historyStore,
		}),
	})
	return sched, scheduleStore, historyStore
}

func okRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, name := range []string{"A", "B"} {
		reg.Register(registry.Task{
			Name: name,
			Fn: func(_ context.Context, _ map[string]any) (any, error) {
				return nil, nil
			},
		})
	}
	return reg
}

func TestScheduler_Create(t *testing.T) {
	sched, store, _ := newScheduler(t, okRegistry(t))

	s := &domain.Schedule{
		DSLPath:         writeFlowFile(t, "flow F:\nA -> B"),
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 5,
	}

	if err := sched.Create(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.ID == uuid.Nil {
		t.Error("expected assigned schedule id")
	}
	if !s.Enabled {
		t.Error("new schedule must be enabled")
	}
	if s.NextRun.IsZero() {
		t.Error("expected computed next run")
	}

	loaded, err := store.Load(context.Background(), s.ID)
	if err != nil {
		t.Fatalf("load created schedule: %v", err)
	}
	if loaded.Type != domain.ScheduleInterval || loaded.IntervalMinutes != 5 {
		t.Errorf("unexpected persisted schedule: %+v", loaded)
	}
}

func TestScheduler_CreateRejectsInvalid(t *testing.T) {
	sched, _, _ := newScheduler(t, okRegistry(t))

	s := &domain.Schedule{
		DSLPath: writeFlowFile(t, "flow F:\nA -> B"),
		Type:    domain.ScheduleInterval, // без interval_minutes
	}
	if err := sched.Create(context.Background(), s); err == nil {
		t.Error("expected validation error")
	}
}

func TestScheduler_TickFiresDueSchedule(t *testing.T) {
	sched, store, historyStore := newScheduler(t, okRegistry(t))
	ctx := context.Background()

	s := &domain.Schedule{
		DSLPath:         writeFlowFile(t, "flow scheduled:\nA -> B"),
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 1,
	}
	if err := sched.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Делаем расписание просроченным.
	s.NextRun = time.Now().Add(-time.Minute)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := sched.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	updated, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if updated.LastStatus != domain.ScheduleRunSuccess {
		t.Errorf("expected last_status SUCCESS, got %q", updated.LastStatus)
	}
	if updated.LastRun.IsZero() {
		t.Error("expected recorded last_run")
	}
	if !updated.NextRun.After(time.Now()) {
		t.Errorf("expected next_run in the future, got %v", updated.NextRun)
	}

	runs, err := historyStore.List(ctx)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(runs) != 1 || runs[0].Name != "scheduled" {
		t.Errorf("expected one persisted run for flow scheduled, got %+v", runs)
	}
}

func TestScheduler_ConsecutiveFiresAdvanceNextRun(t *testing.T) {
	sched, store, _ := newScheduler(t, okRegistry(t))
	ctx := context.Background()

	s := &domain.Schedule{
		DSLPath:         writeFlowFile(t, "flow F:\nA -> B"),
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 1,
	}
	if err := sched.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	var prev time.Time
	for i := 0; i < 2; i++ {
		s.NextRun = time.Now().Add(-time.Second)
		if err := store.Save(ctx, s); err != nil {
			t.Fatalf("save: %v", err)
		}
		if err := sched.Tick(ctx); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}

		updated, err := store.Load(ctx, s.ID)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if updated.LastStatus != domain.ScheduleRunSuccess {
			t.Fatalf("fire %d: expected SUCCESS, got %q", i, updated.LastStatus)
		}
		if !updated.NextRun.After(prev) {
			t.Errorf("fire %d: next_run did not advance: %v", i, updated.NextRun)
		}
		prev = updated.NextRun
		*s = *updated
	}
}

func TestScheduler_TickSkipsDisabled(t *testing.T) {
	sched, store, historyStore := newScheduler(t, okRegistry(t))
	ctx := context.Background()

	s := &domain.Schedule{
		DSLPath:         writeFlowFile(t, "flow F:\nA -> B"),
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 1,
	}
	if err := sched.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	s.NextRun = time.Now().Add(-time.Minute)
	s.Enabled = false
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := sched.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	runs, err := historyStore.List(ctx)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("disabled schedule must not fire, got %d runs", len(runs))
	}
}

func TestScheduler_FailedRunRecordsFailed(t *testing.T) {
	reg := registry.New()
	reg.Register(registry.Task{
		Name: "A",
		Fn: func(_ context.Context, _ map[string]any) (any, error) {
			return nil, errors.New("boom")
		},
	})
	reg.Register(registry.Task{
		Name: "B",
		Fn: func(_ context.Context, _ map[string]any) (any, error) {
			return nil, nil
		},
	})

	sched, store, _ := newScheduler(t, reg)
	ctx := context.Background()

	s := &domain.Schedule{
		DSLPath:         writeFlowFile(t, "flow F:\nA -> B"),
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 1,
	}
	if err := sched.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	s.NextRun = time.Now().Add(-time.Minute)
	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := sched.Tick(ctx); err != nil {
		t.Fatalf("tick: %v", err)
	}

	updated, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if updated.LastStatus != domain.ScheduleRunFailed {
		t.Errorf("expected last_status FAILED, got %q", updated.LastStatus)
	}
	// Расписание продолжает жить после неудачного запуска.
	if !updated.Enabled {
		t.Error("schedule must stay enabled after a failed run")
	}
	if !updated.NextRun.After(time.Now()) {
		t.Errorf("expected next_run in the future, got %v", updated.NextRun)
	}
}

func TestScheduler_SetEnabled(t *testing.T) {
	sched, store, _ := newScheduler(t, okRegistry(t))
	ctx := context.Background()

	s := &domain.Schedule{
		DSLPath:         writeFlowFile(t, "flow F:\nA -> B"),
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 1,
	}
	if err := sched.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := sched.SetEnabled(ctx, s.ID, false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	loaded, _ := store.Load(ctx, s.ID)
	if loaded.Enabled {
		t.Error("expected disabled schedule")
	}

	if err := sched.SetEnabled(ctx, s.ID, true); err != nil {
		t.Fatalf("enable: %v", err)
	}
	loaded, _ = store.Load(ctx, s.ID)
	if !loaded.Enabled {
		t.Error("expected enabled schedule")
	}
	if !loaded.NextRun.After(time.Now().Add(-time.Second)) {
		t.Errorf("expected next_run recomputed, got %v", loaded.NextRun)
	}
}

func TestScheduler_RunNowIgnoresNextRun(t *testing.T) {
	sched, store, historyStore := newScheduler(t, okRegistry(t))
	ctx := context.Background()

	s := &domain.Schedule{
		DSLPath:         writeFlowFile(t, "flow F:\nA -> B"),
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 60, // next_run далеко в будущем
	}
	if err := sched.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := sched.RunNow(ctx, s.ID); err != nil {
		t.Fatalf("run now: %v", err)
	}

	updated, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if updated.LastStatus != domain.ScheduleRunSuccess {
		t.Errorf("expected SUCCESS, got %q", updated.LastStatus)
	}

	runs, err := historyStore.List(ctx)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected one persisted run, got %d", len(runs))
	}
}

func TestScheduler_UpdateRecomputesNextRun(t *testing.T) {
	sched, store, _ := newScheduler(t, okRegistry(t))
	ctx := context.Background()

	s := &domain.Schedule{
		DSLPath:         writeFlowFile(t, "flow F:\nA -> B"),
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 5,
	}
	if err := sched.Create(ctx, s); err != nil {
		t.Fatalf("create: %v", err)
	}

	s.IntervalMinutes = 60
	if err := sched.Update(ctx, s); err != nil {
		t.Fatalf("update: %v", err)
	}

	loaded, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.IntervalMinutes != 60 {
		t.Errorf("expected interval 60, got %d", loaded.IntervalMinutes)
	}
	if !loaded.NextRun.After(time.Now().Add(50 * time.Minute)) {
		t.Errorf("expected next_run recomputed for the new interval, got %v", loaded.NextRun)
	}
}

func TestScheduler_UpdateMissing(t *testing.T) {
	sched, _, _ := newScheduler(t, okRegistry(t))

	s := &domain.Schedule{
		ID:              uuid.New(),
		DSLPath:         "/tmp/flow.weft",
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 5,
	}
	if err := sched.Update(context.Background(), s); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduler_DeleteMissing(t *testing.T) {
	sched, _, _ := newScheduler(t, okRegistry(t))

	err := sched.Delete(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStore_SaveLoadDelete(t *testing.T) {
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	s := &domain.Schedule{
		ID:              uuid.New(),
		DSLPath:         "/tmp/flow.weft",
		Type:            domain.ScheduleInterval,
		IntervalMinutes: 5,
		Enabled:         true,
		CreatedAt:       time.Now(),
	}

	if err := store.Save(ctx, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.DSLPath != s.DSLPath || loaded.IntervalMinutes != 5 {
		t.Errorf("unexpected loaded schedule: %+v", loaded)
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
