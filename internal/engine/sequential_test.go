package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/shaiso/Weft/internal/domain"
	"github.com/shaiso/Weft/internal/dsl"
	"github.com/shaiso/Weft/internal/history"
	"github.com/shaiso/Weft/internal/registry"
)

func newStore(t *testing.T) *history.FileStore {
	t.Helper()
	store, err := history.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return store
}

func mustParse(t *testing.T, text string) *domain.FlowDefinition {
	t.Helper()
	def, err := dsl.Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return def
}

func lastRun(t *testing.T, store history.Store) *domain.FlowRun {
	t.Helper()
	runs, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) == 0 {
		t.Fatal("expected a persisted flow run")
	}
	return &runs[0]
}

func TestSequential_Scenario(t *testing.T) {
	reg := registry.New()
	reg.Register(registry.Task{
		Name: "X",
		Fn: func(_ context.Context, _ map[string]any) (any, error) {
			return map[string]any{"v": 5}, nil
		},
	})
	reg.Register(registry.Task{
		Name:   "Y",
		Params: []string{"v"},
		Fn: func(_ context.Context, args map[string]any) (any, error) {
			return args["v"].(int) * 2, nil
		},
	})

	store := newStore(t)
	exec := NewSequential(reg, store, nil)

	def := mustParse(t, "flow F:\ndescription: \"t\"\nX -> Y")
	results, _, err := exec.Run(context.Background(), def, map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	x, ok := results["X"].(map[string]any)
	if !ok || x["v"] != 5 {
		t.Errorf("unexpected X result: %v", results["X"])
	}
	if results["Y"] != 10 {
		t.Errorf("expected Y=10, got %v", results["Y"])
	}

	run := lastRun(t, store)
	if run.Status != domain.RunStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", run.Status)
	}
	if len(run.Tasks) != 2 {
		t.Errorf("expected 2 task records, got %d", len(run.Tasks))
	}
}

func TestSequential_DependencyOrdering(t *testing.T) {
	// Каждая задача должна стартовать не раньше завершения всех
	// прямых предшественников; для последовательного исполнителя
	// проверяем фактический порядок запуска.
	var order []string
	task := func(name string) registry.Task {
		return registry.Task{
			Name: name,
			Fn: func(_ context.Context, _ map[string]any) (any, error) {
				order = append(order, name)
				return nil, nil
			},
		}
	}

	reg := registry.New()
	for _, name := range []string{"A", "B", "C", "D"} {
		reg.Register(task(name))
	}

	exec := NewSequential(reg, newStore(t), nil)
	def := mustParse(t, "flow F:\nA -> [B, C]\nB -> D\nC -> D")

	if _, _, err := exec.Run(context.Background(), def, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	for _, edge := range [][2]string{{"A", "B"}, {"A", "C"}, {"B", "D"}, {"C", "D"}} {
		if pos[edge[0]] > pos[edge[1]] {
			t.Errorf("%s executed before its dependency %s", edge[1], edge[0])
		}
	}
}

func TestSequential_FailFast(t *testing.T) {
	var cCalls atomic.Int32
	boom := errors.New("boom")

	reg := registry.New()
	reg.Register(registry.Task{
		Name: "A",
		Fn:   func(_ context.Context, _ map[string]any) (any, error) { return nil, nil },
	})
	reg.Register(registry.Task{
		Name: "B",
		Fn:   func(_ context.Context, _ map[string]any) (any, error) { return nil, boom },
	})
	reg.Register(registry.Task{
		Name: "C",
		Fn: func(_ context.Context, _ map[string]any) (any, error) {
			cCalls.Add(1)
			return nil, nil
		},
	})

	store := newStore(t)
	exec := NewSequential(reg, store, nil)
	def := mustParse(t, "flow F:\nA -> B\nB -> C")

	_, _, err := exec.Run(context.Background(), def, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected task error to propagate, got %v", err)
	}

	var tErr *TaskError
	if !errors.As(err, &tErr) || tErr.Task != "B" {
		t.Errorf("expected TaskError for B, got %v", err)
	}
	if cCalls.Load() != 0 {
		t.Error("no task after the failure may run")
	}

	run := lastRun(t, store)
	if run.Status != domain.RunStatusFailed {
		t.Errorf("expected FAILED run record, got %s", run.Status)
	}
	if run.Error == "" {
		t.Error("expected error message in run record")
	}
}

func TestSequential_MissingTaskNeverExecutes(t *testing.T) {
	var calls atomic.Int32

	reg := registry.New()
	reg.Register(registry.Task{
		Name: "A",
		Fn: func(_ context.Context, _ map[string]any) (any, error) {
			calls.Add(1)
			return nil, nil
		},
	})

	exec := NewSequential(reg, newStore(t), nil)
	def := mustParse(t, "flow F:\nA -> Unknown")

	_, _, err := exec.Run(context.Background(), def, nil)
	if !errors.Is(err, ErrMissingTask) {
		t.Fatalf("expected ErrMissingTask, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("no task body may run when a task is unregistered")
	}
}

func TestSequential_CycleDetectedBeforeExecution(t *testing.T) {
	var calls atomic.Int32
	task := func(name string) registry.Task {
		return registry.Task{
			Name: name,
			Fn: func(_ context.Context, _ map[string]any) (any, error) {
				calls.Add(1)
				return nil, nil
			},
		}
	}

	reg := registry.New()
	reg.Register(task("A"))
	reg.Register(task("B"))

	exec := NewSequential(reg, newStore(t), nil)
	def := mustParse(t, "flow F:\nA -> B\nB -> A")

	_, _, err := exec.Run(context.Background(), def, nil)
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("expected ErrCircularDependency, got %v", err)
	}
	if calls.Load() != 0 {
		t.Error("no task may run when the flow has a cycle")
	}
}

func TestSequential_InputValidatorRejects(t *testing.T) {
	invalid := errors.New("v is required")

	reg := registry.New()
	reg.Register(registry.Task{
		Name:   "A",
		Params: []string{"v"},
		InputValidator: func(args map[string]any) error {
			if _, ok := args["v"]; !ok {
				return invalid
			}
			return nil
		},
		Fn: func(_ context.Context, _ map[string]any) (any, error) { return nil, nil },
	})
	reg.Register(registry.Task{
		Name: "B",
		Fn:   func(_ context.Context, _ map[string]any) (any, error) { return nil, nil },
	})

	exec := NewSequential(reg, newStore(t), nil)
	def := mustParse(t, "flow F:\nA -> B")

	_, _, err := exec.Run(context.Background(), def, nil)

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if vErr.Stage != "input" || vErr.Task != "A" {
		t.Errorf("unexpected validation error: %+v", vErr)
	}
}

func TestSequential_PanicBecomesTaskError(t *testing.T) {
	reg := registry.New()
	reg.Register(registry.Task{
		Name: "A",
		Fn: func(_ context.Context, _ map[string]any) (any, error) {
			panic("unexpected state")
		},
	})
	reg.Register(registry.Task{
		Name: "B",
		Fn:   func(_ context.Context, _ map[string]any) (any, error) { return nil, nil },
	})

	store := newStore(t)
	exec := NewSequential(reg, store, nil)
	def := mustParse(t, "flow F:\nA -> B")

	_, _, err := exec.Run(context.Background(), def, nil)

	var tErr *TaskError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TaskError, got %v", err)
	}
	if tErr.Stack == "" {
		t.Error("expected captured stack trace")
	}

	run := lastRun(t, store)
	if run.Trace == "" {
		t.Error("expected trace in persisted run record")
	}
}
