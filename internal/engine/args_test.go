package engine

import (
	"testing"

	"github.com/shaiso/Weft/internal/registry"
)

// depNode строит узел с заданными параметрами и предшественниками.
func depNode(params []string, deps ...*node) *node {
	n := &node{
		name: "target",
		task: registry.Task{Name: "target", Params: params},
	}
	n.deps = deps
	return n
}

func TestResolveArgs_ExactKeyFromPredecessorMap(t *testing.T) {
	dep := &node{name: "extract"}
	n := depNode([]string{"rows"}, dep)

	results := map[string]any{
		"extract": map[string]any{"rows": 42},
	}

	args := resolveArgs(n, results, nil)
	if args["rows"] != 42 {
		t.Errorf("expected rows=42, got %v", args["rows"])
	}
}

func TestResolveArgs_PredecessorNameBindsWholeResult(t *testing.T) {
	dep := &node{name: "extract"}
	n := depNode([]string{"extract"}, dep)

	results := map[string]any{"extract": "payload"}

	args := resolveArgs(n, results, nil)
	if args["extract"] != "payload" {
		t.Errorf("expected whole result, got %v", args["extract"])
	}
}

func TestResolveArgs_InputFallback(t *testing.T) {
	n := depNode([]string{"region"})

	args := resolveArgs(n, map[string]any{}, map[string]any{"region": "eu"})
	if args["region"] != "eu" {
		t.Errorf("expected input fallback, got %v", args["region"])
	}
}

func TestResolveArgs_PriorityOrder(t *testing.T) {
	// Ключ в map-результате предшественника побеждает и совпадение
	// по имени задачи, и входные данные.
	dep := &node{name: "v"}
	n := depNode([]string{"v"}, dep)

	results := map[string]any{
		"v": map[string]any{"v": "from-map"},
	}
	inputs := map[string]any{"v": "from-inputs"}

	args := resolveArgs(n, results, inputs)
	if args["v"] != "from-map" {
		t.Errorf("expected map key to win, got %v", args["v"])
	}
}

func TestResolveArgs_UnresolvedParamAbsent(t *testing.T) {
	n := depNode([]string{"missing"})

	args := resolveArgs(n, map[string]any{}, map[string]any{})
	if _, exists := args["missing"]; exists {
		t.Error("unresolved param must be absent from args")
	}
}
