package engine

import (
	"errors"
	"fmt"

	"github.com/shaiso/Weft/internal/domain"
	"github.com/shaiso/Weft/internal/registry"
)

// node — узел графа зависимостей одной задачи.
type node struct {
	// name — имя задачи.
	name string

	// task — разрешённая запись реестра.
	task registry.Task

	// deps — узлы, от которых зависит этот узел.
	deps []*node

	// dependents — узлы, зависящие от этого узла (обратные рёбра).
	dependents []*node

	// inDegree — количество входящих рёбер.
	inDegree int
}

// graph — граф зависимостей flow.
type graph struct {
	// nodes — все узлы (имя задачи → узел).
	nodes map[string]*node

	// roots — узлы без зависимостей, в порядке появления в DSL.
	roots []*node

	// order — топологический порядок (алгоритм Кана).
	order []*node
}

// buildGraph строит граф из FlowDefinition, разрешая каждую задачу
// через реестр.
//
// Ошибки — до выполнения какой-либо задачи:
//   - ErrNoTasks, если flow не содержит связей;
//   - ErrMissingTask, если имя из DSL не зарегистрировано;
//   - ErrCircularDependency, если сортировка Кана не обработала все узлы.
func buildGraph(def *domain.FlowDefinition, reg *registry.Registry) (*graph, error) {
	names := def.TaskNames()
	if len(names) == 0 {
		return nil, ErrNoTasks
	}

	g := &graph{nodes: make(map[string]*node, len(names))}

	for _, name := range names {
		task, err := reg.Resolve(name)
		if err != nil {
			if errors.Is(err, registry.ErrTaskNotFound) {
				return nil, fmt.Errorf("%w: %s", ErrMissingTask, name)
			}
			return nil, err
		}
		g.nodes[name] = &node{name: name, task: task}
	}

	for _, c := range def.Connections {
		g.addEdge(g.nodes[c.Source], g.nodes[c.Target])
	}

	// Корни в порядке первого появления — для детерминированной
	// диспетчеризации.
	for _, name := range names {
		if n := g.nodes[name]; n.inDegree == 0 {
			g.roots = append(g.roots, n)
		}
	}

	order, err := g.topologicalSort(names)
	if err != nil {
		return nil, err
	}
	g.order = order

	return g, nil
}

// Validate проверяет flow без выполнения: все задачи зарегистрированы,
// граф ацикличен. Возвращает те же ошибки, что и исполнители.
func Validate(def *domain.FlowDefinition, reg *registry.Registry) error {
	_, err := buildGraph(def, reg)
	return err
}

// addEdge добавляет ребро from → to с защитой от дубликатов,
// чтобы повторная строка в DSL не завышала inDegree.
func (g *graph) addEdge(from, to *node) {
	for _, dep := range to.deps {
		if dep.name == from.name {
			return
		}
	}
	from.dependents = append(from.dependents, to)
	to.deps = append(to.deps, from)
	to.inDegree++
}

// topologicalSort выполняет сортировку Кана.
// names задаёт детерминированный порядок обхода очереди.
func (g *graph) topologicalSort(names []string) ([]*node, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for name, n := range g.nodes {
		inDegree[name] = n.inDegree
	}

	queue := make([]*node, len(g.roots))
	copy(queue, g.roots)

	order := make([]*node, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)

		for _, dependent := range n.dependents {
			inDegree[dependent.name]--
			if inDegree[dependent.name] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, ErrCircularDependency
	}
	return order, nil
}
