package engine

// resolveArgs собирает аргументы задачи из результатов
// предшественников и входных данных вызова.
//
// Один канонический алгоритм для обоих исполнителей, с
// детерминированным приоритетом для каждого объявленного параметра:
//
//  1. точное совпадение ключа в map-результате предшественника
//     (предшественники — в порядке появления связей в DSL);
//  2. имя параметра совпадает с именем предшественника —
//     подставляется весь его результат;
//  3. значение из входных данных вызова.
//
// Параметр, не найденный ни одним способом, в аргументы не попадает —
// задача сама решает, обязателен ли он (InputValidator).
func resolveArgs(n *node, results map[string]any, inputs map[string]any) map[string]any {
	args := make(map[string]any, len(n.task.Params))
	for _, param := range n.task.Params {
		if v, ok := lookupParam(n, param, results, inputs); ok {
			args[param] = v
		}
	}
	return args
}

func lookupParam(n *node, param string, results, inputs map[string]any) (any, bool) {
	for _, dep := range n.deps {
		if m, ok := results[dep.name].(map[string]any); ok {
			if v, exists := m[param]; exists {
				return v, true
			}
		}
	}

	for _, dep := range n.deps {
		if dep.name == param {
			if v, exists := results[dep.name]; exists {
				return v, true
			}
		}
	}

	v, ok := inputs[param]
	return v, ok
}
