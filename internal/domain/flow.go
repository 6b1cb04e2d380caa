package domain

// FlowDefinition — разобранное определение рабочего процесса.
//
// FlowDefinition — это результат парсинга DSL-текста: имя, описание
// и упорядоченный набор рёбер зависимостей между задачами.
// Определение иммутабельно после парсинга; исполнители строят
// по нему граф выполнения, не модифицируя его.
type FlowDefinition struct {
	// Name — имя flow из заголовка DSL (`flow <Name>:`).
	Name string `json:"name"`

	// Description — описание из строки `description: "..."`.
	// Пустое, если строка отсутствует.
	Description string `json:"description,omitempty"`

	// Connections — рёбра зависимостей в порядке появления в тексте.
	// Порядок не влияет на корректность выполнения, но сохраняется
	// для детерминированного вывода и отладки.
	Connections []Connection `json:"connections"`
}

// Connection — направленное ребро зависимости: Target выполняется
// только после успешного завершения Source.
//
// Строка DSL с fan-out (`A -> [B, C]`) порождает по одному Connection
// на каждую цель.
type Connection struct {
	// Source — имя задачи-источника.
	Source string `json:"source"`

	// Target — имя зависимой задачи.
	Target string `json:"target"`
}

// TaskNames возвращает уникальные имена задач flow в порядке
// первого появления в Connections.
func (d *FlowDefinition) TaskNames() []string {
	seen := make(map[string]bool)
	names := make([]string, 0, len(d.Connections)*2)

	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, c := range d.Connections {
		add(c.Source)
		add(c.Target)
	}
	return names
}
