package engine

import "errors"

// Ошибки построения графа и выполнения.
var (
	// ErrNoTasks — flow не содержит ни одной связи.
	ErrNoTasks = errors.New("flow has no tasks")

	// ErrMissingTask — задача из DSL не зарегистрирована в реестре.
	// Поднимается до запуска какой-либо задачи.
	ErrMissingTask = errors.New("task not registered")

	// ErrCircularDependency — сортировка Кана не смогла обработать
	// все узлы: в графе есть цикл.
	ErrCircularDependency = errors.New("circular dependency detected")
)

// TaskError — ошибка внутри логики задачи.
//
// Захватывает стек и имя задачи; последовательный исполнитель
// пробрасывает её вызывающему, параллельный переводит в статус
// FAILED с транзитивным SKIPPED для зависимых.
type TaskError struct {
	// Task — имя упавшей задачи.
	Task string

	// Err — исходная ошибка (или ошибка из panic).
	Err error

	// Stack — стек на момент падения.
	Stack string
}

// Error реализует интерфейс error.
func (e *TaskError) Error() string {
	return "task " + e.Task + ": " + e.Err.Error()
}

// Unwrap возвращает исходную ошибку.
func (e *TaskError) Unwrap() error {
	return e.Err
}

// ValidationError — входной или выходной валидатор отклонил данные.
type ValidationError struct {
	// Task — имя задачи.
	Task string

	// Stage — "input" или "output".
	Stage string

	// Err — ошибка валидатора.
	Err error
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	return "task " + e.Task + ": " + e.Stage + " validation: " + e.Err.Error()
}

// Unwrap возвращает ошибку валидатора.
func (e *ValidationError) Unwrap() error {
	return e.Err
}
