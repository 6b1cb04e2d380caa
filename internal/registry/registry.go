// Package registry содержит реестр задач.
//
// Registry — лист зависимостей движка: парсер его не трогает,
// исполнители разрешают через него имена задач из DSL.
// Реестр создаётся явно на старте процесса и передаётся по ссылке —
// глобального состояния нет, в тестах можно держать несколько
// независимых реестров.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrTaskNotFound — задача с таким именем не зарегистрирована.
var ErrTaskNotFound = errors.New("task not found")

// Func — исполняемая логика задачи.
//
// args собирается исполнителем из результатов предшественников
// и входных данных вызова (см. engine). Результат может быть
// любым значением; map[string]any позволяет зависимым задачам
// забирать отдельные ключи по имени параметра.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Task — зарегистрированная задача.
//
// Создаётся один раз при регистрации и далее не изменяется.
type Task struct {
	// Name — уникальное имя задачи. По нему задача упоминается в DSL.
	Name string

	// Description — человекочитаемое описание.
	Description string

	// Params — объявленные имена параметров. Исполнитель собирает
	// аргументы только для перечисленных здесь имён.
	Params []string

	// Fn — исполняемая логика. Обязательное поле.
	Fn Func

	// InputValidator проверяет собранные аргументы перед запуском.
	// nil — проверка не выполняется.
	InputValidator func(args map[string]any) error

	// OutputValidator проверяет результат после выполнения.
	// nil — проверка не выполняется.
	OutputValidator func(result any) error
}

// Registry — реестр задач. Потокобезопасен.
//
// Реестр живёт всё время процесса и заполняется до парсинга
// и выполнения flows: все задачи, упомянутые в DSL, должны быть
// зарегистрированы до запуска.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// New создаёт пустой реестр.
func New() *Registry {
	return &Registry{
		tasks: make(map[string]Task),
	}
}

// Register регистрирует задачу.
//
// Повторная регистрация того же имени перезаписывает предыдущую
// запись: побеждает последняя регистрация. Это намеренное поведение —
// оно позволяет подменять задачи в тестах и при сборке реестра
// из нескольких наборов.
func (r *Registry) Register(task Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.Name] = task
}

// Resolve возвращает задачу по имени.
// Чистый поиск: никогда не запускает выполнение.
func (r *Registry) Resolve(name string) (Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	task, exists := r.tasks[name]
	if !exists {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	return task, nil
}

// Has проверяет, зарегистрирована ли задача.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tasks[name]
	return exists
}

// Names возвращает отсортированный список имён зарегистрированных задач.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count возвращает количество зарегистрированных задач.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
