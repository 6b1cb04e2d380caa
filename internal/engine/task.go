package engine

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/shaiso/Weft/internal/registry"
)

// executeTask выполняет одну задачу: входной валидатор, логика,
// выходной валидатор.
//
// Ошибки никогда не покидают функцию в виде panic: паника внутри
// логики задачи конвертируется в TaskError с захваченным стеком.
// Это гарантия для параллельного исполнителя — результат всегда
// уходит в канал как явное значение, а не как исключение,
// пересекающее границу горутины.
func executeTask(ctx context.Context, task registry.Task, args map[string]any) (result any, err error) {
	if task.InputValidator != nil {
		if verr := task.InputValidator(args); verr != nil {
			return nil, &ValidationError{Task: task.Name, Stage: "input", Err: verr}
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = &TaskError{
				Task:  task.Name,
				Err:   fmt.Errorf("panic: %v", rec),
				Stack: string(debug.Stack()),
			}
		}
	}()

	result, err = task.Fn(ctx, args)
	if err != nil {
		return nil, &TaskError{Task: task.Name, Err: err, Stack: string(debug.Stack())}
	}

	if task.OutputValidator != nil {
		if verr := task.OutputValidator(result); verr != nil {
			return nil, &ValidationError{Task: task.Name, Stage: "output", Err: verr}
		}
	}
	return result, nil
}

// errTrace возвращает стек из TaskError, если он там есть.
func errTrace(err error) string {
	var tErr *TaskError
	if errors.As(err, &tErr) {
		return tErr.Stack
	}
	return ""
}
