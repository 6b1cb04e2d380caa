package domain

// RunStatus — статус выполнения flow.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ PARTIALLY_COMPLETED (часть задач SKIPPED/FAILED)
//	                  ↘ FAILED
type RunStatus string

const (
	// RunStatusPending — запись создана, выполнение ещё не началось.
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning — flow в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusCompleted — все задачи завершились успешно.
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusFailed — flow упал до того, как хоть одна задача
	// успела успешно завершиться, либо произошла структурная ошибка.
	RunStatusFailed RunStatus = "FAILED"

	// RunStatusPartiallyCompleted — часть задач завершилась успешно,
	// остальные FAILED или SKIPPED (только параллельный исполнитель).
	RunStatusPartiallyCompleted RunStatus = "PARTIALLY_COMPLETED"
)

// IsTerminal возвращает true, если статус финальный.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusFailed, RunStatusPartiallyCompleted:
		return true
	default:
		return false
	}
}

// NodeStatus — статус отдельной задачи внутри одного запуска.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → COMPLETED
//	                  ↘ FAILED
//	        ↘ SKIPPED (транзитивно, если упал любой предок)
type NodeStatus string

const (
	// NodeStatusPending — задача ждёт выполнения зависимостей.
	NodeStatusPending NodeStatus = "PENDING"

	// NodeStatusRunning — задача выполняется воркером.
	NodeStatusRunning NodeStatus = "RUNNING"

	// NodeStatusCompleted — задача успешно завершена.
	NodeStatusCompleted NodeStatus = "COMPLETED"

	// NodeStatusFailed — задача завершилась с ошибкой.
	NodeStatusFailed NodeStatus = "FAILED"

	// NodeStatusSkipped — задача не запускалась, потому что
	// один из её (транзитивных) предков упал.
	NodeStatusSkipped NodeStatus = "SKIPPED"
)

// IsTerminal возвращает true, если статус финальный.
func (s NodeStatus) IsTerminal() bool {
	switch s {
	case NodeStatusCompleted, NodeStatusFailed, NodeStatusSkipped:
		return true
	default:
		return false
	}
}
