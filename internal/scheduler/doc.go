// Package scheduler реализует периодический запуск flow по расписанию.
//
// Scheduler на каждом тике проверяет расписания с истекшим next_run
// и выполняет соответствующие flow. DSL-файл читается при каждом
// срабатывании, поэтому правки файла подхватываются на лету.
//
// Структура:
//   - scheduler.go  — основная логика (Tick, fire, CRUD расписаний)
//   - recurrence.go — вычисление следующего времени запуска
//   - store.go      — интерфейс хранилища и файловая реализация
//   - postgres.go   — хранилище расписаний в PostgreSQL
//
// Ошибки одного расписания не блокируют обработку остальных.
package scheduler
