// Package engine содержит исполнителей flow.
//
// Структура:
//   - graph.go      — построение графа зависимостей и сортировка Кана
//   - args.go       — каноническое разрешение аргументов задач
//   - task.go       — запуск одной задачи с валидаторами и recover
//   - sequential.go — последовательный исполнитель
//   - parallel.go   — параллельный исполнитель с пулом воркеров
//
// Оба исполнителя работают по одному FlowDefinition и одному
// алгоритму привязки аргументов; различается только стратегия
// диспетчеризации. Запуск одного flow полностью независим от
// других запусков: общими остаются только реестр задач
// (read-only во время выполнения) и хранилище истории
// (каждая запись адресуется уникальным flow_id).
package engine
