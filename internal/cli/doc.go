// Package cli реализует инструмент командной строки weft.
//
// # Обзор
//
// В отличие от клиент-серверных CLI, weft выполняет flow в том же
// процессе: команды напрямую собирают реестр задач, исполнители и
// хранилища. Сервера не требуется; `weft serve` поднимает процесс
// с планировщиком и /metrics для периодических запусков.
//
// # Команды
//
//   - run FILE       — выполнить flow из DSL-файла
//   - validate FILE  — проверить flow без выполнения
//   - history        — list, show: история запусков
//   - schedule       — create, list, delete, enable, disable
//   - serve          — процесс планировщика с /metrics и /healthz
//
// # Вывод
//
// Данные выводятся в stdout (таблица или JSON с флагом --json),
// сообщения — в stderr. Это позволяет использовать pipe:
// weft history list --json | jq .
//
// # Конфигурация
//
// Через переменные окружения:
//   - WEFT_DATA_DIR — каталог данных (по умолчанию ~/.weft)
//   - WEFT_STORAGE  — "file" (по умолчанию) или "postgres"
//   - DB_URL        — DSN PostgreSQL для WEFT_STORAGE=postgres
//   - AMQP_URL      — RabbitMQ для уведомлений из `weft serve`
//   - LOG_LEVEL, LOG_FORMAT — логирование
package cli
