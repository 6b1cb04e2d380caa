// Package notify отправляет уведомления о завершении запусков flow.
//
// Уведомления — best-effort: ошибка доставки логируется и никогда
// не влияет на результат самого запуска.
//
// Реализации:
//   - LogNotifier  — пишет событие в структурированный лог
//   - AMQPNotifier — публикует событие в RabbitMQ
package notify
