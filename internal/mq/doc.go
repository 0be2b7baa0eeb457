// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go: управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go: объявление exchanges, queues, bindings
//   - publisher.go: публикация сообщений в очереди
//   - consumer.go: потребление сообщений из очередей
//   - reminder_queue.go: постановка задач deliver_one с дедупликацией
//
// Типы сообщений:
//   - reminder.deliver: доставить одно напоминание
//
// Exchanges:
//   - habits.reminders: задачи доставки (немедленные и отложенные)
//   - habits.dlq: dead letter queue
package mq
