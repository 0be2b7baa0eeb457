package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange: тип для имени обменника.
type Exchange string

// Queue: тип для имени очереди.
type Queue string

// RoutingKey: тип для ключа маршрутизации.
type RoutingKey string

// Exchanges: имена обменников.
const (
	ExchangeReminders Exchange = "habits.reminders"
	ExchangeDLQ       Exchange = "habits.dlq"
)

// Queues: имена очередей.
const (
	QueueRemindersDeliver Queue = "reminders.deliver"
	QueueRemindersDelayed Queue = "reminders.delayed"
	QueueDLQReminders     Queue = "dlq.reminders"
)

// Routing keys.
const (
	RoutingKeyDeliver      RoutingKey = "deliver"
	RoutingKeyDelayed      RoutingKey = "delayed"
	RoutingKeyDLQReminders RoutingKey = "reminders"
)

// SetupTopology объявляет exchanges, queues и bindings. Операция идемпотентна.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

func declareExchanges(ch *amqp.Channel) error {
	for _, name := range []Exchange{ExchangeReminders, ExchangeDLQ} {
		err := ch.ExchangeDeclare(
			string(name), // name
			"direct",     // type
			true,         // durable
			false,        // auto-deleted
			false,        // internal
			false,        // no-wait
			nil,          // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", name, err)
		}
	}
	return nil
}

func declareQueues(ch *amqp.Channel) error {
	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// reminders.deliver: задачи к выполнению, отказ уходит в DLQ
		{QueueRemindersDeliver, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeDLQ),
			"x-dead-letter-routing-key": string(RoutingKeyDLQReminders),
		}},

		// reminders.delayed: без потребителей; сообщение лежит до истечения
		// per-message TTL и перекладывается в reminders.deliver
		{QueueRemindersDelayed, amqp.Table{
			"x-dead-letter-exchange":    string(ExchangeReminders),
			"x-dead-letter-routing-key": string(RoutingKeyDeliver),
		}},

		{QueueDLQReminders, nil},
	}

	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}
	return nil
}

func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueRemindersDeliver, RoutingKeyDeliver, ExchangeReminders},
		{QueueRemindersDelayed, RoutingKeyDelayed, ExchangeReminders},
		{QueueDLQReminders, RoutingKeyDLQReminders, ExchangeDLQ},
	}

	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  Habit reminders RabbitMQ topology:

    habits.reminders (direct)
    ├── reminders.deliver [routing: deliver]
    │       Consumer: habit-worker
    │       DLQ: dlq.reminders
    └── reminders.delayed [routing: delayed]
            No consumer, per-message TTL → reminders.deliver

    habits.dlq (direct)
    └── dlq.reminders [routing: reminders]
            Manual processing
  `
}
