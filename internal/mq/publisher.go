package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
)

// MessageType: тип сообщения в очереди.
type MessageType string

// MessageTypeReminderDeliver: задача доставки одного напоминания.
const MessageTypeReminderDeliver MessageType = "reminder.deliver"

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message: сообщение для публикации.
type Message struct {
	// ID: уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type: тип сообщения.
	Type MessageType `json:"type"`

	// Payload: полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp: время создания.
	Timestamp time.Time `json:"timestamp"`
}

// ReminderPayload: payload задачи deliver_one.
type ReminderPayload struct {
	Task       string    `json:"task"`
	HabitID    uuid.UUID `json:"habit_id"`
	DedupKey   string    `json:"dedup_key"`
	Slot       string    `json:"slot,omitempty"` // "HH:MM" на момент постановки
	RunAt      time.Time `json:"run_at,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewReminderPayload собирает payload из задачи.
func NewReminderPayload(task domain.ReminderTask) ReminderPayload {
	p := ReminderPayload{
		Task:       task.Name,
		HabitID:    task.HabitID,
		DedupKey:   task.DedupKey,
		RunAt:      task.RunAt,
		EnqueuedAt: task.EnqueuedAt,
	}
	if p.Task == "" {
		p.Task = domain.TaskNameDeliverOne
	}
	if task.Slot != nil {
		p.Slot = task.Slot.String()
	}
	return p
}

// ToTask восстанавливает задачу из payload.
func (p ReminderPayload) ToTask() (domain.ReminderTask, error) {
	if p.HabitID == uuid.Nil {
		return domain.ReminderTask{}, fmt.Errorf("payload has no habit_id")
	}
	if p.Task != "" && p.Task != domain.TaskNameDeliverOne {
		return domain.ReminderTask{}, fmt.Errorf("unknown task %q", p.Task)
	}

	task := domain.ReminderTask{
		Name:       domain.TaskNameDeliverOne,
		HabitID:    p.HabitID,
		DedupKey:   p.DedupKey,
		RunAt:      p.RunAt,
		EnqueuedAt: p.EnqueuedAt,
	}
	if p.Slot != "" {
		slot, err := domain.ParseTimeOfDay(p.Slot)
		if err != nil {
			return domain.ReminderTask{}, fmt.Errorf("parse slot: %w", err)
		}
		task.Slot = &slot
	}
	return task, nil
}

// Publish публикует сообщение в указанный exchange с routing key.
// expiration > 0 задаёт per-message TTL.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message, expiration time.Duration) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Type:         string(msg.Type),
		Body:         body,
	}
	if expiration > 0 {
		publishing.Expiration = strconv.FormatInt(expiration.Milliseconds(), 10)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := p.publish(ctx, ch, exchange, routingKey, publishing); err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
			"expiration", expiration,
		)
		return nil
	})
}

// publish отправляет сообщение и, если включены confirms, ждёт ответа брокера.
func (p *Publisher) publish(ctx context.Context, ch *amqp.Channel, exchange Exchange, routingKey RoutingKey, publishing amqp.Publishing) error {
	if !p.conn.Confirms() {
		return ch.PublishWithContext(ctx, string(exchange), string(routingKey), false, false, publishing)
	}

	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, string(exchange), string(routingKey), false, false, publishing)
	if err != nil {
		return err
	}
	if dc == nil {
		return nil
	}

	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}
	return nil
}

// PublishReminder публикует задачу доставки.
// delay > 0: сообщение уходит в reminders.delayed и попадёт к worker после задержки.
func (p *Publisher) PublishReminder(ctx context.Context, payload ReminderPayload, delay time.Duration) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeReminderDeliver,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	if delay > 0 {
		return p.Publish(ctx, ExchangeReminders, RoutingKeyDelayed, msg, delay)
	}
	return p.Publish(ctx, ExchangeReminders, RoutingKeyDeliver, msg, 0)
}
