package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler: функция обработки сообщения.
// Ошибка: nack с возвратом в очередь; ошибка с ErrPermanent: в DLQ.
type Handler func(ctx context.Context, msg *Delivery) error

// Delivery: доставленное сообщение.
type Delivery struct {
	Message Message

	// Redelivered: брокер уже отдавал это сообщение (requeue или обрыв соединения).
	Redelivered bool

	Raw amqp.Delivery
}

// Consumer потребляет сообщения из очереди на собственном канале
// и обрабатывает до Concurrency сообщений одновременно.
type Consumer struct {
	conn        *Connection
	logger      *slog.Logger
	queue       string
	handler     Handler
	prefetch    int
	concurrency int
	types       map[MessageType]bool

	cancelFunc context.CancelFunc
	inflight   sync.WaitGroup
}

// ConsumerConfig: конфигурация consumer.
type ConsumerConfig struct {
	Queue   string
	Handler Handler

	// Prefetch: сколько неподтверждённых сообщений держит брокер за consumer'ом (default: 1).
	Prefetch int

	// Concurrency: параллельных обработчиков (default и максимум: Prefetch).
	Concurrency int

	// Types: допустимые типы сообщений. Пусто: принимать любые.
	Types []MessageType
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}

	prefetch := max(cfg.Prefetch, 1)
	concurrency := cfg.Concurrency
	if concurrency <= 0 || concurrency > prefetch {
		concurrency = prefetch
	}

	types := make(map[MessageType]bool, len(cfg.Types))
	for _, t := range cfg.Types {
		types[t] = true
	}

	return &Consumer{
		conn:        conn,
		logger:      logger.With("queue", cfg.Queue),
		queue:       cfg.Queue,
		handler:     cfg.Handler,
		prefetch:    prefetch,
		concurrency: concurrency,
		types:       types,
	}
}

// Start потребляет сообщения до отмены ctx или Stop.
// Возвращается после завершения всех начатых обработчиков.
func (c *Consumer) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel

	for {
		err := c.consumeOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn("consumer interrupted, waiting for reconnect", "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
			c.logger.Info("reconnected, restarting consumer")
		}
	}
}

// consumeOnce открывает канал и читает доставки, пока канал жив.
func (c *Consumer) consumeOnce(ctx context.Context) error {
	ch, err := c.conn.OpenChannel()
	if err != nil {
		return err
	}
	defer func() {
		// ack/nack начатых обработчиков идут через этот канал
		c.inflight.Wait()
		if !ch.IsClosed() {
			_ = ch.Close()
		}
	}()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queue, // queue
		"",      // consumer tag (auto-generated)
		false,   // auto-ack (мы ack вручную)
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.logger.Info("consumer started", "prefetch", c.prefetch, "concurrency", c.concurrency)

	sem := make(chan struct{}, c.concurrency)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sem <- struct{}{}:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.inflight.Add(1)
			go func() {
				defer func() {
					<-sem
					c.inflight.Done()
				}()
				c.handleDelivery(ctx, raw)
			}()
		}
	}
}

// handleDelivery разбирает сообщение, вызывает обработчик и подтверждает результат.
func (c *Consumer) handleDelivery(ctx context.Context, raw amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("handler panicked, sending to DLQ", "panic", r, "message_id", raw.MessageId)
			_ = raw.Nack(false, false)
		}
	}()

	msg, err := decodeMessage(raw.Body)
	if err != nil {
		c.logger.Error("failed to decode message, sending to DLQ",
			"message_id", raw.MessageId,
			"error", err,
			"body", string(raw.Body),
		)
		_ = raw.Nack(false, false)
		return
	}

	if msg.Type != "" && len(c.types) > 0 && !c.types[msg.Type] {
		c.logger.Error("unexpected message type, sending to DLQ",
			"message_id", msg.ID,
			"type", msg.Type,
		)
		_ = raw.Nack(false, false)
		return
	}

	c.logger.Debug("received message",
		"message_id", msg.ID,
		"type", msg.Type,
		"redelivered", raw.Redelivered,
	)

	err = c.handler(ctx, &Delivery{Message: msg, Redelivered: raw.Redelivered, Raw: raw})
	if err == nil {
		_ = raw.Ack(false)
		return
	}

	permanent := errors.Is(err, ErrPermanent)
	c.logger.Error("handler failed",
		"message_id", msg.ID,
		"type", msg.Type,
		"permanent", permanent,
		"error", err,
	)
	// Постоянная ошибка: в DLQ, иначе обратно в очередь
	_ = raw.Nack(false, !permanent)
}

// Stop останавливает consumer. Start вернётся, когда начатые обработчики завершатся.
func (c *Consumer) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
}

// decodeMessage разбирает тело, оставляя payload сырым JSON для ParsePayload.
func decodeMessage(body []byte) (Message, error) {
	var wire struct {
		Message
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return Message{}, err
	}

	msg := wire.Message
	msg.Payload = wire.Payload
	return msg, nil
}

// ParsePayload разбирает payload сообщения в T.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	raw, ok := msg.Payload.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(msg.Payload)
		if err != nil {
			return result, fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}

	if len(raw) == 0 || string(raw) == "null" {
		return result, errors.New("empty payload")
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
