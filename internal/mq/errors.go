package mq

import "errors"

var (
	// ErrPermanent: сообщение нельзя обработать никогда (битый payload).
	// Consumer отправляет такое сообщение в DLQ без повторной постановки.
	ErrPermanent = errors.New("permanent failure")

	// ErrNoChannel: соединение с RabbitMQ сейчас недоступно.
	ErrNoChannel = errors.New("no channel available")

	// ErrNotConfirmed: брокер ответил nack на публикацию.
	ErrNotConfirmed = errors.New("publish not confirmed by broker")
)
