package reminder

import "errors"

// Ошибки ядра напоминаний.
var (
	// ErrHabitNotFound: привычка не найдена (удалена после постановки задачи).
	ErrHabitNotFound = errors.New("habit not found")

	// ErrFormatFailed: не удалось сформировать текст напоминания.
	ErrFormatFailed = errors.New("format message failed")

	// ErrSubmitFailed: очередь не приняла задачу.
	ErrSubmitFailed = errors.New("submit task failed")

	// ErrDeliveryFailed: канал не доставил сообщение (или истёк таймаут).
	ErrDeliveryFailed = errors.New("delivery failed")

	// ErrPersistFailed: сообщение доставлено, но last_reminder не сохранён.
	ErrPersistFailed = errors.New("persist last_reminder failed")
)
