package mq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
)

// DedupGrace: сколько ключ дедупликации живёт после запланированного запуска.
const DedupGrace = 2 * time.Minute

// Claimer захватывает ключи дедупликации.
type Claimer interface {
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// ReminderPublisher публикует задачу доставки.
type ReminderPublisher interface {
	PublishReminder(ctx context.Context, payload ReminderPayload, delay time.Duration) error
}

// ReminderQueue: очередь задач deliver_one с дедупликацией по DedupKey.
type ReminderQueue struct {
	claimer   Claimer
	publisher ReminderPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewReminderQueue создаёт ReminderQueue.
func NewReminderQueue(claimer Claimer, publisher ReminderPublisher, logger *slog.Logger) *ReminderQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReminderQueue{
		claimer:   claimer,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Submit ставит задачу в очередь.
//
// 1. Захватывает DedupKey на время задержки + DedupGrace
// 2. Публикует сообщение (с задержкой, если RunAt в будущем)
//
// false без ошибки: задача с таким ключом уже поставлена.
// Если публикация не удалась, ключ освобождается.
func (q *ReminderQueue) Submit(ctx context.Context, task domain.ReminderTask) (bool, error) {
	if task.DedupKey == "" {
		return false, fmt.Errorf("task for habit %s has empty dedup key", task.HabitID)
	}

	delay := task.Delay(q.now())

	claimed, err := q.claimer.Claim(ctx, task.DedupKey, delay+DedupGrace)
	if err != nil {
		return false, fmt.Errorf("claim dedup key: %w", err)
	}
	if !claimed {
		return false, nil
	}

	if err := q.publisher.PublishReminder(ctx, NewReminderPayload(task), delay); err != nil {
		if relErr := q.claimer.Release(ctx, task.DedupKey); relErr != nil {
			q.logger.Warn("failed to release dedup key",
				"dedup_key", task.DedupKey,
				"error", relErr,
			)
		}
		return false, fmt.Errorf("publish reminder: %w", err)
	}

	return true, nil
}
