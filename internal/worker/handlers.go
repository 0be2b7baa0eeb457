package worker

import (
	"context"
	"fmt"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/mq"
	"github.com/ViktorShadr/habit-reminder-api/internal/reminder"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
)

// handleReminder обрабатывает сообщение reminder.deliver.
//
// Сообщение подтверждается при любом исходе доставки, кроме остановки
// воркера: тогда оно возвращается в очередь.
func (w *Worker) handleReminder(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.ReminderPayload](&delivery.Message)
	if err != nil {
		return fmt.Errorf("%w: parse reminder payload: %v", mq.ErrPermanent, err)
	}

	task, err := payload.ToTask()
	if err != nil {
		return fmt.Errorf("%w: %v", mq.ErrPermanent, err)
	}

	stats, err := w.processTask(ctx, task)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}

	w.logger.Debug("reminder task processed",
		"habit_id", task.HabitID,
		"dedup_key", task.DedupKey,
		"outcome", stats.Outcome,
	)
	return nil
}

// processTask выполняет задачу с повторами.
//
// Повторяется только delivery_failed: остальные исходы либо успешны,
// либо повтор не изменит результат. Каждая попытка получает свежий now,
// поэтому повторная проверка IsDue видит актуальное состояние.
func (w *Worker) processTask(ctx context.Context, task domain.ReminderTask) (reminder.DeliveryStats, error) {
	logger := telemetry.WithDedupKey(telemetry.WithHabitID(w.logger, task.HabitID.String()), task.DedupKey)

	var stats reminder.DeliveryStats
	for attempt := 1; ; attempt++ {
		stats = w.deliverer.DeliverTask(ctx, task, w.now())
		w.metrics.ObserveDelivery(string(stats.Outcome))

		if !stats.Outcome.IsRetryable() {
			if stats.Outcome.IsError() {
				logger.Warn("reminder task failed",
					"outcome", stats.Outcome,
					"attempt", attempt,
					"error", stats.Err,
				)
			}
			return stats, nil
		}

		if attempt >= w.retry.MaxAttempts {
			w.metrics.IncExhausted()
			logger.Error("reminder delivery failed, attempts exhausted",
				"attempts", attempt,
				"error", stats.Err,
			)
			return stats, fmt.Errorf("%w: %d attempts", ErrRetryExhausted, attempt)
		}

		delay := withJitter(calculateBackoff(attempt, w.retry))
		logger.Debug("retrying reminder delivery",
			"attempt", attempt,
			"delay", delay,
		)
		w.metrics.IncRetry()

		if err := w.wait(ctx, delay); err != nil {
			return stats, err
		}
	}
}
