package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskNameDeliverOne: имя задачи доставки одного напоминания.
const TaskNameDeliverOne = "deliver_one"

// ReminderTask: задача для очереди доставки напоминаний.
type ReminderTask struct {
	// Name: имя задачи (всегда TaskNameDeliverOne).
	Name string

	// HabitID: привычка, по которой нужно отправить напоминание.
	HabitID uuid.UUID

	// DedupKey: детерминированный ключ (habit + минута), дубликаты схлопываются.
	DedupKey string

	// Slot: время привычки на момент постановки. nil: не проверять.
	Slot *TimeOfDay

	// RunAt: когда выполнить. Нулевое значение или прошлое: сразу.
	RunAt time.Time

	// EnqueuedAt: момент постановки задачи.
	EnqueuedAt time.Time
}

// Delay возвращает задержку до RunAt относительно now (не меньше нуля).
func (t *ReminderTask) Delay(now time.Time) time.Duration {
	if t.RunAt.IsZero() {
		return 0
	}
	d := t.RunAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
