package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/repo"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
)

const (
	// DefaultSendTimeout: ограничение на один вызов Notifier.Send.
	DefaultSendTimeout = 10 * time.Second

	// DefaultSlotGrace: сколько после слота задача из очереди ещё выполняется.
	// Покрывает повторы воркера и небольшую очередь; позже задача пропускается.
	DefaultSlotGrace = 5 * time.Minute
)

// HabitStore: хранилище привычек, нужное координатору.
type HabitStore interface {
	HabitSource

	// GetByID загружает привычку с владельцем и связанной привычкой.
	// Если привычки нет, возвращает repo.ErrNotFound.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Habit, error)

	// SetLastReminder обновляет только поле last_reminder.
	SetLastReminder(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TaskQueue: очередь задач доставки.
type TaskQueue interface {
	// Submit ставит задачу. false без ошибки: задача с таким DedupKey уже стоит.
	Submit(ctx context.Context, task domain.ReminderTask) (bool, error)
}

// Notifier - канал доставки. Send не возвращает ошибок: любые сбои: false.
type Notifier interface {
	Send(ctx context.Context, recipientID, text string) bool
}

// NextFunc вычисляет ближайшее наступление времени дня после from.
type NextFunc func(t domain.TimeOfDay, from time.Time, loc *time.Location) (time.Time, error)

// EnqueueStats: итог пакетной постановки задач.
type EnqueueStats struct {
	Enqueued   int `json:"enqueued"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
}

// DeliveryStats: итог доставки одного напоминания. Sent, Skipped, Errors равны 0 или 1.
type DeliveryStats struct {
	Sent    int                    `json:"sent"`
	Skipped int                    `json:"skipped"`
	Errors  int                    `json:"errors"`
	Outcome domain.DeliveryOutcome `json:"outcome"`

	// Err: причина для исходов-ошибок, nil для остальных.
	Err error `json:"-"`
}

// Coordinator связывает evaluator, очередь, канал доставки и хранилище.
type Coordinator struct {
	evaluator   *Evaluator
	habits      HabitStore
	queue       TaskQueue
	notifier    Notifier
	format      Formatter
	next        NextFunc
	loc         *time.Location
	sendTimeout time.Duration
	slotGrace   time.Duration
	logger      *slog.Logger
}

// Config: конфигурация Coordinator.
type Config struct {
	Habits   HabitStore
	Queue    TaskQueue
	Notifier Notifier

	// Formatter - шаблон сообщения (default: FormatMessage).
	Formatter Formatter

	// NextOccurrence - расчёт следующего наступления (default: ближайшее HH:MM в Location).
	NextOccurrence NextFunc

	// Location - пояс, в котором хранится время привычек (default: time.Local).
	Location *time.Location

	// SendTimeout - таймаут доставки (default: 10s).
	SendTimeout time.Duration

	// SlotGrace - окно после слота, в котором DeliverTask ещё отправляет (default: 5m).
	SlotGrace time.Duration

	Logger *slog.Logger
}

// New создаёт Coordinator.
func New(cfg Config) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	format := cfg.Formatter
	if format == nil {
		format = FormatMessage
	}

	next := cfg.NextOccurrence
	if next == nil {
		next = nextWallClock
	}

	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}

	slotGrace := cfg.SlotGrace
	if slotGrace <= 0 {
		slotGrace = DefaultSlotGrace
	}

	evaluator := NewEvaluator(cfg.Habits, cfg.Location, logger)

	return &Coordinator{
		evaluator:   evaluator,
		habits:      cfg.Habits,
		queue:       cfg.Queue,
		notifier:    cfg.Notifier,
		format:      format,
		next:        next,
		loc:         evaluator.Location(),
		sendTimeout: sendTimeout,
		slotGrace:   slotGrace,
		logger:      logger,
	}
}

// EnqueueDue ставит задачи доставки для всех привычек, которым нужно напоминание в now.
//
// Привычки без привязанного Telegram пропускаются (Skipped).
// Ошибка чтения или постановки прерывает пакет и даёт Errors=1;
// уже поставленные задачи не отзываются. Паники наружу не выходят.
func (c *Coordinator) EnqueueDue(ctx context.Context, now time.Time) (stats EnqueueStats) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("enqueue due panicked", "panic", r)
			stats.Errors++
		}
	}()

	due, err := c.evaluator.FindDue(ctx, now)
	if err != nil {
		c.logger.Error("failed to find due habits", "error", err)
		stats.Errors++
		return stats
	}

	for i := range due {
		h := &due[i]

		if _, ok := h.ChannelID(); !ok {
			c.logger.Debug("habit owner has no telegram, skipping", "habit_id", h.ID)
			stats.Skipped++
			continue
		}

		slot := h.ScheduledTime
		task := domain.ReminderTask{
			Name:       domain.TaskNameDeliverOne,
			HabitID:    h.ID,
			DedupKey:   domain.DedupKey(h.ID, now, c.loc),
			Slot:       &slot,
			EnqueuedAt: now,
		}

		accepted, err := c.queue.Submit(ctx, task)
		if err != nil {
			c.logger.Error("failed to submit reminder task, aborting batch",
				"habit_id", h.ID,
				"dedup_key", task.DedupKey,
				"error", fmt.Errorf("%w: %v", ErrSubmitFailed, err),
			)
			stats.Errors++
			return stats
		}

		if !accepted {
			c.logger.Debug("reminder task already queued", "habit_id", h.ID, "dedup_key", task.DedupKey)
			stats.Duplicates++
			continue
		}

		stats.Enqueued++
	}

	return stats
}

// DeliverOne доставляет напоминание по одной привычке.
//
// 1. Загружает привычку заново
// 2. Проверяет привязку Telegram
// 3. Повторно проверяет IsDue на момент now (момент выполнения)
// 4. Формирует текст
// 5. Отправляет; при успехе last_reminder = now
func (c *Coordinator) DeliverOne(ctx context.Context, habitID uuid.UUID, now time.Time) DeliveryStats {
	return c.deliver(ctx, habitID, nil, now)
}

// DeliverTask выполняет задачу из очереди: DeliverOne плюс проверка слота.
// Если время привычки изменилось после постановки, задача пропускается (stale_slot).
// Если с наступления слота прошло SlotGrace или больше, задача тоже пропускается
// (missed_slot): иначе напоминание ушло бы не вовремя и сдвинуло last_reminder.
func (c *Coordinator) DeliverTask(ctx context.Context, task domain.ReminderTask, now time.Time) DeliveryStats {
	return c.deliver(ctx, task.HabitID, task.Slot, now)
}

func (c *Coordinator) deliver(ctx context.Context, habitID uuid.UUID, slot *domain.TimeOfDay, now time.Time) DeliveryStats {
	logger := telemetry.WithHabitID(c.logger, habitID.String())

	h, err := c.habits.GetByID(ctx, habitID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Warn("habit not found, dropping reminder")
			return failed(domain.DeliveryOutcomeNotFound, fmt.Errorf("%w: %s", ErrHabitNotFound, habitID))
		}
		logger.Error("failed to load habit", "error", err)
		return failed(domain.DeliveryOutcomeLoadFailed, err)
	}

	chatID, ok := h.ChannelID()
	if !ok {
		logger.Debug("habit owner has no telegram, skipping")
		return skipped(domain.DeliveryOutcomeUnlinked)
	}

	if slot != nil && *slot != h.ScheduledTime {
		logger.Info("habit time changed after task was queued, skipping",
			"task_slot", slot.String(),
			"habit_time", h.ScheduledTime.String(),
		)
		return skipped(domain.DeliveryOutcomeStaleSlot)
	}

	if slot != nil {
		if lag := domain.SinceSlot(*slot, now, c.loc); lag >= c.slotGrace {
			logger.Warn("reminder task arrived too late for its slot, skipping",
				"task_slot", slot.String(),
				"lag", lag,
			)
			return skipped(domain.DeliveryOutcomeMissedSlot)
		}
	}

	if !c.evaluator.IsDue(h, now) {
		logger.Debug("habit is not due anymore, skipping")
		return skipped(domain.DeliveryOutcomeNotDue)
	}

	text, err := safeFormat(c.format, MessageFromHabit(h))
	if err != nil {
		logger.Error("failed to format reminder", "error", err)
		return failed(domain.DeliveryOutcomeFormatFailed, err)
	}

	if !c.send(ctx, chatID, text) {
		logger.Warn("reminder delivery failed")
		return failed(domain.DeliveryOutcomeDeliveryFailed, ErrDeliveryFailed)
	}

	if err := c.habits.SetLastReminder(ctx, h.ID, now); err != nil {
		// Сообщение уже ушло: повтор дал бы дубль, поэтому исход не retriable.
		logger.Error("reminder sent but last_reminder not saved", "error", err)
		return failed(domain.DeliveryOutcomePersistFailed, fmt.Errorf("%w: %v", ErrPersistFailed, err))
	}
	h.MarkReminded(now)

	logger.Info("reminder sent")
	return DeliveryStats{Sent: 1, Outcome: domain.DeliveryOutcomeSent}
}

// send вызывает Notifier с таймаутом. Таймаут и паника считаются неуспехом.
func (c *Coordinator) send(ctx context.Context, chatID, text string) (ok bool) {
	sendCtx, cancel := context.WithTimeout(ctx, c.sendTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("notifier panicked", "panic", r)
			ok = false
		}
	}()

	ok = c.notifier.Send(sendCtx, chatID, text)
	if sendCtx.Err() != nil {
		return false
	}
	return ok
}

// ScheduleNext ставит отложенную задачу на ближайшее наступление времени привычки.
// Вызывается после создания или изменения привычки. Ключ задачи отличается от
// ключа тика: тик той же минуты ставит свою задачу, повторную отправку
// отсекает проверка IsDue.
// Возвращает false, если задача не поставлена (нет Telegram, некорректная
// периодичность или такая задача уже стоит).
func (c *Coordinator) ScheduleNext(ctx context.Context, h *domain.Habit, now time.Time) (bool, error) {
	if _, ok := h.ChannelID(); !ok {
		return false, nil
	}
	if freq, ok := h.Frequency(); !ok || freq < domain.MinFrequencyDays {
		return false, nil
	}

	runAt, err := c.next(h.ScheduledTime, now, c.loc)
	if err != nil {
		return false, fmt.Errorf("next occurrence of %s: %w", h.ScheduledTime, err)
	}

	slot := h.ScheduledTime
	task := domain.ReminderTask{
		Name:       domain.TaskNameDeliverOne,
		HabitID:    h.ID,
		DedupKey:   domain.ScheduledDedupKey(h.ID, runAt, c.loc),
		Slot:       &slot,
		RunAt:      runAt,
		EnqueuedAt: now,
	}

	accepted, err := c.queue.Submit(ctx, task)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrSubmitFailed, err)
	}

	c.logger.Debug("next reminder scheduled",
		"habit_id", h.ID,
		"run_at", runAt,
		"accepted", accepted,
	)
	return accepted, nil
}

// nextWallClock - ближайшее HH:MM строго после from в поясе loc.
func nextWallClock(t domain.TimeOfDay, from time.Time, loc *time.Location) (time.Time, error) {
	from = domain.NormalizeLocal(from, loc)
	next := t.On(from, from.Location())
	if !next.After(from) {
		next = t.On(from.AddDate(0, 0, 1), from.Location())
	}
	return next, nil
}

func skipped(o domain.DeliveryOutcome) DeliveryStats {
	return DeliveryStats{Skipped: 1, Outcome: o}
}

func failed(o domain.DeliveryOutcome, err error) DeliveryStats {
	return DeliveryStats{Errors: 1, Outcome: o, Err: err}
}
