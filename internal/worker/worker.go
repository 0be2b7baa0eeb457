package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/mq"
	"github.com/ViktorShadr/habit-reminder-api/internal/reminder"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
)

// Default configuration values.
const (
	defaultPrefetch = 5
)

// Deliverer выполняет одну задачу доставки.
type Deliverer interface {
	DeliverTask(ctx context.Context, task domain.ReminderTask, now time.Time) reminder.DeliveryStats
}

// Worker доставляет напоминания из очереди reminders.deliver.
//
// Worker - stateless компонент:
//   - Получает задачи deliver_one из RabbitMQ
//   - Вызывает Coordinator.DeliverTask с текущим временем на каждой попытке
//   - Повторяет доставку при delivery_failed с exponential backoff и jitter
//   - После исчерпания попыток подтверждает сообщение: следующий тик
//     предложит привычку снова, так как last_reminder не изменился
//
// Несколько экземпляров могут потреблять из одной очереди.
type Worker struct {
	deliverer Deliverer
	conn      *mq.Connection
	consumer  *mq.Consumer
	prefetch  int

	retry   RetryPolicy
	metrics *telemetry.Metrics

	// now и wait подменяются в тестах.
	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error

	// Lifecycle
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	stopped    bool
	stoppedMu  sync.RWMutex
}

// Config: конфигурация Worker.
type Config struct {
	Deliverer Deliverer

	// MQ
	Conn     *mq.Connection
	Prefetch int // сообщений на consumer (default: 5)

	// Retry: политика повторов (нулевые поля заменяются значениями по умолчанию).
	Retry RetryPolicy

	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	prefetch := cfg.Prefetch
	if prefetch <= 0 {
		prefetch = defaultPrefetch
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		deliverer: cfg.Deliverer,
		conn:      cfg.Conn,
		prefetch:  prefetch,
		retry:     cfg.Retry.withDefaults(),
		metrics:   cfg.Metrics,
		now:       time.Now,
		wait:      sleepContext,
		logger:    logger,
	}
}

// Start запускает consumer очереди reminders.deliver.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"prefetch", w.prefetch,
		"max_attempts", w.retry.MaxAttempts,
		"initial_delay", w.retry.InitialDelay,
		"max_delay", w.retry.MaxDelay,
	)

	w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueRemindersDeliver),
		Handler:  w.handleReminder,
		Prefetch: w.prefetch,
		Types:    []mq.MessageType{mq.MessageTypeReminderDeliver},
	})

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			w.logger.Error("reminder consumer error", "error", err)
		}
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущей задачи.
func (w *Worker) Stop() {
	w.stoppedMu.Lock()
	w.stopped = true
	w.stoppedMu.Unlock()

	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}

	if w.consumer != nil {
		w.consumer.Stop()
	}

	w.wg.Wait()

	w.logger.Info("worker stopped")
}

// IsStopped проверяет, остановлен ли Worker.
func (w *Worker) IsStopped() bool {
	w.stoppedMu.RLock()
	defer w.stoppedMu.RUnlock()
	return w.stopped
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
