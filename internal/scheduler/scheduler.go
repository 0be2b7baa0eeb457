package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ViktorShadr/habit-reminder-api/internal/reminder"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
)

// Dispatcher ставит задачи для привычек, которым нужно напоминание.
type Dispatcher interface {
	EnqueueDue(ctx context.Context, now time.Time) reminder.EnqueueStats
}

// Locker: лидерский лок. Тик выполняет только владелец лока.
type Locker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// Результаты тика для метрик.
const (
	TickLeader    = "leader"
	TickFollower  = "follower"
	TickLockError = "lock_error"
)

// Driver - часы системы: раз в минуту вызывает Dispatcher.EnqueueDue.
//
// Повторный тик в ту же минуту допустим: ключ дедупликации схлопнет
// задачи, а worker перепроверит IsDue перед отправкой.
type Driver struct {
	dispatcher Dispatcher
	locker     Locker
	spec       string
	loc        *time.Location
	metrics    *telemetry.Metrics
	logger     *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	cron   *cron.Cron
	leader bool
}

// Config: конфигурация Driver.
type Config struct {
	Dispatcher Dispatcher

	// Locker: лидерский лок (nil: экземпляр всегда лидер).
	Locker Locker

	// Spec - cron-выражение тика (default: "* * * * *").
	Spec string

	// Location - пояс расписания (default: time.Local).
	Location *time.Location

	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// New создаёт Driver. Некорректный Spec: ошибка.
func New(cfg Config) (*Driver, error) {
	spec := cfg.Spec
	if spec == "" {
		spec = DefaultSpec
	}
	if err := ValidateCronExpr(spec); err != nil {
		return nil, err
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		dispatcher: cfg.Dispatcher,
		locker:     cfg.Locker,
		spec:       spec,
		loc:        loc,
		metrics:    cfg.Metrics,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Start запускает cron. Тики выполняются, пока ctx не отменён или не вызван Stop.
// Если предыдущий тик ещё идёт, следующий пропускается.
func (d *Driver) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.cron != nil {
		return fmt.Errorf("driver already started")
	}

	clog := cronLogger{logger: d.logger}
	c := cron.New(
		cron.WithParser(cronParser),
		cron.WithLocation(d.loc),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)

	if _, err := c.AddFunc(d.spec, func() { d.Tick(ctx) }); err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}

	c.Start()
	d.cron = c

	d.logger.Info("scheduler driver started", "spec", d.spec, "location", d.loc.String())
	return nil
}

// Stop останавливает cron, дожидается текущего тика и отпускает лок.
func (d *Driver) Stop(ctx context.Context) {
	d.mu.Lock()
	c := d.cron
	d.cron = nil
	d.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
			d.logger.Warn("scheduler stop timed out waiting for running tick")
		}
	}

	if d.locker != nil {
		if err := d.locker.Unlock(ctx); err != nil {
			d.logger.Warn("failed to release leader lock", "error", err)
		}
	}
	d.setLeader(false)

	d.logger.Info("scheduler driver stopped")
}

// Tick выполняет один тик.
//
// 1. Захватывает или подтверждает лидерство
// 2. Вызывает EnqueueDue с текущим временем
// 3. Пишет метрики и итоговый лог
//
// Возвращает статистику и признак, что тик выполнен лидером.
func (d *Driver) Tick(ctx context.Context) (reminder.EnqueueStats, bool) {
	if d.locker != nil {
		ok, err := d.locker.TryLock(ctx)
		if err != nil {
			d.logger.Error("failed to acquire leader lock", "error", err)
			d.metrics.ObserveTick(TickLockError, 0)
			d.setLeader(false)
			return reminder.EnqueueStats{}, false
		}
		d.setLeader(ok)
		if !ok {
			// не лидер: пропускаем тик
			d.metrics.ObserveTick(TickFollower, 0)
			return reminder.EnqueueStats{}, false
		}
	}

	start := d.now()
	now := start.In(d.loc)

	stats := d.dispatcher.EnqueueDue(ctx, now)
	elapsed := d.now().Sub(start)

	d.metrics.ObserveTick(TickLeader, elapsed)
	d.metrics.AddEnqueued(stats.Enqueued, stats.Skipped, stats.Duplicates, stats.Errors)

	d.logger.Info("scheduler tick completed",
		"at", now.Format("2006-01-02 15:04"),
		"enqueued", stats.Enqueued,
		"skipped", stats.Skipped,
		"duplicates", stats.Duplicates,
		"errors", stats.Errors,
		"elapsed", elapsed,
	)

	return stats, true
}

// IsLeader возвращает true, если последний тик подтвердил лидерство.
func (d *Driver) IsLeader() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leader
}

func (d *Driver) setLeader(leader bool) {
	d.mu.Lock()
	changed := d.leader != leader
	d.leader = leader
	d.mu.Unlock()

	if changed {
		d.logger.Info("scheduler leadership changed", "leader", leader)
	}
	d.metrics.SetLeader(leader)
}
