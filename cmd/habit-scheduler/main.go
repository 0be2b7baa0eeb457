// Habit Scheduler: часы системы.
//
// Scheduler:
//   - Раз в минуту (SCHEDULER_CRON) вызывает Coordinator.EnqueueDue
//   - Тик выполняет только лидер (pg_try_advisory_lock)
//   - Задачи уходят в RabbitMQ с ключом дедупликации в Redis
//
// Можно запускать несколько экземпляров: лишние останутся follower'ами.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ViktorShadr/habit-reminder-api/internal/config"
	"github.com/ViktorShadr/habit-reminder-api/internal/dedup"
	"github.com/ViktorShadr/habit-reminder-api/internal/mq"
	"github.com/ViktorShadr/habit-reminder-api/internal/reminder"
	"github.com/ViktorShadr/habit-reminder-api/internal/repo"
	"github.com/ViktorShadr/habit-reminder-api/internal/scheduler"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	logger.Info("starting habit-scheduler", "cron", cfg.Scheduler.Cron, "time_zone", cfg.Location.String())

	metrics := telemetry.NewMetrics(nil)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, repo.PoolConfig{
		DSN:        cfg.PG.DSN,
		MaxConns:   cfg.PG.MaxConns,
		Logger:     logger,
		LogQueries: cfg.PG.LogQueries,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	rdb, err := dedup.NewClient(ctx, dedup.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// RabbitMQ: без очереди тикать бессмысленно
	mqConn, err := mq.Dial(mq.ConnectionConfig{
		URL:     cfg.RabbitMQ.URL,
		Name:    "habit-scheduler",
		Confirm: true,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	coordinator := reminder.New(reminder.Config{
		Habits:         repo.NewHabitRepo(pool),
		Queue:          mq.NewReminderQueue(dedup.NewGuard(rdb), mq.NewPublisher(mqConn, logger), logger),
		NextOccurrence: scheduler.NextOccurrence,
		Location:       cfg.Location,
		Logger:         logger,
	})

	driver, err := scheduler.New(scheduler.Config{
		Dispatcher: coordinator,
		Locker:     repo.NewAdvisoryLock(pool, cfg.Scheduler.LockKey),
		Spec:       cfg.Scheduler.Cron,
		Location:   cfg.Location,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("invalid scheduler config", "error", err)
		os.Exit(1)
	}

	if err := driver.Start(ctx); err != nil {
		logger.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if driver.IsLeader() {
			w.Write([]byte("ok leader"))
			return
		}
		w.Write([]byte("ok follower"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: ":" + cfg.HTTP.SchedulerPort, Handler: mux}
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration())
	defer stopCancel()

	// Останавливаем cron и отпускаем лок
	driver.Stop(stopCtx)
	_ = server.Shutdown(stopCtx)

	logger.Info("habit-scheduler stopped")
}
