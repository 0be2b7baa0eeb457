// Habit API: HTTP API сервиса привычек.
//
// API:
//   - Регистрация, вход по сессии (Redis), профиль
//   - CRUD привычек и публичный список
//   - Коды привязки Telegram и их подтверждение ботом
//   - После записи привычки ставит ближайшее напоминание в RabbitMQ
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ViktorShadr/habit-reminder-api/internal/api"
	"github.com/ViktorShadr/habit-reminder-api/internal/config"
	"github.com/ViktorShadr/habit-reminder-api/internal/dedup"
	"github.com/ViktorShadr/habit-reminder-api/internal/habits"
	"github.com/ViktorShadr/habit-reminder-api/internal/mq"
	"github.com/ViktorShadr/habit-reminder-api/internal/reminder"
	"github.com/ViktorShadr/habit-reminder-api/internal/repo"
	"github.com/ViktorShadr/habit-reminder-api/internal/scheduler"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
	"github.com/ViktorShadr/habit-reminder-api/internal/users"
)

var startTime = time.Now()

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	logger.Info("starting habit-api", "time_zone", cfg.Location.String())

	metrics := telemetry.NewMetrics(nil)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Миграции
	if cfg.PG.Migrate {
		if err := repo.Migrate(ctx, cfg.PG.DSN); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		logger.Info("migrations applied")
	}

	// Подключаемся к базе данных
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
	logger.Info("connected to database")

	// Создаём репозитории
	userRepo := repo.NewUserRepo(pool)
	habitRepo := repo.NewHabitRepo(pool)
	linkRepo := repo.NewTelegramLinkRepo(pool)

	// Redis: сессии и ключи дедупликации
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
	logger.Info("connected to redis")

	sessions := users.NewSessionStore(rdb, cfg.Redis.SessionTTL.Duration())

	// RabbitMQ: без него API работает, но не ставит ближайшие напоминания
	var next habits.Scheduler
	mqConn, err := mq.Dial(mq.ConnectionConfig{
		URL:     cfg.RabbitMQ.URL,
		Name:    "habit-api",
		Confirm: true,
	}, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, next reminders will come from scheduler ticks only", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		queue := mq.NewReminderQueue(dedup.NewGuard(rdb), mq.NewPublisher(mqConn, logger), logger)
		next = reminder.New(reminder.Config{
			Habits:         habitRepo,
			Queue:          queue,
			NextOccurrence: scheduler.NextOccurrence,
			Location:       cfg.Location,
			Logger:         logger,
		})
	}

	handler := api.NewHandler(api.Config{
		Users: users.NewService(users.Config{
			Users:  userRepo,
			Links:  linkRepo,
			Logger: logger,
		}),
		Habits: habits.NewService(habits.Config{
			Habits:    habitRepo,
			Scheduler: next,
			Location:  cfg.Location,
			Logger:    logger,
		}),
		Sessions:  sessions,
		BotSecret: cfg.Telegram.BotSecret,
		BotName:   cfg.Telegram.BotName,
		Metrics:   metrics,
		Logger:    logger,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime).Truncate(time.Second))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":" + cfg.HTTP.APIPort

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTP.ReadTimeout.Duration(),
		WriteTimeout: cfg.HTTP.WriteTimeout.Duration(),
		IdleTimeout:  cfg.HTTP.IdleTimeout.Duration(),
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration())
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}
