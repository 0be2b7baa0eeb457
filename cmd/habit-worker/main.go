// Habit Worker: доставляет напоминания.
//
// Worker:
//   - Получает задачи deliver_one из RabbitMQ
//   - Перечитывает привычку и повторно проверяет, нужно ли напоминание
//   - Отправляет сообщение в Telegram (с ограничением частоты)
//   - Повторяет неудачную доставку с exponential backoff
//
// Workers масштабируются горизонтально.
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
	"github.com/ViktorShadr/habit-reminder-api/internal/mq"
	"github.com/ViktorShadr/habit-reminder-api/internal/reminder"
	"github.com/ViktorShadr/habit-reminder-api/internal/repo"
	"github.com/ViktorShadr/habit-reminder-api/internal/telegram"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
	"github.com/ViktorShadr/habit-reminder-api/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	// Инициализируем structured logging
	logger := telemetry.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	logger.Info("starting habit-worker")

	metrics := telemetry.NewMetrics(nil)

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Telegram.BotToken == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is not set")
		os.Exit(1)
	}
	botAPI, err := telegram.NewSendAPI(cfg.Telegram.BotToken, "", cfg.Telegram.SendTimeout.Duration())
	if err != nil {
		logger.Error("failed to init telegram bot api", "error", err)
		os.Exit(1)
	}
	logger.Info("telegram authorized", "bot", botAPI.Self.UserName)

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

	// RabbitMQ
	mqConn, err := mq.Dial(mq.ConnectionConfig{
		URL:  cfg.RabbitMQ.URL,
		Name: "habit-worker",
	}, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Warn("failed to setup topology", "error", err)
	} else {
		logger.Debug("topology ready", "topology", mq.TopologyInfo())
	}

	coordinator := reminder.New(reminder.Config{
		Habits: repo.NewHabitRepo(pool),
		Notifier: telegram.NewNotifier(telegram.NotifierConfig{
			Sender:        botAPI,
			RatePerSecond: cfg.Telegram.RatePerSec,
			Metrics:       metrics,
			Logger:        logger,
		}),
		Location:    cfg.Location,
		SendTimeout: cfg.Telegram.SendTimeout.Duration(),
		Logger:      logger,
	})

	w := worker.New(worker.Config{
		Deliverer: coordinator,
		Conn:      mqConn,
		Prefetch:  cfg.Worker.Prefetch,
		Retry: worker.RetryPolicy{
			MaxAttempts:  cfg.Worker.MaxAttempts,
			InitialDelay: cfg.Worker.InitialDelay.Duration(),
			MaxDelay:     cfg.Worker.MaxDelay.Duration(),
		},
		Metrics: metrics,
		Logger:  logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !mqConn.IsConnected() {
			http.Error(w, "rabbitmq disconnected", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: ":" + cfg.HTTP.WorkerPort, Handler: mux}
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем worker: текущая доставка завершится или вернётся в очередь
	w.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration())
	defer shutdownCancel()
	_ = server.Shutdown(shutdownCtx)

	logger.Info("habit-worker stopped")
}
