// Habit Bot: Telegram-бот привязки аккаунта.
//
// Пользователь получает код в API (POST /api/v1/telegram/link) и отправляет
// боту /start <CODE>. Бот подтверждает код:
//   - напрямую через БД, если задан DB_URL
//   - иначе через API (BACKEND_BASE_URL + X-BOT-SECRET)
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/ViktorShadr/habit-reminder-api/internal/config"
	"github.com/ViktorShadr/habit-reminder-api/internal/repo"
	"github.com/ViktorShadr/habit-reminder-api/internal/telegram"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
	"github.com/ViktorShadr/habit-reminder-api/internal/users"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	logger := telemetry.SetupLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	logger.Info("starting habit-bot")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Telegram.BotToken == "" {
		logger.Error("TELEGRAM_BOT_TOKEN is not set")
		os.Exit(1)
	}
	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error("failed to init telegram bot api", "error", err)
		os.Exit(1)
	}
	logger.Info("telegram authorized", "bot", botAPI.Self.UserName)

	var linker telegram.Linker
	switch {
	case cfg.Telegram.BackendURL != "":
		linker = telegram.NewAPILinker(cfg.Telegram.BackendURL, cfg.Telegram.BotSecret)
		logger.Info("confirming links through API", "url", cfg.Telegram.BackendURL)
	default:
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

		linker = users.NewService(users.Config{
			Users:  repo.NewUserRepo(pool),
			Links:  repo.NewTelegramLinkRepo(pool),
			Logger: logger,
		})
		logger.Info("confirming links through database")
	}

	bot := telegram.NewBot(telegram.BotConfig{
		API:    botAPI,
		Linker: linker,
		Logger: logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ":" + cfg.HTTP.BotPort, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return bot.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout.Duration())
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("habit-bot exited with error", "error", err)
		os.Exit(1)
	}

	logger.Info("habit-bot stopped")
}
