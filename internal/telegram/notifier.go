package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
)

// DefaultRatePerSecond: лимит Telegram на сообщения от одного бота.
const DefaultRatePerSecond = 25

// NewSendAPI создаёт клиента Bot API для отправки напоминаний.
// timeout ограничивает каждый HTTP-запрос: по истечении запрос обрывается,
// а не продолжает выполняться после того, как Send вернул false.
// Для long polling не подходит: getUpdates держит соединение дольше.
func NewSendAPI(token, endpoint string, timeout time.Duration) (*tgbotapi.BotAPI, error) {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: timeout})
}

// Sender отправляет сообщение в Telegram. *tgbotapi.BotAPI реализует его.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier доставляет напоминания через Telegram Bot API.
type Notifier struct {
	sender  Sender
	limiter *rate.Limiter
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// NotifierConfig: конфигурация Notifier.
type NotifierConfig struct {
	Sender Sender

	// RatePerSecond - сообщений в секунду (default: 25).
	RatePerSecond int

	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// NewNotifier создаёт Notifier.
func NewNotifier(cfg NotifierConfig) *Notifier {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = DefaultRatePerSecond
	}

	return &Notifier{
		sender:  cfg.Sender,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		metrics: cfg.Metrics,
		logger:  logger.With("component", "telegram-notifier"),
	}
}

// Send отправляет text в чат chatID.
// Ошибок не возвращает: любой сбой логируется, результат false.
func (n *Notifier) Send(ctx context.Context, chatID, text string) bool {
	id, err := ParseChatID(chatID)
	if err != nil {
		n.logger.Warn("cannot send to chat", "chat_id", chatID, "error", err)
		n.metrics.ObserveTelegramSend("invalid_chat")
		return false
	}

	if err := n.limiter.Wait(ctx); err != nil {
		n.logger.Warn("rate limiter wait aborted", "chat_id", id, "error", err)
		n.metrics.ObserveTelegramSend("timeout")
		return false
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("telegram send panicked: %v", r)
			}
		}()
		_, err := n.sender.Send(tgbotapi.NewMessage(id, text))
		done <- err
	}()

	// Sender не принимает ctx. Если ответ не пришёл до ctx, сообщение могло
	// уже уйти, и повтор воркера даст дубль: доставка at-least-once.
	// NewSendAPI сужает это окно таймаутом HTTP-клиента.
	select {
	case <-ctx.Done():
		n.logger.Warn("telegram send timed out", "chat_id", id, "error", ctx.Err())
		n.metrics.ObserveTelegramSend("timeout")
		return false
	case err := <-done:
		if err != nil {
			n.logger.Error("telegram send failed", "chat_id", id, "error", err)
			n.metrics.ObserveTelegramSend("error")
			return false
		}
	}

	n.metrics.ObserveTelegramSend("ok")
	return true
}

// ParseChatID разбирает chat id. Отрицательные id (группы) допустимы, ноль нет.
func ParseChatID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidChatID, s)
	}
	return id, nil
}
