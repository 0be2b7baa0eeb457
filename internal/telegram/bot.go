package telegram

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ViktorShadr/habit-reminder-api/internal/users"
)

// Тексты ответов бота.
const (
	replyHelp = "Привет! Чтобы привязать аккаунт, получи код в сервисе и отправь мне:\n" +
		"/start <КОД>\n\n" +
		"Например:\n" +
		"/start A1B2C3D4E5"
	replyInvalidCode = "Код выглядит некорректно. Проверь и попробуй ещё раз."
	replyLinked      = "Готово! Telegram успешно привязан ✅"
	replyNotFound    = "Не получилось привязать: код не найден."
	replyExpired     = "Не получилось привязать: срок действия кода истёк. Получи новый код в сервисе."
	replyUsed        = "Не получилось привязать: код уже использован."
	replyUnavailable = "Сервис временно недоступен, попробуй позже."
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{6,32}$`)

// Linker подтверждает код привязки для чата.
// Реализуется users.Service (прямой доступ к БД) и APILinker (через HTTP).
type Linker interface {
	ConfirmTelegramLink(ctx context.Context, code, chatID string) error
}

// UpdatesAPI: часть Bot API, нужная для long polling.
type UpdatesAPI interface {
	Sender
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot обрабатывает входящие сообщения: /start и /start <CODE>.
type Bot struct {
	api            UpdatesAPI
	linker         Linker
	pollTimeout    int
	confirmTimeout time.Duration
	logger         *slog.Logger
}

// BotConfig: конфигурация Bot.
type BotConfig struct {
	API    UpdatesAPI
	Linker Linker

	// PollTimeout - таймаут long polling в секундах (default: 30).
	PollTimeout int

	// ConfirmTimeout - таймаут подтверждения кода (default: 10s).
	ConfirmTimeout time.Duration

	Logger *slog.Logger
}

// NewBot создаёт Bot.
func NewBot(cfg BotConfig) *Bot {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 30
	}

	confirmTimeout := cfg.ConfirmTimeout
	if confirmTimeout <= 0 {
		confirmTimeout = 10 * time.Second
	}

	return &Bot{
		api:            cfg.API,
		linker:         cfg.Linker,
		pollTimeout:    pollTimeout,
		confirmTimeout: confirmTimeout,
		logger:         logger.With("component", "telegram-bot"),
	}
}

// Run читает обновления до отмены ctx.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	b.logger.Info("bot started", "poll_timeout", b.pollTimeout)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() || msg.Command() != "start" {
		return
	}

	reply := b.HandleStart(ctx, msg.Chat.ID, msg.CommandArguments())

	if _, err := b.api.Send(tgbotapi.NewMessage(msg.Chat.ID, reply)); err != nil {
		b.logger.Error("failed to send reply", "chat_id", msg.Chat.ID, "error", err)
	}
}

// HandleStart обрабатывает /start с аргументами args и возвращает текст ответа.
func (b *Bot) HandleStart(ctx context.Context, chatID int64, args string) string {
	code := strings.TrimSpace(args)
	if code == "" {
		return replyHelp
	}
	if !ValidCode(code) {
		return replyInvalidCode
	}

	confirmCtx, cancel := context.WithTimeout(ctx, b.confirmTimeout)
	defer cancel()

	err := b.linker.ConfirmTelegramLink(confirmCtx, code, strconv.FormatInt(chatID, 10))
	switch {
	case err == nil:
		b.logger.Info("telegram linked", "chat_id", chatID)
		return replyLinked
	case errors.Is(err, users.ErrLinkExpired):
		return replyExpired
	case errors.Is(err, users.ErrLinkUsed):
		return replyUsed
	case errors.Is(err, users.ErrLinkNotFound), errors.Is(err, ErrLinkRejected):
		return replyNotFound
	default:
		b.logger.Error("failed to confirm link", "chat_id", chatID, "error", err)
		return replyUnavailable
	}
}

// ValidCode проверяет формат кода привязки.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
