package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ViktorShadr/habit-reminder-api/internal/users"
)

// BotSecretHeader: заголовок с общим секретом бота и API.
const BotSecretHeader = "X-BOT-SECRET"

// APILinker подтверждает коды привязки через HTTP API сервиса.
// Используется, когда бот запущен отдельно от базы данных.
type APILinker struct {
	baseURL    string
	secret     string
	httpClient *http.Client
}

// NewAPILinker создаёт APILinker.
func NewAPILinker(baseURL, secret string) *APILinker {
	return &APILinker{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type confirmRequest struct {
	Code   string `json:"code"`
	ChatID string `json:"chat_id"`
}

// ConfirmTelegramLink отправляет POST /api/v1/telegram/confirm.
func (l *APILinker) ConfirmTelegramLink(ctx context.Context, code, chatID string) error {
	body, err := json.Marshal(confirmRequest{Code: code, ChatID: chatID})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/api/v1/telegram/confirm", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(BotSecretHeader, l.secret)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var apiErr errorResponse
	_ = json.Unmarshal(respBody, &apiErr)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return users.ErrLinkNotFound
	case apiErr.Error.Code == "LINK_EXPIRED":
		return users.ErrLinkExpired
	case apiErr.Error.Code == "LINK_USED":
		return users.ErrLinkUsed
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return fmt.Errorf("%w: status %d: %s", ErrLinkRejected, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return fmt.Errorf("confirm link: status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
}
