package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
)

// botSecretHeader: заголовок с общим секретом бота.
const botSecretHeader = "X-BOT-SECRET"

// CreateTelegramLink выдаёт одноразовый код привязки.
// POST /api/v1/telegram/link
func (h *Handler) CreateTelegramLink(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())

	link, err := h.users.CreateTelegramLink(r.Context(), userID)
	if HandleServiceError(w, h.logger, err) {
		return
	}

	resp := TelegramLinkResponse{
		Code:      link.Code,
		ExpiresAt: link.ExpiresAt,
		Command:   "/start " + link.Code,
	}
	if h.botName != "" {
		resp.BotURL = "https://t.me/" + strings.TrimPrefix(h.botName, "@") + "?start=" + link.Code
	}

	Created(w, resp)
}

// ConfirmTelegramLink подтверждает код от имени бота.
// POST /api/v1/telegram/confirm (заголовок X-BOT-SECRET)
func (h *Handler) ConfirmTelegramLink(w http.ResponseWriter, r *http.Request) {
	secret := r.Header.Get(botSecretHeader)
	if h.botSecret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.botSecret)) != 1 {
		Forbidden(w, "forbidden")
		return
	}

	var req TelegramConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Code) == "" {
		ValidationFailed(w, map[string]string{"code": "Обязательное поле."})
		return
	}

	if HandleServiceError(w, h.logger, h.users.ConfirmTelegramLink(r.Context(), req.Code, req.ChatIDString())) {
		return
	}

	Success(w, map[string]bool{"linked": true})
}
