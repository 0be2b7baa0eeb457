package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User: пользователь сервиса.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone_number,omitempty"`
	City         string    `json:"city,omitempty"`

	// TelegramID: chat id в Telegram. Заполняется после подтверждения кода привязки.
	TelegramID *string `json:"telegram_id,omitempty"`

	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ChannelID возвращает chat id, если Telegram привязан.
//
// Значения "", "0" и nil считаются непривязанным аккаунтом.
func (u *User) ChannelID() (string, bool) {
	if u == nil || u.TelegramID == nil {
		return "", false
	}
	id := strings.TrimSpace(*u.TelegramID)
	if id == "" || id == "0" {
		return "", false
	}
	return id, true
}

// TelegramLink: одноразовый код привязки Telegram к пользователю.
type TelegramLink struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"user_id"`
	Code      string     `json:"code"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
}

// IsExpired: срок действия кода истёк.
func (l *TelegramLink) IsExpired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// IsUsed: код уже использован.
func (l *TelegramLink) IsUsed() bool {
	return l.UsedAt != nil
}

// IsActive: код можно использовать.
func (l *TelegramLink) IsActive(now time.Time) bool {
	return !l.IsUsed() && !l.IsExpired(now)
}
