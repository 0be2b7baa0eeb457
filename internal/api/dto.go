package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/habits"
)

// User DTOs

// RegisterRequest: запрос на регистрацию.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone_number,omitempty"`
	City     string `json:"city,omitempty"`
}

// LoginRequest: запрос на вход.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse: выданный токен.
type LoginResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}

// UpdateUserRequest: изменение профиля.
type UpdateUserRequest struct {
	Phone *string `json:"phone_number,omitempty"`
	City  *string `json:"city,omitempty"`
}

// UserResponse: ответ с пользователем.
type UserResponse struct {
	ID             uuid.UUID `json:"id"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone_number,omitempty"`
	City           string    `json:"city,omitempty"`
	TelegramLinked bool      `json:"telegram_linked"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserFromDomain конвертирует domain.User в UserResponse.
func UserFromDomain(u *domain.User) UserResponse {
	_, linked := u.ChannelID()
	return UserResponse{
		ID:             u.ID,
		Email:          u.Email,
		Phone:          u.Phone,
		City:           u.City,
		TelegramLinked: linked,
		CreatedAt:      u.CreatedAt,
	}
}

// Habit DTOs

// CreateHabitRequest: запрос на создание привычки.
type CreateHabitRequest struct {
	Place        string           `json:"place"`
	Action       string           `json:"action"`
	Time         domain.TimeOfDay `json:"time"`
	Frequency    *int             `json:"frequency,omitempty"`
	Duration     *int             `json:"duration,omitempty"`
	IsPleasant   bool             `json:"is_pleasant"`
	IsPublic     bool             `json:"is_public"`
	RelatedHabit *uuid.UUID       `json:"related_habit,omitempty"`
	Reward       *string          `json:"reward,omitempty"`
}

// Input конвертирует запрос во входные данные сервиса.
func (r CreateHabitRequest) Input() habits.Input {
	return habits.Input{
		Place:          r.Place,
		Action:         r.Action,
		ScheduledTime:  r.Time,
		FrequencyDays:  r.Frequency,
		DurationSec:    r.Duration,
		IsPleasant:     r.IsPleasant,
		IsPublic:       r.IsPublic,
		RelatedHabitID: r.RelatedHabit,
		Reward:         r.Reward,
	}
}

// UpdateHabitRequest: частичное изменение привычки.
// related_habit и reward можно сбросить явным null.
type UpdateHabitRequest struct {
	Place        *string           `json:"place,omitempty"`
	Action       *string           `json:"action,omitempty"`
	Time         *domain.TimeOfDay `json:"time,omitempty"`
	Frequency    *int              `json:"frequency,omitempty"`
	Duration     *int              `json:"duration,omitempty"`
	IsPleasant   *bool             `json:"is_pleasant,omitempty"`
	IsPublic     *bool             `json:"is_public,omitempty"`
	RelatedHabit json.RawMessage   `json:"related_habit,omitempty"`
	Reward       json.RawMessage   `json:"reward,omitempty"`
}

// Patch конвертирует запрос в patch сервиса.
func (r UpdateHabitRequest) Patch() (habits.Patch, error) {
	p := habits.Patch{
		Place:         r.Place,
		Action:        r.Action,
		ScheduledTime: r.Time,
		FrequencyDays: r.Frequency,
		DurationSec:   r.Duration,
		IsPleasant:    r.IsPleasant,
		IsPublic:      r.IsPublic,
	}

	if len(r.RelatedHabit) > 0 {
		if string(r.RelatedHabit) == "null" {
			p.ClearRelated = true
		} else {
			var id uuid.UUID
			if err := json.Unmarshal(r.RelatedHabit, &id); err != nil {
				return p, err
			}
			p.RelatedHabitID = &id
		}
	}

	if len(r.Reward) > 0 {
		if string(r.Reward) == "null" {
			p.ClearReward = true
		} else {
			var reward string
			if err := json.Unmarshal(r.Reward, &reward); err != nil {
				return p, err
			}
			p.Reward = &reward
		}
	}

	return p, nil
}

// HabitResponse: ответ с привычкой.
type HabitResponse struct {
	ID            uuid.UUID            `json:"id"`
	Place         string               `json:"place"`
	Action        string               `json:"action"`
	Time          domain.TimeOfDay     `json:"time"`
	Frequency     *int                 `json:"frequency"`
	Duration      int                  `json:"duration"`
	IsPleasant    bool                 `json:"is_pleasant"`
	IsPublic      bool                 `json:"is_public"`
	RelatedHabit  *uuid.UUID           `json:"related_habit,omitempty"`
	Reward        *string              `json:"reward,omitempty"`
	LastReminder  *time.Time           `json:"last_reminder,omitempty"`
	ReminderState domain.ReminderState `json:"reminder_state,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// HabitFromDomain конвертирует domain.Habit в HabitResponse.
func HabitFromDomain(h *domain.Habit, state domain.ReminderState) HabitResponse {
	return HabitResponse{
		ID:            h.ID,
		Place:         h.Place,
		Action:        h.Action,
		Time:          h.ScheduledTime,
		Frequency:     h.FrequencyDays,
		Duration:      h.DurationSec,
		IsPleasant:    h.IsPleasant,
		IsPublic:      h.IsPublic,
		RelatedHabit:  h.RelatedHabitID,
		Reward:        h.Reward,
		LastReminder:  h.LastReminder,
		ReminderState: state,
		CreatedAt:     h.CreatedAt,
		UpdatedAt:     h.UpdatedAt,
	}
}

// PublicHabitResponse: публичная привычка без служебных полей.
type PublicHabitResponse struct {
	ID         uuid.UUID        `json:"id"`
	Place      string           `json:"place"`
	Action     string           `json:"action"`
	Time       domain.TimeOfDay `json:"time"`
	Frequency  *int             `json:"frequency"`
	Duration   int              `json:"duration"`
	IsPleasant bool             `json:"is_pleasant"`
	Reward     *string          `json:"reward,omitempty"`
}

// PublicHabitFromDomain конвертирует domain.Habit в PublicHabitResponse.
func PublicHabitFromDomain(h *domain.Habit) PublicHabitResponse {
	return PublicHabitResponse{
		ID:         h.ID,
		Place:      h.Place,
		Action:     h.Action,
		Time:       h.ScheduledTime,
		Frequency:  h.FrequencyDays,
		Duration:   h.DurationSec,
		IsPleasant: h.IsPleasant,
		Reward:     h.Reward,
	}
}

// Telegram DTOs

// TelegramLinkResponse: выданный код привязки.
type TelegramLinkResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Command   string    `json:"command"`
	BotURL    string    `json:"bot_url,omitempty"`
}

// TelegramConfirmRequest: подтверждение кода ботом.
type TelegramConfirmRequest struct {
	Code   string          `json:"code"`
	ChatID json.RawMessage `json:"chat_id"`
}

// ChatIDString возвращает chat_id строкой: бот может прислать число или строку.
func (r TelegramConfirmRequest) ChatIDString() string {
	if len(r.ChatID) == 0 || string(r.ChatID) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(r.ChatID, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(r.ChatID, &n); err == nil {
		return n.String()
	}
	return ""
}
