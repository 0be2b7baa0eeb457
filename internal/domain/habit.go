package domain

import (
	"time"

	"github.com/google/uuid"
)

// Значения по умолчанию для привычки.
const (
	// DefaultDurationSec: длительность выполнения привычки по умолчанию.
	DefaultDurationSec = 60

	// MaxDurationSec: максимальная длительность выполнения.
	MaxDurationSec = 120

	// MinFrequencyDays, MaxFrequencyDays: допустимая периодичность (раз в N дней).
	MinFrequencyDays = 1
	MaxFrequencyDays = 7
)

// Habit: привычка пользователя.
//
// Привычка повторяется каждые FrequencyDays дней в ScheduledTime (локальное
// время без часового пояса). Scheduler сравнивает ScheduledTime с текущей
// минутой и отправляет напоминание владельцу в Telegram.
type Habit struct {
	// ID: уникальный идентификатор привычки.
	ID uuid.UUID `json:"id"`

	// OwnerID: владелец привычки.
	OwnerID uuid.UUID `json:"owner_id"`

	// Owner - загруженный владелец (нужен для доставки: telegram_id).
	// Заполняется репозиторием при eager-загрузке, может быть nil.
	Owner *User `json:"-"`

	// Place: место выполнения.
	Place string `json:"place"`

	// Action: действие.
	Action string `json:"action"`

	// ScheduledTime: время дня (часы и минуты), в которое выполняется привычка.
	ScheduledTime TimeOfDay `json:"time"`

	// FrequencyDays - периодичность: раз в N дней (1..7).
	// Инвариант проверяется при записи; при чтении значение может быть nil
	// или вне диапазона, evaluator обязан это пережить.
	FrequencyDays *int `json:"frequency"`

	// DurationSec: длительность выполнения в секундах.
	DurationSec int `json:"duration"`

	// IsPleasant: приятная привычка (не может иметь награды и связанной привычки).
	IsPleasant bool `json:"is_pleasant"`

	// IsPublic: привычка видна в публичном списке.
	IsPublic bool `json:"is_public"`

	// RelatedHabitID: связанная приятная привычка.
	RelatedHabitID *uuid.UUID `json:"related_habit,omitempty"`

	// RelatedHabit: загруженная связанная привычка (для текста напоминания).
	RelatedHabit *Habit `json:"-"`

	// Reward: вознаграждение.
	Reward *string `json:"reward,omitempty"`

	// LastReminder: время последнего успешно доставленного напоминания.
	// nil: напоминаний ещё не было.
	LastReminder *time.Time `json:"last_reminder,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Frequency возвращает периодичность и признак, что она задана.
func (h *Habit) Frequency() (int, bool) {
	if h.FrequencyDays == nil {
		return 0, false
	}
	return *h.FrequencyDays, true
}

// RewardText возвращает награду или пустую строку.
func (h *Habit) RewardText() string {
	if h.Reward == nil {
		return ""
	}
	return *h.Reward
}

// ChannelID возвращает telegram_id владельца, если аккаунт привязан.
func (h *Habit) ChannelID() (string, bool) {
	if h.Owner == nil {
		return "", false
	}
	return h.Owner.ChannelID()
}

// MarkReminded фиксирует успешную отправку напоминания.
func (h *Habit) MarkReminded(at time.Time) {
	h.LastReminder = &at
}

// IntPtr: helper для опциональных int полей.
func IntPtr(v int) *int {
	return &v
}

// StringPtr: helper для опциональных строковых полей.
func StringPtr(v string) *string {
	return &v
}

// BoolPtr: helper для опциональных bool полей.
func BoolPtr(v bool) *bool {
	return &v
}
