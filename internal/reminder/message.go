package reminder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
)

const notSpecified = "Не указано"

// ReminderMessage: данные для текста напоминания.
// Пустые поля заменяются значениями по умолчанию.
type ReminderMessage struct {
	Place         string
	Action        string
	DurationSec   int
	Reward        string
	RelatedAction string
}

// Formatter формирует текст напоминания.
type Formatter func(ReminderMessage) (string, error)

// MessageFromHabit собирает ReminderMessage из привычки.
func MessageFromHabit(h *domain.Habit) ReminderMessage {
	msg := ReminderMessage{
		Place:       h.Place,
		Action:      h.Action,
		DurationSec: h.DurationSec,
		Reward:      h.RewardText(),
	}
	if h.RelatedHabit != nil {
		msg.RelatedAction = h.RelatedHabit.Action
	}
	return msg
}

// FormatMessage: шаблон напоминания по умолчанию.
func FormatMessage(m ReminderMessage) (string, error) {
	place := strings.TrimSpace(m.Place)
	if place == "" {
		place = notSpecified
	}
	action := strings.TrimSpace(m.Action)
	if action == "" {
		action = notSpecified
	}
	duration := m.DurationSec
	if duration <= 0 {
		duration = domain.DefaultDurationSec
	}

	var b strings.Builder
	b.WriteString("⏰ Напоминание о привычке!\n\n")
	fmt.Fprintf(&b, "📍 Место: %s\n", place)
	fmt.Fprintf(&b, "🎯 Действие: %s\n", action)
	fmt.Fprintf(&b, "⏱️ Длительность: %d секунд\n", duration)

	if reward := strings.TrimSpace(m.Reward); reward != "" {
		fmt.Fprintf(&b, "🎁 Награда: %s\n", reward)
	}
	if related := strings.TrimSpace(m.RelatedAction); related != "" {
		fmt.Fprintf(&b, "🔗 Связанная привычка: %s\n", related)
	}

	b.WriteString("\n💪 Не забудь выполнить свою привычку!")

	return b.String(), nil
}

// safeFormat вызывает formatter и превращает панику в ошибку.
func safeFormat(f Formatter, m ReminderMessage) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", ErrFormatFailed, r)
		}
	}()

	text, err = f(m)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFormatFailed, err)
	}
	if text == "" {
		return "", errors.Join(ErrFormatFailed, errors.New("empty message"))
	}
	return text, nil
}
