package domain

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

const maxTextLen = 100

// ValidationError: ошибки валидации по полям.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// add сохраняет только первую ошибку для поля.
func (e *ValidationError) add(field, msg string) {
	if _, ok := e.Fields[field]; !ok {
		e.Fields[field] = msg
	}
}

// ValidateHabit проверяет привычку перед записью.
//
// related: загруженная связанная привычка (nil, если не указана).
// Правила:
//   - у приятной привычки нет награды и связанной привычки;
//   - нельзя одновременно указывать награду и связанную привычку;
//   - связанная привычка: приятная, того же владельца и не сама привычка;
//   - длительность не больше 120 секунд;
//   - периодичность от 1 до 7 дней.
func ValidateHabit(h *Habit, related *Habit) error {
	verr := &ValidationError{Fields: make(map[string]string)}

	if strings.TrimSpace(h.Place) == "" {
		verr.add("place", "Обязательное поле.")
	} else if utf8.RuneCountInString(h.Place) > maxTextLen {
		verr.add("place", "Не более 100 символов.")
	}
	if strings.TrimSpace(h.Action) == "" {
		verr.add("action", "Обязательное поле.")
	} else if utf8.RuneCountInString(h.Action) > maxTextLen {
		verr.add("action", "Не более 100 символов.")
	}

	reward := strings.TrimSpace(h.RewardText())
	hasRelated := h.RelatedHabitID != nil

	if hasRelated && related != nil {
		if related.OwnerID != h.OwnerID {
			verr.add("related_habit", "Нельзя привязывать привычку другого пользователя.")
		}
		if h.ID != uuid.Nil && related.ID == h.ID {
			verr.add("related_habit", "Нельзя связывать привычку с самой собой.")
		}
	}
	if hasRelated && related == nil {
		verr.add("related_habit", "Связанная привычка не найдена.")
	}

	if h.IsPleasant && (reward != "" || hasRelated) {
		verr.add("is_pleasant", "У приятной привычки не может быть вознаграждения или связанной привычки.")
		if reward != "" {
			verr.add("reward", "Для приятной привычки нельзя указывать вознаграждение.")
		}
		if hasRelated {
			verr.add("related_habit", "Для приятной привычки нельзя указывать связанную привычку.")
		}
	}

	if reward != "" && hasRelated {
		verr.add("reward", "Нельзя одновременно указывать вознаграждение и связанную привычку.")
		verr.add("related_habit", "Нельзя одновременно указывать связанную привычку и вознаграждение.")
	}

	if h.DurationSec > MaxDurationSec {
		verr.add("duration", "Время выполнения должно быть не больше 120 секунд.")
	}
	if h.DurationSec < 0 {
		verr.add("duration", "Длительность не может быть отрицательной.")
	}

	if hasRelated && related != nil && !related.IsPleasant {
		verr.add("related_habit", "В связанную привычку можно выбрать только привычку с признаком приятной.")
	}

	if freq, ok := h.Frequency(); !ok || freq < MinFrequencyDays || freq > MaxFrequencyDays {
		verr.add("frequency", "Нельзя выполнять привычку реже, чем 1 раз в 7 дней (значение от 1 до 7).")
	}

	if utf8.RuneCountInString(reward) > maxTextLen {
		verr.add("reward", "Не более 100 символов.")
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}
