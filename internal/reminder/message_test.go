package reminder

import (
	"strings"
	"testing"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
)

func TestFormatMessage_Full(t *testing.T) {
	text, err := FormatMessage(ReminderMessage{
		Place:         "Парк",
		Action:        "Пробежка",
		DurationSec:   120,
		Reward:        "Кофе",
		RelatedAction: "Душ",
	})
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	for _, want := range []string{
		"Напоминание о привычке",
		"Место: Парк",
		"Действие: Пробежка",
		"Длительность: 120 секунд",
		"Награда: Кофе",
		"Связанная привычка: Душ",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("message must contain %q:\n%s", want, text)
		}
	}
}

func TestFormatMessage_Defaults(t *testing.T) {
	text, err := FormatMessage(ReminderMessage{})
	if err != nil {
		t.Fatalf("format: %v", err)
	}

	if strings.Count(text, notSpecified) != 2 {
		t.Errorf("empty place and action must default to %q:\n%s", notSpecified, text)
	}
	if !strings.Contains(text, "Длительность: 60 секунд") {
		t.Errorf("duration must default to 60:\n%s", text)
	}
	if strings.Contains(text, "Награда") || strings.Contains(text, "Связанная") {
		t.Errorf("optional lines must be omitted:\n%s", text)
	}
}

func TestMessageFromHabit(t *testing.T) {
	related := &domain.Habit{Action: "Чай"}
	h := &domain.Habit{
		Place:        "Кухня",
		Action:       "Медитация",
		DurationSec:  30,
		Reward:       domain.StringPtr("Сладкое"),
		RelatedHabit: related,
	}

	msg := MessageFromHabit(h)
	want := ReminderMessage{Place: "Кухня", Action: "Медитация", DurationSec: 30, Reward: "Сладкое", RelatedAction: "Чай"}
	if msg != want {
		t.Errorf("expected %+v, got %+v", want, msg)
	}
}

func TestSafeFormat_EmptyText(t *testing.T) {
	_, err := safeFormat(func(ReminderMessage) (string, error) { return "", nil }, ReminderMessage{})
	if err == nil {
		t.Fatal("empty text must be an error")
	}
}
