package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
)

// HabitSource: чтение кандидатов на напоминание.
type HabitSource interface {
	// ListByTimeOfDay возвращает привычки с заданными часом и минутой
	// вместе с владельцами (eager-загрузка).
	ListByTimeOfDay(ctx context.Context, hour, minute int) ([]domain.Habit, error)
}

// Evaluator решает, каким привычкам нужно напоминание в текущую минуту.
type Evaluator struct {
	habits HabitSource
	loc    *time.Location
	logger *slog.Logger
}

// NewEvaluator создаёт Evaluator.
// loc: локальный пояс, в котором хранится время привычек (nil: time.Local).
func NewEvaluator(habits HabitSource, loc *time.Location, logger *slog.Logger) *Evaluator {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{habits: habits, loc: loc, logger: logger}
}

// Location возвращает локальный пояс evaluator'а.
func (e *Evaluator) Location() *time.Location {
	return e.loc
}

// FindDue возвращает привычки, которым нужно напоминание в момент now.
//
// 1. now приводится к локальному поясу
// 2. выбираются привычки с совпадающими часом и минутой (секунды игнорируются)
// 3. для каждой вызывается IsDue
//
// Порядок результата совпадает с порядком выборки.
// Ошибка чтения возвращается как есть: частичный результат для рассылки небезопасен.
func (e *Evaluator) FindDue(ctx context.Context, now time.Time) ([]domain.Habit, error) {
	now = domain.NormalizeLocal(now, e.loc)

	candidates, err := e.habits.ListByTimeOfDay(ctx, now.Hour(), now.Minute())
	if err != nil {
		return nil, fmt.Errorf("list habits by time %02d:%02d: %w", now.Hour(), now.Minute(), err)
	}

	due := make([]domain.Habit, 0, len(candidates))
	for i := range candidates {
		if e.IsDue(&candidates[i], now) {
			due = append(due, candidates[i])
		}
	}

	return due, nil
}

// IsDue проверяет одну привычку. Некорректная периодичность логируется как warning.
func (e *Evaluator) IsDue(h *domain.Habit, now time.Time) bool {
	decision := domain.CheckDue(h, now, e.loc)

	if decision.Reason == domain.DueReasonInvalidFrequency {
		e.logger.Warn("habit has invalid frequency, skipping",
			"habit_id", h.ID,
			"frequency", h.FrequencyDays,
		)
	}

	return decision.Due
}
