package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DueReason: причина решения о необходимости напоминания.
type DueReason string

const (
	// DueReasonFirstReminder: напоминаний ещё не было.
	DueReasonFirstReminder DueReason = "first_reminder"

	// DueReasonIntervalElapsed: с последнего напоминания прошло >= N календарных дней.
	DueReasonIntervalElapsed DueReason = "interval_elapsed"

	// DueReasonSameMinute: напоминание уже отправлено в эту минуту.
	DueReasonSameMinute DueReason = "same_minute"

	// DueReasonIntervalNotElapsed: интервал ещё не прошёл.
	DueReasonIntervalNotElapsed DueReason = "interval_not_elapsed"

	// DueReasonInvalidFrequency: периодичность не задана или некорректна (проблема данных).
	DueReasonInvalidFrequency DueReason = "invalid_frequency"
)

// DueDecision: результат проверки привычки.
type DueDecision struct {
	Due    bool
	Reason DueReason

	// DaysSince: календарных дней с последнего напоминания (0, если напоминаний не было).
	DaysSince int
}

// NormalizeLocal приводит момент к локальному поясу отображения.
// Момент не меняется, меняется только представление (дата, часы, минуты).
func NormalizeLocal(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc)
}

// AsLocalWallClock интерпретирует поля даты и времени t как локальное время в loc.
//
// Используется для "наивных" значений без пояса (например, распарсенных
// без смещения): 10:00 без пояса означает 10:00 в loc, а не 10:00 UTC.
func AsLocalWallClock(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// SameMinute проверяет, что a и b попадают в одну календарную минуту
// (в поясе каждого значения; вызывающий нормализует их заранее).
func SameMinute(a, b time.Time) bool {
	return a.Year() == b.Year() &&
		a.YearDay() == b.YearDay() &&
		a.Hour() == b.Hour() &&
		a.Minute() == b.Minute()
}

// CalendarDaysBetween возвращает разницу в календарных датах (to - from).
// Время суток не учитывается: 23:59 и 00:00 следующего дня дают 1.
func CalendarDaysBetween(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	f := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	t := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

// CheckDue решает, нужно ли напоминание по привычке в момент now.
//
// Совпадение времени дня не проверяется: это делает выборка по (час, минута).
// Порядок проверок:
//  1. периодичность не задана или < 1 → не нужно (проблема данных);
//  2. напоминаний не было → нужно;
//  3. последнее напоминание в ту же минуту → не нужно;
//  4. иначе нужно, если календарных дней прошло >= периодичности.
func CheckDue(h *Habit, now time.Time, loc *time.Location) DueDecision {
	now = NormalizeLocal(now, loc)

	freq, ok := h.Frequency()
	if !ok || freq < MinFrequencyDays {
		return DueDecision{Due: false, Reason: DueReasonInvalidFrequency}
	}

	if h.LastReminder == nil {
		return DueDecision{Due: true, Reason: DueReasonFirstReminder}
	}

	last := NormalizeLocal(*h.LastReminder, loc)
	if SameMinute(last, now) {
		return DueDecision{Due: false, Reason: DueReasonSameMinute}
	}

	days := CalendarDaysBetween(last, now)
	if days >= freq {
		return DueDecision{Due: true, Reason: DueReasonIntervalElapsed, DaysSince: days}
	}
	return DueDecision{Due: false, Reason: DueReasonIntervalNotElapsed, DaysSince: days}
}

// DedupKey формирует ключ дедупликации задачи: "habit:{id}:{YYYYMMDDHHMM}".
// Минута берётся в локальном поясе, поэтому повторный тик в ту же минуту даёт тот же ключ.
func DedupKey(habitID uuid.UUID, at time.Time, loc *time.Location) string {
	return fmt.Sprintf("habit:%s:%s", habitID, NormalizeLocal(at, loc).Format("200601021504"))
}

// ScheduledDedupKey: ключ отложенной задачи, поставленной при записи привычки.
// Отличается от ключа тика той же минуты, чтобы задержанная задача
// не поглощала тик.
func ScheduledDedupKey(habitID uuid.UUID, at time.Time, loc *time.Location) string {
	return DedupKey(habitID, at, loc) + ":scheduled"
}

// SinceSlot возвращает, сколько прошло с последнего наступления slot не позже now (в loc).
// Результат в диапазоне [0, 24h).
func SinceSlot(slot TimeOfDay, now time.Time, loc *time.Location) time.Duration {
	now = NormalizeLocal(now, loc)
	at := slot.On(now, now.Location())
	if at.After(now) {
		at = slot.On(now.AddDate(0, 0, -1), now.Location())
	}
	return now.Sub(at)
}
