package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

var moscow = time.FixedZone("MSK", 3*60*60)

func newHabit(freq *int, last *time.Time) *Habit {
	return &Habit{
		ID:            uuid.New(),
		ScheduledTime: TimeOfDay{Hour: 10, Minute: 0},
		FrequencyDays: freq,
		LastReminder:  last,
	}
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, moscow)
}

func ptrTime(t time.Time) *time.Time { return &t }

// --- Scenarios ---

func TestCheckDue_FirstReminder(t *testing.T) {
	h := newHabit(IntPtr(1), nil)

	d := CheckDue(h, at(2024, 1, 1, 10, 0), moscow)
	if !d.Due {
		t.Fatal("habit without last_reminder should be due")
	}
	if d.Reason != DueReasonFirstReminder {
		t.Errorf("expected reason %s, got %s", DueReasonFirstReminder, d.Reason)
	}
}

func TestCheckDue_SameMinute(t *testing.T) {
	h := newHabit(IntPtr(1), ptrTime(at(2024, 1, 1, 10, 0)))

	// Секунды внутри той же минуты тоже считаются той же минутой
	now := at(2024, 1, 1, 10, 0).Add(42 * time.Second)

	d := CheckDue(h, now, moscow)
	if d.Due {
		t.Fatal("habit reminded in the same minute should not be due")
	}
	if d.Reason != DueReasonSameMinute {
		t.Errorf("expected reason %s, got %s", DueReasonSameMinute, d.Reason)
	}
}

func TestCheckDue_FrequencyTwoDays(t *testing.T) {
	h := newHabit(IntPtr(2), ptrTime(at(2024, 1, 1, 10, 0)))

	if d := CheckDue(h, at(2024, 1, 2, 10, 0), moscow); d.Due {
		t.Error("only 1 day elapsed, should not be due")
	}
	if d := CheckDue(h, at(2024, 1, 3, 10, 0), moscow); !d.Due {
		t.Error("2 days elapsed, should be due")
	}
}

func TestCheckDue_BoundaryForAllFrequencies(t *testing.T) {
	last := at(2024, 3, 10, 10, 0)

	for n := MinFrequencyDays; n <= MaxFrequencyDays; n++ {
		h := newHabit(IntPtr(n), ptrTime(last))

		before := last.AddDate(0, 0, n-1)
		if d := CheckDue(h, before, moscow); d.Due {
			t.Errorf("freq=%d: %d days elapsed should not be due", n, n-1)
		}

		exact := last.AddDate(0, 0, n)
		if d := CheckDue(h, exact, moscow); !d.Due {
			t.Errorf("freq=%d: %d days elapsed should be due", n, n)
		}
	}
}

func TestCheckDue_CalendarDayNotElapsedHours(t *testing.T) {
	// Напоминание в 23:59, следующий день наступил через минуту
	h := newHabit(IntPtr(1), ptrTime(at(2024, 1, 1, 23, 59)))

	d := CheckDue(h, at(2024, 1, 2, 0, 0), moscow)
	if !d.Due {
		t.Error("frequency=1 means next calendar day, not 24 hours")
	}
	if d.DaysSince != 1 {
		t.Errorf("expected DaysSince=1, got %d", d.DaysSince)
	}
}

func TestCheckDue_NilFrequency(t *testing.T) {
	h := newHabit(nil, nil)

	d := CheckDue(h, at(2024, 1, 1, 10, 0), moscow)
	if d.Due {
		t.Error("nil frequency must never be due")
	}
	if d.Reason != DueReasonInvalidFrequency {
		t.Errorf("expected reason %s, got %s", DueReasonInvalidFrequency, d.Reason)
	}
}

func TestCheckDue_ZeroFrequency(t *testing.T) {
	h := newHabit(IntPtr(0), nil)

	if d := CheckDue(h, at(2024, 1, 1, 10, 0), moscow); d.Due {
		t.Error("zero frequency must not be due")
	}
}

func TestCheckDue_FirstReminderIgnoresFrequency(t *testing.T) {
	for n := 1; n <= 7; n++ {
		h := newHabit(IntPtr(n), nil)
		if d := CheckDue(h, at(2024, 5, 5, 10, 0), moscow); !d.Due {
			t.Errorf("freq=%d: first reminder should be due", n)
		}
	}
}

func TestCheckDue_NormalizesTimezones(t *testing.T) {
	// last_reminder хранится в UTC: 2024-01-01 22:30 UTC = 2024-01-02 01:30 MSK
	last := time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC)
	h := newHabit(IntPtr(1), &last)

	// now = 2024-01-02 10:00 MSK: тот же локальный день, что и last_reminder
	now := time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)

	if d := CheckDue(h, now, moscow); d.Due {
		t.Error("same local date must not be due when comparing in local zone")
	}
}

// --- Helpers ---

func TestSameMinute(t *testing.T) {
	a := time.Date(2023, 1, 1, 10, 30, 15, 0, time.UTC)
	b := time.Date(2023, 1, 1, 10, 30, 45, 0, time.UTC)
	c := time.Date(2023, 1, 1, 10, 31, 0, 0, time.UTC)
	d := time.Date(2023, 1, 1, 11, 30, 0, 0, time.UTC)

	if !SameMinute(a, b) {
		t.Error("10:30:15 and 10:30:45 are the same minute")
	}
	if SameMinute(a, c) {
		t.Error("10:30 and 10:31 are different minutes")
	}
	if SameMinute(a, d) {
		t.Error("10:30 and 11:30 are different minutes")
	}
}

func TestAsLocalWallClock(t *testing.T) {
	naive := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)

	got := AsLocalWallClock(naive, moscow)
	if got.Hour() != 10 || got.Location() != moscow {
		t.Errorf("expected 10:00 MSK, got %s", got)
	}
}

func TestNormalizeLocal(t *testing.T) {
	aware := time.Date(2023, 1, 1, 7, 0, 0, 0, time.UTC)

	got := NormalizeLocal(aware, moscow)
	if got.Hour() != 10 {
		t.Errorf("expected hour 10 in MSK, got %d", got.Hour())
	}
	if !got.Equal(aware) {
		t.Error("normalization must not change the instant")
	}
}

func TestDedupKey_StableWithinMinute(t *testing.T) {
	id := uuid.MustParse("7b0d5c1e-9a4b-4a59-9b2f-0c7f1f2d3e4a")

	k1 := DedupKey(id, at(2024, 1, 1, 10, 0), moscow)
	k2 := DedupKey(id, at(2024, 1, 1, 10, 0).Add(59*time.Second), moscow)
	k3 := DedupKey(id, at(2024, 1, 1, 10, 1), moscow)

	if k1 != k2 {
		t.Errorf("keys within the same minute must match: %s != %s", k1, k2)
	}
	if k1 == k3 {
		t.Error("keys for different minutes must differ")
	}
	want := "habit:7b0d5c1e-9a4b-4a59-9b2f-0c7f1f2d3e4a:202401011000"
	if k1 != want {
		t.Errorf("expected %s, got %s", want, k1)
	}
}

func TestScheduledDedupKey_DiffersFromTick(t *testing.T) {
	id := uuid.MustParse("7b0d5c1e-9a4b-4a59-9b2f-0c7f1f2d3e4a")
	when := at(2024, 1, 1, 10, 0)

	got := ScheduledDedupKey(id, when, moscow)
	if got == DedupKey(id, when, moscow) {
		t.Error("scheduled key must differ from the tick key")
	}
	if want := "habit:7b0d5c1e-9a4b-4a59-9b2f-0c7f1f2d3e4a:202401011000:scheduled"; got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestSinceSlot(t *testing.T) {
	slot := TimeOfDay{Hour: 10, Minute: 0}

	tests := []struct {
		name string
		slot TimeOfDay
		now  time.Time
		want time.Duration
	}{
		{"at slot", slot, at(2024, 1, 1, 10, 0), 0},
		{"within minute", slot, at(2024, 1, 1, 10, 0).Add(30 * time.Second), 30 * time.Second},
		{"hours later", slot, at(2024, 1, 2, 7, 0), 21 * time.Hour},
		{"before slot today", slot, at(2024, 1, 1, 9, 59), 23*time.Hour + 59*time.Minute},
		{"after midnight", TimeOfDay{Hour: 23, Minute: 58}, at(2024, 1, 2, 0, 1), 3 * time.Minute},
		{"utc input", slot, time.Date(2024, 1, 1, 7, 2, 0, 0, time.UTC), 2 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SinceSlot(tt.slot, tt.now, moscow); got != tt.want {
				t.Errorf("SinceSlot() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCalendarDaysBetween(t *testing.T) {
	from := time.Date(2024, 2, 28, 23, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)

	if got := CalendarDaysBetween(from, to); got != 2 {
		t.Errorf("expected 2 days across leap day, got %d", got)
	}
}

func TestUser_ChannelID(t *testing.T) {
	cases := []struct {
		name   string
		id     *string
		linked bool
	}{
		{"nil", nil, false},
		{"empty", StringPtr(""), false},
		{"zero", StringPtr("0"), false},
		{"spaces", StringPtr("  "), false},
		{"valid", StringPtr("123456789"), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := &User{TelegramID: tc.id}
			_, ok := u.ChannelID()
			if ok != tc.linked {
				t.Errorf("expected linked=%v, got %v", tc.linked, ok)
			}
		})
	}

	var nilUser *User
	if _, ok := nilUser.ChannelID(); ok {
		t.Error("nil user is never linked")
	}
}
