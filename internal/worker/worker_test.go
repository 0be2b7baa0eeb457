package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/mq"
	"github.com/ViktorShadr/habit-reminder-api/internal/reminder"
)

// --- Backoff ---

func TestCalculateBackoff_Exponential(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 5, InitialDelay: time.Second, MaxDelay: 30 * time.Second}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{20, 30 * time.Second},
	}

	for _, tc := range cases {
		if got := calculateBackoff(tc.attempt, policy); got != tc.want {
			t.Errorf("attempt %d: expected %s, got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestWithJitter_Bounds(t *testing.T) {
	d := 500 * time.Millisecond
	for i := 0; i < 1000; i++ {
		got := withJitter(d)
		if got < 0 || got > d {
			t.Fatalf("jitter out of range: %s", got)
		}
	}
	if withJitter(0) != 0 {
		t.Error("zero delay must stay zero")
	}
}

func TestRetryPolicy_Defaults(t *testing.T) {
	p := RetryPolicy{}.withDefaults()
	if p.MaxAttempts != DefaultMaxAttempts || p.InitialDelay != DefaultInitialDelay || p.MaxDelay != DefaultMaxDelay {
		t.Errorf("unexpected defaults: %+v", p)
	}

	p = RetryPolicy{InitialDelay: time.Minute, MaxDelay: time.Second}.withDefaults()
	if p.MaxDelay != time.Minute {
		t.Errorf("max delay must not be below initial delay, got %s", p.MaxDelay)
	}
}

// --- Retry loop ---

type fakeDeliverer struct {
	outcomes []domain.DeliveryOutcome
	calls    int
	nows     []time.Time
}

func (f *fakeDeliverer) DeliverTask(_ context.Context, _ domain.ReminderTask, now time.Time) reminder.DeliveryStats {
	f.nows = append(f.nows, now)
	o := f.outcomes[len(f.outcomes)-1]
	if f.calls < len(f.outcomes) {
		o = f.outcomes[f.calls]
	}
	f.calls++

	switch {
	case o == domain.DeliveryOutcomeSent:
		return reminder.DeliveryStats{Sent: 1, Outcome: o}
	case o.IsError():
		return reminder.DeliveryStats{Errors: 1, Outcome: o, Err: errors.New(string(o))}
	default:
		return reminder.DeliveryStats{Skipped: 1, Outcome: o}
	}
}

func newTestWorker(d Deliverer, maxAttempts int) (*Worker, *[]time.Duration) {
	w := New(Config{
		Deliverer: d,
		Retry:     RetryPolicy{MaxAttempts: maxAttempts, InitialDelay: 10 * time.Millisecond, MaxDelay: 40 * time.Millisecond},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	var waits []time.Duration
	w.wait = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	clock := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return w, &waits
}

func testTask() domain.ReminderTask {
	return domain.ReminderTask{Name: domain.TaskNameDeliverOne, HabitID: uuid.New(), DedupKey: "habit:t:1"}
}

func TestProcessTask_RetriesUntilSent(t *testing.T) {
	d := &fakeDeliverer{outcomes: []domain.DeliveryOutcome{
		domain.DeliveryOutcomeDeliveryFailed,
		domain.DeliveryOutcomeDeliveryFailed,
		domain.DeliveryOutcomeSent,
	}}
	w, waits := newTestWorker(d, 5)

	stats, err := w.processTask(context.Background(), testTask())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Outcome != domain.DeliveryOutcomeSent {
		t.Errorf("expected sent, got %s", stats.Outcome)
	}
	if d.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", d.calls)
	}
	if len(*waits) != 2 {
		t.Errorf("expected 2 backoff waits, got %d", len(*waits))
	}
	for i, wd := range *waits {
		if limit := calculateBackoff(i+1, w.retry); wd > limit {
			t.Errorf("wait %d exceeds backoff cap: %s > %s", i, wd, limit)
		}
	}

	// Каждая попытка получает свежее время
	if !d.nows[2].After(d.nows[0]) {
		t.Error("each attempt must use the current time")
	}
}

func TestProcessTask_ExhaustsAttempts(t *testing.T) {
	d := &fakeDeliverer{outcomes: []domain.DeliveryOutcome{domain.DeliveryOutcomeDeliveryFailed}}
	w, waits := newTestWorker(d, 3)

	stats, err := w.processTask(context.Background(), testTask())
	if !errors.Is(err, ErrRetryExhausted) {
		t.Fatalf("expected ErrRetryExhausted, got %v", err)
	}
	if stats.Errors != 1 {
		t.Errorf("terminal failure must be counted as an error, got %+v", stats)
	}
	if d.calls != 3 {
		t.Errorf("expected 3 attempts, got %d", d.calls)
	}
	if len(*waits) != 2 {
		t.Errorf("expected 2 waits, got %d", len(*waits))
	}
}

func TestProcessTask_NonRetryableOutcomes(t *testing.T) {
	outcomes := []domain.DeliveryOutcome{
		domain.DeliveryOutcomeNotFound,
		domain.DeliveryOutcomeUnlinked,
		domain.DeliveryOutcomeNotDue,
		domain.DeliveryOutcomeStaleSlot,
		domain.DeliveryOutcomeMissedSlot,
		domain.DeliveryOutcomeFormatFailed,
		domain.DeliveryOutcomePersistFailed,
	}

	for _, o := range outcomes {
		t.Run(string(o), func(t *testing.T) {
			d := &fakeDeliverer{outcomes: []domain.DeliveryOutcome{o}}
			w, waits := newTestWorker(d, 5)

			if _, err := w.processTask(context.Background(), testTask()); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.calls != 1 || len(*waits) != 0 {
				t.Errorf("%s must not be retried (calls=%d)", o, d.calls)
			}
		})
	}
}

func TestProcessTask_StopsOnCancel(t *testing.T) {
	d := &fakeDeliverer{outcomes: []domain.DeliveryOutcome{domain.DeliveryOutcomeDeliveryFailed}}
	w, _ := newTestWorker(d, 5)
	w.wait = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.processTask(ctx, testTask())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if d.calls != 1 {
		t.Errorf("expected a single attempt before cancel, got %d", d.calls)
	}
}

// --- Handler ---

func TestHandleReminder_BadPayloadIsPermanent(t *testing.T) {
	w, _ := newTestWorker(&fakeDeliverer{outcomes: []domain.DeliveryOutcome{domain.DeliveryOutcomeSent}}, 5)

	delivery := &mq.Delivery{Message: mq.Message{
		Type:    mq.MessageTypeReminderDeliver,
		Payload: map[string]any{"habit_id": "not-a-uuid"},
	}}

	err := w.handleReminder(context.Background(), delivery)
	if !errors.Is(err, mq.ErrPermanent) {
		t.Fatalf("expected ErrPermanent, got %v", err)
	}
}

func TestHandleReminder_PayloadWithoutHabitIDIsPermanent(t *testing.T) {
	w, _ := newTestWorker(&fakeDeliverer{outcomes: []domain.DeliveryOutcome{domain.DeliveryOutcomeSent}}, 5)

	delivery := &mq.Delivery{Message: mq.Message{
		Type:    mq.MessageTypeReminderDeliver,
		Payload: map[string]any{"dedup_key": "habit:x:1"},
	}}

	if err := w.handleReminder(context.Background(), delivery); !errors.Is(err, mq.ErrPermanent) {
		t.Fatalf("expected ErrPermanent, got %v", err)
	}
}

func TestHandleReminder_DeletedHabitIsAcked(t *testing.T) {
	d := &fakeDeliverer{outcomes: []domain.DeliveryOutcome{domain.DeliveryOutcomeNotFound}}
	w, waits := newTestWorker(d, 5)

	payload := mq.NewReminderPayload(domain.ReminderTask{
		Name:     domain.TaskNameDeliverOne,
		HabitID:  uuid.New(),
		DedupKey: "habit:x:202401011000",
	})
	delivery := &mq.Delivery{Message: mq.Message{Type: mq.MessageTypeReminderDeliver, Payload: payload}}

	if err := w.handleReminder(context.Background(), delivery); err != nil {
		t.Fatalf("not_found must be acked, got %v", err)
	}
	if d.calls != 1 || len(*waits) != 0 {
		t.Errorf("not_found must not be retried (calls=%d, waits=%d)", d.calls, len(*waits))
	}

	stats, err := w.processTask(context.Background(), testTask())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Errors != 1 || stats.Outcome != domain.DeliveryOutcomeNotFound {
		t.Errorf("expected errors=1 not_found, got %+v", stats)
	}
}

func TestHandleReminder_AcksAfterExhaustion(t *testing.T) {
	d := &fakeDeliverer{outcomes: []domain.DeliveryOutcome{domain.DeliveryOutcomeDeliveryFailed}}
	w, _ := newTestWorker(d, 2)

	slot := domain.TimeOfDay{Hour: 10}
	payload := mq.NewReminderPayload(domain.ReminderTask{
		Name:     domain.TaskNameDeliverOne,
		HabitID:  uuid.New(),
		DedupKey: "habit:x:202401011000",
		Slot:     &slot,
	})

	delivery := &mq.Delivery{Message: mq.Message{Type: mq.MessageTypeReminderDeliver, Payload: payload}}

	if err := w.handleReminder(context.Background(), delivery); err != nil {
		t.Fatalf("exhausted delivery must be acked, got %v", err)
	}
	if d.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", d.calls)
	}
}
