package habits

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/repo"
)

type fakeStore struct {
	mu     sync.Mutex
	habits map[uuid.UUID]domain.Habit
	owners map[uuid.UUID]*domain.User
	filter repo.HabitFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		habits: make(map[uuid.UUID]domain.Habit),
		owners: make(map[uuid.UUID]*domain.User),
	}
}

func (f *fakeStore) Create(_ context.Context, h *domain.Habit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.habits[h.ID] = *h
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Habit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.habits[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	h.Owner = f.owners[h.OwnerID]
	return &h, nil
}

func (f *fakeStore) list(match func(domain.Habit) bool, filter repo.HabitFilter) []domain.Habit {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = filter

	var out []domain.Habit
	for _, h := range f.habits {
		if match(h) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Action < out[j].Action })
	return out
}

func (f *fakeStore) ListByOwner(_ context.Context, ownerID uuid.UUID, filter repo.HabitFilter) ([]domain.Habit, error) {
	return f.list(func(h domain.Habit) bool { return h.OwnerID == ownerID }, filter), nil
}

func (f *fakeStore) ListPublic(_ context.Context, filter repo.HabitFilter) ([]domain.Habit, error) {
	return f.list(func(h domain.Habit) bool { return h.IsPublic }, filter), nil
}

func (f *fakeStore) Update(_ context.Context, h *domain.Habit) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.habits[h.ID]; !ok {
		return repo.ErrNotFound
	}
	stored := *h
	stored.Owner = nil
	stored.RelatedHabit = nil
	f.habits[h.ID] = stored
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.habits[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.habits, id)
	return nil
}

type fakeScheduler struct {
	calls []*domain.Habit
	err   error
}

func (f *fakeScheduler) ScheduleNext(_ context.Context, h *domain.Habit, _ time.Time) (bool, error) {
	f.calls = append(f.calls, h)
	if f.err != nil {
		return false, f.err
	}
	return true, nil
}

func tod(t *testing.T, s string) domain.TimeOfDay {
	t.Helper()
	v, err := domain.ParseTimeOfDay(s)
	if err != nil {
		t.Fatalf("ParseTimeOfDay(%q) error = %v", s, err)
	}
	return v
}

func newTestService() (*Service, *fakeStore, *fakeScheduler) {
	store := newFakeStore()
	sched := &fakeScheduler{}
	svc := NewService(Config{Habits: store, Scheduler: sched, Location: time.UTC})
	return svc, store, sched
}

func TestService_CreateSchedulesNext(t *testing.T) {
	svc, store, sched := newTestService()
	owner := uuid.New()
	chat := "100"
	store.owners[owner] = &domain.User{ID: owner, TelegramID: &chat}

	h, err := svc.Create(context.Background(), owner, Input{
		Place:         " дома ",
		Action:        "зарядка",
		ScheduledTime: tod(t, "07:30"),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if h.Place != "дома" {
		t.Errorf("Place = %q, want trimmed", h.Place)
	}
	if h.DurationSec != domain.DefaultDurationSec {
		t.Errorf("DurationSec = %d, want default %d", h.DurationSec, domain.DefaultDurationSec)
	}
	if freq, _ := h.Frequency(); freq != 1 {
		t.Errorf("Frequency = %d, want 1", freq)
	}

	if len(sched.calls) != 1 {
		t.Fatalf("ScheduleNext calls = %d, want 1", len(sched.calls))
	}
	if _, ok := sched.calls[0].ChannelID(); !ok {
		t.Error("ScheduleNext got habit without loaded owner")
	}
}

func TestService_CreateScheduleFailureIsNotFatal(t *testing.T) {
	svc, _, sched := newTestService()
	sched.err = errors.New("queue down")

	if _, err := svc.Create(context.Background(), uuid.New(), Input{
		Place: "дома", Action: "зарядка", ScheduledTime: tod(t, "07:30"),
	}); err != nil {
		t.Fatalf("Create() error = %v, want nil when scheduling fails", err)
	}
}

func TestService_CreateValidation(t *testing.T) {
	svc, store, sched := newTestService()
	owner := uuid.New()
	ctx := context.Background()

	pleasant, err := svc.Create(ctx, owner, Input{Place: "парк", Action: "прогулка", ScheduledTime: tod(t, "18:00"), IsPleasant: true})
	if err != nil {
		t.Fatalf("Create(pleasant) error = %v", err)
	}
	useful, err := svc.Create(ctx, owner, Input{Place: "дома", Action: "уборка", ScheduledTime: tod(t, "19:00")})
	if err != nil {
		t.Fatalf("Create(useful) error = %v", err)
	}
	sched.calls = nil

	missing := uuid.New()
	tests := []struct {
		name  string
		in    Input
		field string
	}{
		{"empty action", Input{Place: "дома", ScheduledTime: tod(t, "07:00")}, "action"},
		{"duration too long", Input{Place: "дома", Action: "бег", DurationSec: domain.IntPtr(121)}, "duration"},
		{"frequency too rare", Input{Place: "дома", Action: "бег", FrequencyDays: domain.IntPtr(8)}, "frequency"},
		{"reward and related", Input{Place: "дома", Action: "бег", Reward: domain.StringPtr("торт"), RelatedHabitID: &pleasant.ID}, "reward"},
		{"related not pleasant", Input{Place: "дома", Action: "бег", RelatedHabitID: &useful.ID}, "related_habit"},
		{"related missing", Input{Place: "дома", Action: "бег", RelatedHabitID: &missing}, "related_habit"},
		{"pleasant with reward", Input{Place: "дома", Action: "бег", IsPleasant: true, Reward: domain.StringPtr("торт")}, "is_pleasant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner, tt.in)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Create() error = %v, want ValidationError", err)
			}
			if _, ok := verr.Fields[tt.field]; !ok {
				t.Errorf("fields = %v, want %q", verr.Fields, tt.field)
			}
		})
	}

	if len(sched.calls) != 0 {
		t.Errorf("ScheduleNext called %d times for invalid habits", len(sched.calls))
	}
	if len(store.habits) != 2 {
		t.Errorf("stored habits = %d, want 2", len(store.habits))
	}

	linked, err := svc.Create(ctx, owner, Input{Place: "дома", Action: "бег", ScheduledTime: tod(t, "07:00"), RelatedHabitID: &pleasant.ID})
	if err != nil {
		t.Fatalf("Create(linked) error = %v", err)
	}
	if linked.RelatedHabitID == nil || *linked.RelatedHabitID != pleasant.ID {
		t.Errorf("RelatedHabitID = %v, want %v", linked.RelatedHabitID, pleasant.ID)
	}
}

func TestService_OwnerIsolation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	h, err := svc.Create(ctx, alice, Input{Place: "дома", Action: "чтение", ScheduledTime: tod(t, "21:00")})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Get(ctx, bob, h.ID); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("Get(other owner) error = %v, want ErrHabitNotFound", err)
	}
	if _, err := svc.Update(ctx, bob, h.ID, Patch{Action: domain.StringPtr("x")}); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("Update(other owner) error = %v, want ErrHabitNotFound", err)
	}
	if err := svc.Delete(ctx, bob, h.ID); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("Delete(other owner) error = %v, want ErrHabitNotFound", err)
	}

	list, err := svc.List(ctx, bob, Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("List(bob) = %d habits, want 0", len(list))
	}

	if err := svc.Delete(ctx, alice, h.ID); err != nil {
		t.Fatalf("Delete(owner) error = %v", err)
	}
	if _, err := svc.Get(ctx, alice, h.ID); !errors.Is(err, ErrHabitNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrHabitNotFound", err)
	}
}

func TestService_Update(t *testing.T) {
	svc, _, sched := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	h, err := svc.Create(ctx, owner, Input{Place: "дома", Action: "зарядка", ScheduledTime: tod(t, "07:30"), Reward: domain.StringPtr("кофе")})
	if err != nil {
		t.Fatal(err)
	}
	sched.calls = nil

	newTime := tod(t, "08:15")
	got, err := svc.Update(ctx, owner, h.ID, Patch{ScheduledTime: &newTime, ClearReward: true, IsPublic: domain.BoolPtr(true)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.ScheduledTime != newTime {
		t.Errorf("ScheduledTime = %s, want %s", got.ScheduledTime, newTime)
	}
	if got.Reward != nil {
		t.Errorf("Reward = %v, want nil", *got.Reward)
	}
	if !got.IsPublic {
		t.Error("IsPublic = false, want true")
	}
	if len(sched.calls) != 1 {
		t.Errorf("ScheduleNext calls = %d, want 1", len(sched.calls))
	}

	if _, err := svc.Update(ctx, owner, h.ID, Patch{DurationSec: domain.IntPtr(500)}); err == nil {
		t.Error("Update(duration=500) error = nil, want ValidationError")
	}

	public, err := svc.ListPublic(ctx, Page{})
	if err != nil {
		t.Fatal(err)
	}
	if len(public) != 1 || public[0].ID != h.ID {
		t.Errorf("ListPublic() = %v, want [%v]", public, h.ID)
	}
}

func TestPage_Filter(t *testing.T) {
	tests := []struct {
		page Page
		want repo.HabitFilter
	}{
		{Page{}, repo.HabitFilter{Limit: DefaultPageSize}},
		{Page{Limit: 5, Offset: 10}, repo.HabitFilter{Limit: 5, Offset: 10}},
		{Page{Limit: 1000, Offset: -3}, repo.HabitFilter{Limit: MaxPageSize}},
	}
	for _, tt := range tests {
		if got := tt.page.filter(); got != tt.want {
			t.Errorf("%+v.filter() = %+v, want %+v", tt.page, got, tt.want)
		}
	}
}

func TestService_State(t *testing.T) {
	svc, _, _ := newTestService()
	now := time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	created := now.AddDate(0, 0, -3)
	h := &domain.Habit{ScheduledTime: tod(t, "07:30"), FrequencyDays: domain.IntPtr(1), CreatedAt: created}
	if got := svc.State(h); got != domain.ReminderStateDue {
		t.Errorf("State() = %s, want DUE", got)
	}

	h.ScheduledTime = tod(t, "09:00")
	if got := svc.State(h); got != domain.ReminderStateNeverReminded {
		t.Errorf("State() = %s, want NEVER_REMINDED", got)
	}

	h.MarkReminded(now.Add(-time.Hour))
	if got := svc.State(h); got != domain.ReminderStateReminded {
		t.Errorf("State() = %s, want REMINDED", got)
	}
}
