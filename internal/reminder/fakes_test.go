package reminder

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/repo"
)

var moscow = time.FixedZone("MSK", 3*60*60)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore: хранилище привычек в памяти. Возвращает копии, как настоящая БД.
type fakeStore struct {
	mu     sync.Mutex
	order  []uuid.UUID
	habits map[uuid.UUID]domain.Habit

	listErr error
	getErr  error
	setErr  error
	lists   [][2]int
}

func newFakeStore(habits ...domain.Habit) *fakeStore {
	s := &fakeStore{habits: make(map[uuid.UUID]domain.Habit)}
	for _, h := range habits {
		s.put(h)
	}
	return s
}

func (s *fakeStore) put(h domain.Habit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.habits[h.ID]; !ok {
		s.order = append(s.order, h.ID)
	}
	s.habits[h.ID] = h
}

func (s *fakeStore) get(id uuid.UUID) domain.Habit {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.habits[id]
}

func (s *fakeStore) ListByTimeOfDay(_ context.Context, hour, minute int) ([]domain.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists = append(s.lists, [2]int{hour, minute})
	if s.listErr != nil {
		return nil, s.listErr
	}

	var out []domain.Habit
	for _, id := range s.order {
		h, ok := s.habits[id]
		if ok && h.ScheduledTime.Hour == hour && h.ScheduledTime.Minute == minute {
			out = append(out, h)
		}
	}
	return out, nil
}

func (s *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Habit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}
	h, ok := s.habits[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &h, nil
}

func (s *fakeStore) SetLastReminder(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.setErr != nil {
		return s.setErr
	}
	h, ok := s.habits[id]
	if !ok {
		return repo.ErrNotFound
	}
	h.LastReminder = &at
	s.habits[id] = h
	return nil
}

// fakeQueue схлопывает задачи с одинаковым DedupKey.
type fakeQueue struct {
	mu       sync.Mutex
	seen     map[string]bool
	tasks    []domain.ReminderTask
	attempts int

	// failAt: номер попытки (с 1), на которой Submit вернёт ошибку.
	failAt int
	err    error
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{seen: make(map[string]bool)}
}

func (q *fakeQueue) Submit(_ context.Context, task domain.ReminderTask) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.attempts++
	if q.failAt > 0 && q.attempts == q.failAt {
		return false, q.err
	}
	if q.seen[task.DedupKey] {
		return false, nil
	}
	q.seen[task.DedupKey] = true
	q.tasks = append(q.tasks, task)
	return true, nil
}

type sentMessage struct {
	chatID string
	text   string
}

type fakeNotifier struct {
	mu    sync.Mutex
	ok    bool
	block bool
	sent  []sentMessage
}

func (n *fakeNotifier) Send(ctx context.Context, chatID, text string) bool {
	if n.block {
		<-ctx.Done()
		return true
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{chatID: chatID, text: text})
	return n.ok
}

func linkedOwner() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "user@example.com", TelegramID: domain.StringPtr("123456789")}
}

func habitAt(hour, minute, freq int, owner *domain.User) domain.Habit {
	h := domain.Habit{
		ID:            uuid.New(),
		Place:         "Дом",
		Action:        "Зарядка",
		ScheduledTime: domain.TimeOfDay{Hour: hour, Minute: minute},
		FrequencyDays: domain.IntPtr(freq),
		DurationSec:   90,
		Owner:         owner,
	}
	if owner != nil {
		h.OwnerID = owner.ID
	}
	return h
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, moscow)
}

func newCoordinator(store *fakeStore, queue *fakeQueue, notifier *fakeNotifier) *Coordinator {
	return New(Config{
		Habits:   store,
		Queue:    queue,
		Notifier: notifier,
		Location: moscow,
		Logger:   testLogger(),
	})
}
