// Package habits: CRUD привычек пользователя.
//
// После создания и изменения привычки Service ставит отложенное
// напоминание на ближайшее наступление её времени (ScheduleNext).
// Сбой постановки не отменяет запись: минутный тик всё равно
// найдёт привычку.
package habits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/repo"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
)

const (
	// DefaultPageSize: размер страницы по умолчанию.
	DefaultPageSize = 20

	// MaxPageSize: максимальный размер страницы.
	MaxPageSize = 100
)

// HabitStore: хранилище привычек.
type HabitStore interface {
	Create(ctx context.Context, h *domain.Habit) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Habit, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, filter repo.HabitFilter) ([]domain.Habit, error)
	ListPublic(ctx context.Context, filter repo.HabitFilter) ([]domain.Habit, error)
	Update(ctx context.Context, h *domain.Habit) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Scheduler ставит напоминание на ближайшее наступление времени привычки.
// Реализуется reminder.Coordinator.
type Scheduler interface {
	ScheduleNext(ctx context.Context, h *domain.Habit, now time.Time) (bool, error)
}

// Input: поля привычки при создании.
type Input struct {
	Place          string
	Action         string
	ScheduledTime  domain.TimeOfDay
	FrequencyDays  *int
	DurationSec    *int
	IsPleasant     bool
	IsPublic       bool
	RelatedHabitID *uuid.UUID
	Reward         *string
}

// Patch: частичное изменение привычки. nil: не менять.
type Patch struct {
	Place         *string
	Action        *string
	ScheduledTime *domain.TimeOfDay
	FrequencyDays *int
	DurationSec   *int
	IsPleasant    *bool
	IsPublic      *bool

	// RelatedHabitID и Reward: ClearX = true сбрасывает значение.
	RelatedHabitID *uuid.UUID
	ClearRelated   bool
	Reward         *string
	ClearReward    bool
}

// Page: параметры пагинации.
type Page struct {
	Limit  int
	Offset int
}

func (p Page) filter() repo.HabitFilter {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := p.Offset
	if offset < 0 {
		offset = 0
	}
	return repo.HabitFilter{Limit: limit, Offset: offset}
}

// Service: операции над привычками.
type Service struct {
	habits    HabitStore
	scheduler Scheduler
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// Config: конфигурация Service.
type Config struct {
	Habits HabitStore

	// Scheduler: постановка ближайшего напоминания (nil: не ставить).
	Scheduler Scheduler

	// Location - пояс времени привычек (default: time.Local).
	Location *time.Location

	Logger *slog.Logger
}

// NewService создаёт Service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		habits:    cfg.Habits,
		scheduler: cfg.Scheduler,
		loc:       loc,
		now:       time.Now,
		logger:    logger.With("component", "habits"),
	}
}

// Create создаёт привычку пользователя ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in Input) (*domain.Habit, error) {
	now := s.now()

	h := &domain.Habit{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Place:          strings.TrimSpace(in.Place),
		Action:         strings.TrimSpace(in.Action),
		ScheduledTime:  in.ScheduledTime,
		FrequencyDays:  in.FrequencyDays,
		DurationSec:    domain.DefaultDurationSec,
		IsPleasant:     in.IsPleasant,
		IsPublic:       in.IsPublic,
		RelatedHabitID: in.RelatedHabitID,
		Reward:         normalizeReward(in.Reward),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if in.DurationSec != nil {
		h.DurationSec = *in.DurationSec
	}
	if h.FrequencyDays == nil {
		h.FrequencyDays = domain.IntPtr(domain.MinFrequencyDays)
	}

	if err := s.validate(ctx, h); err != nil {
		return nil, err
	}

	if err := s.habits.Create(ctx, h); err != nil {
		return nil, fmt.Errorf("create habit: %w", err)
	}

	telemetry.WithHabitID(s.logger, h.ID.String()).Info("habit created", "owner_id", ownerID)
	return s.afterWrite(ctx, h), nil
}

// Get возвращает привычку владельца.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Habit, error) {
	h, err := s.habits.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("get habit: %w", err)
	}
	if h.OwnerID != ownerID {
		return nil, ErrHabitNotFound
	}
	return h, nil
}

// List возвращает привычки владельца.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, page Page) ([]domain.Habit, error) {
	habits, err := s.habits.ListByOwner(ctx, ownerID, page.filter())
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	return habits, nil
}

// ListPublic возвращает публичные привычки всех пользователей.
func (s *Service) ListPublic(ctx context.Context, page Page) ([]domain.Habit, error) {
	habits, err := s.habits.ListPublic(ctx, page.filter())
	if err != nil {
		return nil, fmt.Errorf("list public habits: %w", err)
	}
	return habits, nil
}

// Update применяет patch к привычке владельца.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, p Patch) (*domain.Habit, error) {
	h, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if p.Place != nil {
		h.Place = strings.TrimSpace(*p.Place)
	}
	if p.Action != nil {
		h.Action = strings.TrimSpace(*p.Action)
	}
	if p.ScheduledTime != nil {
		h.ScheduledTime = *p.ScheduledTime
	}
	if p.FrequencyDays != nil {
		h.FrequencyDays = p.FrequencyDays
	}
	if p.DurationSec != nil {
		h.DurationSec = *p.DurationSec
	}
	if p.IsPleasant != nil {
		h.IsPleasant = *p.IsPleasant
	}
	if p.IsPublic != nil {
		h.IsPublic = *p.IsPublic
	}
	switch {
	case p.ClearRelated:
		h.RelatedHabitID = nil
	case p.RelatedHabitID != nil:
		h.RelatedHabitID = p.RelatedHabitID
	}
	switch {
	case p.ClearReward:
		h.Reward = nil
	case p.Reward != nil:
		h.Reward = normalizeReward(p.Reward)
	}
	h.RelatedHabit = nil
	h.UpdatedAt = s.now()

	if err := s.validate(ctx, h); err != nil {
		return nil, err
	}

	if err := s.habits.Update(ctx, h); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrHabitNotFound
		}
		return nil, fmt.Errorf("update habit: %w", err)
	}

	telemetry.WithHabitID(s.logger, h.ID.String()).Info("habit updated")
	return s.afterWrite(ctx, h), nil
}

// Delete удаляет привычку владельца.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.habits.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrHabitNotFound
		}
		return fmt.Errorf("delete habit: %w", err)
	}
	telemetry.WithHabitID(s.logger, id.String()).Info("habit deleted")
	return nil
}

// State возвращает состояние напоминаний привычки на текущий момент.
func (s *Service) State(h *domain.Habit) domain.ReminderState {
	now := domain.NormalizeLocal(s.now(), s.loc)
	due := h.ScheduledTime.Matches(now) && domain.CheckDue(h, now, s.loc).Due
	return domain.StateOf(h, due)
}

// validate загружает связанную привычку и проверяет правила.
func (s *Service) validate(ctx context.Context, h *domain.Habit) error {
	var related *domain.Habit
	if h.RelatedHabitID != nil {
		r, err := s.habits.GetByID(ctx, *h.RelatedHabitID)
		switch {
		case err == nil:
			related = r
		case errors.Is(err, repo.ErrNotFound):
		default:
			return fmt.Errorf("get related habit: %w", err)
		}
	}
	if err := domain.ValidateHabit(h, related); err != nil {
		return err
	}
	h.RelatedHabit = related
	return nil
}

// afterWrite перечитывает привычку с владельцем и ставит ближайшее напоминание.
// Ошибки только логируются: запись уже выполнена.
func (s *Service) afterWrite(ctx context.Context, h *domain.Habit) *domain.Habit {
	logger := telemetry.WithHabitID(s.logger, h.ID.String())

	fresh, err := s.habits.GetByID(ctx, h.ID)
	if err != nil {
		logger.Warn("failed to reload habit after write", "error", err)
		return h
	}

	if s.scheduler == nil {
		return fresh
	}

	scheduled, err := s.scheduler.ScheduleNext(ctx, fresh, s.now())
	if err != nil {
		logger.Warn("failed to schedule next reminder", "error", err)
		return fresh
	}
	logger.Debug("next reminder offered", "scheduled", scheduled)
	return fresh
}

func normalizeReward(r *string) *string {
	if r == nil {
		return nil
	}
	v := strings.TrimSpace(*r)
	if v == "" {
		return nil
	}
	return &v
}
