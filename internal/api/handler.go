package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/habits"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
	"github.com/ViktorShadr/habit-reminder-api/internal/users"
)

// UserService: операции над пользователями (users.Service).
type UserService interface {
	Register(ctx context.Context, in users.RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, id uuid.UUID, in users.UpdateInput) (*domain.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	CreateTelegramLink(ctx context.Context, userID uuid.UUID) (*domain.TelegramLink, error)
	ConfirmTelegramLink(ctx context.Context, code, chatID string) error
}

// HabitService: операции над привычками (habits.Service).
type HabitService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in habits.Input) (*domain.Habit, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Habit, error)
	List(ctx context.Context, ownerID uuid.UUID, page habits.Page) ([]domain.Habit, error)
	ListPublic(ctx context.Context, page habits.Page) ([]domain.Habit, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, p habits.Patch) (*domain.Habit, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	State(h *domain.Habit) domain.ReminderState
}

// Sessions: bearer-токены (users.SessionStore).
type Sessions interface {
	Create(ctx context.Context, userID uuid.UUID) (string, error)
	Lookup(ctx context.Context, token string) (uuid.UUID, error)
	Delete(ctx context.Context, token string) error
	TTL() time.Duration
}

// Handler: главный обработчик API с зависимостями.
type Handler struct {
	users     UserService
	habits    HabitService
	sessions  Sessions
	botSecret string
	botName   string
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

// Config: конфигурация для создания Handler.
type Config struct {
	Users    UserService
	Habits   HabitService
	Sessions Sessions

	// BotSecret: общий секрет для POST /telegram/confirm. Пустой: подтверждение отключено.
	BotSecret string

	// BotName: username бота для подсказки в ответе /telegram/link.
	BotName string

	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		users:     cfg.Users,
		habits:    cfg.Habits,
		sessions:  cfg.Sessions,
		botSecret: cfg.BotSecret,
		botName:   cfg.BotName,
		metrics:   cfg.Metrics,
		logger:    logger,
	}
}
