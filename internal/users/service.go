package users

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
	"github.com/ViktorShadr/habit-reminder-api/internal/repo"
	"github.com/ViktorShadr/habit-reminder-api/internal/telemetry"
)

const (
	// LinkCodeLength: длина кода привязки.
	LinkCodeLength = 10

	// LinkCodeTTL: время жизни кода привязки.
	LinkCodeTTL = 15 * time.Minute

	// MinPasswordLength: минимальная длина пароля.
	MinPasswordLength = 8

	linkCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	linkCodeAttempts = 3
)

// UserStore: хранилище пользователей.
type UserStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// LinkStore: хранилище кодов привязки Telegram.
type LinkStore interface {
	Create(ctx context.Context, l *domain.TelegramLink) error
	GetByCode(ctx context.Context, code string) (*domain.TelegramLink, error)
	Confirm(ctx context.Context, l *domain.TelegramLink, chatID string, at time.Time) error
}

// RegisterInput: данные регистрации.
type RegisterInput struct {
	Email    string
	Password string
	Phone    string
	City     string
}

// UpdateInput: изменяемые поля профиля. nil: не менять.
type UpdateInput struct {
	Phone *string
	City  *string
}

// Service: операции над пользователями.
type Service struct {
	users      UserStore
	links      LinkStore
	bcryptCost int
	now        func() time.Time
	logger     *slog.Logger
}

// Config: конфигурация Service.
type Config struct {
	Users UserStore
	Links LinkStore

	// BcryptCost - стоимость хеширования (default: bcrypt.DefaultCost).
	BcryptCost int

	Logger *slog.Logger
}

// NewService создаёт Service.
func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Service{
		users:      cfg.Users,
		links:      cfg.Links,
		bcryptCost: cost,
		now:        time.Now,
		logger:     logger.With("component", "users"),
	}
}

// Register создаёт пользователя.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	email := strings.TrimSpace(in.Email)
	if err := validateRegistration(email, in.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(in.Phone),
		City:         strings.TrimSpace(in.City),
		IsActive:     true,
		CreatedAt:    s.now(),
	}

	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrAlreadyExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	telemetry.WithUserID(s.logger, u.ID.String()).Info("user registered")
	return u, nil
}

// Authenticate проверяет email и пароль.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// Get возвращает активного пользователя.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !u.IsActive {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// Update изменяет профиль.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput) (*domain.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Phone != nil {
		u.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.City != nil {
		u.City = strings.TrimSpace(*in.City)
	}

	if err := s.users.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return u, nil
}

// Deactivate отключает пользователя. Данные не удаляются.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Deactivate(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("deactivate user: %w", err)
	}
	telemetry.WithUserID(s.logger, id.String()).Info("user deactivated")
	return nil
}

// CreateTelegramLink выдаёт одноразовый код привязки.
func (s *Service) CreateTelegramLink(ctx context.Context, userID uuid.UUID) (*domain.TelegramLink, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}

	now := s.now()
	for attempt := 1; ; attempt++ {
		code, err := newLinkCode()
		if err != nil {
			return nil, err
		}

		link := &domain.TelegramLink{
			ID:        uuid.New(),
			UserID:    userID,
			Code:      code,
			CreatedAt: now,
			ExpiresAt: now.Add(LinkCodeTTL),
		}

		err = s.links.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repo.ErrAlreadyExists) || attempt >= linkCodeAttempts {
			return nil, fmt.Errorf("create telegram link: %w", err)
		}
	}
}

// ConfirmTelegramLink привязывает chatID к владельцу кода и гасит код.
func (s *Service) ConfirmTelegramLink(ctx context.Context, code, chatID string) error {
	code = strings.TrimSpace(code)
	chatID = strings.TrimSpace(chatID)
	if chatID == "" || chatID == "0" {
		return &domain.ValidationError{Fields: map[string]string{"chat_id": "Обязательное поле."}}
	}

	link, err := s.links.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrLinkNotFound
		}
		return fmt.Errorf("get telegram link: %w", err)
	}

	now := s.now()
	if link.IsUsed() {
		return ErrLinkUsed
	}
	if link.IsExpired(now) {
		return ErrLinkExpired
	}

	if err := s.links.Confirm(ctx, link, chatID, now); err != nil {
		switch {
		case errors.Is(err, repo.ErrInvalidState):
			return ErrLinkUsed
		case errors.Is(err, repo.ErrAlreadyExists):
			return ErrTelegramTaken
		case errors.Is(err, repo.ErrNotFound):
			return ErrUserNotFound
		}
		return fmt.Errorf("confirm telegram link: %w", err)
	}

	telemetry.WithUserID(s.logger, link.UserID.String()).Info("telegram linked")
	return nil
}

func validateRegistration(email, password string) error {
	verr := &domain.ValidationError{Fields: make(map[string]string)}

	if email == "" {
		verr.Fields["email"] = "Обязательное поле."
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		verr.Fields["email"] = "Введите правильный адрес электронной почты."
	}

	switch {
	case utf8.RuneCountInString(password) < MinPasswordLength:
		verr.Fields["password"] = fmt.Sprintf("Пароль должен содержать не менее %d символов.", MinPasswordLength)
	case strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0:
		verr.Fields["password"] = "Пароль не может состоять только из цифр."
	}

	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

func newLinkCode() (string, error) {
	b := make([]byte, LinkCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	for i := range b {
		b[i] = linkCodeAlphabet[int(b[i])%len(linkCodeAlphabet)]
	}
	return string(b), nil
}
