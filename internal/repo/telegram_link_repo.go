package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
)

// TelegramLinkRepo: коды привязки Telegram.
type TelegramLinkRepo struct {
	pool *pgxpool.Pool
}

// NewTelegramLinkRepo создаёт новый TelegramLinkRepo.
func NewTelegramLinkRepo(pool *pgxpool.Pool) *TelegramLinkRepo {
	return &TelegramLinkRepo{pool: pool}
}

// Create сохраняет код. Повтор кода: ErrAlreadyExists.
func (r *TelegramLinkRepo) Create(ctx context.Context, l *domain.TelegramLink) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO telegram_links (id, user_id, code, created_at, expires_at, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, l.ID, l.UserID, l.Code, l.CreatedAt, l.ExpiresAt, l.UsedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("insert telegram link: %w", err)
	}
	return nil
}

// GetByCode возвращает код привязки.
func (r *TelegramLinkRepo) GetByCode(ctx context.Context, code string) (*domain.TelegramLink, error) {
	var l domain.TelegramLink
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, code, created_at, expires_at, used_at
		FROM telegram_links
		WHERE code = $1
	`, code).Scan(&l.ID, &l.UserID, &l.Code, &l.CreatedAt, &l.ExpiresAt, &l.UsedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan telegram link: %w", err)
	}
	return &l, nil
}

// Confirm в одной транзакции помечает код использованным и записывает
// chat id владельцу кода.
//
// Код уже использован: ErrInvalidState, chat id занят другим
// пользователем: ErrAlreadyExists.
func (r *TelegramLinkRepo) Confirm(ctx context.Context, l *domain.TelegramLink, chatID string, at time.Time) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE telegram_links SET used_at = $2 WHERE id = $1 AND used_at IS NULL
		`, l.ID, at)
		if err != nil {
			return fmt.Errorf("mark telegram link used: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrInvalidState
		}

		result, err = tx.Exec(ctx, `
			UPDATE users SET telegram_id = $2 WHERE id = $1
		`, l.UserID, chatID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("set telegram id: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrNotFound
		}

		l.UsedAt = &at
		return nil
	})
}
