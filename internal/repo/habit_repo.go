package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
)

// HabitRepo: репозиторий для работы с привычками.
type HabitRepo struct {
	pool *pgxpool.Pool
}

// NewHabitRepo создаёт новый HabitRepo.
func NewHabitRepo(pool *pgxpool.Pool) *HabitRepo {
	return &HabitRepo{pool: pool}
}

// habitColumns: колонки привычки с владельцем (LEFT JOIN users u).
const habitColumns = `
	h.id, h.owner_id, h.place, h.action, h.scheduled_time, h.frequency_days,
	h.duration_sec, h.is_pleasant, h.is_public, h.related_habit_id, h.reward,
	h.last_reminder, h.created_at, h.updated_at,
	u.id, u.email, u.phone, u.city, u.telegram_id, u.is_active, u.created_at
`

// Create создаёт привычку.
func (r *HabitRepo) Create(ctx context.Context, h *domain.Habit) error {
	query := `
		INSERT INTO habits (id, owner_id, place, action, scheduled_time, frequency_days,
		                    duration_sec, is_pleasant, is_public, related_habit_id, reward,
		                    last_reminder, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.pool.Exec(ctx, query,
		h.ID,
		h.OwnerID,
		h.Place,
		h.Action,
		timeOfDayToPG(h.ScheduledTime),
		h.FrequencyDays,
		h.DurationSec,
		h.IsPleasant,
		h.IsPublic,
		nullUUID(h.RelatedHabitID),
		h.Reward,
		h.LastReminder,
		h.CreatedAt,
		h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert habit: %w", err)
	}
	return nil
}

// GetByID возвращает привычку с владельцем и связанной привычкой.
func (r *HabitRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits h
		LEFT JOIN users u ON u.id = h.owner_id
		WHERE h.id = $1
	`
	h, err := scanHabit(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}

	if h.RelatedHabitID != nil {
		related, err := r.getPlain(ctx, *h.RelatedHabitID)
		switch {
		case errors.Is(err, ErrNotFound):
			// Связанная привычка удалена между запросами
		case err != nil:
			return nil, fmt.Errorf("get related habit: %w", err)
		default:
			h.RelatedHabit = related
		}
	}

	return h, nil
}

// getPlain загружает привычку без связей.
func (r *HabitRepo) getPlain(ctx context.Context, id uuid.UUID) (*domain.Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits h
		LEFT JOIN users u ON u.id = h.owner_id
		WHERE h.id = $1
	`
	h, err := scanHabit(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	h.Owner = nil
	return h, nil
}

// ListByTimeOfDay возвращает привычки с заданными часом и минутой (секунды не учитываются).
// Владелец загружается вместе с привычкой.
func (r *HabitRepo) ListByTimeOfDay(ctx context.Context, hour, minute int) ([]domain.Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits h
		LEFT JOIN users u ON u.id = h.owner_id
		WHERE EXTRACT(HOUR FROM h.scheduled_time) = $1
		  AND EXTRACT(MINUTE FROM h.scheduled_time) = $2
		ORDER BY h.created_at ASC, h.id ASC
	`
	rows, err := r.pool.Query(ctx, query, hour, minute)
	if err != nil {
		return nil, fmt.Errorf("list habits by time: %w", err)
	}
	return collectHabits(rows)
}

// HabitFilter: параметры постраничной выборки.
type HabitFilter struct {
	Limit  int
	Offset int
}

// ListByOwner возвращает привычки пользователя.
func (r *HabitRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID, filter HabitFilter) ([]domain.Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits h
		LEFT JOIN users u ON u.id = h.owner_id
		WHERE h.owner_id = $1
		ORDER BY h.created_at DESC, h.id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, ownerID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list habits by owner: %w", err)
	}
	return collectHabits(rows)
}

// ListPublic возвращает публичные привычки всех пользователей.
func (r *HabitRepo) ListPublic(ctx context.Context, filter HabitFilter) ([]domain.Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits h
		LEFT JOIN users u ON u.id = h.owner_id
		WHERE h.is_public = true
		ORDER BY h.created_at DESC, h.id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.pool.Query(ctx, query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list public habits: %w", err)
	}
	return collectHabits(rows)
}

// Update обновляет редактируемые поля привычки. last_reminder не трогается.
func (r *HabitRepo) Update(ctx context.Context, h *domain.Habit) error {
	query := `
		UPDATE habits
		SET place = $2, action = $3, scheduled_time = $4, frequency_days = $5,
		    duration_sec = $6, is_pleasant = $7, is_public = $8, related_habit_id = $9,
		    reward = $10, updated_at = $11
		WHERE id = $1
	`
	result, err := r.pool.Exec(ctx, query,
		h.ID,
		h.Place,
		h.Action,
		timeOfDayToPG(h.ScheduledTime),
		h.FrequencyDays,
		h.DurationSec,
		h.IsPleasant,
		h.IsPublic,
		nullUUID(h.RelatedHabitID),
		h.Reward,
		h.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete удаляет привычку.
func (r *HabitRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM habits WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLastReminder обновляет только last_reminder.
func (r *HabitRepo) SetLastReminder(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE habits SET last_reminder = $2 WHERE id = $1
	`, id, at)
	if err != nil {
		return fmt.Errorf("set last reminder: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func collectHabits(rows pgx.Rows) ([]domain.Habit, error) {
	defer rows.Close()

	var habits []domain.Habit
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}
	return habits, rows.Err()
}

// scanHabit сканирует строку habitColumns. pgx.Rows тоже реализует pgx.Row.
func scanHabit(row pgx.Row) (*domain.Habit, error) {
	var h domain.Habit
	var scheduled pgtype.Time

	var (
		ownerID               *uuid.UUID
		email                 *string
		phone, city, telegram *string
		ownerActive           *bool
		ownerCreatedAt        *time.Time
	)

	err := row.Scan(
		&h.ID,
		&h.OwnerID,
		&h.Place,
		&h.Action,
		&scheduled,
		&h.FrequencyDays,
		&h.DurationSec,
		&h.IsPleasant,
		&h.IsPublic,
		&h.RelatedHabitID,
		&h.Reward,
		&h.LastReminder,
		&h.CreatedAt,
		&h.UpdatedAt,
		&ownerID,
		&email,
		&phone,
		&city,
		&telegram,
		&ownerActive,
		&ownerCreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan habit: %w", err)
	}

	h.ScheduledTime = timeOfDayFromPG(scheduled)

	if ownerID != nil {
		owner := &domain.User{ID: *ownerID, TelegramID: telegram}
		if email != nil {
			owner.Email = *email
		}
		if phone != nil {
			owner.Phone = *phone
		}
		if city != nil {
			owner.City = *city
		}
		if ownerActive != nil {
			owner.IsActive = *ownerActive
		}
		if ownerCreatedAt != nil {
			owner.CreatedAt = *ownerCreatedAt
		}
		h.Owner = owner
	}

	return &h, nil
}
