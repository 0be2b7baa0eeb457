package repo

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ViktorShadr/habit-reminder-api/internal/domain"
)

// pgUniqueViolation: SQLSTATE нарушения уникальности.
const pgUniqueViolation = "23505"

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}

// isUniqueViolation проверяет, что ошибка: конфликт уникального индекса.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// timeOfDayToPG конвертирует время дня в значение колонки TIME.
func timeOfDayToPG(t domain.TimeOfDay) pgtype.Time {
	return pgtype.Time{
		Microseconds: int64(t.MinuteOfDay()) * int64(time.Minute/time.Microsecond),
		Valid:        true,
	}
}

// timeOfDayFromPG конвертирует колонку TIME во время дня (секунды отбрасываются).
func timeOfDayFromPG(v pgtype.Time) domain.TimeOfDay {
	if !v.Valid {
		return domain.TimeOfDay{}
	}
	minutes := v.Microseconds / int64(time.Minute/time.Microsecond)
	return domain.TimeOfDay{Hour: int(minutes / 60), Minute: int(minutes % 60)}
}
