package repo

import "errors"

// Ошибки репозиториев. Сервисы переводят их в свои доменные ошибки.
var (
	// ErrNotFound: нет привычки, пользователя или кода привязки.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists: нарушение уникальности (email, код привязки, telegram chat id).
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidState: код привязки уже использован.
	ErrInvalidState = errors.New("invalid state")
)
