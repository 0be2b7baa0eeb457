package users

import "errors"

var (
	// ErrInvalidCredentials: неверный email или пароль (или пользователь деактивирован).
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrEmailTaken: email уже зарегистрирован.
	ErrEmailTaken = errors.New("email already registered")

	// ErrUserNotFound: пользователь не найден или деактивирован.
	ErrUserNotFound = errors.New("user not found")

	// ErrLinkNotFound: код привязки не найден.
	ErrLinkNotFound = errors.New("telegram link code not found")

	// ErrLinkExpired: срок действия кода истёк.
	ErrLinkExpired = errors.New("telegram link code expired")

	// ErrLinkUsed: код уже использован.
	ErrLinkUsed = errors.New("telegram link code already used")

	// ErrTelegramTaken: этот Telegram уже привязан к другому пользователю.
	ErrTelegramTaken = errors.New("telegram account already linked to another user")

	// ErrSessionNotFound: токен не найден или истёк.
	ErrSessionNotFound = errors.New("session not found")
)
