package telegram

import "errors"

var (
	// ErrInvalidChatID: chat id не является числом.
	ErrInvalidChatID = errors.New("invalid chat id")

	// ErrInvalidCode: код привязки не прошёл проверку формата.
	ErrInvalidCode = errors.New("invalid link code")

	// ErrLinkRejected: API отклонило код привязки.
	ErrLinkRejected = errors.New("link code rejected")
)
