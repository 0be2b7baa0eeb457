// Package users: пользователи, сессии и привязка Telegram.
//
// Service хранит пароли в bcrypt, SessionStore выдаёт bearer-токены
// (Redis, TTL 24 часа). Привязка Telegram: пользователь получает
// одноразовый код через API и отправляет его боту командой /start <CODE>.
package users
