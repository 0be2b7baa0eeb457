// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go: Handler с DI (сервисы, сессии, logger)
//   - routes.go: регистрация маршрутов
//   - middleware.go: middleware (recovery, logging, metrics, auth)
//   - response.go: унифицированные JSON-ответы и обработка ошибок
//   - dto.go: Data Transfer Objects (request/response)
//   - user_handler.go: регистрация, вход, профиль
//   - habit_handler.go: обработчики для /habits
//   - telegram_handler.go: выдача и подтверждение кодов привязки Telegram
//
// Все ответы - {"data": ...} или {"error": {"code", "message", "fields"}}.
package api
