// Package telemetry: логи и метрики сервиса напоминаний.
//
// Логгер (slog) настраивается из LOG_LEVEL и LOG_FORMAT и обогащается
// идентификаторами привычки, пользователя и ключом дедупликации.
//
// Metrics собирает счётчики тиков планировщика, постановки задач,
// исходов доставки, повторов воркера, отправок в Telegram и HTTP-запросов API.
// Методы Metrics безопасны на nil-получателе.
package telemetry
