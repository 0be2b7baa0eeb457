// Package telegram содержит всё, что касается Telegram.
//
//   - notifier.go: канал доставки напоминаний (reminder.Notifier)
//   - bot.go: бот привязки аккаунта (/start <CODE>)
//   - linker.go: подтверждение кода через HTTP API
package telegram
