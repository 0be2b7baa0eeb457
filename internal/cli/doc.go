// Package cli реализует инструмент командной строки сервиса привычек.
//
// # Обзор
//
// CLI: клиентская утилита для API. Работает через HTTP и не импортирует
// внутренние пакеты системы.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для API. Инкапсулирует запросы, bearer-токен,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse) и ошибки
// валидации по полям.
//
//	client := cli.NewClient("http://localhost:8080", token)
//	habits, err := client.ListHabits(cli.ListOpts{})
//
// ## Output
//
// Таблицы (text/tabwriter) по умолчанию, JSON с флагом --json.
// Данные выводятся в stdout, сообщения - в stderr:
//
//	habit-cli habit list --json | jq .
//
// ## Commands
//
//   - habit: list, show, create, delete, public
//   - user: register, login, logout, me
//   - telegram: link
package cli
