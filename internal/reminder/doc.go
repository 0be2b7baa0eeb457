// Package reminder реализует ядро напоминаний о привычках.
//
// Структура:
//   - evaluator.go: Due-Set Evaluator, какие привычки требуют напоминания в эту минуту
//   - coordinator.go: Dispatch Coordinator, постановка задач и доставка одного напоминания
//   - message.go: форматирование текста напоминания
//
// Поток управления:
//
//	тик (раз в минуту) → Evaluator.FindDue → Coordinator.EnqueueDue
//	    → очередь (ключ дедупликации habit+минута)
//	    → worker → Coordinator.DeliverTask (слот, окно SlotGrace, IsDue)
//	    → успех: last_reminder = now; ошибка: состояние не меняется
//
// ScheduleNext ставит отложенную задачу со своим ключом (":scheduled").
// Опоздавшая задача пропускается как missed_slot, своевременную доставку
// обеспечивает тик.
//
// Все внешние системы (БД, очередь, Telegram) передаются как интерфейсы
// при создании Coordinator, глобального состояния нет.
package reminder
