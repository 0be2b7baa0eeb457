package domain

// ReminderState: состояние привычки с точки зрения напоминаний.
//
// Жизненный цикл:
//
//	NEVER_REMINDED → DUE → DELIVERING → REMINDED (last_reminder = now)
//	                               ↘ DUE (retry на следующем тике)
//
// В БД сохраняется только REMINDED (через last_reminder),
// состояние DELIVERING никогда не персистится.
type ReminderState string

const (
	ReminderStateNeverReminded ReminderState = "NEVER_REMINDED"
	ReminderStateDue           ReminderState = "DUE"
	ReminderStateDelivering    ReminderState = "DELIVERING"
	ReminderStateReminded      ReminderState = "REMINDED"
)

// DeliveryOutcome: итог обработки одной задачи доставки.
type DeliveryOutcome string

const (
	// DeliveryOutcomeSent: сообщение доставлено, last_reminder обновлён.
	DeliveryOutcomeSent DeliveryOutcome = "sent"

	// DeliveryOutcomeNotFound: привычка удалена между постановкой и выполнением.
	DeliveryOutcomeNotFound DeliveryOutcome = "not_found"

	// DeliveryOutcomeLoadFailed: ошибка чтения привычки из БД.
	DeliveryOutcomeLoadFailed DeliveryOutcome = "load_failed"

	// DeliveryOutcomeUnlinked: у владельца не привязан Telegram.
	DeliveryOutcomeUnlinked DeliveryOutcome = "unlinked"

	// DeliveryOutcomeNotDue: повторная проверка показала, что напоминание не нужно.
	DeliveryOutcomeNotDue DeliveryOutcome = "not_due"

	// DeliveryOutcomeStaleSlot: время привычки изменилось после постановки задачи.
	DeliveryOutcomeStaleSlot DeliveryOutcome = "stale_slot"

	// DeliveryOutcomeMissedSlot: задача дошла до воркера позже, чем через
	// допустимое окно после своего слота.
	DeliveryOutcomeMissedSlot DeliveryOutcome = "missed_slot"

	// DeliveryOutcomeFormatFailed: не удалось сформировать текст.
	DeliveryOutcomeFormatFailed DeliveryOutcome = "format_failed"

	// DeliveryOutcomeDeliveryFailed: канал не доставил сообщение (retriable).
	DeliveryOutcomeDeliveryFailed DeliveryOutcome = "delivery_failed"

	// DeliveryOutcomePersistFailed: доставлено, но last_reminder не сохранён.
	DeliveryOutcomePersistFailed DeliveryOutcome = "persist_failed"
)

// IsRetryable возвращает true, если задачу имеет смысл повторить.
// Повторяется только сбой доставки: состояние привычки при нём не изменилось.
func (o DeliveryOutcome) IsRetryable() bool {
	return o == DeliveryOutcomeDeliveryFailed
}

// IsError возвращает true для исходов, которые считаются ошибкой (errors=1).
func (o DeliveryOutcome) IsError() bool {
	switch o {
	case DeliveryOutcomeNotFound, DeliveryOutcomeLoadFailed, DeliveryOutcomeFormatFailed,
		DeliveryOutcomeDeliveryFailed, DeliveryOutcomePersistFailed:
		return true
	default:
		return false
	}
}

// StateOf возвращает состояние привычки для отображения.
func StateOf(h *Habit, due bool) ReminderState {
	switch {
	case due:
		return ReminderStateDue
	case h.LastReminder == nil:
		return ReminderStateNeverReminded
	default:
		return ReminderStateReminded
	}
}
