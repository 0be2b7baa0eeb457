package habits

import "errors"

// ErrHabitNotFound: привычки нет или она принадлежит другому пользователю.
var ErrHabitNotFound = errors.New("habit not found")
