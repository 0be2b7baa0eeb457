package worker

import "errors"

// ErrRetryExhausted: доставка не удалась за MaxAttempts попыток.
// Сообщение при этом подтверждается, чтобы не крутиться в очереди.
var ErrRetryExhausted = errors.New("retry attempts exhausted")
