// Package worker доставляет напоминания из очереди.
//
// # Обзор
//
// Worker потребляет задачи deliver_one из очереди reminders.deliver
// и вызывает Coordinator.DeliverTask. Экземпляры масштабируются
// горизонтально и не координируются между собой: дубликаты отсекает
// повторная проверка IsDue внутри координатора.
//
//	w := worker.New(worker.Config{
//	    Deliverer: coordinator,
//	    Conn:      mqConn,
//	    Retry:     worker.RetryPolicy{MaxAttempts: 5},
//	    Metrics:   metrics,
//	    Logger:    logger,
//	})
//
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Retry
//
// Retry выполняется в процессе, а не через requeue в RabbitMQ.
// Повторяется только исход delivery_failed (сбой или таймаут Telegram).
//
//	delay = rand[0, min(initialDelay * 2^(attempt-1), maxDelay)]
//
// После MaxAttempts задача считается проваленной, сообщение подтверждается.
//
// # Ошибки
//
// Битый payload отправляется в DLQ (mq.ErrPermanent).
// Остановка воркера во время ожидания возвращает сообщение в очередь.
package worker
