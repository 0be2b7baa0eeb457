// Package scheduler: часы системы напоминаний.
//
// Driver раз в минуту (robfig/cron) вызывает Coordinator.EnqueueDue
// с текущим временем. Вычисление следующего наступления времени привычки
// (NextOccurrence) используется при постановке отложенных задач.
//
// Структура:
//   - scheduler.go: Driver (Start, Stop, Tick)
//   - cron.go: парсинг cron-выражений и вычисление следующего времени
//
// Использование:
//
//	drv, err := scheduler.New(scheduler.Config{
//	    Dispatcher: coordinator,
//	    Locker:     repo.NewAdvisoryLock(pool, lockKey),
//	    Location:   loc,
//	    Metrics:    metrics,
//	    Logger:     logger,
//	})
//	if err != nil {
//	    return err
//	}
//	drv.Start(ctx)
//	defer drv.Stop(context.Background())
//
// Leader Election:
//
// Несколько экземпляров scheduler могут работать одновременно.
// Тик выполняет только владелец pg_try_advisory_lock (Locker).
package scheduler
