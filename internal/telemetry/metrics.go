package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "habit"

// Metrics: метрики сервиса. Методы безопасны для nil-получателя.
type Metrics struct {
	SchedulerTicks     *prometheus.CounterVec
	SchedulerTickTime  prometheus.Histogram
	SchedulerLeader    prometheus.Gauge
	RemindersEnqueued  *prometheus.CounterVec
	RemindersDelivered *prometheus.CounterVec
	DeliveryRetries    prometheus.Counter
	DeliveryExhausted  prometheus.Counter
	TelegramSends      *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics создаёт и регистрирует метрики в reg (nil: prometheus.DefaultRegisterer).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		SchedulerTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_ticks_total",
			Help:      "Scheduler ticks by result (leader, follower, lock_error).",
		}, []string{"result"}),
		SchedulerTickTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_tick_duration_seconds",
			Help:      "Duration of one enqueue-due pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		SchedulerLeader: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scheduler_leader",
			Help:      "1 if this scheduler instance holds the leader lock.",
		}),
		RemindersEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_enqueued_total",
			Help:      "Reminder tasks offered to the queue by result (enqueued, skipped, duplicate, error).",
		}, []string{"result"}),
		RemindersDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_delivered_total",
			Help:      "Reminder delivery attempts by outcome.",
		}, []string{"outcome"}),
		DeliveryRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_delivery_retries_total",
			Help:      "Delivery retries after a transient failure.",
		}),
		DeliveryExhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminder_delivery_exhausted_total",
			Help:      "Deliveries that failed after all attempts.",
		}),
		TelegramSends: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "telegram_send_total",
			Help:      "Telegram sendMessage calls by result (ok, error, invalid_chat).",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.SchedulerTicks,
		m.SchedulerTickTime,
		m.SchedulerLeader,
		m.RemindersEnqueued,
		m.RemindersDelivered,
		m.DeliveryRetries,
		m.DeliveryExhausted,
		m.TelegramSends,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// ObserveTick фиксирует результат тика scheduler.
func (m *Metrics) ObserveTick(result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SchedulerTicks.WithLabelValues(result).Inc()
	if elapsed > 0 {
		m.SchedulerTickTime.Observe(elapsed.Seconds())
	}
}

// SetLeader отмечает, владеет ли экземпляр лидерским локом.
func (m *Metrics) SetLeader(leader bool) {
	if m == nil {
		return
	}
	if leader {
		m.SchedulerLeader.Set(1)
	} else {
		m.SchedulerLeader.Set(0)
	}
}

// AddEnqueued добавляет счётчики постановки задач.
func (m *Metrics) AddEnqueued(enqueued, skipped, duplicates, errors int) {
	if m == nil {
		return
	}
	m.RemindersEnqueued.WithLabelValues("enqueued").Add(float64(enqueued))
	m.RemindersEnqueued.WithLabelValues("skipped").Add(float64(skipped))
	m.RemindersEnqueued.WithLabelValues("duplicate").Add(float64(duplicates))
	m.RemindersEnqueued.WithLabelValues("error").Add(float64(errors))
}

// ObserveDelivery фиксирует исход одной попытки доставки.
func (m *Metrics) ObserveDelivery(outcome string) {
	if m == nil {
		return
	}
	m.RemindersDelivered.WithLabelValues(outcome).Inc()
}

// IncRetry фиксирует повтор доставки.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.DeliveryRetries.Inc()
}

// IncExhausted фиксирует доставку, исчерпавшую попытки.
func (m *Metrics) IncExhausted() {
	if m == nil {
		return
	}
	m.DeliveryExhausted.Inc()
}

// ObserveTelegramSend фиксирует результат вызова Telegram API.
func (m *Metrics) ObserveTelegramSend(result string) {
	if m == nil {
		return
	}
	m.TelegramSends.WithLabelValues(result).Inc()
}

// ObserveHTTP фиксирует HTTP запрос.
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, statusLabel(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
