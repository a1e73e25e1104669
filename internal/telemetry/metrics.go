package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Исходы обработки одного напоминания.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)

var (
	// DispatchRuns — количество запусков диспетчера по результату (ok, empty, error).
	DispatchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiethours_dispatch_runs_total",
		Help: "Total dispatcher runs by result",
	}, []string{"result"})

	// DispatchDuration — длительность одного запуска диспетчера.
	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quiethours_dispatch_duration_seconds",
		Help:    "Duration of a dispatcher run",
		Buckets: prometheus.DefBuckets,
	})

	// Notifications — обработанные напоминания по исходу.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiethours_notifications_total",
		Help: "Reminder notifications processed by the dispatcher, by outcome",
	}, []string{"outcome"})

	// Emails — отправленные письма по шаблону и результату.
	Emails = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiethours_emails_total",
		Help: "Emails handed to the provider, by template and result",
	}, []string{"template", "result"})

	// HTTPRequests — обработанные HTTP-запросы.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "quiethours_http_requests_total",
		Help: "Total HTTP requests handled by the API",
	}, []string{"method", "status"})
)
