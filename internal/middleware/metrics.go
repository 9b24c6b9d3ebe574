package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// MailDispatched counts emails handed to the background dispatcher by template.
	MailDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_mail_dispatched_total",
		Help: "Total number of emails enqueued for background delivery",
	}, []string{"template"})

	// MailFailed counts emails that could not be delivered or were dropped.
	MailFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_mail_failed_total",
		Help: "Total number of background email deliveries that failed",
	}, []string{"template", "reason"})

	// AccountTransitions counts lifecycle transitions by name and outcome.
	AccountTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_account_transitions_total",
		Help: "Total number of account lifecycle transitions by outcome",
	}, []string{"transition", "outcome"})
)

// InitMetrics creates the Prometheus HTTP middleware for the given service name.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New(serviceName)
}

// MetricsMiddleware returns the request-level metrics handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
