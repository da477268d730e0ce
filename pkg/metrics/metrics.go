package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketinn_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "marketinn_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	bookingOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketinn_booking_operations_total",
		Help: "Booking mutations by operation and result",
	}, []string{"operation", "result"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketinn_login_attempts_total",
		Help: "Login attempts by result",
	}, []string{"result"})

	eventPublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "marketinn_event_publish_failures_total",
		Help: "Events that could not be published",
	}, []string{"subject"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, route, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, status).Inc()
	httpRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// ObserveBookingOperation counts a create, update or delete by outcome.
func ObserveBookingOperation(operation string, err error) {
	bookingOperations.WithLabelValues(operation, result(err)).Inc()
}

func ObserveLogin(err error) {
	loginAttempts.WithLabelValues(result(err)).Inc()
}

func ObservePublishFailure(subject string) {
	eventPublishFailures.WithLabelValues(subject).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
