package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ticketbooking"

var (
	once sync.Once

	reservations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_total",
			Help:      "Reserve calls by result.",
		},
		[]string{"result"},
	)

	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_resolutions_total",
			Help:      "Payment token resolutions by requested outcome and result.",
		},
		[]string{"outcome", "result"},
	)

	txDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "booking_tx_duration_seconds",
			Help:      "Duration of booking transactions including lock waits.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		},
		[]string{"method", "route", "code"},
	)

	outboxEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_events_total",
			Help:      "Outbox events relayed to the broker by result.",
		},
		[]string{"result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(reservations, resolutions, txDuration, httpRequests, outboxEvents)
	})
}

// Result maps an operation error to a low-cardinality label value.
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	switch domain.KindOf(err) {
	case domain.KindInvalidRequest:
		return "invalid_request"
	case domain.KindNotFound:
		return "not_found"
	case domain.KindConflict:
		return "conflict"
	case domain.KindStorageFailure:
		return "storage_failure"
	default:
		return "error"
	}
}

func ObserveReservation(err error) {
	reservations.WithLabelValues(Result(err)).Inc()
}

// ObserveResolution records a payment resolution. Outcomes other than
// confirmed and cancelled share the "invalid" label.
func ObserveResolution(outcome domain.BookingStatus, err error) {
	label := "invalid"
	if _, ok := outcome.TicketStatusFor(); ok {
		label = string(outcome)
	}
	resolutions.WithLabelValues(label, Result(err)).Inc()
}

func ObserveTx(operation string, d time.Duration) {
	txDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func IncHTTP(method, route string, code int) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
}

func IncOutbox(err error) {
	if err != nil {
		outboxEvents.WithLabelValues("error").Inc()
		return
	}
	outboxEvents.WithLabelValues("ok").Inc()
}
