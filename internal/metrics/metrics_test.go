package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/ticketbooking/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "invalid_request", Result(domain.InvalidRequest("empty")))
	assert.Equal(t, "not_found", Result(domain.NotFound("token")))
	assert.Equal(t, "conflict", Result(domain.Conflict("taken", "a")))
	assert.Equal(t, "storage_failure", Result(domain.StorageFailure("commit", errors.New("eof"))))
	assert.Equal(t, "error", Result(errors.New("boom")))
}

func TestObservers(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(reservations.WithLabelValues("conflict"))
	ObserveReservation(domain.Conflict("taken", "a"))
	assert.Equal(t, before+1, testutil.ToFloat64(reservations.WithLabelValues("conflict")))

	before = testutil.ToFloat64(resolutions.WithLabelValues("confirmed", "ok"))
	ObserveResolution(domain.BookingStatusConfirmed, nil)
	assert.Equal(t, before+1, testutil.ToFloat64(resolutions.WithLabelValues("confirmed", "ok")))

	before = testutil.ToFloat64(resolutions.WithLabelValues("invalid", "invalid_request"))
	assert.NotPanics(t, func() {
		ObserveResolution(domain.BookingStatus("\xff"), domain.InvalidRequest("bad outcome"))
	})
	assert.Equal(t, before+1, testutil.ToFloat64(resolutions.WithLabelValues("invalid", "invalid_request")))

	before = testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/tickets/reserve", "409"))
	IncHTTP("POST", "/tickets/reserve", 409)
	assert.Equal(t, before+1, testutil.ToFloat64(httpRequests.WithLabelValues("POST", "/tickets/reserve", "409")))

	before = testutil.ToFloat64(outboxEvents.WithLabelValues("error"))
	IncOutbox(errors.New("broker down"))
	assert.Equal(t, before+1, testutil.ToFloat64(outboxEvents.WithLabelValues("error")))

	ObserveTx("reserve", 15*time.Millisecond)
	assert.Equal(t, 1, testutil.CollectAndCount(txDuration))
}
