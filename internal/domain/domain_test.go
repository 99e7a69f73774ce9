package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutcome(t *testing.T) {
	testCases := []struct {
		in      string
		want    BookingStatus
		wantErr bool
	}{
		{in: "confirmed", want: BookingStatusConfirmed},
		{in: "cancelled", want: BookingStatusCancelled},
		{in: "pending", wantErr: true},
		{in: "refunded", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseOutcome(tc.in)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseTicketType(t *testing.T) {
	got, err := ParseTicketType("front_row")
	assert.NoError(t, err)
	assert.Equal(t, TicketTypeFrontRow, got)

	_, err = ParseTicketType("balcony")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestBookingStatus_TicketStatusFor(t *testing.T) {
	st, ok := BookingStatusConfirmed.TicketStatusFor()
	assert.True(t, ok)
	assert.Equal(t, TicketStatusSold, st)

	st, ok = BookingStatusCancelled.TicketStatusFor()
	assert.True(t, ok)
	assert.Equal(t, TicketStatusAvailable, st)

	_, ok = BookingStatusPending.TicketStatusFor()
	assert.False(t, ok)
}

func TestError_KindMatching(t *testing.T) {
	err := fmt.Errorf("reserve: %w", Conflict("tickets not available", "a", "b"))

	assert.ErrorIs(t, err, ErrConflict)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, []string{"a", "b"}, ConflictTickets(err))
	assert.Contains(t, err.Error(), "tickets not available: a, b")
	assert.False(t, IsRetryable(err))
}

func TestError_StorageFailureUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := StorageFailure("begin transaction", cause)

	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsRetryable(err))
	assert.Nil(t, ConflictTickets(err))
	assert.Equal(t, ErrorKind(0), KindOf(cause))
}

func TestPrice_JSON(t *testing.T) {
	raw, err := json.Marshal(Ticket{Price: "100.50"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"price":100.50`)

	var decoded Ticket
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, Price("100.50"), decoded.Price)

	var quoted Price
	require.NoError(t, json.Unmarshal([]byte(`"7.25"`), &quoted))
	assert.Equal(t, Price("7.25"), quoted)

	assert.Equal(t, "0", Price("").String())

	for _, p := range []Price{"NaN", "Infinity", "-Infinity", "1e5"} {
		raw, err := json.Marshal([]Ticket{{Price: p}})
		require.NoError(t, err, p)
		assert.True(t, json.Valid(raw), p)
		assert.Contains(t, string(raw), `"price":"`+string(p)+`"`)
	}
}
