package domain

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind int

const (
	KindInvalidRequest ErrorKind = iota + 1
	KindNotFound
	KindConflict
	KindStorageFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidRequest:
		return "invalid request"
	case KindNotFound:
		return "not found"
	case KindConflict:
		return "conflict"
	case KindStorageFailure:
		return "storage failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches the sentinel of its kind.
var (
	ErrInvalidRequest = &Error{Kind: KindInvalidRequest}
	ErrNotFound       = &Error{Kind: KindNotFound}
	ErrConflict       = &Error{Kind: KindConflict}
	ErrStorageFailure = &Error{Kind: KindStorageFailure}
)

// Error is the typed failure returned across the booking boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	// TicketIDs lists the tickets that caused a Conflict, if any.
	TicketIDs []string
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
	}
	if len(e.TicketIDs) > 0 {
		msg += ": " + strings.Join(e.TicketIDs, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

func InvalidRequest(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidRequest, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(message string, ticketIDs ...string) *Error {
	return &Error{Kind: KindConflict, Message: message, TicketIDs: ticketIDs}
}

func StorageFailure(message string, err error) *Error {
	return &Error{Kind: KindStorageFailure, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsRetryable reports whether the whole operation may be safely redone.
func IsRetryable(err error) bool {
	return KindOf(err) == KindStorageFailure
}

// ConflictTickets returns the ticket ids attached to a Conflict error.
func ConflictTickets(err error) []string {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindConflict {
		return e.TicketIDs
	}
	return nil
}
