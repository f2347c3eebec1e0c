package service

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"gorm.io/gorm"

	"casilleros-backend/internal/store"
)

// Kind tells callers which category an operation failure belongs to.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindNotFound
	KindUnavailable
	KindStore
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	case KindStore:
		return "store"
	default:
		return "unknown"
	}
}

// Error is a categorized operation failure. Message is what the caller sees in
// the response envelope.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Err.Error() != e.Message {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or 0 when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func validationError(msg string, err error) *Error {
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// classify turns a data-access error into an *Error. Store errors keep the
// store's message; fallback is used only when that message is empty.
func classify(err error, notFound, fallback string) *Error {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: KindNotFound, Message: notFound, Err: err}
	case isUnavailable(err):
		return &Error{Kind: KindUnavailable, Message: messageOr(err, fallback), Err: err}
	default:
		return &Error{Kind: KindStore, Message: messageOr(err, fallback), Err: err}
	}
}

func isUnavailable(err error) bool {
	var netErr net.Error
	return errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.As(err, &netErr)
}

func messageOr(err error, fallback string) string {
	if err == nil || err.Error() == "" {
		return fallback
	}
	return err.Error()
}
