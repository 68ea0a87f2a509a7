// Package apperr carries the error taxonomy shared by the handlers and
// services: each error is tagged with a Kind that maps onto an HTTP status
// at the API boundary.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindGateway
	KindAuthentication
	KindAmountMismatch
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindGateway:
		return "gateway"
	case KindAuthentication:
		return "authentication"
	case KindAmountMismatch:
		return "amount_mismatch"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Msg: msg}
}

func Newf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or
// KindUnknown when err is untagged.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user-facing message of err. Wrapped causes are kept
// out of it so upstream details and secrets stay in the logs.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "internal server error"
}

// HTTPStatus maps an error to the response status per the API contract:
// bad input and tampered amounts are 400, failed signature checks 401,
// upstream gateway failures 502, store failures and anything untagged 500.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindAmountMismatch:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindGateway:
		return http.StatusBadGateway
	case KindPersistence:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
