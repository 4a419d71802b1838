package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies engine errors so handlers can map them to HTTP statuses
// without inspecting individual sentinel errors from every package.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindPolicyMismatch
	KindConflict
	KindProvider
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Msg == "" {
			return e.Err.Error()
		}
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Msg: msg}
}

func Validationf(format string, v ...interface{}) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, v...)}
}

func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Msg: msg}
}

func PolicyMismatch(msg string) *Error {
	return &Error{Kind: KindPolicyMismatch, Msg: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Msg: msg}
}

func Provider(msg string, err error) *Error {
	return &Error{Kind: KindProvider, Msg: msg, Err: err}
}

// Wrap attaches a kind to an existing sentinel error so callers can keep
// matching with errors.Is while handlers match on the kind.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// HTTPStatus maps an error to the status the caller-facing API returns.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindPolicyMismatch, KindConflict:
		return http.StatusConflict
	case KindProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
