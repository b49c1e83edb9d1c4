package studyplan

import (
	"errors"
	"fmt"
)

// Error kinds. Transport layers map these to status codes with errors.Is.
var (
	ErrValidation         = errors.New("invalid request")
	ErrAuth               = errors.New("unauthorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNotFound           = errors.New("not found")
	ErrQuotaExceeded      = errors.New("quota exceeded")
	ErrUpstream           = errors.New("upstream unavailable")
)

// Error carries a caller-facing message alongside its kind. Reason is a short
// machine-readable code, set for upstream failures.
type Error struct {
	Kind   error
	Msg    string
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.Error()
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Errorf builds an *Error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return &Error{
		Kind: kind,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// UpstreamError wraps a failure from an external collaborator.
func UpstreamError(reason, msg string, cause error) error {
	return &Error{
		Kind:   ErrUpstream,
		Msg:    msg,
		Reason: reason,
		Err:    cause,
	}
}

// Message returns the caller-facing message of err, falling back to the kind.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Error()
	}
	for _, kind := range []error{ErrValidation, ErrAuth, ErrInvalidCredentials, ErrNotFound, ErrQuotaExceeded, ErrUpstream} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return err.Error()
}

func Reason(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}
