package errors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrEmptyKey     = errors.New("empty key")
	ErrInvalidData  = errors.New("invalid data type")
	ErrEntityExists = errors.New("entity already exists")

	ErrNetworkUnavailable = errors.New("network unavailable")
	ErrBadStatus          = errors.New("unexpected response status")
	ErrMalformed          = errors.New("malformed response payload")
	ErrActionRejected     = errors.New("action rejected")
	ErrUnreachable        = errors.New("remote unreachable")
	ErrValidationFailed   = errors.New("validation failed")
	ErrFallbackDisabled   = errors.New("fallback data generator disabled")

	ErrUnauthorized = errors.New("missing or invalid session")
	ErrForbidden    = errors.New("role not allowed")
	ErrConflict     = errors.New("conflicting state")
)

type FetchReason uint8

const (
	NetworkUnavailable FetchReason = iota
	BadStatus
	Malformed
)

func (r FetchReason) String() string {
	switch r {
	case NetworkUnavailable:
		return "network_unavailable"
	case BadStatus:
		return "bad_status"
	case Malformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// FetchError is the normalized failure of a single remote call.
type FetchError struct {
	Endpoint string
	Reason   FetchReason
	Code     int
	Detail   string
	Err      error
}

func (e *FetchError) Error() string {
	switch e.Reason {
	case BadStatus:
		if e.Detail != "" {
			return fmt.Sprintf("%s: %s %d: %s", e.Endpoint, ErrBadStatus, e.Code, e.Detail)
		}

		return fmt.Sprintf("%s: %s %d", e.Endpoint, ErrBadStatus, e.Code)
	case Malformed:
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, ErrMalformed, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Endpoint, ErrNetworkUnavailable, e.Err)
	}
}

func (e *FetchError) Unwrap() []error {
	var kind error
	switch e.Reason {
	case BadStatus:
		kind = ErrBadStatus
	case Malformed:
		kind = ErrMalformed
	default:
		kind = ErrNetworkUnavailable
	}
	if e.Err == nil {
		return []error{kind}
	}

	return []error{kind, e.Err}
}

type ActionReason uint8

const (
	Unreachable ActionReason = iota
	Rejected
)

// ActionError is surfaced to the user when a state-changing call fails on
// every path.
type ActionError struct {
	Action string
	Reason ActionReason
	Detail string
	Err    error
}

func (e *ActionError) Error() string {
	if e.Reason == Rejected {
		return fmt.Sprintf("%s: %s: %s", e.Action, ErrActionRejected, e.Detail)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s: %s", e.Action, ErrUnreachable, e.Detail)
	}

	return fmt.Sprintf("%s: %s", e.Action, ErrUnreachable)
}

func (e *ActionError) Unwrap() []error {
	kind := ErrUnreachable
	if e.Reason == Rejected {
		kind = ErrActionRejected
	}
	if e.Err == nil {
		return []error{kind}
	}

	return []error{kind, e.Err}
}

// ActionFromFetch maps the remote failure of a write onto the action taxonomy.
func ActionFromFetch(action string, err error) *ActionError {
	var fe *FetchError
	if errors.As(err, &fe) && fe.Reason == BadStatus {
		detail := fe.Detail
		if detail == "" {
			detail = fmt.Sprintf("status %d", fe.Code)
		}

		return &ActionError{Action: action, Reason: Rejected, Detail: detail, Err: err}
	}

	return &ActionError{Action: action, Reason: Unreachable, Err: err}
}

// ValidationError names the first field that failed local validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %s", ErrValidationFailed, e.Field)
	}

	return fmt.Sprintf("%s: %s: %s", ErrValidationFailed, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
