package model

import "errors"

// Error classes shared by every fetch and join step. Callers match them with errors.Is.
var (
	ErrNetwork          = errors.New("network error")
	ErrUnexpectedStatus = errors.New("unexpected status")
	ErrMalformedPayload = errors.New("malformed payload")
	ErrMissingKey       = errors.New("missing key")
	ErrDivisionByZero   = errors.New("division by zero")
)

// ErrorClass returns a short label for logging the class of err.
func ErrorClass(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingKey):
		return "missing_key"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrUnexpectedStatus):
		return "unexpected_status"
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "unknown"
	}
}
