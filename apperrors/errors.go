// Package apperrors defines the stable error taxonomy shared by the
// checkout initiator, webhook ingestor and allocation orchestrator.
// Generalizes the teacher's api/service.ErrorCode map into a full
// discriminated error type with an HTTP status mapping.
package apperrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is a stable, loggable error classifier.
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindConflict           Kind = "CONFLICT"
	KindPlanUnavailable    Kind = "PLAN_UNAVAILABLE"
	KindUserNotFound       Kind = "USER_NOT_FOUND"
	KindInvalidOrderStatus Kind = "INVALID_ORDER_STATUS"
	KindPaymentError       Kind = "PAYMENT_ERROR"
	KindInvalidSignature   Kind = "INVALID_SIGNATURE"
	KindTransactionFailed  Kind = "TRANSACTION_FAILED"
	KindMaxRetries         Kind = "MAX_RETRIES"
	KindProviderError      Kind = "PROVIDER_ERROR"
	KindExternalService    Kind = "EXTERNAL_SERVICE_ERROR"
	KindRateLimitExceeded  Kind = "RATE_LIMIT_EXCEEDED"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// httpStatus maps every Kind to the HTTP status it surfaces as.
var httpStatus = map[Kind]int{
	KindValidation:         400,
	KindNotFound:           404,
	KindConflict:           409,
	KindPlanUnavailable:    400,
	KindUserNotFound:       400,
	KindInvalidOrderStatus: 400,
	KindPaymentError:       402,
	KindInvalidSignature:   400,
	KindTransactionFailed:  500,
	KindMaxRetries:         400,
	KindProviderError:      500,
	KindExternalService:    502,
	KindRateLimitExceeded:  429,
	KindInternal:           500,
}

// Error is a discriminated application error. Orchestrator and store
// guard failures (invalid order status, exhausted retries) return one
// of these so the HTTP boundary and the webhook ingestor can classify
// failures without string matching; other errors (e.g. store lookups)
// pass through unwrapped and surface as 500.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// HTTPStatus returns the HTTP status code this error surfaces as.
func (e *Error) HTTPStatus() int {
	if v, ok := httpStatus[e.Kind]; ok {
		return v
	}

	return 500
}

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an existing error,
// preserving it for errors.Is/errors.As and logging.
func Wrap(kind Kind, cause error, message string) *Error {
	return &Error{Kind: kind, Message: message, cause: cause}
}

// WithDetails attaches structured detail fields. api/server's
// handleError writes them into every error response; there is no
// development-only switch that withholds them.
func (e *Error) WithDetails(d map[string]any) *Error {
	e.Details = d
	return e
}

// FromProvider wraps a provider-adapter error with its slug for
// attribution, per spec's propagation policy.
func FromProvider(slug string, cause error) *Error {
	return Wrap(KindProviderError, cause, fmt.Sprintf("provider %q failed", slug))
}

// As reports whether err (or something it wraps) is an *Error, and
// returns it. Thin helper over errors.As for callers that don't want to
// declare the target locally.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}

	return nil, false
}
