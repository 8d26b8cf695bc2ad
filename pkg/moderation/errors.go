package moderation

import (
	"fmt"

	"emperror.dev/errors"
)

// Kind classifies moderation failures for the command boundary
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindConflict
	KindNotFound
	KindInvalidOperation
	KindPermissionDenied
	KindDelivery
)

// String returns the name of the kind
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindInvalidOperation:
		return "invalid_operation"
	case KindPermissionDenied:
		return "permission_denied"
	case KindDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}

// Sentinels that callers may test with errors.Is
const (
	ErrBadDuration      = errors.Sentinel("bad duration")
	ErrAlreadyScheduled = errors.Sentinel("unmute already scheduled")
	ErrAlreadyLifted    = errors.Sentinel("case already lifted")
	ErrNegativePoints   = errors.Sentinel("warn points would become negative")
	ErrDuplicateCase    = errors.Sentinel("duplicate case id")
	ErrCaseNotFound     = errors.Sentinel("case not found")
)

// Error is a classified moderation error. Msg is safe to show to the
// invoking moderator.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Unwrap exposes the cause
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, cause error, format string, args ...interface{}) error {
	return errors.WithStack(&Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause})
}

// Validation reports a bad argument or unmet precondition
func Validation(format string, args ...interface{}) error {
	return newError(KindValidation, nil, format, args...)
}

// BadDuration reports an unparsable mute duration
func BadDuration(input string) error {
	return newError(KindValidation, ErrBadDuration, "`%s` is not a valid duration (try 10m, 2h, 1d)", input)
}

// Conflict reports a state clash such as a duplicate case id
func Conflict(cause error, format string, args ...interface{}) error {
	return newError(KindConflict, cause, format, args...)
}

// NotFound reports a missing case, user or timer
func NotFound(cause error, format string, args ...interface{}) error {
	return newError(KindNotFound, cause, format, args...)
}

// InvalidOperation reports a mutation that would break an invariant
func InvalidOperation(cause error, format string, args ...interface{}) error {
	return newError(KindInvalidOperation, cause, format, args...)
}

// PermissionDenied reports that the platform refused an enforcement call
func PermissionDenied(cause error, format string, args ...interface{}) error {
	return newError(KindPermissionDenied, cause, format, args...)
}

// DeliveryFailure reports a message that could not be delivered
func DeliveryFailure(cause error, format string, args ...interface{}) error {
	return newError(KindDelivery, cause, format, args...)
}

// KindOf returns the classification of err, KindUnknown if it has none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Message returns the user-facing message of a classified error
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return ""
}
