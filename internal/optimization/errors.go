package optimization

import "fmt"

// Kind classifies an optimization error so callers can distinguish
// construction-time failures from runtime evaluation failures.
type Kind int

const (
	// KindUnknown is the zero value, used for errors with no classification.
	KindUnknown Kind = iota
	// KindParse means the formula text is not a syntactically valid expression.
	KindParse
	// KindInvalidExpression means the formula parsed but could not be
	// evaluated even at the trial point.
	KindInvalidExpression
	// KindDimension means a point's length disagrees with the declared
	// variable count.
	KindDimension
	// KindEval means evaluation at a specific point could not produce a
	// finite number (division by zero, log of a non-positive value, ...).
	KindEval
	// KindParams means a scalar step-control parameter is out of range.
	KindParams
)

func (k Kind) String() string {
	switch k {
	case KindParse:
		return "parse"
	case KindInvalidExpression:
		return "invalid_expression"
	case KindDimension:
		return "dimension_mismatch"
	case KindEval:
		return "evaluation"
	case KindParams:
		return "invalid_params"
	default:
		return "unknown"
	}
}

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Kind classifies the error per the taxonomy above.
	Kind Kind
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", e.Op, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// NewError creates a new optimization error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewErrorf creates a new optimization error with a formatted message.
func NewErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an existing error with a kind and additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// ErrorKind reports the Kind of err if it is (or wraps) an optimization
// Error, and KindUnknown otherwise.
func ErrorKind(err error) Kind {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Kind
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return KindUnknown
		}
		err = u.Unwrap()
	}
	return KindUnknown
}

// IsConstructionError reports whether err represents a failure that should
// be surfaced synchronously at run start (parse, invalid expression, or a
// start point of the wrong dimension) rather than from a running worker.
func IsConstructionError(err error) bool {
	switch ErrorKind(err) {
	case KindParse, KindInvalidExpression, KindDimension, KindParams:
		return true
	}
	return false
}
