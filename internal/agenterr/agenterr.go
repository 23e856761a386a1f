// Package agenterr classifies the error kinds raised across the module
// dispatch and request-lifecycle engine so callers can branch on kind with
// errors.Is instead of matching strings.
package agenterr

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap one of these with Wrap/Newf to produce a classified error.
var (
	ErrLoading    = errors.New("loading")
	ErrProcessing = errors.New("processing")
	ErrValidation = errors.New("validation")
	ErrConnection = errors.New("connection")
	ErrEnvelope   = errors.New("invalid envelope")
)

// classifiedError pairs a message with a sentinel kind, unwrappable via errors.Is.
type classifiedError struct {
	kind error
	msg  string
}

func (e *classifiedError) Error() string { return e.msg }

func (e *classifiedError) Unwrap() error { return e.kind }

func newf(kind error, format string, args ...any) error {
	return &classifiedError{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// LoadingError reports a module that could not be registered: missing,
// unparseable, or schema-invalid metadata, or a schema-registration failure.
func LoadingError(format string, args ...any) error {
	return newf(ErrLoading, format, args...)
}

// ProcessingError reports a failure while running or reading back an action's
// result: unreadable result files, no/invalid JSON on stdout, reserved exit 5.
func ProcessingError(format string, args ...any) error {
	return newf(ErrProcessing, format, args...)
}

// ValidationError reports an input or result document that failed its
// registered schema.
func ValidationError(format string, args ...any) error {
	return newf(ErrValidation, format, args...)
}

// ConnectionError reports a send failure from the Connector.
func ConnectionError(format string, args ...any) error {
	return newf(ErrConnection, format, args...)
}

// EnvelopeError reports an envelope that could not be interpreted as a known
// request message type.
func EnvelopeError(format string, args ...any) error {
	return newf(ErrEnvelope, format, args...)
}

// IsLoading reports whether err is (or wraps) a LoadingError.
func IsLoading(err error) bool { return errors.Is(err, ErrLoading) }

// IsProcessing reports whether err is (or wraps) a ProcessingError.
func IsProcessing(err error) bool { return errors.Is(err, ErrProcessing) }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

// IsConnection reports whether err is (or wraps) a ConnectionError.
func IsConnection(err error) bool { return errors.Is(err, ErrConnection) }

// IsEnvelope reports whether err is (or wraps) an EnvelopeError.
func IsEnvelope(err error) bool { return errors.Is(err, ErrEnvelope) }
