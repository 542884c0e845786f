package domain

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindInvalidImage      Kind = "invalid_image"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindEncode            Kind = "encode"
	KindMethodNotAllowed  Kind = "method_not_allowed"
	KindInternal          Kind = "internal"
)

var (
	ErrInvalidImage      = errors.New("invalid image")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// Error is the failure type shared by the pipeline and the transport. Message
// is safe to show to clients; Cause carries the codec detail for logs.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil && !strings.HasSuffix(e.Message, e.Cause.Error()) {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidImage:
		return e.Kind == KindInvalidImage
	case ErrUnsupportedFormat:
		return e.Kind == KindUnsupportedFormat
	default:
		return false
	}
}

func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
		Cause:   err,
	}
}

// EncodeFailure wraps a codec error as an encode failure whose client message
// carries the codec's own text. Typed errors are returned unchanged.
func EncodeFailure(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	return &Error{
		Kind:    KindEncode,
		Op:      op,
		Message: "Conversion failed: " + err.Error(),
		Cause:   err,
	}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func InvalidImage(message string, cause error) *Error {
	return &Error{Kind: KindInvalidImage, Message: message, Cause: cause}
}

func UnsupportedFormat(format string) *Error {
	return &Error{
		Kind:    KindUnsupportedFormat,
		Op:      "encode",
		Message: "Unsupported format: " + format,
	}
}

// KindOf reports the kind of the first *Error in the chain, or KindInternal.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindInternal
}

// Message returns the client-facing text for err.
func Message(err error) string {
	var typed *Error
	if errors.As(err, &typed) && typed.Message != "" {
		return typed.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
