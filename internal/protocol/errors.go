package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocolDecode marks wire content that is malformed or outside the
	// literal grammar. It is fatal to one message, not to the channel.
	ErrProtocolDecode = errors.New("protocol decode error")

	// ErrMissingField is returned when reading a field a record does not have.
	ErrMissingField = errors.New("missing field")

	// ErrInvalidRange is returned for a TextRange whose start is after its end
	// or whose coordinates are out of bounds.
	ErrInvalidRange = errors.New("invalid text range")
)

// DecodeError describes where decoding failed.
type DecodeError struct {
	Offset int
	Msg    string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("%v at offset %d: %s", ErrProtocolDecode, e.Offset, e.Msg)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports ErrProtocolDecode so callers can test with errors.Is.
func (e *DecodeError) Is(target error) bool {
	return target == ErrProtocolDecode
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UserError is an error meant to be shown to the end user as-is, without an
// internal trace.
type UserError struct {
	Msg string
}

func (e *UserError) Error() string {
	return e.Msg
}

// NewUserError formats a UserError.
func NewUserError(format string, args ...any) error {
	return &UserError{Msg: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err or anything it wraps is a UserError.
func IsUserError(err error) bool {
	var ue *UserError
	return errors.As(err, &ue)
}

func missingField(kind Kind, name string) error {
	return fmt.Errorf("%s.%s: %w", kind, name, ErrMissingField)
}
