package resp

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a decode failure
type ErrorKind int

const (
	UnknownMarker ErrorKind = iota + 1
	MissingTerminator
	InvalidIntegerLiteral
	TruncatedPayload
	NestingTooDeep
)

var (
	ErrUnknownMarker         = errors.New("unknown type marker")
	ErrMissingTerminator     = errors.New("missing line terminator")
	ErrInvalidIntegerLiteral = errors.New("invalid integer literal")
	ErrTruncatedPayload      = errors.New("truncated payload")
	ErrNestingTooDeep        = errors.New("nesting too deep")
)

func (k ErrorKind) sentinel() error {
	switch k {
	case UnknownMarker:
		return ErrUnknownMarker
	case MissingTerminator:
		return ErrMissingTerminator
	case InvalidIntegerLiteral:
		return ErrInvalidIntegerLiteral
	case TruncatedPayload:
		return ErrTruncatedPayload
	case NestingTooDeep:
		return ErrNestingTooDeep
	}
	return nil
}

func (k ErrorKind) String() string {
	if err := k.sentinel(); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// DecodeError reports where and why decoding stopped.
// Offset is absolute within the buffer passed to Decode
type DecodeError struct {
	Kind   ErrorKind
	Offset int
	Byte   byte // offending marker for UnknownMarker

	// atEnd is set when the failure was caused by running out of input,
	// so more bytes could turn it into a success
	atEnd bool
}

func (e *DecodeError) Error() string {
	if e.Kind == UnknownMarker {
		return fmt.Sprintf("resp: %s %q at offset %d", e.Kind, e.Byte, e.Offset)
	}
	return fmt.Sprintf("resp: %s at offset %d", e.Kind, e.Offset)
}

// Unwrap lets errors.Is match the sentinel of the kind
func (e *DecodeError) Unwrap() error {
	return e.Kind.sentinel()
}

// Incomplete reports whether the input ended before the value did
func (e *DecodeError) Incomplete() bool {
	return e.atEnd
}

// IsIncomplete reports whether err is a decode failure that more input could resolve
func IsIncomplete(err error) bool {
	var de *DecodeError
	return errors.As(err, &de) && de.atEnd
}
