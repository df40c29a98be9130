package tappy

import (
	"errors"
	"strings"

	"github.com/TapTrack/tappy-stream/protocol"
)

// ErrorKind is the category a transport error is classified by.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotConnected
	KindConnectionError
	KindInvalidFrame
	KindInvalidPacket

	// kindCount bounds the declared kinds; the classification test walks
	// every kind below it.
	kindCount
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotConnected:
		return "not_connected"
	case KindConnectionError:
		return "connection_error"
	case KindInvalidFrame:
		return "invalid_frame"
	case KindInvalidPacket:
		return "invalid_packet"
	default:
		return "unknown"
	}
}

// Error is the structured error transports report.
type Error struct {
	Kind  ErrorKind
	Op    string // operation that failed, e.g. "connect", "read"
	Cause error
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Op != "" {
		sb.WriteString(e.Op)
		sb.WriteString(": ")
	}
	sb.WriteString(Classify(e.Kind).Message)
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

// NewError creates an error of the given kind.
func NewError(kind ErrorKind, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Cause: cause}
}

// KindOf extracts the kind of err. Framing sentinels from the protocol
// package map to their kinds; anything unrecognised is KindUnknown.
func KindOf(err error) ErrorKind {
	var te *Error
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &te):
		return te.Kind
	case errors.Is(err, protocol.ErrInvalidFrame):
		return KindInvalidFrame
	case errors.Is(err, protocol.ErrInvalidPacket):
		return KindInvalidPacket
	}
	return KindUnknown
}

// ClassifiedError is the verdict on a transport error.
type ClassifiedError struct {
	Kind    ErrorKind
	Fatal   bool
	Message string
}

// Diagnostic is the line printed to stderr for the error.
func (c ClassifiedError) Diagnostic() string {
	if c.Message == "" {
		return ""
	}
	return strings.ToUpper(c.Message[:1]) + c.Message[1:]
}

var classifications = map[ErrorKind]ClassifiedError{
	KindUnknown:         {Kind: KindUnknown, Fatal: true, Message: "unknown error occurred"},
	KindNotConnected:    {Kind: KindNotConnected, Fatal: true, Message: "device not connected"},
	KindConnectionError: {Kind: KindConnectionError, Fatal: true, Message: "connection error"},
	KindInvalidFrame:    {Kind: KindInvalidFrame, Fatal: false, Message: "received invalid frame"},
	KindInvalidPacket:   {Kind: KindInvalidPacket, Fatal: false, Message: "received invalid packet"},
}

// Classify maps kind to its verdict. Kinds without an entry are fatal.
func Classify(kind ErrorKind) ClassifiedError {
	if c, ok := classifications[kind]; ok {
		return c
	}
	c := classifications[KindUnknown]
	c.Kind = kind
	return c
}
