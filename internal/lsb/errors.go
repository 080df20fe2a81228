package lsb

import "errors"

// Kind is a stable category for programmatic error handling.
//
// Callers should branch on Kind rather than matching error strings.
// Use errors.As to extract *Error, or IsKind for a quick check.
type Kind string

const (
	// KindCapacityExceeded means the pixel buffer cannot hold the payload
	// plus its terminator or header. Nothing was written.
	KindCapacityExceeded Kind = "CapacityExceeded"
	// KindSentinelNotFound means the buffer ended before a run of
	// SentinelRun set LSBs was seen.
	KindSentinelNotFound Kind = "SentinelNotFound"
	// KindInvalidEncoding means the recovered bytes are not valid UTF-8.
	KindInvalidEncoding Kind = "InvalidEncoding"
	// KindAmbiguousPayload means the payload's own bits contain a sentinel
	// run and could not be recovered by the sentinel scheme.
	KindAmbiguousPayload Kind = "AmbiguousPayload"
	// KindCorruptHeader means a buffer carries no frame marker, or a length
	// header that does not fit the buffer.
	KindCorruptHeader Kind = "CorruptHeader"
)

// Error is the package's structured error type.
//
// Message is intended for humans; do not match on it.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func newError(kind Kind, msg string) error {
	return &Error{Kind: kind, Message: msg}
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
