package speaker

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedFormat is returned when the (bitDepth, float, signed) combination
	// has no encoding, or when the backend cannot play the encoding.
	ErrUnsupportedFormat = errors.New("unsupported PCM format")
	// ErrUnsupportedEndianness is reported when a byte order other than the host's is requested.
	ErrUnsupportedEndianness = errors.New("unsupported endianness")
	// ErrWriteAfterClose is returned by Write once the speaker is closed.
	ErrWriteAfterClose = errors.New("write() call after close() call")
	// ErrBackendWriteMismatch is matched by WriteMismatchError.
	ErrBackendWriteMismatch = errors.New("backend write mismatch")
	// ErrOpenFailure wraps the error of a failed backend device open.
	ErrOpenFailure = errors.New("failed to open output device")
	// ErrNoBackend is returned when no backend is registered under the requested name.
	ErrNoBackend = errors.New("no audio backend")
)

// WriteMismatchError is returned when the backend acknowledges a different
// number of bytes than it was given.
type WriteMismatchError struct {
	Requested int
	Written   int
}

// Error implements the error interface.
func (e *WriteMismatchError) Error() string {
	return fmt.Sprintf("write() failed: %d of %d bytes written", e.Written, e.Requested)
}

// Is reports whether target is ErrBackendWriteMismatch.
func (e *WriteMismatchError) Is(target error) bool {
	return target == ErrBackendWriteMismatch
}
