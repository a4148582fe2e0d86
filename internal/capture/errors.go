// SPDX-License-Identifier: MIT

package capture

import (
	"errors"
	"fmt"
)

// ErrEmptyCapture marks a capture window that ended with zero bytes. The
// session is reported as failed and nothing is delivered to the store.
var ErrEmptyCapture = errors.New("capture window ended with zero bytes")

// ConnectionError means the capture source could not be reached or refused
// the request.
type ConnectionError struct {
	URL string
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError means a fetched playlist document was malformed. The poll
// iteration is skipped and the loop continues.
type ProtocolError struct {
	URL string
	Err error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("playlist %s: %v", e.URL, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// SegmentError means a single HLS segment fetch failed. It is swallowed and
// the segment is retried on the next playlist poll.
type SegmentError struct {
	Ref string
	Err error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("segment %s: %v", e.Ref, e.Err)
}

func (e *SegmentError) Unwrap() error { return e.Err }

// StorageError means delivery to the persistence sink failed. The captured
// bytes are not retried by the capture subsystem.
type StorageError struct {
	Filename string
	Err      error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Filename, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
