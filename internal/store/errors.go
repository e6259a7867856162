package store

import (
	"errors"
	"fmt"
)

// ErrPermissionDenied is returned when a save is attempted without write
// authorization. The capability gate rejects the save before any network
// call is made.
var ErrPermissionDenied = errors.New("write access is not authorized")

// FetchError wraps a failed document read. The screen stays usable in a
// read-only degraded state; nothing remote has changed.
type FetchError struct {
	DocType string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.DocType, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// UploadError wraps a failed image upload. The save attempt is aborted and
// the remote document is left untouched.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload %s: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// WriteError wraps a failed create-or-replace call. The write is
// all-or-nothing, so a failure leaves the remote document exactly as it
// was before the attempt.
type WriteError struct {
	DocID string
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.DocID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
