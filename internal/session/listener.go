package session

import (
	"time"

	"github.com/google/uuid"
)

// Save outcomes reported to listeners.
const (
	OutcomeSaved            = "saved"
	OutcomePermissionDenied = "permission_denied"
	OutcomeInvalid          = "invalid"
	OutcomeUploadFailed     = "upload_failed"
	OutcomeWriteFailed      = "write_failed"
)

// SaveResult describes one completed save attempt, successful or not.
type SaveResult struct {
	// AttemptID uniquely identifies the attempt across listeners.
	AttemptID uuid.UUID

	// DocID and DocType identify the target document.
	DocID   string
	DocType string

	// Outcome is one of the Outcome constants.
	Outcome string

	// Err holds the failure when Outcome is not OutcomeSaved.
	Err error

	// UploadedCount is the number of images uploaded during the attempt.
	UploadedCount int

	// Timestamp is when the attempt finished.
	Timestamp time.Time
}

// Failed reports whether the attempt ended in any failure outcome.
func (r SaveResult) Failed() bool {
	return r.Outcome != OutcomeSaved
}

// Listener observes completed save attempts. Listeners run synchronously on
// the saving goroutine and must not block.
type Listener interface {
	SaveCompleted(result SaveResult)
}
