package sync

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyRunning means another sync cycle holds the mirror lock.
	ErrAlreadyRunning = errors.New("sync already running")

	// ErrUnsafeRecordID means a catalog id is not a plain filename. Ids
	// become mirror paths verbatim, so a path-shaped id from the server
	// must never reach the filesystem.
	ErrUnsafeRecordID = errors.New("unsafe record id")
)

// IntegrityError reports a downloaded file whose bytes hash to a different
// digest than the catalog declared. Retryable up to a bound, then the
// record is skipped for the cycle.
type IntegrityError struct {
	ID   string
	Want string
	Got  string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("digest mismatch for %s: want %s, got %s", e.ID, e.Want, e.Got)
}

// RecordError ties a per-record failure to the record it hit.
type RecordError struct {
	ID  string
	Err error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("%s: %v", e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}
