// internal/relay/errors.go
package relay

import "fmt"

// SubmissionError reports a bundle the relay rejected or errored on. The
// submitter never retries; retry policy belongs to the caller.
type SubmissionError struct {
	Code    int
	Message string
}

func (e *SubmissionError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("relay rejected bundle: [%d] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("relay rejected bundle: %s", e.Message)
}

// CriticalBundleError reports that the retry budget for the first bundle of
// a launch sequence was exhausted. Later bundles reference state the first
// bundle was supposed to create, so the caller must abort the operation and
// send nothing further.
type CriticalBundleError struct {
	Attempts          int
	ConsecutiveErrors int
	LastErr           error
}

func (e *CriticalBundleError) Error() string {
	return fmt.Sprintf("critical bundle failed after %d attempts (%d consecutive errors): %v",
		e.Attempts, e.ConsecutiveErrors, e.LastErr)
}

func (e *CriticalBundleError) Unwrap() error {
	return e.LastErr
}
