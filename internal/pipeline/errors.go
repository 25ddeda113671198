package pipeline

import (
	"errors"
	"fmt"
)

// UserMessage is the single notice shown when extraction or analysis fails.
const UserMessage = "Failed to analyze resume. Please try again."

var (
	// ErrAnalysisInProgress is returned when Run is called while another run is in flight.
	ErrAnalysisInProgress = errors.New("an analysis is already in progress")
	// ErrAnalysisFailed matches any *Error with errors.Is.
	ErrAnalysisFailed = errors.New("analysis failed")
)

// Error reports a failed non-degradable stage.
type Error struct {
	Stage string
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s stage failed: %v", e.Stage, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches ErrAnalysisFailed.
func (e *Error) Is(target error) bool {
	return target == ErrAnalysisFailed
}

// UserMessage is the notice to display; the stage and cause are for logs.
func (e *Error) UserMessage() string {
	return UserMessage
}
