package batch

import "errors"

var (
	// ErrBatchInProgress is returned when the batch is already being processed.
	ErrBatchInProgress = errors.New("batch is already being processed")
	// ErrEmptyBatch is returned when there are no pending files to submit.
	ErrEmptyBatch = errors.New("batch has no pending files")
	// ErrItemNotFound is returned when removing an unknown item.
	ErrItemNotFound = errors.New("batch item not found")
	// ErrNoRanking marks files the backend returned no ranking for.
	ErrNoRanking = errors.New("no ranking returned for this file")
)
