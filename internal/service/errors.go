package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuery    = errors.New("query is required")
	ErrQueryTooLong  = errors.New("query exceeds maximum length")
	ErrQueryNotFound = errors.New("query not found")
	ErrQueryActive   = errors.New("query pipeline already running")
	ErrNotCompleted  = errors.New("query has not completed")
)

// StageError wraps a failure from one pipeline stage. Recoverable failures
// let the orchestrator retry the stage; others fail the query.
type StageError struct {
	Stage       string
	Err         error
	Recoverable bool
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func recoverableErr(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err, Recoverable: true}
}

func fatalErr(stage string, err error) *StageError {
	return &StageError{Stage: stage, Err: err}
}
