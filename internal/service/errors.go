package service

import (
	"errors"
)

// ErrTaskNotFound is returned when a task ID is unknown.
var ErrTaskNotFound = errors.New("task not found")

// ErrShuttingDown is returned when work is submitted after Shutdown.
var ErrShuttingDown = errors.New("task service is shutting down")

// ValidationError reports invalid client input.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
