package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Every failure returned by the report engine matches exactly one
// of these through errors.Is.
var (
	ErrValidation = errors.New("validation error")
	ErrRender     = errors.New("render error")
	ErrStorage    = errors.New("storage error")
	ErrNotFound   = errors.New("report not found")
	ErrInvalidID  = errors.New("invalid report id format")
)

// ValidationError describes bad or missing input.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Reason
	}
	return e.Reason + ": " + strings.Join(e.Fields, ", ")
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RenderError carries the cause of a failed chart rendering. It is never
// returned by the report flow; it is downgraded to SalaryReport.ChartError.
type RenderError struct {
	Cause error
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return "render chart: unknown failure"
	}
	return "render chart: " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error { return e.Cause }

// Is matches ErrRender.
func (e *RenderError) Is(target error) bool {
	return target == ErrRender
}

// StorageError wraps a persistence backend failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is matches ErrStorage.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// StorageFailure wraps err as a StorageError unless it already carries one of
// the store error kinds.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStorage) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// NotFound returns an ErrNotFound for the given id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
