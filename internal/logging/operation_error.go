package logging

import (
	"fmt"
	"strings"
)

// Dispatch identifies one inference attempt. Generation is zero outside the screen.
type Dispatch struct {
	RequestID  string
	Generation uint64
}

func (d Dispatch) String() string {
	var parts []string
	if d.RequestID != "" {
		parts = append(parts, "request_id="+d.RequestID)
	}
	if d.Generation != 0 {
		parts = append(parts, fmt.Sprintf("generation=%d", d.Generation))
	}
	return strings.Join(parts, " ")
}

// OperationError records which step of a dispatch failed.
type OperationError struct {
	Operation string
	Dispatch  Dispatch
	Err       error
}

func (e *OperationError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	if tag := e.Dispatch.String(); tag != "" {
		return fmt.Sprintf("%s (%s): %v", e.Operation, tag, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Operation, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *OperationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewOperationError wraps err; a nil err stays nil so callers can wrap unconditionally.
func NewOperationError(operation string, d Dispatch, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Operation: operation, Dispatch: d, Err: err}
}
