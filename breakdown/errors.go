package breakdown

import (
	"errors"
	"fmt"
)

// Error taxonomy for the workflow boundary. Only these kinds are
// workflow-fatal; generative-service and schema failures degrade individual
// scenes instead of surfacing here.

// ValidationError indicates malformed caller input: script too short, an
// unknown section name, an unsupported file type. No state is created or
// mutated when one is returned.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

// NewValidationError creates a ValidationError with the given message.
func NewValidationError(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidationError returns true if err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFoundError indicates an unknown thread identifier.
type NotFoundError struct {
	ThreadID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("workflow not found: %s", e.ThreadID)
}

// NewNotFoundError creates a NotFoundError for the given thread.
func NewNotFoundError(threadID string) error {
	return &NotFoundError{ThreadID: threadID}
}

// IsNotFound returns true if err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// StructureError indicates extraction found no recognizable scene headings.
// It is fatal to Start: no partial workflow is persisted.
type StructureError struct {
	msg string
}

func (e *StructureError) Error() string {
	return e.msg
}

// NewStructureError creates a StructureError with the given message.
func NewStructureError(msg string) error {
	return &StructureError{msg: msg}
}

// IsStructureError returns true if err is (or wraps) a StructureError.
func IsStructureError(err error) bool {
	var se *StructureError
	return errors.As(err, &se)
}
