package domain

import (
	"errors"
	"fmt"
)

// Error codes surfaced to API callers.
const (
	CodeNotTrained          = "NOT_TRAINED"
	CodeCorruptArtifact     = "CORRUPT_ARTIFACT"
	CodeInsufficientInput   = "INSUFFICIENT_INPUT"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeStorageError        = "STORAGE_ERROR"
	CodeInternalServerError = "INTERNAL_SERVER_ERROR"
)

// ErrNotTrained is returned when predict or explain is called before any
// successful train or load. It is always surfaced to the caller; the
// classifier never retrains silently mid-request.
var ErrNotTrained = errors.New("classifier not trained")

// CorruptArtifactError signals that a persisted classifier artifact could
// not be restored: malformed payload, unreadable file, or a schema version
// this build does not understand. Callers recover by retraining.
type CorruptArtifactError struct {
	Path   string
	Reason string
	Err    error
}

func (e *CorruptArtifactError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt classifier artifact %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("corrupt classifier artifact %q: %s", e.Path, e.Reason)
}

func (e *CorruptArtifactError) Unwrap() error { return e.Err }

// InsufficientInputError signals that neither rule-based extraction nor
// classification produced a usable diagnosis. It is a structured
// "need more information" response, not a processing failure.
type InsufficientInputError struct {
	Symptoms []string
}

func (e *InsufficientInputError) Error() string {
	return "insufficient information to form a diagnosis"
}

// IsCorruptArtifact reports whether err is (or wraps) a CorruptArtifactError.
func IsCorruptArtifact(err error) bool {
	var ce *CorruptArtifactError
	return errors.As(err, &ce)
}

// IsInsufficientInput reports whether err is (or wraps) an
// InsufficientInputError.
func IsInsufficientInput(err error) bool {
	var ie *InsufficientInputError
	return errors.As(err, &ie)
}
