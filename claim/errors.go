package claim

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by id-keyed operations when no claim matches.
	ErrNotFound = errors.New("claim: not found")
	// ErrDocumentRequired signals the submission exceeded the document
	// thresholds without attaching a supporting document.
	ErrDocumentRequired = errors.New("claim: supporting document required")
)

// FieldError reports a structural validation failure on a single draft field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("claim: %s: %s", e.Field, e.Message)
}

func fieldErr(field, message string) *FieldError {
	return &FieldError{Field: field, Message: message}
}
