package instance

import (
	"errors"
	"fmt"
)

var (
	// ErrInstanceNotFound indicates the instance doesn't exist.
	ErrInstanceNotFound = errors.New("obligation instance not found")
	// ErrNotOwner indicates the caller tried to toggle another user's instance.
	ErrNotOwner = errors.New("obligation instance belongs to another user")
	// ErrInvalidInput indicates invalid ledger input.
	ErrInvalidInput = errors.New("invalid obligation instance input")
)

// TemplateError ties a generation failure to the template that caused it.
type TemplateError struct {
	TemplateID string
	Err        error
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("template %s: %v", e.TemplateID, e.Err)
}

func (e *TemplateError) Unwrap() error {
	return e.Err
}
