package obligation

import "errors"

var (
	// ErrTemplateNotFound indicates the obligation template doesn't exist.
	ErrTemplateNotFound = errors.New("obligation template not found")
	// ErrNotOwner indicates the caller does not own the template.
	ErrNotOwner = errors.New("obligation template belongs to another user")
	// ErrInvalidRecurrence indicates a recurrence rule that cannot be expanded.
	ErrInvalidRecurrence = errors.New("invalid recurrence")
	// ErrInvalidInput indicates invalid template input.
	ErrInvalidInput = errors.New("invalid obligation template input")
)
