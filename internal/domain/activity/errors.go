package activity

import "errors"

// ErrInvalidInput indicates a malformed activity entry or query.
var ErrInvalidInput = errors.New("invalid activity input")
