package user

import "errors"

var (
	// ErrUserNotFound indicates the user doesn't exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists indicates the user ID is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidInput indicates invalid user input.
	ErrInvalidInput = errors.New("invalid user input")
)
