package models

import "errors"

// Error kinds raised by the insight core. Raise sites wrap these with
// context so callers can test with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid state")
	ErrAlreadyGrouped  = errors.New("insight already grouped")
	ErrNotFound        = errors.New("not found")
)
