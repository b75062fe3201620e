package user

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect email or password")
	ErrInactiveUser       = errors.New("inactive user")
	ErrNoChanges          = errors.New("no fields to update")
	ErrInvalidInput       = errors.New("invalid user input")
	ErrOperatorOnly       = errors.New("operation is reserved for operators")
)
