package recommendation

import "errors"

var (
	ErrUpstream     = errors.New("recommendation service unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrEmptyMenu    = errors.New("restaurant has no available menu items")
	ErrInvalidReply = errors.New("recommendation service returned an invalid reply")
	ErrInvalidInput = errors.New("invalid recommendation input")
)
