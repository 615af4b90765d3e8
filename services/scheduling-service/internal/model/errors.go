package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotAuthorized      = errors.New("professional is not authorized for this service")
	ErrSlotUnavailable    = errors.New("requested slot is not available")
	ErrConcurrentConflict = errors.New("slot no longer available")
	ErrInvalidTransition  = errors.New("invalid state transition")
	ErrNotFound           = errors.New("not found")

	// ErrAlreadyRated is an ErrInvalidTransition.
	ErrAlreadyRated = fmt.Errorf("%w: appointment already rated", ErrInvalidTransition)
)

// Invalid returns an ErrValidation carrying the formatted detail.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
