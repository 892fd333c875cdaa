package approval

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")
	ErrAlreadyDecided = errors.New("request already decided")
)

// Rejection returns the sentinel behind a business rejection, or nil when the
// outcome is a completed decision or an infrastructure failure.
func (o Outcome) Rejection() error {
	switch o {
	case OutcomeUnauthorized:
		return ErrUnauthorized
	case OutcomeAlreadyDecided:
		return ErrAlreadyDecided
	case OutcomeInvalid:
		return ErrValidation
	default:
		return nil
	}
}

// GatewayError is a failed call to the Telegram API.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// StoreError is a failed subscription store mutation.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
