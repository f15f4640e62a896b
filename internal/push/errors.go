package push

import (
	"errors"
	"fmt"
)

// Sentinel errors for gateway calls.
var (
	ErrRateLimited  = errors.New("push: rate limited by gateway")
	ErrBadRequest   = errors.New("push: bad request")
	ErrUnauthorized = errors.New("push: unauthorized")
	ErrServer       = errors.New("push: gateway server error")
	ErrTooLarge     = errors.New("push: batch exceeds gateway limit")
	ErrMismatch     = errors.New("push: ticket count does not match batch size")
)

// Error wraps a gateway failure with the batch it concerned.
type Error struct {
	Op   string
	Size int // messages in the batch
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("push %s [%d messages]: %v", e.Op, e.Size, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
