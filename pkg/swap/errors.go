package swap

import (
	"errors"
	"fmt"
)

// SwapError marks a failed swap attempt. The scheduler applies the longer
// swap retry delay and the attempt ceiling only to this error class.
type SwapError struct {
	OrderID uint64
	Err     error
}

func (e *SwapError) Error() string {
	return fmt.Sprintf("swap failed for AGI %d: %v", e.OrderID, e.Err)
}

func (e *SwapError) Unwrap() error {
	return e.Err
}

// IsSwapError reports whether err wraps a SwapError.
func IsSwapError(err error) bool {
	var swapErr *SwapError
	return errors.As(err, &swapErr)
}
