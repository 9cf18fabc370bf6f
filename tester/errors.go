package tester

import (
	"errors"
	"fmt"

	"github.com/sarchlab/avrtester/mcu"
	"github.com/sarchlab/avrtester/timing"
)

var (
	// ErrTimedOut is wrapped by every TimeoutError.
	ErrTimedOut = errors.New("test timed-out")

	// ErrUnexpectedState is wrapped by every StateError.
	ErrUnexpectedState = errors.New("unexpected MCU state")
)

// TimeoutError is the panic value raised when the run exceeds its budget.
type TimeoutError struct {
	Budget timing.Duration
	Steps  uint64
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: budget of %s exhausted after %d steps",
		ErrTimedOut, e.Budget, e.Steps)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimedOut
}

// StateError is the panic value raised when the MCU ends up in a state the
// tester does not accept.
type StateError struct {
	State mcu.State
	Step  uint64
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s at step %d", ErrUnexpectedState, e.State, e.Step)
}

func (e *StateError) Unwrap() error {
	return ErrUnexpectedState
}

// Catch runs f and turns a TimeoutError or StateError panic into a returned
// error. Any other panic keeps propagating.
func Catch(f func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		if e, ok := r.(error); ok &&
			(errors.Is(e, ErrTimedOut) || errors.Is(e, ErrUnexpectedState)) {
			err = e
			return
		}

		panic(r)
	}()

	f()

	return nil
}
