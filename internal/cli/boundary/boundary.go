// Package boundary isolates command failures so one broken screen reports a
// fallback message instead of taking the process down with a stack trace.
package boundary

import (
	"errors"
	"fmt"
	"io"
	"runtime/debug"

	"github.com/rs/zerolog"
)

// FallbackMessage is shown when a command panics
const FallbackMessage = "Something went wrong"

// PanicError is returned by Run when fn panicked
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("%s: %v", FallbackMessage, e.Value)
}

// Boundary runs functions and recovers their panics
type Boundary struct {
	// Out receives the fallback message
	Out io.Writer
	// Debug also prints the panic value and stack
	Debug  bool
	Logger zerolog.Logger
}

// Run calls fn. A panic is logged, the fallback is printed and a
// *PanicError is returned. Ordinary errors pass through untouched.
func (b *Boundary) Run(fn func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		perr := &PanicError{Value: r, Stack: debug.Stack()}
		b.Logger.Error().
			Interface("panic", r).
			Bytes("stack", perr.Stack).
			Msg("Recovered from panic")

		if b.Out != nil {
			fmt.Fprintln(b.Out, FallbackMessage)
			fmt.Fprintln(b.Out, "An unexpected error occurred. Please try again. If the problem persists, contact support.")
			if b.Debug {
				fmt.Fprintf(b.Out, "\n%v\n%s", r, perr.Stack)
			}
		}
		err = perr
	}()

	return fn()
}

// IsPanic reports whether err came from a recovered panic
func IsPanic(err error) bool {
	var perr *PanicError
	return errors.As(err, &perr)
}
