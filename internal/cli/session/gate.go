package session

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotAuthenticated is the reason a guarded command is refused
	ErrNotAuthenticated = errors.New("not logged in")
	// ErrAlreadyAuthenticated is the reason a guest-only command is refused
	ErrAlreadyAuthenticated = errors.New("already logged in")
)

// Decision is the outcome of a gate check
type Decision int

const (
	// DecisionWait means the session is still resolving; show nothing
	DecisionWait Decision = iota
	// DecisionRedirect means go to the gate's Navigate target
	DecisionRedirect
	// DecisionRender means the guarded content may run
	DecisionRender
)

func (d Decision) String() string {
	switch d {
	case DecisionWait:
		return "wait"
	case DecisionRedirect:
		return "redirect"
	case DecisionRender:
		return "render"
	default:
		return fmt.Sprintf("Decision(%d)", int(d))
	}
}

// Gate guards content behind the session state. A normal gate admits only
// authenticated sessions; an inverted gate admits only anonymous ones.
type Gate struct {
	Navigate string
	Inverted bool
}

// Decide maps a session to a decision. Nothing is decided while loading.
func (g Gate) Decide(s Session) Decision {
	if s.Loading {
		return DecisionWait
	}

	shouldRedirect := s.User == nil
	if g.Inverted {
		shouldRedirect = s.User != nil
	}

	if shouldRedirect {
		return DecisionRedirect
	}
	return DecisionRender
}

// Enforce waits for the store to resolve and returns a *RedirectError when
// the gate refuses the session.
func (g Gate) Enforce(ctx context.Context, store *Store) error {
	s, err := store.Wait(ctx)
	if err != nil {
		return err
	}

	if g.Decide(s) != DecisionRedirect {
		return nil
	}

	reason := ErrNotAuthenticated
	if g.Inverted {
		reason = ErrAlreadyAuthenticated
	}
	return &RedirectError{Target: g.Navigate, Reason: reason}
}

// RedirectError reports that a gate sent the caller elsewhere
type RedirectError struct {
	Target string
	Reason error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("%v (redirect to %s)", e.Reason, e.Target)
}

func (e *RedirectError) Unwrap() error {
	return e.Reason
}
