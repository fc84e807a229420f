// Package twofactor drives the credential and one-time code exchange that
// establishes a session when the backend requires a second factor.
package twofactor

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/cli/notify"
	"github.com/art-vbst/art-admin/internal/cli/session"
	"github.com/art-vbst/art-admin/internal/models"
)

// DefaultMaxAttempts is used when Flow.MaxAttempts is unset
const DefaultMaxAttempts = 3

var (
	// ErrSessionInvalid means the pending second-factor session was rejected
	ErrSessionInvalid = errors.New("two-factor session is no longer valid")
	// ErrInvalidCode means the code is not six digits
	ErrInvalidCode = errors.New("code must be 6 digits")
	// ErrTooManyAttempts stops the flow after MaxAttempts failures of one step
	ErrTooManyAttempts = errors.New("too many failed attempts")
)

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Step is a state of the flow
type Step int

const (
	StepLogin Step = iota
	StepSetup
	StepVerify
	StepDone
)

func (s Step) String() string {
	switch s {
	case StepLogin:
		return "login"
	case StepSetup:
		return "setup"
	case StepVerify:
		return "verify"
	case StepDone:
		return "done"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Classify maps a login result to the next step
func Classify(r *client.LoginResult) Step {
	switch {
	case r == nil:
		return StepLogin
	case r.QRCode != "":
		return StepSetup
	case r.TwoFactorRequired || r.User == nil:
		return StepVerify
	default:
		return StepDone
	}
}

// ValidateCode checks a one-time code before it is submitted
func ValidateCode(code string) error {
	if !codePattern.MatchString(code) {
		return ErrInvalidCode
	}
	return nil
}

// API is the subset of the client the flow talks to
type API interface {
	Login(ctx context.Context, email, password string) (*client.LoginResult, error)
	VerifyTOTP(ctx context.Context, code string) (*models.User, error)
}

// Credentials are what the login step submits
type Credentials struct {
	Email    string
	Password string
}

// Prompter collects input for each step
type Prompter interface {
	Credentials(ctx context.Context) (Credentials, error)
	// ReadyToVerify shows the enrollment QR image saved at qrPath and returns
	// once the user is ready to enter a code
	ReadyToVerify(ctx context.Context, qrPath string) error
	Code(ctx context.Context) (string, error)
}

// Flow runs Login -> (Done | Setup -> Verify | Verify). Every step is bounded
// by MaxAttempts so a non-interactive caller cannot loop forever.
type Flow struct {
	API         API
	Store       *session.Store
	Prompter    Prompter
	Notifier    notify.Notifier
	Pending     *PendingStore
	MaxAttempts int
	// QRDir is where enrollment images are written, os.TempDir() if empty
	QRDir  string
	Logger zerolog.Logger
}

// Run starts at the login step
func (f *Flow) Run(ctx context.Context) (*models.User, error) {
	return f.run(ctx, StepLogin)
}

// Resume starts at the step route selects. A route carrying a QR code seeds
// the pending store with it.
func (f *Flow) Resume(ctx context.Context, route string) (*models.User, error) {
	step, pending, err := ParseRoute(route)
	if err != nil {
		return nil, err
	}
	if step == StepDone {
		step = StepLogin
	}
	if pending.QRCode != "" {
		f.pending().Put(pending.QRCode)
	}
	return f.run(ctx, step)
}

func (f *Flow) run(ctx context.Context, step Step) (*models.User, error) {
	maxAttempts := f.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	var qrPath string
	defer func() {
		if qrPath != "" {
			os.Remove(qrPath)
		}
	}()

	loginAttempts, verifyAttempts := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f.Logger.Debug().Str("step", step.String()).Msg("Two-factor step")

		switch step {
		case StepLogin:
			if loginAttempts >= maxAttempts {
				return nil, fmt.Errorf("login: %w", ErrTooManyAttempts)
			}
			loginAttempts++
			verifyAttempts = 0
			f.pending().Clear()

			next, user, err := f.login(ctx)
			if err != nil {
				return nil, err
			}
			if next == StepDone {
				f.Store.SetUser(user)
				return user, nil
			}
			step = next

		case StepSetup:
			p, ok := f.pending().Peek()
			if !ok || p.QRCode == "" {
				step = StepLogin
				continue
			}

			if qrPath == "" {
				path, err := f.writeQR(p.QRCode)
				if err != nil {
					return nil, err
				}
				qrPath = path
			}

			if err := f.Prompter.ReadyToVerify(ctx, qrPath); err != nil {
				return nil, err
			}
			step = StepVerify

		case StepVerify:
			if verifyAttempts >= maxAttempts {
				return nil, fmt.Errorf("verify: %w", ErrTooManyAttempts)
			}
			verifyAttempts++

			code, err := f.Prompter.Code(ctx)
			if err != nil {
				return nil, fmt.Errorf("failed to read code: %w", err)
			}

			user, err := f.verify(ctx, code)
			switch {
			case err == nil:
				if p, ok := f.pending().Take(); ok && p.QRCode != "" {
					f.Logger.Debug().Str("email", user.Email).Msg("Authenticator enrolled")
				}
				f.Store.SetUser(user)
				return user, nil
			case errors.Is(err, ErrSessionInvalid):
				f.pending().Clear()
				step = StepLogin
			case errors.Is(err, ErrInvalidCode):
				notify.Error(f.notifier(), "Code must be 6 digits")
			case ctx.Err() != nil:
				return nil, ctx.Err()
			default:
				f.Logger.Debug().Err(err).Msg("Verification failed")
				notify.Error(f.notifier(), "Failed to verify")
			}

		default:
			return nil, fmt.Errorf("unexpected step %s", step)
		}
	}
}

// login submits credentials. A failed submission stays on the login step.
func (f *Flow) login(ctx context.Context) (Step, *models.User, error) {
	creds, err := f.Prompter.Credentials(ctx)
	if err != nil {
		return StepLogin, nil, err
	}

	result, err := f.API.Login(ctx, strings.TrimSpace(creds.Email), creds.Password)
	if err != nil {
		if ctx.Err() != nil {
			return StepLogin, nil, ctx.Err()
		}
		f.Logger.Debug().Err(err).Msg("Login failed")
		notify.Error(f.notifier(), "Failed to login")
		return StepLogin, nil, nil
	}

	next := Classify(result)
	if next == StepSetup {
		f.pending().Put(result.QRCode)
	}
	return next, result.User, nil
}

func (f *Flow) verify(ctx context.Context, code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if err := ValidateCode(code); err != nil {
		return nil, err
	}

	user, err := f.API.VerifyTOTP(ctx, code)
	if err != nil {
		if client.IsUnauthorized(err) {
			return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
		}
		return nil, err
	}
	return user, nil
}

// writeQR saves base64 PNG enrollment material to a private temp file
func (f *Flow) writeQR(encoded string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode QR code: %w", err)
	}

	file, err := os.CreateTemp(f.QRDir, "artadmin-2fa-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create QR code file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(data); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("failed to write QR code file: %w", err)
	}

	return file.Name(), nil
}

func (f *Flow) pending() *PendingStore {
	if f.Pending == nil {
		f.Pending = NewPendingStore(0)
	}
	return f.Pending
}

func (f *Flow) notifier() notify.Notifier {
	if f.Notifier == nil {
		return notify.Nop{}
	}
	return f.Notifier
}
