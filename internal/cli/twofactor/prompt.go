package twofactor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// ErrNonInteractive is returned when input is needed but stdin is not a terminal
var ErrNonInteractive = errors.New("input required in non-interactive mode")

// TerminalPrompter asks for input on the terminal. Preset values are used
// once before falling back to prompting, which lets flags and environment
// variables drive the flow in scripts.
type TerminalPrompter struct {
	Email    string
	Password string
	TOTP     string
	// DefaultEmail pre-fills the email prompt
	DefaultEmail string

	Out io.Writer
	// Interactive reports whether the user can be prompted; defaults to
	// checking stdin
	Interactive func() bool
}

func (p *TerminalPrompter) Credentials(ctx context.Context) (Credentials, error) {
	email, password := p.Email, p.Password
	p.Email, p.Password = "", ""

	if email == "" {
		if !p.interactive() {
			return Credentials{}, fmt.Errorf("email is required: %w", ErrNonInteractive)
		}
		prompt := promptui.Prompt{
			Label:   "Email",
			Default: p.DefaultEmail,
			Validate: func(s string) error {
				if !strings.Contains(s, "@") {
					return errors.New("enter a valid email address")
				}
				return nil
			},
		}
		value, err := prompt.Run()
		if err != nil {
			return Credentials{}, fmt.Errorf("login cancelled: %w", err)
		}
		email = value
	}

	if password == "" {
		if !p.interactive() {
			return Credentials{}, fmt.Errorf("password is required: %w", ErrNonInteractive)
		}
		fmt.Fprint(p.out(), "Password: ")
		bytePassword, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(p.out())
		if err != nil {
			return Credentials{}, fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
	}

	return Credentials{Email: email, Password: password}, nil
}

func (p *TerminalPrompter) ReadyToVerify(ctx context.Context, qrPath string) error {
	out := p.out()
	fmt.Fprintln(out, "Setup Two-Factor Authentication")
	fmt.Fprintln(out, "Scan the QR code with your authenticator app to add your account:")
	fmt.Fprintf(out, "  %s\n", qrPath)

	if !p.interactive() {
		return nil
	}

	prompt := promptui.Prompt{
		Label:     "Ready to verify",
		IsConfirm: true,
		Default:   "y",
	}
	if _, err := prompt.Run(); err != nil {
		return fmt.Errorf("setup cancelled: %w", err)
	}
	return nil
}

func (p *TerminalPrompter) Code(ctx context.Context) (string, error) {
	if code := p.TOTP; code != "" {
		p.TOTP = ""
		return code, nil
	}

	if !p.interactive() {
		return "", fmt.Errorf("code is required: %w", ErrNonInteractive)
	}

	prompt := promptui.Prompt{
		Label:    "Authenticator app code",
		Validate: ValidateCode,
	}
	code, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("verification cancelled: %w", err)
	}
	return code, nil
}

func (p *TerminalPrompter) interactive() bool {
	if p.Interactive != nil {
		return p.Interactive()
	}
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func (p *TerminalPrompter) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}
