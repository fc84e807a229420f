package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/art-vbst/art-admin/internal/cli/session"
	"github.com/art-vbst/art-admin/internal/cli/twofactor"
	"github.com/art-vbst/art-admin/internal/cli/userconfig"
	"github.com/art-vbst/art-admin/internal/models"
)

type loginOptions struct {
	email    string
	password string
	code     string
	force    bool
}

// NewLoginCmd creates the login command
func NewLoginCmd(app *App) *cobra.Command {
	opts := &loginOptions{}

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the admin API",
		Long: `Sign in to the admin API.

Credentials are prompted for unless given by flag or environment. When the
account has two-factor authentication enabled you will be asked for a code
from your authenticator app; on first use a QR code is saved for enrollment.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(commandContext(cmd), app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "Email address (or set ART_EMAIL)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Password (or set ART_PASSWORD, will prompt if not provided)")
	cmd.Flags().StringVar(&opts.code, "code", "", "Authenticator code (or set ART_TOTP)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Sign in again even when a session is active")

	return cmd
}

func runLogin(ctx context.Context, app *App, opts *loginOptions) error {
	host, err := app.ResolveHost()
	if err != nil {
		return err
	}

	c, err := app.Client()
	if err != nil {
		return err
	}

	store, err := app.Session(ctx)
	if err != nil {
		return err
	}

	if !opts.force {
		gate := session.Gate{Navigate: homeRoute, Inverted: true}
		if err := gate.Enforce(ctx, store); err != nil {
			if errors.Is(err, session.ErrAlreadyAuthenticated) {
				fmt.Fprintf(app.Out, "Already logged in as %s\n", describeUser(store.Get().User))
				return nil
			}
			return err
		}
	}

	fmt.Fprintf(app.Out, "Logging in to %s (%s)...\n", host.Alias, host.URL)

	flow := &twofactor.Flow{
		API:      c,
		Store:    store,
		Prompter: app.loginPrompter(opts),
		Notifier: app.notifier(),
		Logger:   app.Logger,
	}

	defer app.PersistSession()

	user, err := flow.Run(ctx)
	if err != nil {
		if errors.Is(err, twofactor.ErrNonInteractive) && opts.code == "" {
			return fmt.Errorf("login failed: %w\nRun 'artadmin verify --code <code>' to finish signing in", err)
		}
		return fmt.Errorf("login failed: %w", err)
	}

	reportLogin(app, user)
	return nil
}

// loginPrompter presets the prompter from flags, then the environment
func (a *App) loginPrompter(opts *loginOptions) twofactor.Prompter {
	if a.Prompter != nil {
		return a.Prompter
	}

	p := &twofactor.TerminalPrompter{
		Email:    firstNonEmpty(opts.email, os.Getenv("ART_EMAIL")),
		Password: firstNonEmpty(opts.password, os.Getenv("ART_PASSWORD")),
		TOTP:     firstNonEmpty(opts.code, os.Getenv("ART_TOTP")),
		Out:      a.Out,
	}
	if cfg, err := userconfig.Load(); err == nil {
		p.DefaultEmail = cfg.LastEmail
	}
	return p
}

func reportLogin(app *App, user *models.User) {
	fmt.Fprintln(app.Out, "✓ Login successful!")
	if user == nil {
		return
	}
	fmt.Fprintf(app.Out, "  User: %s\n", describeUser(user))

	if err := userconfig.SetLastEmail(user.Email); err != nil {
		app.Logger.Debug().Err(err).Msg("Failed to remember email")
	}
}

func describeUser(user *models.User) string {
	if user == nil {
		return "unknown user"
	}
	if user.Name == "" {
		return user.Email
	}
	return fmt.Sprintf("%s (%s)", user.Name, user.Email)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
