package commands

import (
	"context"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/art-vbst/art-admin/internal/cli/session"
	"github.com/art-vbst/art-admin/internal/cli/twofactor"
)

type verifyOptions struct {
	code   string
	qrCode string
}

// NewVerifyCmd creates the verify command
func NewVerifyCmd(app *App) *cobra.Command {
	opts := &verifyOptions{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Finish a sign-in that is waiting for a two-factor code",
		Long: `Finish a sign-in that is waiting for a two-factor code.

Use this after 'artadmin login' stopped at the code prompt, for example when
running without a terminal. The pending sign-in expires after a few minutes;
run 'artadmin login' again if it has.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(commandContext(cmd), app, opts)
		},
	}

	cmd.Flags().StringVar(&opts.code, "code", "", "Authenticator code (or set ART_TOTP)")
	cmd.Flags().StringVar(&opts.qrCode, "qr-code", "", "Base64 enrollment QR code to show before asking for the code")

	return cmd
}

func runVerify(ctx context.Context, app *App, opts *verifyOptions) error {
	c, err := app.Client()
	if err != nil {
		return err
	}

	// A pending sign-in has no identity yet; skip the bootstrap round trip.
	if app.store == nil {
		app.store = session.NewResolvedStore(nil)
	}

	route := twofactor.RouteFor(twofactor.StepVerify)
	if opts.qrCode != "" {
		route += "?qrCode=" + url.QueryEscape(opts.qrCode)
	}

	prompter := app.Prompter
	if prompter == nil {
		prompter = &twofactor.TerminalPrompter{
			TOTP: firstNonEmpty(opts.code, os.Getenv("ART_TOTP")),
			Out:  app.Out,
		}
	}

	flow := &twofactor.Flow{
		API:      c,
		Store:    app.store,
		Prompter: prompter,
		Notifier: app.notifier(),
		Logger:   app.Logger,
	}

	defer app.PersistSession()

	user, err := flow.Resume(ctx, route)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}

	reportLogin(app, user)
	return nil
}
