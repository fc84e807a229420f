package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/art-vbst/art-admin/internal/cli/notify"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(commandContext(cmd), app)
		},
	}
}

// runLogout always ends signed out locally, even when the server call fails
func runLogout(ctx context.Context, app *App) error {
	c, err := app.Client()
	if err != nil {
		return err
	}

	defer app.ClearSession()

	if err := c.Logout(ctx); err != nil {
		app.Logger.Debug().Err(err).Msg("Logout request failed")
		notify.Error(app.notifier(), "Failed to logout")
	}

	if app.store != nil {
		app.store.SetUser(nil)
	}

	fmt.Fprintln(app.Out, "✓ Logged out")
	return nil
}
