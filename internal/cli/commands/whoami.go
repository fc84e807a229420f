package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/cli/output"
	"github.com/art-vbst/art-admin/internal/cli/session"
)

// NewWhoamiCmd creates the whoami command
func NewWhoamiCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWhoami(commandContext(cmd), app)
		},
	}
}

func runWhoami(ctx context.Context, app *App) error {
	printer, err := app.Printer()
	if err != nil {
		return err
	}

	return app.Authenticated(ctx, func(c *client.Client, s session.Session) error {
		user := s.User
		if printer.Format != output.FormatTable {
			return printer.Print(user, nil)
		}

		pairs := [][2]string{
			{"Host", c.BaseURL()},
			{"ID", user.ID},
			{"Email", user.Email},
			{"Name", output.OrDash(user.Name)},
		}
		if user.TOTPEnabled {
			pairs = append(pairs, [2]string{"Two-factor", "enabled"})
		} else {
			pairs = append(pairs, [2]string{"Two-factor", "not enrolled"})
		}
		return output.Details(app.Out, pairs...)
	})
}
