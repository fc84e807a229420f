package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/art-vbst/art-admin/internal/cli/config"
	"github.com/art-vbst/art-admin/internal/cli/serverselect"
	"github.com/art-vbst/art-admin/internal/cli/userconfig"
)

// NewSelectHostCmd creates the select-host command
func NewSelectHostCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select-host [url-or-alias]",
		Short: "Select the API host to use for commands",
		Long: `Select the API host to use for commands.

If no param is provided, an interactive prompt will be shown.

Examples:
  $ artadmin select-host                          # Interactive selection
  $ artadmin select-host https://api.example.com  # Select by URL
  $ artadmin select-host production               # Select by alias`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var urlOrAlias string
			if len(args) > 0 {
				urlOrAlias = args[0]
			}
			return runSelectHost(app, urlOrAlias)
		},
	}

	return cmd
}

func runSelectHost(app *App, urlOrAlias string) error {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return fmt.Errorf("failed to load config: %w\nRun 'artadmin init <url>' to create a configuration file", err)
	}

	var host *config.Host
	if urlOrAlias != "" {
		host, err = cfg.GetHostByURLOrAlias(urlOrAlias)
	} else {
		selectFn := serverselect.PromptHostSelection
		if app.Resolver != nil && app.Resolver.Select != nil {
			selectFn = app.Resolver.Select
		}
		host, err = selectFn(cfg)
	}
	if err != nil {
		return err
	}

	if err := userconfig.SetSelectedHost(host.URL); err != nil {
		return fmt.Errorf("failed to save selected host: %w", err)
	}

	fmt.Fprintf(app.Out, "Selected host: %s (%s)\n", host.Alias, host.URL)
	return nil
}
