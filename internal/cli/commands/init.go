package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/art-vbst/art-admin/internal/cli/config"
)

type initOptions struct {
	alias string
}

// NewInitCmd creates the init command
func NewInitCmd(app *App) *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init <api-url>",
		Short: "Add an admin API host to ./" + config.ConfigFileName,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(app, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.alias, "alias", "", "Name for the host (default: production for the first host)")

	return cmd
}

func runInit(app *App, rawURL string, opts *initOptions) error {
	candidate := config.Host{URL: rawURL, Alias: "new"}
	if err := candidate.Validate(); err != nil {
		return err
	}

	currentDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}

	configPath := filepath.Join(currentDir, config.ConfigFileName)

	cfg := config.DefaultConfig()
	isNewConfig := true

	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load existing config: %w", err)
		}
		isNewConfig = false
		fmt.Fprintf(app.Out, "Found existing %s\n", config.ConfigFileName)
	}

	host, added := cfg.AddHost(rawURL, opts.alias)
	if !added {
		fmt.Fprintf(app.Out, "Host %s already exists in %s (%s)\n", host.URL, config.ConfigFileName, host.Alias)
		return nil
	}

	if err := config.Save(configPath, cfg); err != nil {
		return err
	}

	if isNewConfig {
		fmt.Fprintf(app.Out, "✓ Created ./%s with host %s (%s)\n", config.ConfigFileName, host.URL, host.Alias)
	} else {
		fmt.Fprintf(app.Out, "✓ Added host %s (%s) to ./%s\n", host.URL, host.Alias, config.ConfigFileName)
	}

	fmt.Fprintln(app.Out, "\nNext steps:")
	fmt.Fprintln(app.Out, "  Run 'artadmin login' to authenticate")

	return nil
}
