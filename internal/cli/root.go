package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/art-vbst/art-admin/internal/cli/boundary"
	"github.com/art-vbst/art-admin/internal/cli/commands"
	"github.com/art-vbst/art-admin/internal/config"
	"github.com/art-vbst/art-admin/internal/logger"
)

var version = "dev" // Will be set during build

// NewRootCmd builds the command tree around app
func NewRootCmd(app *commands.App) *cobra.Command {
	var debug bool

	rootCmd := &cobra.Command{
		Use:   "artadmin",
		Short: "artadmin - Art commerce admin",
		Long: `artadmin CLI - Manage the artwork catalogue and fulfil orders.

Sign in once with 'artadmin login'; the session is kept in your OS keyring
and renewed automatically while it stays valid.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.HostAlias, "host", "", "API host alias or URL from artadmin.json")
	rootCmd.PersistentFlags().StringVarP(&app.OutputFormat, "output", "o", "table", "Output format: table, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Log requests and session handling")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(app.Out, "artadmin version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd(app))
	rootCmd.AddCommand(commands.NewSelectHostCmd(app))
	rootCmd.AddCommand(commands.NewLoginCmd(app))
	rootCmd.AddCommand(commands.NewVerifyCmd(app))
	rootCmd.AddCommand(commands.NewLogoutCmd(app))
	rootCmd.AddCommand(commands.NewWhoamiCmd(app))
	rootCmd.AddCommand(commands.NewDashCmd(app))
	rootCmd.AddCommand(commands.NewArtworksCmd(app))
	rootCmd.AddCommand(commands.NewImagesCmd(app))
	rootCmd.AddCommand(commands.NewOrdersCmd(app))

	return rootCmd
}

// Execute runs the root command
func Execute() error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)

	app := commands.NewApp(cfg.API.Host, logger.GetLogger())
	rootCmd := NewRootCmd(app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	b := &boundary.Boundary{Out: os.Stderr, Debug: isDebug(os.Args), Logger: app.Logger}
	err = b.Run(func() error {
		return rootCmd.ExecuteContext(ctx)
	})
	if err != nil {
		if !boundary.IsPanic(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return err
	}
	return nil
}

func isDebug(args []string) bool {
	for _, a := range args {
		if a == "--debug" {
			return true
		}
	}
	return false
}
