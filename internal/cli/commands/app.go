package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/art-vbst/art-admin/internal/cli/auth"
	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/cli/config"
	"github.com/art-vbst/art-admin/internal/cli/notify"
	"github.com/art-vbst/art-admin/internal/cli/output"
	"github.com/art-vbst/art-admin/internal/cli/serverselect"
	"github.com/art-vbst/art-admin/internal/cli/session"
	"github.com/art-vbst/art-admin/internal/cli/twofactor"
)

const (
	loginRoute = "/login"
	homeRoute  = "/"
)

// App carries what every command needs: the resolved API host, one API
// client, the session store and the output streams. Everything is created
// lazily so commands that never talk to the API (init, version) stay cheap.
type App struct {
	Out    io.Writer
	Err    io.Writer
	Logger zerolog.Logger

	Cookies    auth.CookieStore
	Notifier   notify.Notifier
	Resolver   *serverselect.Resolver
	HTTPClient *http.Client
	// Prompter overrides the terminal prompter built by login
	Prompter twofactor.Prompter
	// Confirm overrides the yes/no prompt used before destructive actions
	Confirm func(label string) (bool, error)

	// HostAlias and OutputFormat are bound to the persistent flags
	HostAlias    string
	OutputFormat string

	// Host short-circuits host resolution
	Host *config.Host

	client *client.Client
	store  *session.Store
	// forget makes PersistSession delete the stored session instead
	forget bool
}

// NewApp creates an App writing to stdout/stderr and persisting sessions in
// the OS keyring
func NewApp(envHost string, logger zerolog.Logger) *App {
	return &App{
		Out:      os.Stdout,
		Err:      os.Stderr,
		Logger:   logger,
		Cookies:  auth.Default,
		Notifier: notify.NewWriter(os.Stdout),
		Resolver: &serverselect.Resolver{EnvHost: envHost, Warn: os.Stderr},
	}
}

// ResolveHost picks the API host for this invocation
func (a *App) ResolveHost() (*config.Host, error) {
	if a.Host != nil {
		return a.Host, nil
	}

	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		// a project file is optional when ART_API_HOST is set
		cfg = nil
	}

	resolver := a.Resolver
	if resolver == nil {
		resolver = &serverselect.Resolver{}
	}

	host, err := resolver.Resolve(cfg, a.HostAlias)
	if err != nil {
		return nil, err
	}
	if err := host.Validate(); err != nil {
		return nil, err
	}

	a.Host = host
	return host, nil
}

// Client returns the API client with any stored session cookies loaded
func (a *App) Client() (*client.Client, error) {
	if a.client != nil {
		return a.client, nil
	}

	host, err := a.ResolveHost()
	if err != nil {
		return nil, err
	}

	opts := []client.Option{client.WithLogger(a.Logger)}
	if a.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(a.HTTPClient))
	}

	c, err := client.New(host.URL, opts...)
	if err != nil {
		return nil, err
	}

	cookies, err := a.Cookies.LoadCookies(host.URL)
	switch {
	case err == nil:
		c.RestoreCookies(cookies)
	case errors.Is(err, auth.ErrNotAuthenticated):
	default:
		a.Logger.Warn().Err(err).Msg("Failed to load stored session")
	}

	a.client = c
	return c, nil
}

// Session bootstraps the session once per invocation
func (a *App) Session(ctx context.Context) (*session.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	c, err := a.Client()
	if err != nil {
		return nil, err
	}

	store := session.NewStore()
	session.NewBootstrapper(c, a.Logger).Run(ctx, store)
	a.store = store
	return store, nil
}

// Authenticated runs fn behind the login gate. Session cookies the server
// rotated while fn ran are persisted afterwards.
func (a *App) Authenticated(ctx context.Context, fn func(c *client.Client, s session.Session) error) error {
	store, err := a.Session(ctx)
	if err != nil {
		return err
	}

	gate := session.Gate{Navigate: loginRoute}
	if err := gate.Enforce(ctx, store); err != nil {
		var redirect *session.RedirectError
		if errors.As(err, &redirect) {
			return fmt.Errorf("%w\nRun 'artadmin login' to sign in", err)
		}
		return err
	}

	defer a.PersistSession()

	return fn(a.client, store.Get())
}

// PersistSession stores the client's current cookies for the host
func (a *App) PersistSession() {
	if a.client == nil || a.Host == nil {
		return
	}
	if a.forget {
		a.ClearSession()
		return
	}
	if err := a.Cookies.SaveCookies(a.Host.URL, a.client.Cookies()); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to save session")
	}
}

// ClearSession forgets the stored session for the host. Later calls to
// PersistSession keep it forgotten.
func (a *App) ClearSession() {
	a.forget = true
	if a.Host == nil {
		return
	}
	if err := a.Cookies.DeleteCookies(a.Host.URL); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to delete stored session")
	}
}

// Printer returns a printer for the --output format
func (a *App) Printer() (*output.Printer, error) {
	format, err := output.ParseFormat(a.OutputFormat)
	if err != nil {
		return nil, err
	}
	return &output.Printer{Out: a.Out, Format: format}, nil
}

func (a *App) notifier() notify.Notifier {
	if a.Notifier == nil {
		return notify.Nop{}
	}
	return a.Notifier
}

// commandContext returns the command's context, or Background when the
// command was executed without one
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func (a *App) confirm(label string) (bool, error) {
	if a.Confirm != nil {
		return a.Confirm(label)
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("confirmation required in non-interactive mode (use --yes)")
	}

	prompt := promptui.Prompt{Label: label, IsConfirm: true}
	if _, err := prompt.Run(); err != nil {
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
