package session

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/models"
)

// Fetcher resolves the current identity
type Fetcher func(ctx context.Context) (*models.User, error)

// Bootstrapper performs the initial session resolution for a Store.
//
// Identity is tried first. If it fails with 401 and TryRefresh is set, Refresh
// is tried with the same semantics. Any other failure resolves the session to
// logged-out.
type Bootstrapper struct {
	Identity   Fetcher
	Refresh    Fetcher
	TryRefresh bool
	Logger     zerolog.Logger
}

// NewBootstrapper wires a bootstrapper to the API client. The client already
// refreshes and replays /auth/me on 401, so the explicit fallback is off.
func NewBootstrapper(c *client.Client, logger zerolog.Logger) *Bootstrapper {
	return &Bootstrapper{
		Identity: c.Me,
		Refresh:  c.Refresh,
		Logger:   logger,
	}
}

// Run resolves store once and returns the resulting session. Running it on an
// already resolved store does nothing.
func (b *Bootstrapper) Run(ctx context.Context, store *Store) Session {
	if !store.Get().Loading {
		return store.Get()
	}

	user, err := b.fetch(ctx)
	if err != nil {
		b.Logger.Debug().Err(err).Msg("Session not established")
		user = nil
	} else {
		b.Logger.Debug().Str("user_id", user.ID).Msg("Session established")
	}

	store.resolve(user)
	return store.Get()
}

func (b *Bootstrapper) fetch(ctx context.Context) (*models.User, error) {
	if b.Identity == nil {
		return nil, ErrNotAuthenticated
	}

	user, err := b.Identity(ctx)
	if err == nil {
		if user == nil {
			return nil, ErrNotAuthenticated
		}
		return user, nil
	}

	if !b.TryRefresh || b.Refresh == nil || !client.IsUnauthorized(err) {
		return nil, err
	}

	b.Logger.Debug().Msg("Identity rejected, trying refresh")
	user, err = b.Refresh(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}
