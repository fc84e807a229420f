package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/models"
)

var staff = &models.User{BaseModel: models.BaseModel{ID: "user-123"}, Email: "staff@example.com"}

func unauthorizedErr() error {
	return &client.StatusError{Method: http.MethodGet, Path: client.MePath, StatusCode: http.StatusUnauthorized}
}

func fetcher(user *models.User, err error, calls *int) Fetcher {
	return func(ctx context.Context) (*models.User, error) {
		*calls++
		return user, err
	}
}

// recordLoading subscribes to store and captures every Loading value seen
func recordLoading(store *Store) *[]bool {
	var seen []bool
	store.Subscribe(func(s Session) {
		seen = append(seen, s.Loading)
	})
	return &seen
}

func TestStore_InitialState(t *testing.T) {
	store := NewStore()
	s := store.Get()

	assert.True(t, s.Loading)
	assert.Nil(t, s.User)

	select {
	case <-store.Resolved():
		t.Fatal("store should not be resolved yet")
	default:
	}
}

func TestStore_SubscribersInOrderAndUnsubscribe(t *testing.T) {
	store := NewResolvedStore(nil)

	var order []string
	unsubA := store.Subscribe(func(Session) { order = append(order, "a") })
	store.Subscribe(func(Session) { order = append(order, "b") })

	store.SetUser(staff)
	unsubA()
	store.SetUser(nil)

	assert.Equal(t, []string{"a", "b", "b"}, order)
	assert.Nil(t, store.Get().User)
}

func TestStore_SetUserResolvesLoadingStore(t *testing.T) {
	store := NewStore()
	store.SetUser(staff)

	s, err := store.Wait(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Loading)
	assert.Equal(t, staff, s.User)

	// a late bootstrap must not override the explicit identity
	assert.False(t, store.resolve(nil))
	assert.Equal(t, staff, store.Get().User)
}

func TestStore_WaitHonorsContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := store.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBootstrapper_Run(t *testing.T) {
	tests := []struct {
		name          string
		identityUser  *models.User
		identityErr   error
		refreshUser   *models.User
		refreshErr    error
		tryRefresh    bool
		wantUser      bool
		wantRefreshes int
	}{
		{
			name:         "identity resolves",
			identityUser: staff,
			wantUser:     true,
		},
		{
			name:        "identity 401 without fallback",
			identityErr: unauthorizedErr(),
		},
		{
			name:          "identity 401 then refresh succeeds",
			identityErr:   unauthorizedErr(),
			refreshUser:   staff,
			tryRefresh:    true,
			wantUser:      true,
			wantRefreshes: 1,
		},
		{
			name:          "identity 401 then refresh fails",
			identityErr:   unauthorizedErr(),
			refreshErr:    unauthorizedErr(),
			tryRefresh:    true,
			wantRefreshes: 1,
		},
		{
			name:        "non-401 failure skips refresh",
			identityErr: errors.New("connection refused"),
			tryRefresh:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var identityCalls, refreshCalls int
			b := &Bootstrapper{
				Identity:   fetcher(tt.identityUser, tt.identityErr, &identityCalls),
				Refresh:    fetcher(tt.refreshUser, tt.refreshErr, &refreshCalls),
				TryRefresh: tt.tryRefresh,
				Logger:     zerolog.Nop(),
			}

			store := NewStore()
			seen := recordLoading(store)
			s := b.Run(context.Background(), store)

			assert.False(t, s.Loading)
			assert.Equal(t, tt.wantUser, s.Authenticated())
			assert.Equal(t, 1, identityCalls)
			assert.Equal(t, tt.wantRefreshes, refreshCalls)
			assert.Equal(t, []bool{false}, *seen)
		})
	}
}

func TestBootstrapper_RunIsNoOpWhenResolved(t *testing.T) {
	var calls int
	b := &Bootstrapper{Identity: fetcher(staff, nil, &calls), Logger: zerolog.Nop()}

	store := NewResolvedStore(nil)
	s := b.Run(context.Background(), store)

	assert.Zero(t, calls)
	assert.False(t, s.Authenticated())
}

func TestBootstrapper_LoadingNeverOscillates(t *testing.T) {
	var calls int
	b := &Bootstrapper{
		Identity:   fetcher(nil, unauthorizedErr(), &calls),
		Refresh:    fetcher(staff, nil, &calls),
		TryRefresh: true,
		Logger:     zerolog.Nop(),
	}

	store := NewStore()
	seen := recordLoading(store)

	b.Run(context.Background(), store)
	store.SetUser(nil)
	store.SetUser(staff)
	b.Run(context.Background(), store)

	assert.Equal(t, []bool{false, false, false}, *seen)
	assert.Equal(t, 2, calls)
}

func TestBootstrapper_WithClient(t *testing.T) {
	var mu sync.Mutex
	counts := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		counts[r.URL.Path]++
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case client.MePath:
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"Unauthorized"}`))
		case client.RefreshPath:
			w.Write([]byte(`{"id":"user-123","email":"staff@example.com"}`))
		}
	}))
	defer srv.Close()

	c, err := client.New(srv.URL, client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)

	store := NewStore()
	s := NewBootstrapper(c, zerolog.Nop()).Run(context.Background(), store)

	require.True(t, s.Authenticated())
	assert.Equal(t, "user-123", s.User.ID)
	assert.Equal(t, 1, counts[client.MePath])
	assert.Equal(t, 1, counts[client.RefreshPath])
}

func TestGate_Decide(t *testing.T) {
	loading := Session{Loading: true}
	anonymous := Session{}
	authenticated := Session{User: staff}

	tests := []struct {
		name    string
		gate    Gate
		session Session
		want    Decision
	}{
		{"normal loading", Gate{Navigate: "/login"}, loading, DecisionWait},
		{"normal anonymous", Gate{Navigate: "/login"}, anonymous, DecisionRedirect},
		{"normal authenticated", Gate{Navigate: "/login"}, authenticated, DecisionRender},
		{"inverted loading", Gate{Navigate: "/", Inverted: true}, loading, DecisionWait},
		{"inverted anonymous", Gate{Navigate: "/", Inverted: true}, anonymous, DecisionRender},
		{"inverted authenticated", Gate{Navigate: "/", Inverted: true}, authenticated, DecisionRedirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.gate.Decide(tt.session))
		})
	}
}

func TestGate_Enforce(t *testing.T) {
	err := Gate{Navigate: "/login"}.Enforce(context.Background(), NewResolvedStore(nil))

	var redirect *RedirectError
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/login", redirect.Target)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	err = Gate{Navigate: "/", Inverted: true}.Enforce(context.Background(), NewResolvedStore(staff))
	require.ErrorAs(t, err, &redirect)
	assert.Equal(t, "/", redirect.Target)
	assert.ErrorIs(t, err, ErrAlreadyAuthenticated)

	assert.NoError(t, Gate{Navigate: "/login"}.Enforce(context.Background(), NewResolvedStore(staff)))
	assert.NoError(t, Gate{Navigate: "/", Inverted: true}.Enforce(context.Background(), NewResolvedStore(nil)))
}

func TestGate_EnforceWaitsForResolution(t *testing.T) {
	store := NewStore()
	done := make(chan error, 1)

	go func() {
		done <- Gate{Navigate: "/login"}.Enforce(context.Background(), store)
	}()

	select {
	case <-done:
		t.Fatal("gate decided before the session resolved")
	case <-time.After(20 * time.Millisecond):
	}

	store.SetUser(staff)
	assert.NoError(t, <-done)
}
