package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art-vbst/art-admin/internal/auth"
	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/config"
	"github.com/art-vbst/art-admin/internal/models"
)

const (
	testEmail    = "staff@example.com"
	testPassword = "correct horse"
)

type testOption func(*config.DevServerConfig)

func withTOTP(cfg *config.DevServerConfig) { cfg.RequireTOTP = true }

func withSeed(cfg *config.DevServerConfig) { cfg.SeedData = true }

// newTestServer starts a dev server on a private in-memory database
func newTestServer(t *testing.T, opts ...testOption) (*Server, *httptest.Server) {
	t.Helper()

	cfg := &config.Config{
		DevServer: config.DevServerConfig{
			DatabaseURL:   "file:" + uuid.NewString() + "?mode=memory&cache=shared",
			JWTSecret:     "test-secret",
			AllowOrigins:  []string{"http://localhost:5173"},
			AdminEmail:    testEmail,
			AdminPassword: testPassword,
			UploadDir:     t.TempDir(),
		},
	}
	for _, opt := range opts {
		opt(&cfg.DevServer)
	}

	srv, err := New(cfg, zerolog.Nop(), "test")
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		if sqlDB, err := srv.GetDB().DB(); err == nil {
			sqlDB.Close()
		}
	})
	return srv, ts
}

// newClient returns an API client with its own cookie jar
func newClient(t *testing.T, ts *httptest.Server) (*client.Client, *cookiejar.Jar) {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	c, err := client.New(ts.URL, client.WithCookieJar(jar), client.WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return c, jar
}

// signedInClient logs in on a server that does not require a second factor
func signedInClient(t *testing.T, ts *httptest.Server) *client.Client {
	t.Helper()
	c, _ := newClient(t, ts)
	result, err := c.Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.NotNil(t, result.User)
	return c
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	img.Set(0, 0, color.RGBA{R: 200, A: 255})

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestHealthCheck(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "online", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Contains(t, body, "metrics")
}

func TestNew_GeneratesSecretWhenUnset(t *testing.T) {
	_, ts := newTestServer(t, func(cfg *config.DevServerConfig) { cfg.JWTSecret = "" })

	c := signedInClient(t, ts)
	_, err := c.Me(context.Background())
	assert.NoError(t, err)
}

func TestNew_SeedsAdminOnce(t *testing.T) {
	srv, _ := newTestServer(t)

	require.NoError(t, srv.seedAdmin())

	var users []models.User
	require.NoError(t, srv.GetDB().Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, testEmail, users[0].Email)
	assert.NoError(t, auth.VerifyPassword(testPassword, users[0].PasswordHash))
	assert.False(t, users[0].TOTPEnabled)
}

func TestNew_SeedsSampleData(t *testing.T) {
	srv, _ := newTestServer(t, withSeed)

	var artworks, orders int64
	require.NoError(t, srv.GetDB().Model(&models.Artwork{}).Count(&artworks).Error)
	require.NoError(t, srv.GetDB().Model(&models.Order{}).Count(&orders).Error)
	assert.Positive(t, artworks)
	assert.Positive(t, orders)

	// a second pass leaves existing data alone
	require.NoError(t, srv.seedSampleData())
	var again int64
	require.NoError(t, srv.GetDB().Model(&models.Artwork{}).Count(&again).Error)
	assert.Equal(t, artworks, again)
}

func TestCORS_AllowsCredentials(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/auth/me", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))
}

func TestNew_WithoutAllowedOrigins(t *testing.T) {
	for _, origins := range [][]string{nil, {""}} {
		_, ts := newTestServer(t, func(cfg *config.DevServerConfig) { cfg.AllowOrigins = origins })

		req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:5173")

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestProtectedRoutes_RequireSession(t *testing.T) {
	_, ts := newTestServer(t)

	for _, path := range []string{"/auth/me", "/artworks", "/orders"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}
}

func TestCookieAuth_RejectsOtherTokenKinds(t *testing.T) {
	srv, ts := newTestServer(t)

	var user models.User
	require.NoError(t, srv.GetDB().Where("email = ?", testEmail).First(&user).Error)

	for _, kind := range []auth.TokenKind{auth.KindRefresh, auth.KindPending} {
		token, err := srv.tokens.GenerateToken(kind, user.ID, user.Email)
		require.NoError(t, err)

		req, err := http.NewRequest(http.MethodGet, ts.URL+"/auth/me", nil)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: auth.AccessCookie, Value: token})

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, kind)
	}
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	srv, _ := newTestServer(t)
	srv.config.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
