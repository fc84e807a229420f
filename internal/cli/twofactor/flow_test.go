package twofactor

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/art-vbst/art-admin/internal/cli/client"
	"github.com/art-vbst/art-admin/internal/cli/notify"
	"github.com/art-vbst/art-admin/internal/cli/session"
	"github.com/art-vbst/art-admin/internal/models"
)

var (
	staff  = &models.User{BaseModel: models.BaseModel{ID: "user-123"}, Email: "staff@example.com"}
	qrData = base64.StdEncoding.EncodeToString([]byte("\x89PNG fake image"))
)

// fakeAPI replays scripted login and verify outcomes in order
type fakeAPI struct {
	logins   []loginOutcome
	verifies []verifyOutcome

	loginCalls  int
	verifyCalls int
	codes       []string
}

type loginOutcome struct {
	result *client.LoginResult
	err    error
}

type verifyOutcome struct {
	user *models.User
	err  error
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*client.LoginResult, error) {
	o := f.logins[f.loginCalls]
	f.loginCalls++
	return o.result, o.err
}

func (f *fakeAPI) VerifyTOTP(ctx context.Context, code string) (*models.User, error) {
	f.codes = append(f.codes, code)
	o := f.verifies[f.verifyCalls]
	f.verifyCalls++
	return o.user, o.err
}

// scriptedPrompter answers prompts from fixed lists
type scriptedPrompter struct {
	codes      []string
	credCalls  int
	readyCalls int
	qrPaths    []string
}

func (p *scriptedPrompter) Credentials(ctx context.Context) (Credentials, error) {
	p.credCalls++
	return Credentials{Email: "staff@example.com", Password: "hunter2"}, nil
}

func (p *scriptedPrompter) ReadyToVerify(ctx context.Context, qrPath string) error {
	p.readyCalls++
	p.qrPaths = append(p.qrPaths, qrPath)
	return nil
}

func (p *scriptedPrompter) Code(ctx context.Context) (string, error) {
	if len(p.codes) == 0 {
		return "", errors.New("no more codes")
	}
	code := p.codes[0]
	p.codes = p.codes[1:]
	return code, nil
}

func statusErr(code int) error {
	return &client.StatusError{Method: http.MethodPost, Path: client.TOTPPath, StatusCode: code}
}

func newFlow(t *testing.T, api *fakeAPI, prompter *scriptedPrompter) (*Flow, *session.Store, *notify.Recorder) {
	t.Helper()
	store := session.NewResolvedStore(nil)
	recorder := &notify.Recorder{}
	return &Flow{
		API:      api,
		Store:    store,
		Prompter: prompter,
		Notifier: recorder,
		Pending:  NewPendingStore(0),
		QRDir:    t.TempDir(),
		Logger:   zerolog.Nop(),
	}, store, recorder
}

func TestClassify(t *testing.T) {
	assert.Equal(t, StepDone, Classify(&client.LoginResult{User: staff}))
	assert.Equal(t, StepSetup, Classify(&client.LoginResult{TwoFactorRequired: true, QRCode: qrData}))
	assert.Equal(t, StepVerify, Classify(&client.LoginResult{TwoFactorRequired: true}))
	assert.Equal(t, StepVerify, Classify(&client.LoginResult{}))
	assert.Equal(t, StepLogin, Classify(nil))
}

func TestValidateCode(t *testing.T) {
	assert.NoError(t, ValidateCode("012345"))
	for _, bad := range []string{"", "12345", "1234567", "12a456", " 123456"} {
		assert.ErrorIs(t, ValidateCode(bad), ErrInvalidCode, bad)
	}
}

func TestFlow_IdentityWithoutSecondFactor(t *testing.T) {
	api := &fakeAPI{logins: []loginOutcome{{result: &client.LoginResult{User: staff}}}}
	prompter := &scriptedPrompter{}
	flow, store, _ := newFlow(t, api, prompter)
	var logs bytes.Buffer
	flow.Logger = zerolog.New(&logs).Level(zerolog.DebugLevel)

	user, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, staff, user)
	assert.Contains(t, logs.String(), "Authenticator enrolled")
	assert.Equal(t, staff, store.Get().User)
	assert.Zero(t, api.verifyCalls)
}

func TestFlow_EnrollmentThenVerify(t *testing.T) {
	api := &fakeAPI{
		logins:   []loginOutcome{{result: &client.LoginResult{TwoFactorRequired: true, QRCode: qrData}}},
		verifies: []verifyOutcome{{user: staff}},
	}
	prompter := &scriptedPrompter{codes: []string{"123456"}}
	flow, store, _ := newFlow(t, api, prompter)

	user, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, staff, user)
	assert.Equal(t, staff, store.Get().User)
	assert.Equal(t, 1, prompter.readyCalls)
	assert.Equal(t, []string{"123456"}, api.codes)

	// the QR image is removed once the flow finishes
	require.Len(t, prompter.qrPaths, 1)
	_, statErr := os.Stat(prompter.qrPaths[0])
	assert.True(t, os.IsNotExist(statErr))

	_, ok := flow.Pending.Peek()
	assert.False(t, ok)
}

func TestFlow_CodeEntryWithoutEnrollment(t *testing.T) {
	api := &fakeAPI{
		logins:   []loginOutcome{{result: &client.LoginResult{TwoFactorRequired: true}}},
		verifies: []verifyOutcome{{user: staff}},
	}
	prompter := &scriptedPrompter{codes: []string{"654321"}}
	flow, _, _ := newFlow(t, api, prompter)
	var logs bytes.Buffer
	flow.Logger = zerolog.New(&logs).Level(zerolog.DebugLevel)

	_, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, prompter.readyCalls)
	assert.NotContains(t, logs.String(), "Authenticator enrolled")
}

func TestFlow_Verify401ReturnsToLogin(t *testing.T) {
	api := &fakeAPI{
		logins: []loginOutcome{
			{result: &client.LoginResult{TwoFactorRequired: true}},
			{result: &client.LoginResult{TwoFactorRequired: true}},
		},
		verifies: []verifyOutcome{
			{err: statusErr(http.StatusUnauthorized)},
			{user: staff},
		},
	}
	prompter := &scriptedPrompter{codes: []string{"111111", "222222"}}
	flow, store, recorder := newFlow(t, api, prompter)

	user, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, staff, user)
	assert.Equal(t, 2, prompter.credCalls)
	assert.Equal(t, staff, store.Get().User)
	assert.Empty(t, recorder.Texts(notify.LevelError))
}

func TestFlow_VerifyOtherErrorStaysOnVerify(t *testing.T) {
	api := &fakeAPI{
		logins: []loginOutcome{{result: &client.LoginResult{TwoFactorRequired: true}}},
		verifies: []verifyOutcome{
			{err: statusErr(http.StatusBadRequest)},
			{user: staff},
		},
	}
	prompter := &scriptedPrompter{codes: []string{"111111", "222222"}}
	flow, _, recorder := newFlow(t, api, prompter)

	_, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, prompter.credCalls)
	assert.Equal(t, []string{"Failed to verify"}, recorder.Texts(notify.LevelError))
}

func TestFlow_InvalidCodeNotSubmitted(t *testing.T) {
	api := &fakeAPI{
		logins:   []loginOutcome{{result: &client.LoginResult{TwoFactorRequired: true}}},
		verifies: []verifyOutcome{{user: staff}},
	}
	prompter := &scriptedPrompter{codes: []string{"12ab", "123456"}}
	flow, _, recorder := newFlow(t, api, prompter)

	_, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"123456"}, api.codes)
	assert.Equal(t, []string{"Code must be 6 digits"}, recorder.Texts(notify.LevelError))
}

func TestFlow_TooManyVerifyAttempts(t *testing.T) {
	api := &fakeAPI{
		logins: []loginOutcome{{result: &client.LoginResult{TwoFactorRequired: true}}},
		verifies: []verifyOutcome{
			{err: statusErr(http.StatusBadRequest)},
			{err: statusErr(http.StatusBadRequest)},
		},
	}
	prompter := &scriptedPrompter{codes: []string{"111111", "222222"}}
	flow, store, _ := newFlow(t, api, prompter)
	flow.MaxAttempts = 2

	_, err := flow.Run(context.Background())
	assert.ErrorIs(t, err, ErrTooManyAttempts)
	assert.Nil(t, store.Get().User)
}

func TestFlow_LoginFailureNotifies(t *testing.T) {
	api := &fakeAPI{
		logins: []loginOutcome{
			{err: statusErr(http.StatusUnauthorized)},
			{result: &client.LoginResult{User: staff}},
		},
	}
	prompter := &scriptedPrompter{}
	flow, _, recorder := newFlow(t, api, prompter)

	_, err := flow.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, prompter.credCalls)
	assert.Equal(t, []string{"Failed to login"}, recorder.Texts(notify.LevelError))
}

func TestFlow_ResumeFromRoute(t *testing.T) {
	api := &fakeAPI{verifies: []verifyOutcome{{user: staff}}}
	prompter := &scriptedPrompter{codes: []string{"123456"}}
	flow, _, _ := newFlow(t, api, prompter)

	_, err := flow.Resume(context.Background(), "/2fa?qrCode="+qrData)
	require.NoError(t, err)

	assert.Zero(t, api.loginCalls)
	assert.Equal(t, 1, prompter.readyCalls)
}

func TestFlow_SetupWithoutMaterialReturnsToLogin(t *testing.T) {
	api := &fakeAPI{logins: []loginOutcome{{result: &client.LoginResult{User: staff}}}}
	prompter := &scriptedPrompter{}
	flow, _, _ := newFlow(t, api, prompter)

	_, err := flow.run(context.Background(), StepSetup)
	require.NoError(t, err)

	assert.Equal(t, 1, api.loginCalls)
	assert.Zero(t, prompter.readyCalls)
}

func TestPendingStore_Expiry(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	store := NewPendingStore(time.Minute)
	store.now = func() time.Time { return now }

	store.Put("qr")
	p, ok := store.Peek()
	require.True(t, ok)
	assert.Equal(t, "qr", p.QRCode)

	now = now.Add(2 * time.Minute)
	_, ok = store.Peek()
	assert.False(t, ok)
}

func TestPendingStore_Take(t *testing.T) {
	store := NewPendingStore(0)
	store.Put("qr")

	p, ok := store.Take()
	require.True(t, ok)
	assert.Equal(t, "qr", p.QRCode)

	_, ok = store.Take()
	assert.False(t, ok)
}

func TestParseRoute(t *testing.T) {
	step, p, err := ParseRoute("/2fa?qrCode=abc%2B%3D")
	require.NoError(t, err)
	assert.Equal(t, StepSetup, step)
	assert.Equal(t, "abc+=", p.QRCode)

	step, _, err = ParseRoute("/2fa")
	require.NoError(t, err)
	assert.Equal(t, StepVerify, step)

	step, _, err = ParseRoute("/login")
	require.NoError(t, err)
	assert.Equal(t, StepLogin, step)

	_, _, err = ParseRoute("/orders")
	assert.Error(t, err)
}

func TestRouteFor(t *testing.T) {
	assert.Equal(t, "/2fa", RouteFor(StepSetup))
	assert.Equal(t, "/2fa", RouteFor(StepVerify))
	assert.Equal(t, "/login", RouteFor(StepLogin))
	assert.Equal(t, "/", RouteFor(StepDone))
}
