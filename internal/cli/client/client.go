package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/sync/singleflight"
)

const (
	MePath      = "/auth/me"
	RefreshPath = "/auth/refresh"
	LoginPath   = "/auth/login"
	TOTPPath    = "/auth/totp"
	LogoutPath  = "/auth/logout"

	contentTypeJSON = "application/json"
	requestIDHeader = "X-Request-ID"
	refreshKey      = "refresh"
)

// Client represents an HTTP client for the art commerce API.
//
// Every request carries the session cookies held in the client's jar. A
// request that fails with 401 triggers one silent session refresh and is then
// replayed at most once.
type Client struct {
	baseURL       *url.URL
	httpClient    *http.Client
	logger        zerolog.Logger
	sharedRefresh bool
	refreshGroup  singleflight.Group
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client. If it has no cookie jar the
// client's default jar is attached.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCookieJar replaces the cookie jar holding the session
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithLogger sets the logger used for request and refresh diagnostics
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSharedRefresh controls whether concurrent 401s share one in-flight
// refresh call (enabled by default). When disabled every failing request
// issues its own refresh.
func WithSharedRefresh(enabled bool) Option {
	return func(c *Client) {
		c.sharedRefresh = enabled
	}
}

// New creates a new API client for the given base URL
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse API host: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API host %q: expected scheme and host", baseURL)
	}

	c := &Client{
		baseURL:       u,
		httpClient:    &http.Client{},
		logger:        log.Logger,
		sharedRefresh: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, fmt.Errorf("failed to create cookie jar: %w", err)
		}
		c.httpClient.Jar = jar
	}

	return c, nil
}

// BaseURL returns the API base URL
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Request describes one logical API call. Body is JSON-encoded unless RawBody
// is set, in which case ContentType must describe it.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        any
	RawBody     []byte
	ContentType string
}

// Response is a completed API response. Body has already been normalized to
// the canonical snake_case shape when it is JSON.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	RequestID  string
}

// Decode unmarshals the response body into v
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// JSON decodes a response body into a new T
func JSON[T any](resp *Response) (*T, error) {
	var v T
	if err := resp.Decode(&v); err != nil {
		return nil, err
	}
	return &v, nil
}

// prepared is an immutable, replayable form of a Request
type prepared struct {
	method      string
	url         string
	path        string
	body        []byte
	contentType string
	requestID   string
}

// Do sends the request through the refresh-and-retry pipeline
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	p, err := c.prepare(req)
	if err != nil {
		return nil, err
	}

	return c.send(ctx, p, false)
}

// send issues p once. On 401 it refreshes the session and replays p, passing
// retried=true so a replayed request can never trigger another refresh.
func (c *Client) send(ctx context.Context, p *prepared, retried bool) (*Response, error) {
	resp, err := c.roundTrip(ctx, p)
	if err == nil {
		return resp, nil
	}

	if retried || !IsUnauthorized(err) || isRefreshPath(p.path) {
		return nil, err
	}

	c.logger.Debug().
		Str("method", p.method).
		Str("path", p.path).
		Str("request_id", p.requestID).
		Msg("Request unauthorized, refreshing session")

	refreshed, err := c.refreshSession(ctx)
	if err != nil {
		c.logger.Debug().Err(err).Str("path", p.path).Msg("Session refresh failed")
		return nil, err
	}

	// Refresh already returns the identity, so don't ask for it twice
	if isIdentityPath(p.path) {
		return refreshed, nil
	}

	c.logger.Debug().
		Str("method", p.method).
		Str("path", p.path).
		Str("request_id", p.requestID).
		Msg("Replaying request after refresh")

	return c.send(ctx, p, true)
}

// refreshSession calls the refresh endpoint directly, bypassing the retry
// pipeline. With shared refresh enabled concurrent callers wait on the same call.
func (c *Client) refreshSession(ctx context.Context) (*Response, error) {
	p, err := c.prepare(&Request{Method: http.MethodGet, Path: RefreshPath})
	if err != nil {
		return nil, err
	}

	if !c.sharedRefresh {
		return c.roundTrip(ctx, p)
	}

	// The flight outlives the caller that started it; waiters still honor
	// their own contexts below.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return c.roundTrip(flightCtx, p)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Response), nil
	}
}

func (c *Client) prepare(req *Request) (*prepared, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	u := *c.baseURL
	u.Path = path.Join("/", u.Path, req.Path)
	if len(req.Query) > 0 {
		u.RawQuery = req.Query.Encode()
	}

	p := &prepared{
		method:      method,
		url:         u.String(),
		path:        u.Path,
		contentType: contentTypeJSON,
		requestID:   ulid.Make().String(),
	}

	switch {
	case req.RawBody != nil:
		p.body = req.RawBody
		if req.ContentType != "" {
			p.contentType = req.ContentType
		}
	case req.Body != nil:
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		p.body = data
	}

	return p, nil
}

func (c *Client) roundTrip(ctx context.Context, p *prepared) (*Response, error) {
	var body io.Reader
	if p.body != nil {
		body = bytes.NewReader(p.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, p.method, p.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", p.contentType)
	httpReq.Header.Set("Accept", contentTypeJSON)
	httpReq.Header.Set(requestIDHeader, p.requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("method", p.method).
		Str("path", p.path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Str("request_id", p.requestID).
		Msg("HTTP request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newStatusError(p.method, p.path, resp.StatusCode, data)
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		normalized, err := Normalize(data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		data = normalized
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		RequestID:  p.requestID,
	}, nil
}

// Cookies returns the session cookies the jar holds for the API host. The
// jar only reports name and value, so Path is reconstructed: cookies visible
// at the root get "/", the rest are scoped to the auth prefix.
func (c *Client) Cookies() []*http.Cookie {
	root := make(map[string]string)
	for _, cookie := range c.httpClient.Jar.Cookies(c.urlFor("/")) {
		if _, ok := root[cookie.Name]; !ok {
			root[cookie.Name] = cookie.Value
		}
	}

	authPrefix := path.Join("/", c.baseURL.Path, path.Dir(RefreshPath))

	// The most specific path comes first, so a rotated /auth cookie wins
	// over a stale root copy with the same name.
	seen := make(map[string]bool)
	var cookies []*http.Cookie
	for _, cookie := range c.httpClient.Jar.Cookies(c.urlFor(RefreshPath)) {
		if seen[cookie.Name] {
			continue
		}
		seen[cookie.Name] = true

		cookiePath := "/"
		if v, ok := root[cookie.Name]; !ok || v != cookie.Value {
			cookiePath = authPrefix
		}
		cookies = append(cookies, &http.Cookie{Name: cookie.Name, Value: cookie.Value, Path: cookiePath})
	}

	return cookies
}

func (c *Client) urlFor(p string) *url.URL {
	u := *c.baseURL
	u.Path = path.Join("/", u.Path, p)
	return &u
}

// RestoreCookies loads previously persisted session cookies into the jar
func (c *Client) RestoreCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	for _, cookie := range cookies {
		if cookie.Path == "" {
			cookie.Path = "/"
		}
	}
	c.httpClient.Jar.SetCookies(c.baseURL, cookies)
}

func isRefreshPath(p string) bool {
	return strings.HasSuffix(p, RefreshPath)
}

func isIdentityPath(p string) bool {
	return strings.HasSuffix(p, MePath)
}

func isJSON(contentType string) bool {
	return strings.Contains(strings.ToLower(contentType), "json")
}
