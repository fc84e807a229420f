package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	service = "artadmin-cli"
)

// ErrNotAuthenticated is returned when no session is stored for a host
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'artadmin login' first")

// storedCookie is the persisted form of a session cookie. The jar only hands
// back name, value and the reconstructed path, so nothing else is kept.
type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Path  string `json:"path,omitempty"`
}

// getKeyringKey returns a unique key for storing session cookies per API host
func getKeyringKey(host string) string {
	return fmt.Sprintf("session-%s", normalizeHost(host))
}

func normalizeHost(host string) string {
	u, err := url.Parse(host)
	if err != nil || u.Host == "" {
		return strings.TrimRight(host, "/")
	}
	return u.Scheme + "://" + u.Host + strings.TrimRight(u.Path, "/")
}

func encodeCookies(cookies []*http.Cookie) (string, error) {
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value, Path: c.Path})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "", fmt.Errorf("failed to encode cookies: %w", err)
	}
	return string(data), nil
}

func decodeCookies(data string) ([]*http.Cookie, error) {
	var stored []storedCookie
	if err := json.Unmarshal([]byte(data), &stored); err != nil {
		return nil, fmt.Errorf("failed to decode stored session: %w", err)
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		p := s.Path
		if p == "" {
			p = "/"
		}
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: p})
	}
	return cookies, nil
}

// SaveCookies persists the session cookies securely in the OS keychain/credential manager
func SaveCookies(host string, cookies []*http.Cookie) error {
	if len(cookies) == 0 {
		return DeleteCookies(host)
	}

	data, err := encodeCookies(cookies)
	if err != nil {
		return err
	}
	if err := keyring.Set(service, getKeyringKey(host), data); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadCookies retrieves the session cookies from the OS keychain/credential manager
func LoadCookies(host string) ([]*http.Cookie, error) {
	data, err := keyring.Get(service, getKeyringKey(host))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeCookies(data)
}

// DeleteCookies removes the session cookies from the OS keychain/credential manager
func DeleteCookies(host string) error {
	if err := keyring.Delete(service, getKeyringKey(host)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
