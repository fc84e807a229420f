package auth

import (
	"net/http"
	"sync"
)

// CookieStore defines the interface for session cookie storage
// This allows us to mock the keyring in tests
type CookieStore interface {
	SaveCookies(host string, cookies []*http.Cookie) error
	LoadCookies(host string) ([]*http.Cookie, error)
	DeleteCookies(host string) error
}

// defaultCookieStore implements CookieStore using the OS keyring
type defaultCookieStore struct{}

var Default CookieStore = &defaultCookieStore{}

func (d *defaultCookieStore) SaveCookies(host string, cookies []*http.Cookie) error {
	return SaveCookies(host, cookies)
}

func (d *defaultCookieStore) LoadCookies(host string) ([]*http.Cookie, error) {
	return LoadCookies(host)
}

func (d *defaultCookieStore) DeleteCookies(host string) error {
	return DeleteCookies(host)
}

// MemoryStore keeps cookies in process memory
type MemoryStore struct {
	mu      sync.Mutex
	cookies map[string][]*http.Cookie
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{cookies: make(map[string][]*http.Cookie)}
}

func (m *MemoryStore) SaveCookies(host string, cookies []*http.Cookie) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(cookies) == 0 {
		delete(m.cookies, normalizeHost(host))
		return nil
	}
	m.cookies[normalizeHost(host)] = append([]*http.Cookie(nil), cookies...)
	return nil
}

func (m *MemoryStore) LoadCookies(host string) ([]*http.Cookie, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cookies, ok := m.cookies[normalizeHost(host)]
	if !ok {
		return nil, ErrNotAuthenticated
	}
	return append([]*http.Cookie(nil), cookies...), nil
}

func (m *MemoryStore) DeleteCookies(host string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cookies, normalizeHost(host))
	return nil
}
