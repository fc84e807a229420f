package twofactor

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"
)

// DefaultPendingTTL bounds how long enrollment material is kept around
const DefaultPendingTTL = 5 * time.Minute

const (
	loginRoute     = "/login"
	twoFactorRoute = "/2fa"
	homeRoute      = "/"

	// legacy query parameter that carried the enrollment QR code
	qrCodeParam = "qrCode"
)

// Pending is the transient state between a credential submission and a
// successful code verification
type Pending struct {
	QRCode    string
	CreatedAt time.Time
}

// PendingStore holds at most one Pending value in memory. Values expire
// after the TTL.
type PendingStore struct {
	mu      sync.Mutex
	pending *Pending
	ttl     time.Duration
	now     func() time.Time
}

// NewPendingStore creates a store; a ttl <= 0 uses DefaultPendingTTL
func NewPendingStore(ttl time.Duration) *PendingStore {
	if ttl <= 0 {
		ttl = DefaultPendingTTL
	}
	return &PendingStore{ttl: ttl, now: time.Now}
}

// Put records enrollment material, replacing anything held
func (s *PendingStore) Put(qrCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &Pending{QRCode: qrCode, CreatedAt: s.now()}
}

// Peek returns the held value without removing it
func (s *PendingStore) Peek() (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// Take returns and removes the held value
func (s *PendingStore) Take() (Pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.currentLocked()
	s.pending = nil
	return p, ok
}

// Clear drops the held value
func (s *PendingStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}

func (s *PendingStore) currentLocked() (Pending, bool) {
	if s.pending == nil {
		return Pending{}, false
	}
	if s.now().Sub(s.pending.CreatedAt) > s.ttl {
		s.pending = nil
		return Pending{}, false
	}
	return *s.pending, true
}

// ParseRoute maps a route to the step it selects. "/2fa?qrCode=<v>" selects
// the setup view and returns the code; "/2fa" selects code entry.
func ParseRoute(route string) (Step, Pending, error) {
	u, err := url.Parse(route)
	if err != nil {
		return StepLogin, Pending{}, fmt.Errorf("invalid route %q: %w", route, err)
	}

	switch strings.TrimSuffix(u.Path, "/") {
	case twoFactorRoute:
		if qr := u.Query().Get(qrCodeParam); qr != "" {
			return StepSetup, Pending{QRCode: qr}, nil
		}
		return StepVerify, Pending{}, nil
	case loginRoute:
		return StepLogin, Pending{}, nil
	case "":
		return StepDone, Pending{}, nil
	default:
		return StepLogin, Pending{}, fmt.Errorf("unknown route %q", route)
	}
}

// RouteFor returns the route that shows step. Enrollment material never
// appears in a route; it stays in the PendingStore.
func RouteFor(step Step) string {
	switch step {
	case StepSetup, StepVerify:
		return twoFactorRoute
	case StepDone:
		return homeRoute
	default:
		return loginRoute
	}
}
