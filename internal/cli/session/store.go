package session

import (
	"context"
	"sync"

	"github.com/art-vbst/art-admin/internal/models"
)

// Session is the resolved authentication state shared across commands
type Session struct {
	User    *models.User
	Loading bool
}

// Authenticated reports whether an identity is present
func (s Session) Authenticated() bool {
	return s.User != nil
}

type subscriber struct {
	id int
	fn func(Session)
}

// Store owns the Session. It starts out loading and resolves exactly once;
// after that only SetUser changes it.
type Store struct {
	mu       sync.Mutex
	session  Session
	subs     []subscriber
	nextID   int
	resolved chan struct{}
}

// NewStore returns a store in the initial loading state
func NewStore() *Store {
	return &Store{
		session:  Session{Loading: true},
		resolved: make(chan struct{}),
	}
}

// NewResolvedStore returns a store that is already resolved to user
func NewResolvedStore(user *models.User) *Store {
	s := NewStore()
	s.session = Session{User: user}
	close(s.resolved)
	return s
}

// Get returns a copy of the current session
func (s *Store) Get() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Resolved is closed once Loading has become false
func (s *Store) Resolved() <-chan struct{} {
	return s.resolved
}

// Wait blocks until the store is resolved or ctx is done
func (s *Store) Wait(ctx context.Context) (Session, error) {
	select {
	case <-s.resolved:
		return s.Get(), nil
	case <-ctx.Done():
		return Session{}, ctx.Err()
	}
}

// Subscribe registers fn to receive every subsequent session change, in
// registration order. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscriber{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// SetUser replaces the identity. Called after login, verification and
// logout. A store that is still loading becomes resolved.
func (s *Store) SetUser(user *models.User) {
	s.mu.Lock()
	s.session.User = user
	s.settleLocked()
	s.notifyUnlock()
}

// resolve finishes the initial resolution. It is a no-op once the store has
// resolved, so a late bootstrap never overwrites an explicit SetUser.
func (s *Store) resolve(user *models.User) bool {
	s.mu.Lock()
	if !s.session.Loading {
		s.mu.Unlock()
		return false
	}
	s.session.User = user
	s.settleLocked()
	s.notifyUnlock()
	return true
}

func (s *Store) settleLocked() {
	if s.session.Loading {
		s.session.Loading = false
		close(s.resolved)
	}
}

// notifyUnlock releases the lock and delivers the current session to
// subscribers outside of it.
func (s *Store) notifyUnlock() {
	snapshot := s.session
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}
