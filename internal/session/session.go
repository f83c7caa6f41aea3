package session

import "sync"

// Session is the capability the checkout path consumes: who is calling,
// right now. Implementations must answer fresh on every call, never from a
// stale cache.
type Session interface {
	IsAuthenticated() bool
	CurrentIdentity() (string, bool)
}

// State is what auth-state watchers receive when the session changes.
type State struct {
	Authenticated bool
	Identity      string
}

// TokenSession holds the caller's current bearer token, the way the
// original client kept it in its durable slot. Authentication and identity
// are derived by verifying the token on each call, so expiry is honored
// without any invalidation hook.
type TokenSession struct {
	maker *TokenMaker

	mu    sync.RWMutex
	token string

	watchMu   sync.Mutex
	watchers  map[int]func(State)
	nextWatch int
}

func NewTokenSession(maker *TokenMaker) *TokenSession {
	return &TokenSession{
		maker:    maker,
		watchers: make(map[int]func(State)),
	}
}

// SetToken installs the token handed over after sign-in.
func (s *TokenSession) SetToken(token string) {
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.broadcast()
}

// ClearToken signs the caller out.
func (s *TokenSession) ClearToken() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	s.broadcast()
}

func (s *TokenSession) IsAuthenticated() bool {
	_, ok := s.CurrentIdentity()
	return ok
}

// CurrentIdentity returns the caller's display name, falling back to the
// user id when the token carries no name.
func (s *TokenSession) CurrentIdentity() (string, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return "", false
	}

	claims, err := s.maker.Parse(token)
	if err != nil {
		return "", false
	}
	if claims.Name != "" {
		return claims.Name, true
	}
	if claims.UserID != "" {
		return claims.UserID, true
	}
	return "", false
}

// Role returns the caller's role claim, for role-aware consumers.
func (s *TokenSession) Role() (string, bool) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return "", false
	}

	claims, err := s.maker.Parse(token)
	if err != nil || claims.Role == "" {
		return "", false
	}
	return claims.Role, true
}

// Watch registers a callback invoked whenever the token is set or cleared.
// The returned func cancels the registration.
func (s *TokenSession) Watch(fn func(State)) func() {
	s.watchMu.Lock()
	id := s.nextWatch
	s.nextWatch++
	s.watchers[id] = fn
	s.watchMu.Unlock()

	return func() {
		s.watchMu.Lock()
		delete(s.watchers, id)
		s.watchMu.Unlock()
	}
}

func (s *TokenSession) broadcast() {
	identity, ok := s.CurrentIdentity()
	state := State{Authenticated: ok, Identity: identity}

	s.watchMu.Lock()
	fns := make([]func(State), 0, len(s.watchers))
	for _, fn := range s.watchers {
		fns = append(fns, fn)
	}
	s.watchMu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}
