package auth

import (
	"context"
	"errors"
	"sync"

	"github.com/atharvakonge/quantumpool-web/internal/api"
	"github.com/atharvakonge/quantumpool-web/internal/models"
	"github.com/atharvakonge/quantumpool-web/internal/session"
	"go.uber.org/zap"
)

// State of a Store
type State int

const (
	Unchecked State = iota
	Checking
	Authenticated
	Anonymous
)

func (s State) String() string {
	switch s {
	case Unchecked:
		return "unchecked"
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Anonymous:
		return "anonymous"
	}
	return "unknown"
}

// Verifier resolves a bearer token to a profile ("who am I")
type Verifier interface {
	Me(ctx context.Context, token string) (*models.User, error)
}

// ClientVerifier adapts an api.Client to Verifier
type ClientVerifier struct {
	Client *api.Client
}

func (v ClientVerifier) Me(ctx context.Context, token string) (*models.User, error) {
	return v.Client.WithToken(token).Me(ctx)
}

// Store holds the authenticated profile in memory. Concurrent writers are
// not coordinated beyond the mutex: the last write wins.
type Store struct {
	mu       sync.RWMutex
	state    State
	user     *models.User
	token    string
	verifier Verifier
	log      *zap.Logger
}

// NewStore returns an unchecked store
func NewStore(verifier Verifier, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{verifier: verifier, log: log}
}

// anonymousStore is the default handed out when no middleware ran
func anonymousStore() *Store {
	return &Store{state: Anonymous, log: zap.NewNop()}
}

func (s *Store) set(state State, user *models.User, token string) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.token = token
	s.mu.Unlock()
}

// CheckAuth resolves the session cookie into a profile.
//
// Absent cookie: anonymous without a network call. Unparsable cookie: the
// cookie is deleted. Backend rejection: the cookie is deleted. A transport
// failure leaves the cookie alone.
func (s *Store) CheckAuth(ctx context.Context, jar session.Jar) State {
	s.mu.Lock()
	s.state = Checking
	s.mu.Unlock()

	raw, ok := jar.Get()
	if !ok {
		s.set(Anonymous, nil, "")
		return Anonymous
	}

	payload, err := session.Parse(raw)
	if err != nil {
		s.log.Warn("invalid session cookie", zap.Error(err))
		jar.Remove()
		s.set(Anonymous, nil, "")
		return Anonymous
	}

	token := payload.Token.AccessToken
	if token == "" || s.verifier == nil {
		s.set(Anonymous, nil, "")
		return Anonymous
	}

	user, err := s.verifier.Me(ctx, token)
	if err != nil {
		if errors.Is(err, api.ErrRequestFailed) {
			s.log.Info("session rejected by backend", zap.Error(err))
			jar.Remove()
		} else {
			s.log.Warn("auth check failed", zap.Error(err))
		}
		s.set(Anonymous, nil, "")
		return Anonymous
	}

	s.set(Authenticated, user, token)
	return Authenticated
}

// Logout drops the session. There is no backend call.
func (s *Store) Logout(jar session.Jar) {
	jar.Remove()
	s.set(Anonymous, nil, "")
}

// State returns the current state
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the profile, nil unless authenticated
func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Token returns the verified bearer token
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated is shorthand for State() == Authenticated
func (s *Store) Authenticated() bool {
	return s.State() == Authenticated
}
