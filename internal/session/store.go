// Package session tracks the signed-in user for the lifetime of the
// process and notifies subscribers when that changes.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"splitdash/internal/authsvc"
	"splitdash/internal/core"
)

// State is the session lifecycle phase.
type State string

const (
	StateAnonymous      State = "anonymous"
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"
)

// Snapshot is an immutable view of the session at one point in time.
type Snapshot struct {
	State   State
	User    *authsvc.User
	Profile *core.UserProfile
	Token   string
}

// Listener receives a snapshot each time the session changes.
type Listener func(Snapshot)

// AuthClient is the slice of the auth service the store needs.
type AuthClient interface {
	SignInWithPassword(ctx context.Context, email, password string) (*authsvc.Session, error)
	SignUp(ctx context.Context, email, password, name string) (*authsvc.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	GetCurrentUser(ctx context.Context, accessToken string) (*authsvc.User, error)
	GetUserProfile(ctx context.Context, accessToken, userID string) (*core.UserProfile, error)
}

// Store holds the current session. All methods are safe for concurrent
// use; listeners are invoked synchronously under no lock, in subscription
// order.
type Store struct {
	client AuthClient

	mu        sync.RWMutex
	state     State
	user      *authsvc.User
	profile   *core.UserProfile
	token     string
	listeners map[int]Listener
	nextID    int
}

// NewStore creates an anonymous session backed by client.
func NewStore(client AuthClient) *Store {
	return &Store{
		client:    client,
		state:     StateAnonymous,
		listeners: make(map[int]Listener),
	}
}

// Current returns the session as it is right now.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{State: s.state, User: s.user, Profile: s.profile, Token: s.token}
}

// Subscribe registers fn for session-change notifications and returns an
// id for Unsubscribe. fn is called immediately with the current snapshot
// so subscribers never start stale.
func (s *Store) Subscribe(fn Listener) int {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	snap := Snapshot{State: s.state, User: s.user, Profile: s.profile, Token: s.token}
	s.mu.Unlock()

	fn(snap)
	return id
}

// Unsubscribe removes the listener registered under id.
func (s *Store) Unsubscribe(id int) {
	s.mu.Lock()
	delete(s.listeners, id)
	s.mu.Unlock()
}

// SignIn authenticates with email/password and transitions the session
// to authenticated. The session passes through authenticating so
// subscribers can render a pending state.
func (s *Store) SignIn(ctx context.Context, email, password string) error {
	s.transition(StateAuthenticating, nil, nil, "")

	session, err := s.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.transition(StateAnonymous, nil, nil, "")
		return fmt.Errorf("sign in: %w", err)
	}

	s.adopt(ctx, session)
	return nil
}

// SignUp registers a new account and signs it in.
func (s *Store) SignUp(ctx context.Context, email, password, name string) error {
	s.transition(StateAuthenticating, nil, nil, "")

	session, err := s.client.SignUp(ctx, email, password, name)
	if err != nil {
		s.transition(StateAnonymous, nil, nil, "")
		return fmt.Errorf("sign up: %w", err)
	}

	s.adopt(ctx, session)
	return nil
}

// SignOut invalidates the token on the service and resets to anonymous.
// The local session is cleared even when the remote call fails: the user
// asked to leave and a network error should not keep them signed in.
func (s *Store) SignOut(ctx context.Context) error {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	var err error
	if token != "" {
		if err = s.client.SignOut(ctx, token); err != nil {
			slog.WarnContext(ctx, "Remote sign-out failed, clearing local session anyway", "error", err)
		}
	}

	s.transition(StateAnonymous, nil, nil, "")
	return err
}

// Restore validates a previously issued token and rebuilds the session
// from it. An expired or rejected token leaves the session anonymous
// without error: a stale token on startup is normal, not a failure.
func (s *Store) Restore(ctx context.Context, token string) error {
	if token == "" || tokenExpired(token) {
		s.transition(StateAnonymous, nil, nil, "")
		return nil
	}

	s.transition(StateAuthenticating, nil, nil, "")

	user, err := s.client.GetCurrentUser(ctx, token)
	if err != nil {
		s.transition(StateAnonymous, nil, nil, "")
		return fmt.Errorf("restore session: %w", err)
	}
	if user == nil {
		s.transition(StateAnonymous, nil, nil, "")
		return nil
	}

	s.adopt(ctx, &authsvc.Session{AccessToken: token, User: *user})
	return nil
}

func (s *Store) adopt(ctx context.Context, session *authsvc.Session) {
	// Profile fetch failures are non-fatal: the user is authenticated,
	// the UI just falls back to their email for display.
	profile, err := s.client.GetUserProfile(ctx, session.AccessToken, session.User.ID)
	if err != nil {
		slog.WarnContext(ctx, "Profile unavailable for signed-in user",
			"user_id", session.User.ID, "error", err)
		profile = nil
	}

	user := session.User
	s.transition(StateAuthenticated, &user, profile, session.AccessToken)
}

func (s *Store) transition(state State, user *authsvc.User, profile *core.UserProfile, token string) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.profile = profile
	s.token = token
	snap := Snapshot{State: state, User: user, Profile: profile, Token: token}
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

// tokenExpired inspects the token's exp claim without verifying the
// signature. Verification belongs to the service; locally we only decide
// whether presenting the token is worth a round trip.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
