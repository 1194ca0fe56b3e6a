package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"imsidesk/internal/provider/base"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// ErrLoggedOut is returned once the session can no longer be refreshed
var ErrLoggedOut = errors.New("session expired, please log in again")

// Refresher exchanges a token's refresh token for a new token
type Refresher interface {
	Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error)
}

// Session owns the operator's credentials. Calls made through Do always
// carry a token that was valid when the call started; an upstream 401
// causes one refresh and one retry.
type Session struct {
	mu        sync.Mutex
	token     *oauth2.Token
	refresher Refresher
	store     TokenStore
	clientID  string
	reserved  []string
	onLogout  func()
	now       func() time.Time
}

// Option configures a Session
type Option func(*Session)

// WithClientID sets the identity-provider client whose roles name the operator
func WithClientID(id string) Option { return func(s *Session) { s.clientID = id } }

// WithReservedRoles lists roles that never identify an operator
func WithReservedRoles(roles []string) Option { return func(s *Session) { s.reserved = roles } }

// WithLogout registers a hook run when the session is forcibly ended
func WithLogout(fn func()) Option { return func(s *Session) { s.onLogout = fn } }

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option { return func(s *Session) { s.now = now } }

// NewSession creates a session backed by store
func NewSession(refresher Refresher, store TokenStore, opts ...Option) *Session {
	s := &Session{
		refresher: refresher,
		store:     store,
		reserved:  DefaultReservedRoles,
		now:       time.Now,
	}
	if s.store == nil {
		s.store = NewMemoryStore()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start installs the initial token. When initial is nil the token is
// read back from the store.
func (s *Session) Start(ctx context.Context, initial *oauth2.Token) error {
	tok := initial
	if tok == nil {
		stored, err := s.store.Load(ctx)
		if err != nil {
			return fmt.Errorf("load session: %w", err)
		}
		tok = stored
	}
	if tok == nil || (tok.AccessToken == "" && tok.RefreshToken == "") {
		return ErrLoggedOut
	}
	if tok.Expiry.IsZero() && tok.AccessToken != "" {
		tok.Expiry = ExpiryOf(tok.AccessToken)
	}

	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()

	if initial != nil {
		if err := s.store.Save(ctx, tok); err != nil {
			return fmt.Errorf("save session: %w", err)
		}
	}
	return nil
}

// Token returns a valid token, refreshing first when the current one expired
func (s *Session) Token(ctx context.Context) (*oauth2.Token, error) {
	s.mu.Lock()
	if s.token == nil {
		s.mu.Unlock()
		return nil, ErrLoggedOut
	}
	if s.valid(s.token) {
		tok := *s.token
		s.mu.Unlock()
		return &tok, nil
	}
	tok, hook, err := s.refreshLocked(ctx)
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return tok, err
}

// Do runs op with a valid access token. A 401 from op triggers a single
// refresh followed by a single retry; a failed refresh or a second 401
// ends the session.
func (s *Session) Do(ctx context.Context, op func(ctx context.Context, accessToken string) error) error {
	refreshed := false
	attempt := func() error {
		tok, err := s.Token(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}

		err = op(ctx, tok.AccessToken)
		if err == nil {
			return nil
		}
		if !base.IsUnauthorized(err) {
			return backoff.Permanent(err)
		}
		if refreshed {
			s.Logout(ctx)
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrLoggedOut, err))
		}

		refreshed = true
		log.Info().Msg("upstream rejected token, refreshing session")
		if err := s.forceRefresh(ctx, tok); err != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 1), ctx)
	return backoff.Retry(attempt, policy)
}

// Operator resolves the operator id from the current token's roles
func (s *Session) Operator() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return "", ErrLoggedOut
	}
	return ResolveOperator(s.token.AccessToken, s.clientID, s.reserved)
}

// Logout drops the token everywhere and runs the logout hook
func (s *Session) Logout(ctx context.Context) {
	s.mu.Lock()
	hook := s.logoutLocked(ctx)
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
}

// forceRefresh refreshes unless another caller already replaced stale
func (s *Session) forceRefresh(ctx context.Context, stale *oauth2.Token) error {
	s.mu.Lock()
	if s.token != nil && s.token.AccessToken != stale.AccessToken && s.valid(s.token) {
		s.mu.Unlock()
		return nil
	}
	_, hook, err := s.refreshLocked(ctx)
	s.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

// refreshLocked must be called with s.mu held. The returned hook, if
// any, must be run after unlocking.
func (s *Session) refreshLocked(ctx context.Context) (*oauth2.Token, func(), error) {
	if s.token == nil || s.refresher == nil {
		return nil, s.logoutLocked(ctx), ErrLoggedOut
	}

	fresh, err := s.refresher.Refresh(ctx, s.token)
	if err != nil {
		log.Warn().Err(err).Msg("session refresh failed, logging out")
		return nil, s.logoutLocked(ctx), fmt.Errorf("%w: %v", ErrLoggedOut, err)
	}
	if fresh.Expiry.IsZero() {
		fresh.Expiry = ExpiryOf(fresh.AccessToken)
	}
	s.token = fresh
	if err := s.store.Save(ctx, fresh); err != nil {
		log.Warn().Err(err).Msg("could not persist refreshed session")
	}

	log.Debug().Time("expiry", fresh.Expiry).Msg("session refreshed")
	tok := *fresh
	return &tok, nil, nil
}

func (s *Session) logoutLocked(ctx context.Context) func() {
	s.token = nil
	if err := s.store.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("could not clear stored session")
	}
	return s.onLogout
}

func (s *Session) valid(tok *oauth2.Token) bool {
	if tok.AccessToken == "" {
		return false
	}
	return tok.Expiry.IsZero() || s.now().Before(tok.Expiry)
}
