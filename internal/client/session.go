package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/edvin/unihub/internal/model"
	"github.com/edvin/unihub/internal/realtime"
)

// State is where a Session is in its sign-in lifecycle.
type State string

const (
	StateLoading         State = "loading"
	StateAuthenticated   State = "authenticated"
	StateUnauthenticated State = "unauthenticated"
)

// Session tracks who is signed in on a Client and keeps the token in a
// TokenStore across runs. A new Session is loading until Restore, SignIn or
// SignUp settles it.
type Session struct {
	client *Client
	store  TokenStore

	mu    sync.RWMutex
	state State
	user  *model.User
}

func NewSession(c *Client, store TokenStore) *Session {
	return &Session{client: c, store: store, state: StateLoading}
}

func (s *Session) Client() *Client { return s.client }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// User returns the signed-in user, or nil unless authenticated.
func (s *Session) User() *model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Restore picks up a stored token. With none the session becomes
// unauthenticated. Otherwise the token is checked against /auth/me; if that
// fails for any reason the stored token is discarded and the error returned.
func (s *Session) Restore(ctx context.Context) error {
	tok, err := s.store.Load()
	if err != nil {
		s.reset()
		return err
	}
	if tok == "" {
		s.reset()
		return nil
	}

	s.client.cache.Clear()
	s.client.SetToken(tok)
	user, err := s.client.Me(ctx)
	if err != nil {
		s.reset()
		if clearErr := s.store.Clear(); clearErr != nil {
			return fmt.Errorf("restore session: %w (clear token: %v)", err, clearErr)
		}
		return fmt.Errorf("restore session: %w", err)
	}

	s.set(StateAuthenticated, user)
	return nil
}

// SignIn exchanges credentials for a token. A failed attempt leaves the
// session as it was.
func (s *Session) SignIn(ctx context.Context, email, password string) (*model.User, error) {
	sess, err := s.client.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return sess.User, s.begin(sess.Token, sess.User)
}

// SignUp registers an account and signs it in. Accounts created while
// signups need approval are signed in too, but every other call answers 403
// until an admin activates them.
func (s *Session) SignUp(ctx context.Context, email, password string, fullName *string) (*model.User, error) {
	sess, err := s.client.SignUp(ctx, email, password, fullName)
	if err != nil {
		return nil, err
	}
	return sess.User, s.begin(sess.Token, sess.User)
}

func (s *Session) begin(token string, user *model.User) error {
	s.client.cache.Clear()
	s.client.SetToken(token)
	s.client.cache.Set(queryKey(realtime.KeyMe), user)
	s.set(StateAuthenticated, user)

	if err := s.store.Save(token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	return nil
}

// Refresh reloads the signed-in user, for instance after a "me" notice. A
// 401 signs the session out locally.
func (s *Session) Refresh(ctx context.Context) (*model.User, error) {
	user, err := s.client.Me(ctx)
	if err != nil {
		if IsStatus(err, http.StatusUnauthorized) {
			s.reset()
			_ = s.store.Clear()
		}
		return nil, err
	}
	s.set(StateAuthenticated, user)
	return user, nil
}

// SignOut tells the server to revoke the token, then forgets it locally
// whether or not the server answered.
func (s *Session) SignOut(ctx context.Context) error {
	if s.client.Token() != "" {
		if err := s.client.SignOut(ctx); err != nil {
			s.client.logger.Debug().Err(err).Msg("server sign-out failed")
		}
	}
	s.reset()
	return s.store.Clear()
}

// reset drops the token and every cached query.
func (s *Session) reset() {
	s.client.SetToken("")
	s.client.cache.Clear()
	s.set(StateUnauthenticated, nil)
}

func (s *Session) set(state State, user *model.User) {
	s.mu.Lock()
	s.state = state
	s.user = user
	s.mu.Unlock()
}
