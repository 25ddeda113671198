// Package session tracks who is signed in to the backend.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/resumexpert/internal/observability"
	"github.com/jonathan/resumexpert/internal/types"
)

// Errors surfaced to users. Remote causes stay wrapped for logs.
var (
	ErrLoginFailed      = errors.New("login failed, please check your credentials")
	ErrSignupFailed     = errors.New("signup failed, please try again")
	ErrNotAuthenticated = errors.New("not signed in, run `resumexpert login` first")
)

// Remote is the backend surface the session needs.
type Remote interface {
	Register(ctx context.Context, creds types.Credentials) error
	Login(ctx context.Context, creds types.Credentials) (string, error)
	Logout(ctx context.Context) error
	CheckSession(ctx context.Context) (string, error)
}

// CookieJar exposes the transport's session cookies. Remotes that implement
// it get local expiry checks and local teardown.
type CookieJar interface {
	Cookies() []*http.Cookie
	ClearSession() error
}

// Client owns the process-wide session state.
type Client struct {
	remote Remote
	log    logrus.FieldLogger
	now    func() time.Time

	mu      sync.RWMutex
	session types.Session
}

// New creates an anonymous session client.
func New(remote Remote, logger logrus.FieldLogger) *Client {
	return &Client{
		remote: remote,
		log:    observability.Component(logger, "session"),
		now:    time.Now,
	}
}

// Current returns a snapshot of the session.
func (c *Client) Current() types.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

func (c *Client) set(s types.Session) {
	c.mu.Lock()
	c.session = s
	c.mu.Unlock()
}

// teardown drops the session locally, including any held cookies.
func (c *Client) teardown() {
	c.set(types.Anonymous)
	if jar, ok := c.remote.(CookieJar); ok {
		if err := jar.ClearSession(); err != nil {
			c.log.WithError(err).Warn("failed to clear session cookies")
		}
	}
}

// Init probes the backend for an existing session. Any failure leaves the
// session anonymous.
func (c *Client) Init(ctx context.Context) types.Session {
	if c.cookieExpired() {
		c.log.Debug("session cookie expired")
		c.teardown()
		return types.Anonymous
	}

	username, err := c.remote.CheckSession(ctx)
	if err != nil {
		c.log.WithError(err).Debug("session probe failed")
		c.set(types.Anonymous)
		return types.Anonymous
	}
	if username == "" {
		c.set(types.Anonymous)
		return types.Anonymous
	}

	s := types.Session{Authenticated: true, Username: username}
	c.set(s)
	return s
}

// Login validates the credentials locally, then signs in. The session takes
// the username echoed by the backend, or the submitted one when none is echoed.
func (c *Client) Login(ctx context.Context, username, password string) (types.Session, error) {
	creds := types.NewCredentials(username, password)
	if err := creds.Validate(); err != nil {
		return c.Current(), err
	}

	echoed, err := c.remote.Login(ctx, creds)
	if err != nil {
		c.log.WithError(err).Info("login rejected")
		return c.Current(), fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	if echoed == "" {
		echoed = creds.Username
	}

	s := types.Session{Authenticated: true, Username: echoed}
	c.set(s)
	c.log.WithField("username", echoed).Info("signed in")
	return s, nil
}

// Register validates the credentials locally, then creates the account. It
// does not sign in.
func (c *Client) Register(ctx context.Context, username, password string) error {
	creds := types.NewCredentials(username, password)
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := c.remote.Register(ctx, creds); err != nil {
		c.log.WithError(err).Info("registration rejected")
		return fmt.Errorf("%w: %w", ErrSignupFailed, err)
	}
	return nil
}

// Logout ends the session. The local session is torn down whatever the
// backend answers; the remote error, if any, is returned for reporting.
func (c *Client) Logout(ctx context.Context) error {
	err := c.remote.Logout(ctx)
	c.teardown()
	if err != nil {
		return fmt.Errorf("remote logout failed: %w", err)
	}
	return nil
}

// RequireAuth re-probes the backend and returns the session when signed in.
// A failed probe tears the session down.
func (c *Client) RequireAuth(ctx context.Context) (types.Session, error) {
	if c.cookieExpired() {
		c.teardown()
		return types.Anonymous, ErrNotAuthenticated
	}

	username, err := c.remote.CheckSession(ctx)
	if err != nil || username == "" {
		if err != nil {
			c.log.WithError(err).Debug("session check failed")
		}
		c.teardown()
		return types.Anonymous, ErrNotAuthenticated
	}

	s := types.Session{Authenticated: true, Username: username}
	c.set(s)
	return s, nil
}

// cookieExpired reports whether any held cookie is a JWT whose exp claim has
// passed. Opaque cookies are never considered expired here.
func (c *Client) cookieExpired() bool {
	jar, ok := c.remote.(CookieJar)
	if !ok {
		return false
	}

	parser := jwt.NewParser()
	for _, ck := range jar.Cookies() {
		claims := &jwt.RegisteredClaims{}
		if _, _, err := parser.ParseUnverified(ck.Value, claims); err != nil {
			continue
		}
		if claims.ExpiresAt != nil && !claims.ExpiresAt.After(c.now()) {
			return true
		}
	}
	return false
}
