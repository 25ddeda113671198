package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/jonathan/resumexpert/internal/schemas"
	"github.com/jonathan/resumexpert/internal/types"
)

// Register creates an account. It does not sign the user in.
func (c *Client) Register(ctx context.Context, creds types.Credentials) error {
	_, err := c.call(ctx, "register", http.MethodPost, creds, "api", "register")
	return err
}

// Login authenticates and stores the session cookie in the jar. It returns
// the username echoed by the backend, or "" when none was echoed.
func (c *Client) Login(ctx context.Context, creds types.Credentials) (string, error) {
	body, err := c.call(ctx, "login", http.MethodPost, creds, "api", "login")
	if err != nil {
		return "", err
	}

	// The login body is informational; only the status code matters.
	var echoed wireSession
	_ = json.Unmarshal(body, &echoed)
	return strings.TrimSpace(echoed.Username), nil
}

// Logout ends the server-side session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.call(ctx, "logout", http.MethodGet, nil, "api", "logout")
	return err
}

// CheckSession returns the signed-in username, or "" when the session is anonymous.
func (c *Client) CheckSession(ctx context.Context) (string, error) {
	const op = "check session"

	body, err := c.call(ctx, op, http.MethodGet, nil, "api", "check-session")
	if err != nil {
		return "", err
	}
	var s wireSession
	if err := decode(op, schemas.Session, body, &s); err != nil {
		return "", err
	}
	return strings.TrimSpace(s.Username), nil
}
