package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/resumexpert/internal/schemas"
)

// HealthOK is the status value reported by a ready backend.
const HealthOK = "OK"

// Health probes GET / and returns nil only for a 2xx response whose body
// reports status "OK". Each probe is bounded by the probe timeout.
func (c *Client) Health(ctx context.Context) error {
	const op = "health check"

	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, c.base.String(), nil, "")
	if err != nil {
		return &RemoteError{Op: op, Message: "failed to create request", Cause: err}
	}
	body, err := c.send(op, req)
	if err != nil {
		return err
	}

	if err := schemas.Validate(schemas.Health, body); err != nil {
		return malformed(op, err)
	}
	var h wireHealth
	if err := json.Unmarshal(body, &h); err != nil {
		return malformed(op, err)
	}
	if h.Status != HealthOK {
		return &RemoteError{Op: op, StatusCode: http.StatusOK, Message: fmt.Sprintf("backend reported status %q", h.Status)}
	}
	return nil
}

// CheckHealth reports whether the backend is ready.
func (c *Client) CheckHealth(ctx context.Context) bool {
	return c.Health(ctx) == nil
}
