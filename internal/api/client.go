// Package api is the HTTP client for the ResumeXpert backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/resumexpert/internal/observability"
	"github.com/jonathan/resumexpert/internal/schemas"
)

const (
	// DefaultRequestTimeout bounds every call except health probes.
	DefaultRequestTimeout = 2 * time.Minute
	// DefaultProbeTimeout bounds a single health probe.
	DefaultProbeTimeout = 10 * time.Second
	// DefaultUserAgent is the user agent string for HTTP requests.
	DefaultUserAgent = "resumexpert-cli/1.0"

	maxResponseBytes = 8 << 20
)

// Options configures the client.
type Options struct {
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	ProbeTimeout   time.Duration
	UserAgent      string
	Logger         logrus.FieldLogger
}

// DefaultOptions returns sensible defaults for the client.
func DefaultOptions() *Options {
	return &Options{
		RequestTimeout: DefaultRequestTimeout,
		ProbeTimeout:   DefaultProbeTimeout,
		UserAgent:      DefaultUserAgent,
	}
}

// Client talks to the backend. Credentials live only in its cookie jar.
type Client struct {
	base           *url.URL
	http           *http.Client
	cookies        *cookieStore
	requestTimeout time.Duration
	probeTimeout   time.Duration
	userAgent      string
	log            logrus.FieldLogger
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend URL %q", baseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	cookies, err := newCookieStore(base)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		httpClient = &c
	}
	httpClient.Jar = cookies

	c := &Client{
		base:           base,
		http:           httpClient,
		cookies:        cookies,
		requestTimeout: opts.RequestTimeout,
		probeTimeout:   opts.ProbeTimeout,
		userAgent:      opts.UserAgent,
		log:            observability.Component(opts.Logger, "api"),
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = DefaultRequestTimeout
	}
	if c.probeTimeout <= 0 {
		c.probeTimeout = DefaultProbeTimeout
	}
	if c.userAgent == "" {
		c.userAgent = DefaultUserAgent
	}
	return c, nil
}

// BaseURL returns the backend root.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(elem ...string) string {
	return c.base.JoinPath(elem...).String()
}

func (c *Client) newRequest(ctx context.Context, method, target string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// send executes req and returns the body of a 2xx response.
func (c *Client) send(op string, req *http.Request) ([]byte, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithFields(logrus.Fields{"op": op, "error": err}).Debug("request failed")
		return nil, &RemoteError{Op: op, Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &RemoteError{Op: op, StatusCode: resp.StatusCode, Message: "failed to read response body", Cause: err}
	}

	c.log.WithFields(logrus.Fields{
		"op":       op,
		"status":   resp.StatusCode,
		"duration": time.Since(start).Round(time.Millisecond),
	}).Debug("request complete")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp.Status),
		}
	}
	return body, nil
}

// call sends an optional JSON payload and returns the raw response body.
func (c *Client) call(ctx context.Context, op, method string, in any, elem ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, &RemoteError{Op: op, Message: "failed to encode request", Cause: err}
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, c.endpoint(elem...), body, contentType)
	if err != nil {
		return nil, &RemoteError{Op: op, Message: "failed to create request", Cause: err}
	}
	return c.send(op, req)
}

// decode validates body against schema (when set) and unmarshals it into out.
func decode(op, schema string, body []byte, out any) error {
	if schema != "" {
		if err := schemas.Validate(schema, body); err != nil {
			return malformed(op, err)
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return malformed(op, err)
	}
	return nil
}
