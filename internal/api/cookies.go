package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// cookieStore is a resettable cookie jar that also remembers the full
// Set-Cookie attributes for the backend host so they can be persisted.
type cookieStore struct {
	mu    sync.Mutex
	base  *url.URL
	jar   *cookiejar.Jar
	saved map[string]*http.Cookie
}

func newJar() (*cookiejar.Jar, error) {
	return cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
}

func newCookieStore(base *url.URL) (*cookieStore, error) {
	jar, err := newJar()
	if err != nil {
		return nil, err
	}
	return &cookieStore{base: base, jar: jar, saved: map[string]*http.Cookie{}}, nil
}

func (s *cookieStore) SetCookies(u *url.URL, cookies []*http.Cookie) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.SetCookies(u, cookies)
	if u.Hostname() != s.base.Hostname() {
		return
	}
	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && c.Expires.Before(now)) {
			delete(s.saved, c.Name)
			continue
		}
		cp := *c
		if cp.MaxAge > 0 {
			cp.Expires = now.Add(time.Duration(cp.MaxAge) * time.Second)
			cp.MaxAge = 0
		}
		s.saved[c.Name] = &cp
	}
}

func (s *cookieStore) Cookies(u *url.URL) []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jar.Cookies(u)
}

func (s *cookieStore) reset() error {
	jar, err := newJar()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jar = jar
	s.saved = map[string]*http.Cookie{}
	return nil
}

func (s *cookieStore) snapshot() []*http.Cookie {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*http.Cookie, 0, len(s.saved))
	for _, c := range s.saved {
		cp := *c
		out = append(out, &cp)
	}
	return out
}

// sessionFile is the on-disk format of persisted cookies.
type sessionFile struct {
	BaseURL string        `json:"base_url"`
	Cookies []savedCookie `json:"cookies"`
}

type savedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// Cookies returns the cookies the jar would send to the backend.
func (c *Client) Cookies() []*http.Cookie {
	return c.cookies.Cookies(c.base)
}

// ClearSession forgets every cookie held by the client.
func (c *Client) ClearSession() error {
	return c.cookies.reset()
}

// LoadSession restores cookies saved by SaveSession. A missing file, or one
// saved for a different backend, leaves the jar empty.
func (c *Client) LoadSession(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read session file %s: %w", path, err)
	}

	var sf sessionFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return fmt.Errorf("failed to parse session file %s: %w", path, err)
	}
	if sf.BaseURL != c.base.String() {
		c.log.WithField("saved_for", sf.BaseURL).Debug("ignoring session saved for another backend")
		return nil
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(sf.Cookies))
	for _, sc := range sf.Cookies {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Domain:   sc.Domain,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HttpOnly,
		})
	}
	c.cookies.SetCookies(c.base, cookies)
	return nil
}

// SaveSession writes the backend's cookies to path, or removes path when
// there are none.
func (c *Client) SaveSession(path string) error {
	cookies := c.cookies.snapshot()
	if len(cookies) == 0 {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session file %s: %w", path, err)
		}
		return nil
	}

	sf := sessionFile{BaseURL: c.base.String()}
	for _, ck := range cookies {
		sf.Cookies = append(sf.Cookies, savedCookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Path:     ck.Path,
			Domain:   ck.Domain,
			Expires:  ck.Expires,
			Secure:   ck.Secure,
			HttpOnly: ck.HttpOnly,
		})
	}

	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file %s: %w", path, err)
	}
	return nil
}
