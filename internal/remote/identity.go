// Package remote implements the two server-talking components: the
// identity/session client (C10, HTTP+JSON) and the remote store client
// (C9, MySQL-wire). Both are adapted from the teacher's sidecar HTTP
// client (functional options, typed API errors, bearer tokens) and its
// Dolt server-mode store (go-sql-driver/mysql, OpenTelemetry spans).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Session is the bearer credential returned by the identity server.
type Session struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	AccountID string    `json:"accountId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// refreshWindow is how far ahead of ExpiresAt a drain tick must refresh
// the session (§4.9's "drain MUST refresh if within a small window of
// expiry").
const refreshWindow = 2 * time.Minute

// NearExpiry reports whether s should be refreshed before further use.
func (s *Session) NearExpiry(now time.Time) bool {
	return s == nil || now.Add(refreshWindow).After(s.ExpiresAt)
}

// Me is the identity profile returned by GET /me.
type Me struct {
	UserID    string `json:"userId"`
	AccountID string `json:"accountId"`
	Email     string `json:"email"`
}

// APIError is a typed failure from the identity server, carrying the
// status code, an optional machine-readable code, and a message.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity: %s (%s, status %d)", e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("identity: %s (status %d)", e.Message, e.StatusCode)
}

// IsUnauthorized reports whether the server rejected the session outright.
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// sessionGate is the subset of *netgate.Gate an IdentityClient needs to
// report liveness back to; tests can satisfy it without a real Gate.
type sessionGate interface {
	SetSessionAlive(alive bool)
}

// IdentityClient is an HTTP client for the account/session server.
type IdentityClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	gate       sessionGate
}

// IdentityOption configures an IdentityClient.
type IdentityOption func(*IdentityClient)

// WithToken sets the bearer auth token used on every request.
func WithToken(token string) IdentityOption {
	return func(c *IdentityClient) { c.token = token }
}

// WithHTTPClient overrides the default http.Client (timeouts, transport).
func WithHTTPClient(hc *http.Client) IdentityOption {
	return func(c *IdentityClient) { c.httpClient = hc }
}

// WithSessionGate wires a network gate to receive this client's
// liveness observations: every successful call reports the session
// alive, and a 401 response reports it dead, so the gate's IsOnline
// check reflects authentication state without a separate poll.
func WithSessionGate(gate sessionGate) IdentityOption {
	return func(c *IdentityClient) { c.gate = gate }
}

// NewIdentityClient constructs an IdentityClient for the server at baseURL.
func NewIdentityClient(baseURL string, opts ...IdentityOption) *IdentityClient {
	c := &IdentityClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetSession fetches the current session for the client's bearer token.
func (c *IdentityClient) GetSession(ctx context.Context) (*Session, error) {
	var sess Session
	if err := c.getJSON(ctx, "/session", &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// RefreshSession exchanges the current session for a new one with a later
// expiry.
func (c *IdentityClient) RefreshSession(ctx context.Context) (*Session, error) {
	var sess Session
	if err := c.postJSON(ctx, "/session/refresh", nil, &sess); err != nil {
		return nil, err
	}
	c.token = sess.Token
	return &sess, nil
}

// Me fetches the identity profile bound to the current session.
func (c *IdentityClient) Me(ctx context.Context) (*Me, error) {
	var me Me
	if err := c.getJSON(ctx, "/me", &me); err != nil {
		return nil, err
	}
	return &me, nil
}

func (c *IdentityClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *IdentityClient) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		aerr := c.parseError(resp)
		c.reportLiveness(aerr)
		return aerr
	}
	c.reportLiveness(nil)
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("identity: GET %s: decode: %w", path, err)
		}
	}
	return nil
}

func (c *IdentityClient) postJSON(ctx context.Context, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("identity: marshal: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, http.MethodPost, path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity: POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		aerr := c.parseError(resp)
		c.reportLiveness(aerr)
		return aerr
	}
	c.reportLiveness(nil)
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("identity: POST %s: decode: %w", path, err)
		}
	}
	return nil
}

func (c *IdentityClient) parseError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(resp.Body)
	aerr := &APIError{StatusCode: resp.StatusCode}

	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		aerr.Code = errResp.Code
		aerr.Message = errResp.Message
	} else {
		aerr.Message = strings.TrimSpace(string(body))
	}
	return aerr
}

// reportLiveness forwards this call's outcome to the wired gate, if any.
// An unauthorized response marks the session dead; anything else
// (success, or a non-auth failure) marks it alive — the gate's separate
// reachability probe handles pure connectivity loss.
func (c *IdentityClient) reportLiveness(apiErr *APIError) {
	if c.gate == nil {
		return
	}
	c.gate.SetSessionAlive(apiErr == nil || !apiErr.IsUnauthorized())
}
