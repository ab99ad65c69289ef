// Package authsvc is the client for the external auth/database service.
// Every operation is a context-bound HTTP call returning either a typed
// payload or an error from the taxonomy in errors.go.
package authsvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"splitdash/internal/core"
)

// User is the authenticated identity as the service reports it.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated session: the bearer token plus its user.
type Session struct {
	AccessToken string `json:"access_token"`
	User        User   `json:"user"`
}

type profileRow struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	AvatarURL string    `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Client talks to the auth/database service. Construct it once at startup
// from config; it is safe for concurrent use.
type Client struct {
	baseURL        string
	apiKey         string
	httpClient     *http.Client
	profileRetries int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithProfileRetries bounds the retry count for profile reads. Writes
// (sign-in, sign-up) are never retried: retrying them risks duplicate
// side effects.
func WithProfileRetries(n int) Option {
	return func(c *Client) {
		c.profileRetries = n
	}
}

// New creates a client for the service at baseURL, authenticating every
// request with apiKey. timeout bounds each individual HTTP request.
func New(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:        baseURL,
		apiKey:         apiKey,
		httpClient:     &http.Client{Timeout: timeout},
		profileRetries: 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type serviceErrorBody struct {
	Message  string `json:"message"`
	ErrorMsg string `json:"error_description"`
}

func (b serviceErrorBody) text() string {
	if b.Message != "" {
		return b.Message
	}
	return b.ErrorMsg
}

// SignInWithPassword exchanges email/password credentials for a session.
// Single attempt: a failed sign-in is surfaced, never retried.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}

	var session Session
	if err := c.post(ctx, "/auth/v1/token?grant_type=password", "", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp registers a new account and creates its profile row. The service
// rejects duplicate emails with an AuthError.
func (c *Client) SignUp(ctx context.Context, email, password, name string) (*Session, error) {
	body := map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"name": name},
	}

	var session Session
	if err := c.post(ctx, "/auth/v1/signup", "", body, &session); err != nil {
		return nil, err
	}

	// Create the profile row for the fresh account. A failure here is
	// logged but does not fail the sign-up: the account exists and the
	// app tolerates a missing profile.
	profile := profileRow{
		ID:        session.User.ID,
		Name:      name,
		AvatarURL: "https://api.dicebear.com/7.x/avataaars/svg?seed=" + url.QueryEscape(name),
	}
	if err := c.post(ctx, "/rest/v1/profiles", session.AccessToken, profile, nil); err != nil {
		slog.ErrorContext(ctx, "Profile creation failed after sign-up",
			"user_id", session.User.ID, "error", err)
	}

	return &session, nil
}

// SignOut invalidates the session's token on the service.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.post(ctx, "/auth/v1/logout", accessToken, nil, nil)
}

// GetCurrentUser resolves the token's user, or nil if the token is no
// longer valid.
func (c *Client) GetCurrentUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.get(ctx, "/auth/v1/user", accessToken, &user); err != nil {
		if IsAuthError(err) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// GetUserProfile fetches the profile row for userID. Transient service
// failures are retried with bounded backoff; this is a read, so retrying
// is safe. Exhausted retries or a missing row yield a ProfileFetchError.
func (c *Client) GetUserProfile(ctx context.Context, accessToken, userID string) (*core.UserProfile, error) {
	path := "/rest/v1/profiles?select=*&id=eq." + url.QueryEscape(userID)

	var rows []profileRow
	var lastErr error
	for attempt := 0; attempt <= c.profileRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &ProfileFetchError{UserID: userID, Err: ctx.Err()}
			case <-time.After(time.Duration(attempt) * 250 * time.Millisecond):
			}
			slog.DebugContext(ctx, "Retrying profile fetch", "user_id", userID, "attempt", attempt)
		}

		lastErr = c.get(ctx, path, accessToken, &rows)
		if lastErr == nil {
			break
		}
		if !IsServiceError(lastErr) {
			return nil, &ProfileFetchError{UserID: userID, Err: lastErr}
		}
	}
	if lastErr != nil {
		return nil, &ProfileFetchError{UserID: userID, Err: lastErr}
	}
	if len(rows) == 0 {
		return nil, &ProfileFetchError{UserID: userID, Err: ErrProfileNotFound}
	}

	row := rows[0]
	return &core.UserProfile{
		ID:        row.ID,
		Name:      row.Name,
		AvatarURL: row.AvatarURL,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func (c *Client) post(ctx context.Context, path, accessToken string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	return c.do(ctx, http.MethodPost, path, accessToken, reader, out)
}

func (c *Client) get(ctx context.Context, path, accessToken string, out any) error {
	return c.do(ctx, http.MethodGet, path, accessToken, nil, out)
}

func (c *Client) do(ctx context.Context, method, path, accessToken string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &ServiceError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &ServiceError{Op: method + " " + path, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		var errBody serviceErrorBody
		msg := fmt.Sprintf("request failed with status %d", resp.StatusCode)
		if err := json.NewDecoder(resp.Body).Decode(&errBody); err == nil && errBody.text() != "" {
			msg = errBody.text()
		}
		return &AuthError{Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServiceError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
