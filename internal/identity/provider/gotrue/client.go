// Package gotrue implements provider.Provider against a GoTrue-compatible auth
// server (the admin API for identity management, the public API for signup and
// password sign-in).
package gotrue

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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/estevao-reis/juntos-por-mais/internal/identity/domain"
	"github.com/estevao-reis/juntos-por-mais/internal/identity/provider"
)

// Client talks to a GoTrue server. ServiceKey authorizes admin calls; AnonKey
// is sent on public endpoints and falls back to ServiceKey when empty.
type Client struct {
	BaseURL    string
	ServiceKey string
	AnonKey    string
	HTTP       *http.Client
}

// NewClient returns a Client with an instrumented HTTP transport.
func NewClient(baseURL, serviceKey, anonKey string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		AnonKey:    anonKey,
		HTTP: &http.Client{
			Timeout:   10 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

var _ provider.Provider = (*Client)(nil)

type userResponse struct {
	ID               string            `json:"id"`
	Email            string            `json:"email"`
	EmailConfirmedAt *time.Time        `json:"email_confirmed_at"`
	UserMetadata     map[string]any    `json:"user_metadata"`
	Identities       []json.RawMessage `json:"identities"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// sessionResponse is returned by /token and, when autoconfirm is on, by /signup.
type sessionResponse struct {
	AccessToken string        `json:"access_token"`
	User        *userResponse `json:"user"`
}

type errorResponse struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error_code"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// APIError is a non-2xx answer that maps to no provider sentinel.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gotrue: status %d: %s (%s)", e.Status, e.Message, e.Code)
}

// CreateIdentity creates a user through the admin API.
func (c *Client) CreateIdentity(ctx context.Context, email, password string, preConfirmed bool, metadata domain.Metadata) (*domain.Identity, error) {
	body := map[string]any{
		"email":         email,
		"password":      password,
		"email_confirm": preConfirmed,
	}
	if len(metadata) > 0 {
		body["user_metadata"] = metadata
	}
	var u userResponse
	if err := c.do(ctx, http.MethodPost, "/admin/users", c.ServiceKey, body, &u); err != nil {
		return nil, err
	}
	return u.toDomain(), nil
}

// DeleteIdentity deletes a user through the admin API.
func (c *Client) DeleteIdentity(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+url.PathEscape(id), c.ServiceKey, nil, nil)
}

// UpdateIdentityEmail changes a user's email through the admin API. The new
// address is marked confirmed since an admin made the change.
func (c *Client) UpdateIdentityEmail(ctx context.Context, id, email string) error {
	body := map[string]any{"email": email, "email_confirm": true}
	return c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(id), c.ServiceKey, body, nil)
}

// SignUp registers through the public signup endpoint. GoTrue answers an
// obfuscated user with no identities when the email is already registered.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata domain.Metadata) (*provider.SignUpResult, error) {
	body := map[string]any{"email": email, "password": password}
	if len(metadata) > 0 {
		body["data"] = metadata
	}
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/signup", c.publicKey(), body, &raw); err != nil {
		return nil, err
	}
	u, err := decodeSignUp(raw)
	if err != nil {
		return nil, err
	}
	return &provider.SignUpResult{Identity: u.toDomain(), IdentitiesCreated: len(u.Identities)}, nil
}

func decodeSignUp(raw json.RawMessage) (*userResponse, error) {
	var s sessionResponse
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	if s.User != nil {
		return s.User, nil
	}
	var u userResponse
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("decode signup response: %w", err)
	}
	return &u, nil
}

// SignInWithPassword verifies credentials with the password grant.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.Identity, error) {
	body := map[string]any{"email": email, "password": password}
	var s sessionResponse
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", c.publicKey(), body, &s); err != nil {
		return nil, err
	}
	if s.User == nil {
		return nil, fmt.Errorf("gotrue: token response without user")
	}
	return s.User.toDomain(), nil
}

func (c *Client) publicKey() string {
	if c.AnonKey != "" {
		return c.AnonKey
	}
	return c.ServiceKey
}

func (c *Client) do(ctx context.Context, method, path, key string, in, out any) error {
	var reader io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("apikey", key)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return mapError(res)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mapError(res *http.Response) error {
	var e errorResponse
	_ = json.NewDecoder(io.LimitReader(res.Body, 64<<10)).Decode(&e)
	code := e.ErrorCode
	if code == "" {
		code = e.Error
	}
	msg := e.Msg
	if msg == "" {
		msg = e.ErrorDescription
	}
	switch {
	case res.StatusCode == http.StatusNotFound || code == "user_not_found":
		return provider.ErrIdentityNotFound
	case code == "email_exists" || code == "user_already_exists" ||
		strings.Contains(strings.ToLower(msg), "already been registered"):
		return provider.ErrIdentityExists
	case code == "email_not_confirmed":
		return provider.ErrEmailNotConfirmed
	case code == "invalid_credentials" || code == "invalid_grant":
		return provider.ErrInvalidCredentials
	}
	return &APIError{Status: res.StatusCode, Code: code, Message: msg}
}

func (u *userResponse) toDomain() *domain.Identity {
	meta := make(domain.Metadata, len(u.UserMetadata))
	for k, v := range u.UserMetadata {
		if s, ok := v.(string); ok {
			meta[k] = s
		}
	}
	return &domain.Identity{
		ID:          u.ID,
		Email:       u.Email,
		ConfirmedAt: u.EmailConfirmedAt,
		Metadata:    meta,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
