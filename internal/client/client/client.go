package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Tokens is the session persisted between CLI invocations.
type Tokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// TokenStore persists Tokens. Load returns zero Tokens when nothing is stored.
type TokenStore interface {
	Load() (Tokens, error)
	Save(t Tokens) error
	Clear() error
}

type User struct {
	ID    string  `json:"id"`
	Email string  `json:"email"`
	Name  *string `json:"name"`
}

type AuthResponse struct {
	Message      string `json:"message"`
	User         *User  `json:"user,omitempty"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
	store   TokenStore
}

func NewHTTPClient(baseURL string, timeout time.Duration, store TokenStore) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		store:   store,
	}
}

func (c *HTTPClient) Register(ctx context.Context, email, password string, name *string) (*AuthResponse, error) {
	req := struct {
		Email    string  `json:"email"`
		Password string  `json:"password"`
		Name     *string `json:"name,omitempty"`
	}{email, password, name}

	return c.authenticate(ctx, "/auth/register", req)
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	req := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{email, password}

	return c.authenticate(ctx, "/auth/login", req)
}

// Refresh rotates the stored token pair.
func (c *HTTPClient) Refresh(ctx context.Context) (*AuthResponse, error) {
	tokens, err := c.store.Load()
	if err != nil {
		return nil, err
	}
	if tokens.RefreshToken == "" {
		return nil, ErrNotLoggedIn
	}

	req := struct {
		RefreshToken string `json:"refreshToken"`
	}{tokens.RefreshToken}

	return c.authenticate(ctx, "/auth/refresh", req)
}

// Logout revokes the stored refresh token and forgets the session. The local
// session is cleared even when the server cannot be reached.
func (c *HTTPClient) Logout(ctx context.Context) (*MessageResponse, error) {
	tokens, err := c.store.Load()
	if err != nil {
		return nil, err
	}

	req := struct {
		RefreshToken string `json:"refreshToken"`
	}{tokens.RefreshToken}

	var res MessageResponse
	callErr := c.do(ctx, http.MethodPost, "/auth/logout", "", req, &res)

	if err := c.store.Clear(); err != nil {
		return nil, err
	}
	if callErr != nil {
		return nil, callErr
	}
	return &res, nil
}

func (c *HTTPClient) RequestPasswordReset(ctx context.Context, email string) (*MessageResponse, error) {
	req := struct {
		Email string `json:"email"`
	}{email}

	var res MessageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/password-reset/request", "", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) ResetPassword(ctx context.Context, token, newPassword string) (*MessageResponse, error) {
	req := struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}{token, newPassword}

	var res MessageResponse
	if err := c.do(ctx, http.MethodPost, "/auth/password-reset/confirm", "", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Me fetches the profile of the logged-in user, refreshing once on 401.
func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.doAuthed(ctx, http.MethodGet, "/auth/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", "", nil, nil)
}

func (c *HTTPClient) authenticate(ctx context.Context, path string, req any) (*AuthResponse, error) {
	var res AuthResponse
	if err := c.do(ctx, http.MethodPost, path, "", req, &res); err != nil {
		return nil, err
	}
	if err := c.store.Save(Tokens{AccessToken: res.AccessToken, RefreshToken: res.RefreshToken}); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return &res, nil
}

func (c *HTTPClient) doAuthed(ctx context.Context, method, path string, out any) error {
	tokens, err := c.store.Load()
	if err != nil {
		return err
	}
	if tokens.AccessToken == "" {
		return ErrNotLoggedIn
	}

	err = c.do(ctx, method, path, tokens.AccessToken, nil, out)
	if err == nil || !errors.Is(err, ErrUnauthorized) || tokens.RefreshToken == "" {
		return err
	}

	// access token expired or rejected, rotate and retry once
	res, err := c.Refresh(ctx)
	if err != nil {
		return err
	}

	return c.do(ctx, method, path, res.AccessToken, nil, out)
}

func (c *HTTPClient) do(ctx context.Context, method, path, accessToken string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
