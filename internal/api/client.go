// Package api is the typed client of the inventory backend.
//
// Every call goes through the console's interceptor chain:
// Auth → Error → Loading.
package api

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

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stockadmin/console/internal/interceptors"
	"github.com/stockadmin/console/internal/models"
	"github.com/stockadmin/console/internal/session"
	"go.uber.org/zap"
)

// ErrNoRefreshToken is returned by Refresh when the session holds no refresh token
var ErrNoRefreshToken = errors.New("no refresh token in session")

// Options configures the client
type Options struct {
	BaseURL   string
	Transport http.RoundTripper
	Timeout   time.Duration
	Auth      interceptors.AuthOptions
	SkipList  []string
}

// Client calls the inventory API on behalf of the current session
type Client struct {
	baseURL  string
	timeout  time.Duration
	http     *http.Client
	sessions *session.Manager
	logger   *zap.Logger
}

// NewClient creates an API client whose requests run through the interceptor chain
func NewClient(opts Options, sessions *session.Manager, indicator interceptors.Indicator, logger *zap.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		timeout:  opts.Timeout,
		sessions: sessions,
		logger:   logger,
	}

	chain := interceptors.NewChain(opts.Transport,
		interceptors.NewAuthInterceptor(sessions, c, opts.Auth, logger),
		interceptors.NewErrorInterceptor(logger),
		interceptors.NewLoadingInterceptor(indicator, opts.SkipList),
	)
	// No http.Client timeout: it would replace the normalized error. Calls are bounded by context instead.
	c.http = &http.Client{Transport: chain}

	return c
}

// Login authenticates the user and stores the new session
func (c *Client) Login(ctx context.Context, email, password string) (models.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return models.Session{}, fmt.Errorf("email and password are required")
	}

	var tokens models.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", models.LoginRequest{Email: email, Password: password}, &tokens); err != nil {
		return models.Session{}, err
	}
	if tokens.AccessToken == "" {
		return models.Session{}, fmt.Errorf("login response carries no access token")
	}

	s := models.Session{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Role:         tokens.Role,
		UserID:       tokens.UserID,
		Email:        email,
	}
	if s.Role == "" {
		s.Role = roleFromToken(tokens.AccessToken)
	}

	c.sessions.SetSession(ctx, s)
	c.logger.Info("logged in", zap.String("email", email), zap.String("role", string(s.Role)))
	return s, nil
}

// Refresh exchanges the refresh token for new tokens and stores them.
// It is called by the auth interceptor and should not be used directly.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	current := c.sessions.Snapshot()
	if current.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	var tokens models.TokenResponse
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", models.RefreshRequest{RefreshToken: current.RefreshToken}, &tokens); err != nil {
		return "", fmt.Errorf("failed to refresh tokens: %w", err)
	}
	if tokens.AccessToken == "" {
		return "", fmt.Errorf("refresh response carries no access token")
	}

	next := current
	next.AccessToken = tokens.AccessToken
	if tokens.RefreshToken != "" {
		next.RefreshToken = tokens.RefreshToken
	}
	if tokens.Role != "" {
		next.Role = tokens.Role
	} else if role := roleFromToken(tokens.AccessToken); role != "" {
		next.Role = role
	}
	if tokens.UserID != 0 {
		next.UserID = tokens.UserID
	}

	c.sessions.SetSession(ctx, next)
	return next.AccessToken, nil
}

// Logout revokes the refresh token on the server and clears the local session.
// The local session is cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) {
	current := c.sessions.Snapshot()
	if current.Authenticated() {
		if err := c.do(ctx, http.MethodPost, "/api/auth/logout", models.RefreshRequest{RefreshToken: current.RefreshToken}, nil); err != nil {
			c.logger.Warn("server logout failed", zap.Error(err))
		}
	}
	c.sessions.Clear(ctx)
}

// Health checks that the API is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// do sends a JSON request and decodes the JSON response into out.
// Failures are returned as *models.APIError when the chain produced one.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		var apiErr *models.APIError
		if errors.As(err, &apiErr) {
			return apiErr
		}
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// roleFromToken reads the role claim of an access token without verifying it.
// The server verifies tokens; the console only needs the claim to pick routes.
func roleFromToken(token string) models.Role {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	role, _ := claims["role"].(string)
	if r := models.Role(role); r.Valid() {
		return r
	}
	return ""
}
