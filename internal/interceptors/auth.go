package interceptors

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/stockadmin/console/internal/metrics"
	"github.com/stockadmin/console/internal/models"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const refreshKey = "refresh"

// Refresher is the interface that wraps the token refresh call.
type Refresher interface {
	// Method Refresh exchanges the stored refresh token for a new access token.
	//
	// On success the new session must already be stored when Refresh returns,
	// so that requests settling afterwards pick up the new token.
	Refresh(ctx context.Context) (string, error)
}

// TokenStore is the interface that wraps the session operations used by the auth stage.
type TokenStore interface {
	// Method Token returns the current access token or an empty string.
	Token() string
	// Method Clear drops the current session.
	Clear(ctx context.Context)
}

// AuthOptions configures the auth stage
type AuthOptions struct {
	// HeaderName is the header carrying the credential
	HeaderName string
	// Scheme prefixes the token in the header value
	Scheme string
	// RefreshPath and LoginPath are URL fragments of requests that are never refreshed
	RefreshPath string
	LoginPath   string
	// RefreshTimeout bounds a single refresh call
	RefreshTimeout time.Duration
	// OnRefreshFailed is called after the session was cleared because the refresh failed
	OnRefreshFailed func()
}

// DefaultAuthOptions returns the options used by the console
func DefaultAuthOptions() AuthOptions {
	return AuthOptions{
		HeaderName:     "Authorization",
		Scheme:         "Bearer",
		RefreshPath:    "/api/auth/refresh",
		LoginPath:      "/api/auth/login",
		RefreshTimeout: 10 * time.Second,
	}
}

// AuthInterceptor attaches the access token to outgoing requests and
// recovers from expired tokens with a single refresh and retry.
//
// Concurrent requests failing with an expired token share one refresh call.
type AuthInterceptor struct {
	tokens    TokenStore
	refresher Refresher
	opts      AuthOptions
	group     singleflight.Group
	logger    *zap.Logger
}

// NewAuthInterceptor creates an auth stage. Zero option fields fall back to DefaultAuthOptions.
func NewAuthInterceptor(tokens TokenStore, refresher Refresher, opts AuthOptions, logger *zap.Logger) *AuthInterceptor {
	defaults := DefaultAuthOptions()
	if opts.HeaderName == "" {
		opts.HeaderName = defaults.HeaderName
	}
	if opts.Scheme == "" {
		opts.Scheme = defaults.Scheme
	}
	if opts.RefreshPath == "" {
		opts.RefreshPath = defaults.RefreshPath
	}
	if opts.LoginPath == "" {
		opts.LoginPath = defaults.LoginPath
	}
	if opts.RefreshTimeout <= 0 {
		opts.RefreshTimeout = defaults.RefreshTimeout
	}

	return &AuthInterceptor{
		tokens:    tokens,
		refresher: refresher,
		opts:      opts,
		logger:    logger,
	}
}

// Intercept implements Interceptor
func (a *AuthInterceptor) Intercept(req *http.Request, next Next) (*http.Response, error) {
	token := a.tokens.Token()
	resp, err := next(a.authorize(req, token))
	if token == "" || !isAuthExpired(err) || a.excluded(req) || req.Context().Err() != nil {
		return resp, err
	}

	newToken, refreshErr := a.refresh(req.Context(), token)
	if refreshErr != nil {
		return nil, refreshErr
	}

	retry, rewindErr := rewind(req)
	if rewindErr != nil {
		a.logger.Warn("request body cannot be replayed after token refresh",
			zap.String("url", req.URL.String()),
			zap.Error(rewindErr),
		)
		return nil, err
	}

	return next(a.authorize(retry, newToken))
}

// authorize returns a copy of req carrying token. The caller's request is never modified.
func (a *AuthInterceptor) authorize(req *http.Request, token string) *http.Request {
	if token == "" {
		return req
	}
	r := req.Clone(req.Context())
	r.Header.Set(a.opts.HeaderName, a.opts.Scheme+" "+token)
	return r
}

func (a *AuthInterceptor) excluded(req *http.Request) bool {
	path := req.URL.Path
	return strings.Contains(path, a.opts.RefreshPath) || strings.Contains(path, a.opts.LoginPath)
}

// refresh returns a fresh access token, replacing stale.
//
// Only one refresh runs at a time. A caller arriving after another refresh
// already replaced stale gets the current token without a new refresh call.
// The refresh is detached from the caller's context so that one canceled
// request does not fail the others waiting on it.
func (a *AuthInterceptor) refresh(ctx context.Context, stale string) (string, error) {
	ch := a.group.DoChan(refreshKey, func() (any, error) {
		current := a.tokens.Token()
		if current == "" && stale != "" {
			// an earlier refresh failed and already cleared the session
			return nil, &models.APIError{
				Kind:    models.ErrorKindRefreshFailed,
				Message: "session expired, please log in again",
			}
		}
		if current != stale {
			return current, nil
		}

		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.opts.RefreshTimeout)
		defer cancel()

		token, err := a.refresher.Refresh(rctx)
		if err == nil && token == "" {
			err = errors.New("refresh returned an empty access token")
		}
		if err != nil {
			metrics.TokenRefreshes.WithLabelValues("failure").Inc()
			a.logger.Warn("access token refresh failed, clearing session", zap.Error(err))
			a.tokens.Clear(rctx)
			if a.opts.OnRefreshFailed != nil {
				a.opts.OnRefreshFailed()
			}
			return nil, &models.APIError{
				Kind:    models.ErrorKindRefreshFailed,
				Message: "session expired, please log in again",
				Err:     err,
			}
		}

		metrics.TokenRefreshes.WithLabelValues("success").Inc()
		a.logger.Debug("access token refreshed")
		return token, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", &models.APIError{
			Kind:    models.ErrorKindCanceled,
			Message: ctx.Err().Error(),
			Err:     ctx.Err(),
		}
	}
}

func isAuthExpired(err error) bool {
	var apiErr *models.APIError
	return errors.As(err, &apiErr) && apiErr.Kind == models.ErrorKindAuthExpired
}

// rewind returns a copy of req with a fresh body for a second attempt
func rewind(req *http.Request) (*http.Request, error) {
	r := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return r, nil
	}
	if req.GetBody == nil {
		return nil, errors.New("request body is not replayable")
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	r.Body = body
	return r, nil
}
