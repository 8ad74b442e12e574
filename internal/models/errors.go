package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Errors returned by the development API layers. Handlers map them to status codes.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrValidation         = errors.New("invalid input")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
)

// ErrorKind classifies a failed API call
type ErrorKind string

// ErrorKind constants
const (
	ErrorKindNetwork       ErrorKind = "network_unreachable"
	ErrorKindTimeout       ErrorKind = "timeout"
	ErrorKindClient        ErrorKind = "http_client_error"
	ErrorKindServer        ErrorKind = "http_server_error"
	ErrorKindAuthExpired   ErrorKind = "auth_expired"
	ErrorKindRefreshFailed ErrorKind = "refresh_failed"
	ErrorKindCanceled      ErrorKind = "canceled"
)

// APIError is the normalized shape of every failure surfaced by the HTTP interceptor chain
type APIError struct {
	Kind       ErrorKind
	HTTPStatus int
	Message    string
	URL        string
	Err        error
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.HTTPStatus != 0 {
		return fmt.Sprintf("%s (%d %s): %s", e.Kind, e.HTTPStatus, http.StatusText(e.HTTPStatus), e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause
func (e *APIError) Unwrap() error {
	return e.Err
}

// KindForStatus maps an HTTP status code of a failed response to an ErrorKind
func KindForStatus(status int) ErrorKind {
	switch {
	case status == http.StatusUnauthorized:
		return ErrorKindAuthExpired
	case status >= 500:
		return ErrorKindServer
	default:
		return ErrorKindClient
	}
}
