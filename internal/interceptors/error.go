package interceptors

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/stockadmin/console/internal/metrics"
	"github.com/stockadmin/console/internal/models"
	"go.uber.org/zap"
)

const maxErrorBodySize = 64 * 1024

// ErrorInterceptor turns transport failures and error statuses into *models.APIError.
// It never retries.
type ErrorInterceptor struct {
	logger *zap.Logger
}

// NewErrorInterceptor creates an error normalization stage
func NewErrorInterceptor(logger *zap.Logger) *ErrorInterceptor {
	return &ErrorInterceptor{logger: logger}
}

// Intercept implements Interceptor
func (e *ErrorInterceptor) Intercept(req *http.Request, next Next) (*http.Response, error) {
	resp, err := next(req)
	if err != nil {
		apiErr := normalizeTransportError(req, err)
		e.report(req, apiErr)
		return nil, apiErr
	}

	if resp.StatusCode < http.StatusBadRequest {
		return resp, nil
	}

	apiErr := &models.APIError{
		Kind:       models.KindForStatus(resp.StatusCode),
		HTTPStatus: resp.StatusCode,
		Message:    readErrorMessage(resp),
		URL:        req.URL.String(),
	}
	resp.Body.Close()

	e.report(req, apiErr)
	return nil, apiErr
}

func (e *ErrorInterceptor) report(req *http.Request, apiErr *models.APIError) {
	metrics.RequestErrors.WithLabelValues(string(apiErr.Kind)).Inc()

	fields := []zap.Field{
		zap.String("request_id", req.Header.Get("X-Request-ID")),
		zap.String("method", req.Method),
		zap.String("url", apiErr.URL),
		zap.String("kind", string(apiErr.Kind)),
		zap.Int("status", apiErr.HTTPStatus),
		zap.String("message", apiErr.Message),
	}

	switch apiErr.Kind {
	case models.ErrorKindAuthExpired, models.ErrorKindCanceled:
		// recovered by the auth stage or requested by the caller
		e.logger.Debug("API request failed", fields...)
	case models.ErrorKindServer, models.ErrorKindNetwork:
		e.logger.Error("API request failed", fields...)
	default:
		e.logger.Warn("API request failed", fields...)
	}
}

// normalizeTransportError classifies an error returned before any response was received
func normalizeTransportError(req *http.Request, err error) *models.APIError {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	kind := models.ErrorKindNetwork
	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		kind = models.ErrorKindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		kind = models.ErrorKindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = models.ErrorKindTimeout
	}

	return &models.APIError{
		Kind:    kind,
		Message: err.Error(),
		URL:     req.URL.String(),
		Err:     err,
	}
}

// readErrorMessage extracts the message of an error response.
// JSON bodies of the form {"error": "..."} or {"message": "..."} are understood;
// anything else falls back to the raw body or the status text.
func readErrorMessage(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err != nil || len(body) == 0 {
		return http.StatusText(resp.StatusCode)
	}

	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
