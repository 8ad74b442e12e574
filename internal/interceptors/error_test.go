package interceptors

import (
	"context"
	"errors"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stockadmin/console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// timeoutError is a net.Error reporting a timeout
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestErrorInterceptor_Intercept(t *testing.T) {
	tests := []struct {
		name            string
		transport       roundTripperFunc
		expectedError   bool
		expectedKind    models.ErrorKind
		expectedStatus  int
		expectedMessage string
	}{
		{
			name: "success passes through",
			transport: func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusOK, `[]`), nil
			},
		},
		{
			name: "redirect status passes through",
			transport: func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusNotModified, ""), nil
			},
		},
		{
			name: "unauthorized maps to auth expired",
			transport: func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusUnauthorized, `{"error":"invalid or expired token"}`), nil
			},
			expectedError:   true,
			expectedKind:    models.ErrorKindAuthExpired,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "invalid or expired token",
		},
		{
			name: "not found maps to client error",
			transport: func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusNotFound, `{"error":"product not found"}`), nil
			},
			expectedError:   true,
			expectedKind:    models.ErrorKindClient,
			expectedStatus:  http.StatusNotFound,
			expectedMessage: "product not found",
		},
		{
			name: "forbidden with message field",
			transport: func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusForbidden, `{"message":"insufficient permissions"}`), nil
			},
			expectedError:   true,
			expectedKind:    models.ErrorKindClient,
			expectedStatus:  http.StatusForbidden,
			expectedMessage: "insufficient permissions",
		},
		{
			name: "server error with plain body",
			transport: func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusBadGateway, "upstream unavailable\n"), nil
			},
			expectedError:   true,
			expectedKind:    models.ErrorKindServer,
			expectedStatus:  http.StatusBadGateway,
			expectedMessage: "upstream unavailable",
		},
		{
			name: "server error without body",
			transport: func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusInternalServerError, ""), nil
			},
			expectedError:   true,
			expectedKind:    models.ErrorKindServer,
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Internal Server Error",
		},
		{
			name: "connection refused maps to network",
			transport: func(req *http.Request) (*http.Response, error) {
				return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
			},
			expectedError: true,
			expectedKind:  models.ErrorKindNetwork,
		},
		{
			name: "net timeout maps to timeout",
			transport: func(req *http.Request) (*http.Response, error) {
				return nil, timeoutError{}
			},
			expectedError: true,
			expectedKind:  models.ErrorKindTimeout,
		},
		{
			name: "deadline maps to timeout",
			transport: func(req *http.Request) (*http.Response, error) {
				return nil, context.DeadlineExceeded
			},
			expectedError: true,
			expectedKind:  models.ErrorKindTimeout,
		},
		{
			name: "cancel maps to canceled",
			transport: func(req *http.Request) (*http.Response, error) {
				return nil, context.Canceled
			},
			expectedError: true,
			expectedKind:  models.ErrorKindCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain(tt.transport, NewErrorInterceptor(zap.NewNop()))
			req, err := http.NewRequest(http.MethodGet, "http://console.test/api/products/1", nil)
			require.NoError(t, err)

			resp, err := c.RoundTrip(req)

			if !tt.expectedError {
				require.NoError(t, err)
				require.NotNil(t, resp)
				resp.Body.Close()
				return
			}

			assert.Nil(t, resp)
			var apiErr *models.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.expectedKind, apiErr.Kind)
			assert.Equal(t, tt.expectedStatus, apiErr.HTTPStatus)
			assert.Equal(t, "http://console.test/api/products/1", apiErr.URL)
			if tt.expectedMessage != "" {
				assert.Equal(t, tt.expectedMessage, apiErr.Message)
			}
		})
	}
}

func TestErrorInterceptor_ClosesErrorBody(t *testing.T) {
	body := &trackingBody{data: `{"error":"bad request"}`}
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		resp := respond(req, http.StatusBadRequest, "")
		resp.Body = body
		return resp, nil
	})
	req, err := http.NewRequest(http.MethodGet, "http://console.test/api/products", nil)
	require.NoError(t, err)

	_, err = NewChain(transport, NewErrorInterceptor(zap.NewNop())).RoundTrip(req)

	assert.Error(t, err)
	assert.Equal(t, 1, body.closed)
}

func TestErrorInterceptor_KeepsExistingAPIError(t *testing.T) {
	original := &models.APIError{Kind: models.ErrorKindRefreshFailed, Message: "session expired"}
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return nil, original
	})
	req, err := http.NewRequest(http.MethodGet, "http://console.test/api/products", nil)
	require.NoError(t, err)

	_, err = NewChain(transport, NewErrorInterceptor(zap.NewNop())).RoundTrip(req)

	assert.Same(t, original, err)
}

func TestErrorInterceptor_ThroughHTTPClient(t *testing.T) {
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return respond(req, http.StatusServiceUnavailable, `{"error":"maintenance"}`), nil
	})
	client := &http.Client{Transport: NewChain(transport, NewErrorInterceptor(zap.NewNop()))}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://console.test/api/products", nil)
	require.NoError(t, err)

	_, err = client.Do(req)

	var apiErr *models.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, models.ErrorKindServer, apiErr.Kind)
	assert.Equal(t, "maintenance", apiErr.Message)
}
