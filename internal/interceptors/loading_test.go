package interceptors

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stockadmin/console/internal/loading"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// countingIndicator records Show and Hide calls
type countingIndicator struct {
	mu    sync.Mutex
	shows int
	hides int
}

func (c *countingIndicator) Show() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.shows++
}

func (c *countingIndicator) Hide() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hides++
}

func (c *countingIndicator) counts() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shows, c.hides
}

// trackingBody counts Close calls
type trackingBody struct {
	data   string
	r      io.Reader
	closed int
}

func (b *trackingBody) Read(p []byte) (int, error) {
	if b.r == nil {
		b.r = strings.NewReader(b.data)
	}
	return b.r.Read(p)
}

func (b *trackingBody) Close() error {
	b.closed++
	return nil
}

func TestNewLoadingInterceptor(t *testing.T) {
	ind := &countingIndicator{}

	assert.Equal(t, DefaultSkipList, NewLoadingInterceptor(ind, nil).skipList)
	assert.Empty(t, NewLoadingInterceptor(ind, []string{}).skipList)
}

func TestLoadingInterceptor_SkipList(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		expectToggled bool
	}{
		{name: "refresh endpoint", url: "http://console.test/api/auth/refresh", expectToggled: false},
		{name: "health endpoint", url: "http://console.test/api/health", expectToggled: false},
		{name: "logout endpoint", url: "http://console.test/api/auth/logout", expectToggled: false},
		{name: "fragment inside query", url: "http://console.test/api/ping?next=/api/health", expectToggled: false},
		{name: "products", url: "http://console.test/api/products", expectToggled: true},
		{name: "login is tracked", url: "http://console.test/api/auth/login", expectToggled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := &countingIndicator{}
			transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusOK, "{}"), nil
			})
			req, err := http.NewRequest(http.MethodGet, tt.url, nil)
			require.NoError(t, err)

			resp, err := NewChain(transport, NewLoadingInterceptor(ind, nil)).RoundTrip(req)
			require.NoError(t, err)
			resp.Body.Close()

			shows, hides := ind.counts()
			if tt.expectToggled {
				assert.Equal(t, 1, shows)
				assert.Equal(t, 1, hides)
			} else {
				assert.Zero(t, shows)
				assert.Zero(t, hides)
			}
		})
	}
}

func TestLoadingInterceptor_SettlesOnce(t *testing.T) {
	tests := []struct {
		name      string
		transport roundTripperFunc
		consume   func(t *testing.T, resp *http.Response)
	}{
		{
			name: "body read to end then closed",
			transport: func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusOK, `[{"id":1}]`), nil
			},
			consume: func(t *testing.T, resp *http.Response) {
				_, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				resp.Body.Close()
			},
		},
		{
			name: "body closed twice without reading",
			transport: func(req *http.Request) (*http.Response, error) {
				return respond(req, http.StatusOK, `[{"id":1}]`), nil
			},
			consume: func(t *testing.T, resp *http.Response) {
				resp.Body.Close()
				resp.Body.Close()
			},
		},
		{
			name: "transport error",
			transport: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("connection reset")
			},
		},
		{
			name: "canceled request",
			transport: func(req *http.Request) (*http.Response, error) {
				return nil, context.Canceled
			},
		},
		{
			name: "empty body",
			transport: func(req *http.Request) (*http.Response, error) {
				resp := respond(req, http.StatusNoContent, "")
				resp.Body = http.NoBody
				return resp, nil
			},
			consume: func(t *testing.T, resp *http.Response) {
				resp.Body.Close()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ind := &countingIndicator{}
			req, err := http.NewRequest(http.MethodGet, "http://console.test/api/products", nil)
			require.NoError(t, err)

			resp, err := NewChain(tt.transport, NewLoadingInterceptor(ind, nil)).RoundTrip(req)
			if err == nil && tt.consume != nil {
				tt.consume(t, resp)
			}

			shows, hides := ind.counts()
			assert.Equal(t, 1, shows)
			assert.Equal(t, 1, hides)
		})
	}
}

func TestLoadingInterceptor_PendingUntilBodySettles(t *testing.T) {
	svc := loading.NewService(zap.NewNop())
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return respond(req, http.StatusOK, "payload"), nil
	})
	req, err := http.NewRequest(http.MethodGet, "http://console.test/api/movements", nil)
	require.NoError(t, err)

	resp, err := NewChain(transport, NewLoadingInterceptor(svc, nil)).RoundTrip(req)
	require.NoError(t, err)
	assert.True(t, svc.Loading())

	_, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.False(t, svc.Loading())

	resp.Body.Close()
	assert.Equal(t, 0, svc.Pending())
}

func TestLoadingInterceptor_ErrorResponseThroughErrorStage(t *testing.T) {
	ind := &countingIndicator{}
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return respond(req, http.StatusInternalServerError, `{"error":"boom"}`), nil
	})
	req, err := http.NewRequest(http.MethodGet, "http://console.test/api/products", nil)
	require.NoError(t, err)

	_, err = NewChain(transport, NewErrorInterceptor(zap.NewNop()), NewLoadingInterceptor(ind, nil)).RoundTrip(req)

	assert.Error(t, err)
	shows, hides := ind.counts()
	assert.Equal(t, 1, shows)
	assert.Equal(t, 1, hides)
}

func TestLoadingInterceptor_PanicStillSettles(t *testing.T) {
	ind := &countingIndicator{}
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		panic("transport exploded")
	})
	req, err := http.NewRequest(http.MethodGet, "http://console.test/api/products", nil)
	require.NoError(t, err)

	assert.Panics(t, func() {
		NewChain(transport, NewLoadingInterceptor(ind, nil)).RoundTrip(req)
	})

	shows, hides := ind.counts()
	assert.Equal(t, 1, shows)
	assert.Equal(t, 1, hides)
}

func TestLoadingInterceptor_DoesNotAlterErrors(t *testing.T) {
	original := errors.New("dial tcp: connection refused")
	transport := roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return nil, original
	})
	req, err := http.NewRequest(http.MethodGet, "http://console.test/api/products", nil)
	require.NoError(t, err)

	_, err = NewChain(transport, NewLoadingInterceptor(&countingIndicator{}, nil)).RoundTrip(req)

	assert.Same(t, original, err)
}

func TestLoadingInterceptor_CancelMidFlight(t *testing.T) {
	svc := loading.NewService(zap.NewNop())
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewChain(nil, NewErrorInterceptor(zap.NewNop()), NewLoadingInterceptor(svc, nil))}
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/products", nil)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := client.Do(req)
		done <- err
	}()

	<-started
	assert.True(t, svc.Loading())
	cancel()

	assert.Error(t, <-done)
	assert.Equal(t, 0, svc.Pending())
}
