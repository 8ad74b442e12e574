package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stockadmin/console/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig() *config.ServerConfig {
	cfg := &config.ServerConfig{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.AccessTokenExpiry = time.Minute
	cfg.JWT.RefreshTokenExpiry = time.Hour
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.HTTP.RateLimitPerMinute = 1000
	cfg.HTTP.MaxRequestSize = 1024
	return cfg
}

func TestNew(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	app := New(db, testConfig(), zap.NewNop())

	require.NotNil(t, app)
	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Seeder)
	assert.NotNil(t, app.TokenCleaner)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/api/health", expectedStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, path: "/metrics", expectedStatus: http.StatusOK},
		{name: "swagger ui", method: http.MethodGet, path: "/swagger/index.html", expectedStatus: http.StatusOK},
		{name: "products need a token", method: http.MethodGet, path: "/api/products", expectedStatus: http.StatusUnauthorized},
		{name: "users need a token", method: http.MethodGet, path: "/api/users", expectedStatus: http.StatusUnauthorized},
		{name: "unknown route", method: http.MethodGet, path: "/api/nothing", expectedStatus: http.StatusNotFound},
		{name: "body too large", method: http.MethodPost, path: "/api/auth/login", body: strings.Repeat("x", 2048), expectedStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			app.Router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestNewHTTPServer(t *testing.T) {
	srv := NewHTTPServer(9090, http.NotFoundHandler())

	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, 15*time.Second, srv.ReadTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}
