package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(auth *APIKeyAuth, called *bool) *gin.Engine {
	r := gin.New()
	r.Use(auth.Middleware())
	r.GET("/test", func(c *gin.Context) {
		*called = true
		c.Status(http.StatusOK)
	})
	return r
}

func TestNewAPIKeyAuth(t *testing.T) {
	t.Parallel()

	t.Run("creates auth with valid keys", func(t *testing.T) {
		t.Parallel()

		auth := NewAPIKeyAuth([]string{"key1", "key2", "key3"}, nil)

		require.NotNil(t, auth)
		assert.Len(t, auth.apiKeys, 3)
		assert.True(t, auth.apiKeys["key2"])
	})

	t.Run("filters out empty and blank keys", func(t *testing.T) {
		t.Parallel()

		auth := NewAPIKeyAuth([]string{"key1", "", " key2 ", "   "}, nil)

		assert.Len(t, auth.apiKeys, 2)
		assert.True(t, auth.apiKeys["key1"])
		assert.True(t, auth.apiKeys["key2"])
	})

	t.Run("uses default logger when nil", func(t *testing.T) {
		t.Parallel()

		auth := NewAPIKeyAuth([]string{"key1"}, nil)
		require.NotNil(t, auth.log)
	})
}

func TestAPIKeyAuth_Middleware_Success(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headerName string
		apiKey     string
		validKeys  []string
	}{
		{name: "valid X-API-Key header", headerName: headerAPIKey, apiKey: "valid-key-123", validKeys: []string{"valid-key-123"}},
		{name: "valid Authorization Bearer header", headerName: headerAuth, apiKey: "Bearer valid-key-456", validKeys: []string{"valid-key-456"}},
		{name: "matches one of multiple valid keys", headerName: headerAPIKey, apiKey: "key2", validKeys: []string{"key1", "key2", "key3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			r := newTestRouter(NewAPIKeyAuth(tt.validKeys, zap.NewNop()), &called)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set(tt.headerName, tt.apiKey)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.True(t, called, "handler should have been called")
			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestAPIKeyAuth_Middleware_Unauthorized(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		headerName string
		apiKey     string
		validKeys  []string
	}{
		{name: "missing API key", validKeys: []string{"valid-key"}},
		{name: "invalid API key in X-API-Key header", headerName: headerAPIKey, apiKey: "invalid-key", validKeys: []string{"valid-key"}},
		{name: "invalid API key in Authorization header", headerName: headerAuth, apiKey: "Bearer invalid-key", validKeys: []string{"valid-key"}},
		{name: "no valid keys configured", headerName: headerAPIKey, apiKey: "any-key", validKeys: []string{}},
		{name: "malformed Authorization header", headerName: headerAuth, apiKey: "valid-key", validKeys: []string{"valid-key"}},
		{name: "case sensitive mismatch", headerName: headerAPIKey, apiKey: "Valid-Key", validKeys: []string{"valid-key"}},
		{name: "partial key match", headerName: headerAPIKey, apiKey: "valid", validKeys: []string{"valid-key"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			r := newTestRouter(NewAPIKeyAuth(tt.validKeys, zap.NewNop()), &called)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.headerName != "" {
				req.Header.Set(tt.headerName, tt.apiKey)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.False(t, called, "handler should not have been called")
			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, unauthorizedError, body["error"])
		})
	}
}

func TestAPIKeyAuth_ExtractAPIKey(t *testing.T) {
	t.Parallel()

	auth := NewAPIKeyAuth(nil, zap.NewNop())

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "X-API-Key wins over Authorization", headers: map[string]string{headerAPIKey: "a", headerAuth: "Bearer b"}, want: "a"},
		{name: "bearer token", headers: map[string]string{headerAuth: "Bearer b"}, want: "b"},
		{name: "basic auth ignored", headers: map[string]string{headerAuth: "Basic dXNlcjpwYXNz"}, want: ""},
		{name: "nothing", headers: map[string]string{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, auth.extractAPIKey(req))
		})
	}
}

func TestAPIKeyAuth_LogsRejections(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	called := false
	r := newTestRouter(NewAPIKeyAuth([]string{"k"}, zap.New(core)), &called)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "/test", entry.ContextMap()["path"])
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/teapot", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/teapot", nil))

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
}
