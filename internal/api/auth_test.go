package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"slotbook/internal/config"
	"slotbook/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.keys = append(l.keys, key)
	return l.allow, l.err
}

func authConfig() config.APIConfig {
	cfg := config.Defaults().API
	cfg.Auth = config.APIAuthConfig{
		Enabled:      true,
		HeaderAPIKey: "x-api-key",
		HeaderExtra:  "x-api-extra",
		APIKeys: []config.APIClientKey{
			{Key: "reader", Extra: "reader-extra", Permissions: []string{"read:members", "read:bookings"}},
			{Key: "admin", Extra: "admin-extra"},
		},
	}
	return cfg
}

func doRequest(t *testing.T, h http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHTTPAuth(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := NewHTTPAuth(authConfig(), nil, nil).Wrap(ok)

	reader := map[string]string{"x-api-key": "reader", "x-api-extra": "reader-extra"}

	t.Run("Success", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/api/members", reader)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("MissingHeaders", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/members", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing api key headers")
	})

	t.Run("InvalidKey", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/members", map[string]string{"x-api-key": "nope", "x-api-extra": "x"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid api key")
	})

	t.Run("InvalidExtra", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodGet, "/members", map[string]string{"x-api-key": "reader", "x-api-extra": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("PermissionDenied", func(t *testing.T) {
		rec := doRequest(t, h, http.MethodPost, "/bookings", reader)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = doRequest(t, h, http.MethodGet, "/activity", reader)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("EmptyPermissionsAllowAll", func(t *testing.T) {
		admin := map[string]string{"x-api-key": "admin", "x-api-extra": "admin-extra"}
		rec := doRequest(t, h, http.MethodPost, "/api/bookings/cancel", admin)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestRequiredPermission(t *testing.T) {
	cases := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/members", permReadMembers},
		{http.MethodGet, "/api/bookings", permReadBookings},
		{http.MethodPost, "/bookings", permWriteBookings},
		{http.MethodPost, "/api/bookings/cancel", permWriteBookings},
		{http.MethodGet, "/calendar", permReadBookings},
		{http.MethodGet, "/comments", permReadComments},
		{http.MethodPost, "/api/comments", permWriteComments},
		{http.MethodGet, "/participation/export", permReadParticipation},
		{http.MethodGet, "/activity", permReadActivity},
		{http.MethodGet, "/healthz", ""},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			assert.Equal(t, tc.want, requiredPermission(req))
		})
	}
}

func TestHTTPRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	cfg := config.Defaults().API
	cfg.RateLimit.Enabled = true

	t.Run("Rejected", func(t *testing.T) {
		lim := &stubLimiter{allow: false}
		h := NewHTTPAuth(cfg, lim, nil).Wrap(ok)
		rec := doRequest(t, h, http.MethodGet, "/members", map[string]string{"x-api-key": "client-1"})
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, []string{"client-1"}, lim.keys)
	})

	t.Run("RemoteAddrKey", func(t *testing.T) {
		lim := &stubLimiter{allow: true}
		h := NewHTTPAuth(cfg, lim, nil).Wrap(ok)
		req := httptest.NewRequest(http.MethodGet, "/members", nil)
		req.RemoteAddr = "10.0.0.7:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"10.0.0.7"}, lim.keys)
	})

	t.Run("LimiterErrorFailsOpen", func(t *testing.T) {
		lim := &stubLimiter{err: errors.New("redis down")}
		h := NewHTTPAuth(cfg, lim, nil).Wrap(ok)
		rec := doRequest(t, h, http.MethodGet, "/members", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("DisabledSkipsLimiter", func(t *testing.T) {
		disabled := config.Defaults().API
		lim := &stubLimiter{allow: false}
		h := NewHTTPAuth(disabled, lim, nil).Wrap(ok)
		rec := doRequest(t, h, http.MethodGet, "/members", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, lim.keys)
	})

	t.Run("MemoryLimiterEndToEnd", func(t *testing.T) {
		h := NewHTTPAuth(cfg, repository.NewMemoryRateLimiter(2, time.Minute), nil).Wrap(ok)
		headers := map[string]string{"x-api-key": "burst"}
		assert.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/members", headers).Code)
		assert.Equal(t, http.StatusOK, doRequest(t, h, http.MethodGet, "/members", headers).Code)
		assert.Equal(t, http.StatusTooManyRequests, doRequest(t, h, http.MethodGet, "/members", headers).Code)
	})
}

func TestAuthThroughRouter(t *testing.T) {
	env := newTestEnv(t, authConfig(), nil)

	resp := env.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.get(t, "/members")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, env.ts.URL+"/api/members", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "reader")
	req.Header.Set("X-API-Extra", "reader-extra")
	authed, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer authed.Body.Close()
	assert.Equal(t, http.StatusOK, authed.StatusCode)
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("Wildcard", func(t *testing.T) {
		h := corsMiddleware([]string{"*"})(ok)
		rec := doRequest(t, h, http.MethodGet, "/members", map[string]string{"Origin": "http://example.com"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight", func(t *testing.T) {
		h := corsMiddleware([]string{"http://app.local"})(ok)
		rec := doRequest(t, h, http.MethodOptions, "/bookings", map[string]string{"Origin": "http://app.local"})
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://app.local", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPost)
	})

	t.Run("UnknownOrigin", func(t *testing.T) {
		h := corsMiddleware([]string{"http://app.local"})(ok)
		rec := doRequest(t, h, http.MethodGet, "/members", map[string]string{"Origin": "http://evil.local"})
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("PreflightBypassesAuth", func(t *testing.T) {
		env := newTestEnv(t, authConfig(), nil)
		req, err := http.NewRequest(http.MethodOptions, env.ts.URL+"/api/bookings", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://example.com")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}
