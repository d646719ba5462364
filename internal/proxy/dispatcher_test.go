package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/spec-kit/edge-gateway/pkg/util"
)

func TestRewritePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		route Route
		path  string
		want  string
	}{
		{
			name:  "strip prefix substitute replacement",
			route: Route{Prefix: "/gateway/users", RewritePrefix: "/v1"},
			path:  "/gateway/users/42",
			want:  "/v1/42",
		},
		{
			name:  "proxy users route",
			route: Route{Prefix: "/api/proxy/users", RewritePrefix: "/v1"},
			path:  "/api/proxy/users/accounts",
			want:  "/v1/accounts",
		},
		{
			name:  "proxy catalog route",
			route: Route{Prefix: "/api/proxy/catalog", RewritePrefix: "/api"},
			path:  "/api/proxy/catalog/items/7",
			want:  "/api/items/7",
		},
		{
			name:  "exact prefix maps to bare replacement",
			route: Route{Prefix: "/api/proxy/users", RewritePrefix: "/v1"},
			path:  "/api/proxy/users",
			want:  "/v1",
		},
		{
			name:  "path outside prefix untouched",
			route: Route{Prefix: "/api/proxy/users", RewritePrefix: "/v1"},
			path:  "/other/path",
			want:  "/other/path",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.route.RewritePath(tt.path))
		})
	}
}

func newProxyApp(t *testing.T, route Route, timeout time.Duration) *fiber.App {
	t.Helper()
	app := fiber.New(fiber.Config{StreamRequestBody: true})
	d := NewDispatcher(timeout, zap.NewNop())
	app.All(route.Prefix+"/*", d.Handler(route))
	return app
}

func TestForwardRewritesPathAndHeaders(t *testing.T) {
	t.Parallel()

	var gotPath, gotAuth, gotReqID, gotQuery string
	var gotBody []byte
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-Id")
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("X-Upstream", "users-service")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	route := Route{Prefix: "/api/proxy/users", Upstream: upstream.URL, RewritePrefix: "/v1"}
	app := newProxyApp(t, route, 5*time.Second)

	req := httptest.NewRequest(http.MethodPost, "/api/proxy/users/42?active=true", strings.NewReader(`{"name":"x"}`))
	req.Header.Set("Authorization", "Bearer token-bytes")
	req.Header.Set("X-Request-Id", "corr-123")
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, string(body))
	assert.Equal(t, "users-service", resp.Header.Get("X-Upstream"))

	assert.Equal(t, "/v1/42", gotPath)
	assert.Equal(t, "active=true", gotQuery)
	assert.Equal(t, "Bearer token-bytes", gotAuth, "authorization forwarded byte-for-byte")
	assert.Equal(t, "corr-123", gotReqID)
	assert.JSONEq(t, `{"name":"x"}`, string(gotBody))
}

func TestForwardStreamsLargeResponse(t *testing.T) {
	t.Parallel()

	payload := strings.Repeat("x", 1<<20)
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, payload)
	}))
	defer upstream.Close()

	route := Route{Prefix: "/api/proxy/users", Upstream: upstream.URL, RewritePrefix: "/v1"}
	app := newProxyApp(t, route, 5*time.Second)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/proxy/users/blob", nil), 10000)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Len(t, body, len(payload))
}

func TestForwardUnreachableUpstream(t *testing.T) {
	t.Parallel()

	// Reserved port with nothing listening.
	route := Route{Prefix: "/api/proxy/users", Upstream: "http://127.0.0.1:1", RewritePrefix: "/v1"}

	d := NewDispatcher(time.Second, zap.NewNop())
	app := fiber.New(fiber.Config{StreamRequestBody: true})
	var captured error
	app.Use(func(c *fiber.Ctx) error {
		captured = c.Next()
		if captured != nil {
			domainErr := apperrors.ToDomainError(captured)
			return c.SendStatus(domainErr.HTTPStatus)
		}
		return nil
	})
	app.All(route.Prefix+"/*", d.Handler(route))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/proxy/users/42", nil), 10000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	require.Error(t, captured)
	assert.Equal(t, "UPSTREAM_UNAVAILABLE", apperrors.ToDomainError(captured).Code)
}

func TestForwardUpstreamTimeout(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer upstream.Close()

	route := Route{Prefix: "/api/proxy/users", Upstream: upstream.URL, RewritePrefix: "/v1"}
	d := NewDispatcher(200*time.Millisecond, zap.NewNop())

	app := fiber.New(fiber.Config{StreamRequestBody: true})
	var captured error
	app.Use(func(c *fiber.Ctx) error {
		captured = c.Next()
		if captured != nil {
			domainErr := apperrors.ToDomainError(captured)
			return c.SendStatus(domainErr.HTTPStatus)
		}
		return nil
	})
	app.All(route.Prefix+"/*", d.Handler(route))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/proxy/users/slow", nil), 10000)
	require.NoError(t, err)
	assert.Equal(t, http.StatusGatewayTimeout, resp.StatusCode)
	require.Error(t, captured)
	assert.Equal(t, "UPSTREAM_TIMEOUT", apperrors.ToDomainError(captured).Code)
}
