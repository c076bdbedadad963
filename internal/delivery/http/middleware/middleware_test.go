package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"nexulsly-backend/internal/domain"
	"nexulsly-backend/pkg/apperror"
	"nexulsly-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSMiddleware(t *testing.T) {
	t.Run("wildcard", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware("*"))
		r.POST("/api/contact", func(c *gin.Context) { c.Status(http.StatusCreated) })

		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.Header.Set("Origin", "https://anywhere.example")
		w := serve(r, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	})

	t.Run("allow list", func(t *testing.T) {
		r := gin.New()
		r.Use(CORSMiddleware("https://nexulsly.com, https://www.nexulsly.com"))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://www.nexulsly.com")
		w := serve(r, req)
		assert.Equal(t, "https://www.nexulsly.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))

		req = httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		w = serve(r, req)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight short circuits", func(t *testing.T) {
		called := false
		r := gin.New()
		r.Use(CORSMiddleware("*"))
		r.OPTIONS("/api/contact", func(c *gin.Context) { called = true })

		w := serve(r, httptest.NewRequest(http.MethodOptions, "/api/contact", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.False(t, called)
	})
}

func TestRequestID(t *testing.T) {
	var fromCtx, fromGin string
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		fromCtx = domain.RequestIDFromContext(c.Request.Context())
		fromGin = c.GetString("RequestID")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, fromCtx)
	assert.Equal(t, generated, fromGin)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "edge-abc.123")
	w = serve(r, req)
	assert.Equal(t, "edge-abc.123", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "bad id\r\nX-Injected: 1")
	w = serve(r, req)
	assert.NotContains(t, w.Header().Get(RequestIDHeader), "Injected")
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		c.Error(apperror.BadRequest("Invalid form data").WithDetails([]domain.FieldError{{Field: "email", Message: "bad"}}))
	})
	r.GET("/raw", func(c *gin.Context) {
		c.Error(errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/app", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"errors":[{"field":"email","message":"bad"}]`)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/raw", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "10.0.0.5")
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	for _, production := range []bool{false, true} {
		r := gin.New()
		r.Use(SecurityHeadersMiddleware(production))
		r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.Equal(t, production, w.Header().Get("Strict-Transport-Security") != "")
	}
}

func rateLimitedRouter(cfg RateLimitConfig) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(cfg))
	r.POST("/api/contact", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRateLimitMiddleware_InMemory(t *testing.T) {
	r := rateLimitedRouter(ContactRateLimitConfig(3))

	post := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		req.RemoteAddr = ip + ":5555"
		return serve(r, req)
	}

	for i := 0; i < 3; i++ {
		w := post("192.0.2.1")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	}

	w := post("192.0.2.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "20", w.Header().Get("Retry-After"))
	assert.True(t, strings.Contains(w.Body.String(), `"success":false`))

	// other clients have their own bucket
	assert.Equal(t, http.StatusOK, post("192.0.2.2").Code)
}

func unreachableRedis(t *testing.T) *goredis.Client {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRateLimitMiddleware_RedisDown(t *testing.T) {
	t.Run("fails open to memory buckets", func(t *testing.T) {
		cfg := ContactRateLimitConfig(1)
		cfg.Redis = unreachableRedis(t)
		r := rateLimitedRouter(cfg)

		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodPost, "/api/contact", nil)).Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodPost, "/api/contact", nil)).Code)
	})

	t.Run("fails closed when configured", func(t *testing.T) {
		cfg := ContactRateLimitConfig(1)
		cfg.Redis = unreachableRedis(t)
		cfg.FailClosed = true
		r := rateLimitedRouter(cfg)

		w := serve(r, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestMemoryLimiter_Refills(t *testing.T) {
	m := newMemoryLimiter(2, time.Minute)
	now := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

	assert.True(t, m.allow("k", now).allowed)
	assert.True(t, m.allow("k", now).allowed)
	denied := m.allow("k", now)
	assert.False(t, denied.allowed)
	assert.InDelta(t, float64(30*time.Second), float64(denied.retryAfter), float64(time.Millisecond))

	assert.True(t, m.allow("k", now.Add(31*time.Second)).allowed)
}

func TestMemoryLimiter_SweepsIdleBuckets(t *testing.T) {
	m := newMemoryLimiter(5, time.Minute)
	now := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

	m.allow("old", now)
	m.allow("new", now.Add(10*time.Minute))

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.NotContains(t, m.buckets, "old")
	assert.Contains(t, m.buckets, "new")
}

func TestAdminAuth(t *testing.T) {
	const secret = "admin-secret"
	r := gin.New()
	r.Use(AdminAuth(secret, nil))
	r.GET("/api/contacts", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(string(domain.KeyAdminSub)))
	})

	get := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/contacts", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		return serve(r, req)
	}

	assert.Equal(t, http.StatusUnauthorized, get("").Code)
	assert.Equal(t, http.StatusUnauthorized, get("Basic dXNlcjpwYXNz").Code)

	wrong, err := auth.IssueAdminToken("other-secret", "ops", time.Hour, time.Now())
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get("Bearer "+wrong).Code)

	token, err := auth.IssueAdminToken(secret, "ops", time.Hour, time.Now())
	require.NoError(t, err)
	w := get("Bearer " + token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops", w.Body.String())
}

func TestAdminAuth_OpenWithoutSecret(t *testing.T) {
	r := gin.New()
	r.Use(AdminAuth("", nil))
	r.GET("/api/contacts", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/api/contacts", nil)).Code)
}
