package middlewares

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecotrack/config"
	"ecotrack/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func withSecret(t *testing.T) {
	t.Helper()
	utils.SetJWTSecret("mw-secret")
	t.Cleanup(func() { utils.SetJWTSecret("") })
}

func bearer(t *testing.T, userID, role string, ttl time.Duration) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(userID, userID+"@example.com", role, ttl)
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(r *gin.Engine, method, path, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	withSecret(t)
	r := gin.New()
	r.GET("/me", AuthMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.GetString(UserIDKey), "role": c.GetString(RoleKey)})
	})

	w := serve(r, http.MethodGet, "/me", bearer(t, "u1", "", time.Hour))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":"u1","role":"user"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "").Code)
	assert.Equal(t, http.StatusBadRequest, serve(r, http.MethodGet, "/me", "Token abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/me", "Bearer abc").Code)

	w = serve(r, http.MethodGet, "/me", bearer(t, "u1", "", -time.Minute))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token expired")
}

func TestRBACMiddleware(t *testing.T) {
	withSecret(t)
	enforcer, err := NewEnforcer(config.DefaultPolicies)
	require.NoError(t, err)

	r := gin.New()
	r.POST("/admin/periods/reset", AuthMiddleware(), RBACMiddleware(enforcer, "points", "reset"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	r.GET("/admin/leaderboard", AuthMiddleware(), RBACMiddleware(enforcer, "leaderboard", "read"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodPost, "/admin/periods/reset", bearer(t, "a", "admin", time.Hour)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/admin/periods/reset", bearer(t, "m", "moderator", time.Hour)).Code)
	assert.Equal(t, http.StatusNoContent, serve(r, http.MethodGet, "/admin/leaderboard", bearer(t, "m", "moderator", time.Hour)).Code)
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/admin/leaderboard", bearer(t, "u", "user", time.Hour)).Code)
}

func TestRBACMiddleware_RequiresIdentity(t *testing.T) {
	enforcer, err := NewEnforcer(config.DefaultPolicies)
	require.NoError(t, err)
	r := gin.New()
	r.GET("/x", RBACMiddleware(enforcer, "points", "reset"), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/x", "").Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(r, http.MethodGet, "/ping", "")
	id := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

type stubLimiter struct {
	allow bool
	err   error
	seen  []string
}

func (s *stubLimiter) Allow(_ context.Context, userID string) (bool, error) {
	s.seen = append(s.seen, userID)
	return s.allow, s.err
}

func TestSubmissionRateLimit(t *testing.T) {
	newRouter := func(l Limiter) *gin.Engine {
		r := gin.New()
		r.POST("/entries", func(c *gin.Context) { c.Set(UserIDKey, "u1") }, SubmissionRateLimit(l), func(c *gin.Context) {
			c.Status(http.StatusCreated)
		})
		return r
	}

	deny := &stubLimiter{allow: false}
	assert.Equal(t, http.StatusTooManyRequests, serve(newRouter(deny), http.MethodPost, "/entries", "").Code)
	assert.Equal(t, []string{"u1"}, deny.seen)

	allow := &stubLimiter{allow: true}
	assert.Equal(t, http.StatusCreated, serve(newRouter(allow), http.MethodPost, "/entries", "").Code)

	broken := &stubLimiter{allow: true, err: errors.New("redis down")}
	assert.Equal(t, http.StatusCreated, serve(newRouter(broken), http.MethodPost, "/entries", "").Code)

	assert.Equal(t, http.StatusCreated, serve(newRouter(nil), http.MethodPost, "/entries", "").Code)
}
