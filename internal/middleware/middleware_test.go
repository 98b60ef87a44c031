package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/pkg/config"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

type stubValidator map[string]*models.JWTClaims

func (v stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

var testTokens = stubValidator{
	"admin-token":   {UserID: 1, Role: models.RoleAdmin},
	"student-token": {UserID: 9, Role: models.RoleStudent},
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func serve(router *gin.Engine, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestJWTAndRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", JWT(testTokens), RequireRoles(models.RoleAdmin), func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		require.True(t, ok)
		assert.Equal(t, int64(1), actor.UserID)
		c.Status(http.StatusNoContent)
	})

	rec := serve(router, http.MethodGet, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/admin", "bogus")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(router, http.MethodGet, "/admin", "student-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, appErrors.ErrForbidden.Code, errorCode(t, rec))

	rec = serve(router, http.MethodGet, "/admin", "admin-token")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestJWTRejectsMalformedHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", JWT(testTokens), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Token admin-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", OptionalJWT(testTokens), func(c *gin.Context) {
		if _, ok := CurrentClaims(c); ok {
			c.String(http.StatusOK, "user")
			return
		}
		c.String(http.StatusOK, "anon")
	})

	assert.Equal(t, "anon", serve(router, http.MethodGet, "/", "").Body.String())
	assert.Equal(t, "anon", serve(router, http.MethodGet, "/", "bogus").Body.String())
	assert.Equal(t, "user", serve(router, http.MethodGet, "/", "student-token").Body.String())
}

type fakeLimiter struct {
	remaining int64
	err       error
	keys      []string
}

func (f *fakeLimiter) Take(_ context.Context, key string) (RateDecision, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return RateDecision{}, f.err
	}
	if f.remaining <= 0 {
		return RateDecision{Allowed: false, RetryAfter: 1500 * time.Millisecond}, nil
	}
	f.remaining--
	return RateDecision{Allowed: true, Remaining: f.remaining}, nil
}

func TestRateLimitBlocksWhenBucketEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &fakeLimiter{remaining: 1}
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 1, Prefix: "rl"}
	router := gin.New()
	router.POST("/auth/login", RateLimit(limiter, cfg, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := serve(router, http.MethodPost, "/auth/login", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

	rec = serve(router, http.MethodPost, "/auth/login", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, appErrors.ErrTooManyRequests.Code, errorCode(t, rec))

	require.Len(t, limiter.keys, 2)
	assert.Equal(t, "rl:ip:192.0.2.1:route:POST /auth/login", limiter.keys[0])
}

func TestRateLimitFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &fakeLimiter{err: errors.New("redis down")}
	router := gin.New()
	router.POST("/auth/login", RateLimit(limiter, config.RateLimitConfig{Enabled: true, Capacity: 5}, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/auth/login", "").Code)
}

func TestRateLimitDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := &fakeLimiter{}
	router := gin.New()
	router.POST("/auth/login", RateLimit(limiter, config.RateLimitConfig{}, nil), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/auth/login", "").Code)
	assert.Empty(t, limiter.keys)
}

type memoryAudit struct {
	entries []*models.AuditLog
}

func (m *memoryAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, log)
	return nil
}

func TestAuditRecordsSuccessfulRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	audit := &memoryAudit{}
	router := gin.New()
	router.DELETE("/students/:id", JWT(testTokens), Audit(audit, nil, "student.delete", "students", "id"), func(c *gin.Context) {
		if c.Param("id") == "404" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusNoContent)
	})

	serve(router, http.MethodDelete, "/students/404", "admin-token")
	assert.Empty(t, audit.entries)

	serve(router, http.MethodDelete, "/students/12", "admin-token")
	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, "student.delete", entry.Action)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, int64(1), *entry.UserID)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "12", *entry.ResourceID)
}

type observedRequest struct {
	method, path string
	status       int
}

type recordingObserver struct {
	seen []observedRequest
}

func (r *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	r.seen = append(r.seen, observedRequest{method, path, status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/sections/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(router, http.MethodGet, "/sections/5", "")
	serve(router, http.MethodGet, "/nope", "")

	require.Len(t, observer.seen, 2)
	assert.Equal(t, observedRequest{http.MethodGet, "/sections/:id", http.StatusOK}, observer.seen[0])
	assert.Equal(t, "unmatched", observer.seen[1].path)
}

func TestResponseMetaCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, ExtractMeta(c))
	})

	rec := serve(router, http.MethodGet, "/", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
	assert.NotContains(t, meta, "started_at")
}
