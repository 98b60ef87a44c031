package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/handler"
	internalmiddleware "github.com/biniyam0960/Student-information-System/internal/middleware"
	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/pkg/config"
)

type roleTokens struct{}

func (roleTokens) ValidateToken(token string) (*models.JWTClaims, error) {
	switch models.UserRole(token) {
	case models.RoleAdmin, models.RoleTeacher, models.RoleStudent:
		return &models.JWTClaims{UserID: 9, Role: models.UserRole(token)}, nil
	}
	return nil, errors.New("invalid token")
}

type denyAll struct{}

func (denyAll) Take(context.Context, string) (internalmiddleware.RateDecision, error) {
	return internalmiddleware.RateDecision{Allowed: false, RetryAfter: time.Second}, nil
}

type routeRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *routeRecorder) ObserveHTTPRequest(method, path string, _ int, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, method+" "+path)
}

func testRouter(t *testing.T, env string, observer internalmiddleware.RequestObserver) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Env:       env,
		APIPrefix: "/api/",
		RateLimit: config.RateLimitConfig{Enabled: true, Capacity: 5},
	}
	return newRouter(routerDeps{
		cfg:      cfg,
		logger:   zap.NewNop(),
		tokens:   roleTokens{},
		limiter:  denyAll{},
		observer: observer,
		handlers: handlers{
			auth:        handler.NewAuthHandler(nil),
			students:    handler.NewStudentHandler(nil),
			teachers:    handler.NewTeacherHandler(nil),
			departments: handler.NewDepartmentHandler(nil),
			courses:     handler.NewCourseHandler(nil),
			sections:    handler.NewSectionHandler(nil),
			enrollments: handler.NewEnrollmentHandler(nil),
			grades:      handler.NewGradeHandler(nil),
			attendance:  handler.NewAttendanceHandler(nil),
			exports:     handler.NewExportHandler(nil),
			ops:         handler.NewMetricsHandler(nil, nil),
		},
	})
}

func do(r http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterOpsEndpoints(t *testing.T) {
	r := testRouter(t, config.EnvDevelopment, nil)

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/ready", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/metrics", "").Code)

	prod := testRouter(t, config.EnvProduction, nil)
	assert.Equal(t, http.StatusNotFound, do(prod, http.MethodGet, "/docs/index.html", "").Code)
}

func TestRouterEnforcesRoles(t *testing.T) {
	r := testRouter(t, config.EnvDevelopment, nil)

	cases := []struct {
		method, path, token string
		want                int
	}{
		{http.MethodGet, "/api/students", "", http.StatusUnauthorized},
		{http.MethodGet, "/api/students", "bogus", http.StatusUnauthorized},
		{http.MethodGet, "/api/students", "student", http.StatusForbidden},
		{http.MethodPost, "/api/students", "teacher", http.StatusForbidden},
		{http.MethodDelete, "/api/courses/1", "teacher", http.StatusForbidden},
		{http.MethodPost, "/api/enrollments", "teacher", http.StatusForbidden},
		{http.MethodPost, "/api/enrollments/drop", "admin", http.StatusForbidden},
		{http.MethodGet, "/api/enrollments/section/1", "student", http.StatusForbidden},
		{http.MethodPost, "/api/grades/grades", "student", http.StatusForbidden},
		{http.MethodGet, "/api/grades/my/gpa", "teacher", http.StatusForbidden},
		{http.MethodGet, "/api/grades/students/1/gpa", "student", http.StatusForbidden},
		{http.MethodPost, "/api/grades/my/transcript/export", "admin", http.StatusForbidden},
		{http.MethodPost, "/api/sections/1/roster/export", "student", http.StatusForbidden},
		{http.MethodPost, "/api/attendance", "student", http.StatusForbidden},
		{http.MethodGet, "/api/attendance/my", "admin", http.StatusForbidden},
		{http.MethodGet, "/api/teachers", "teacher", http.StatusForbidden},
		{http.MethodGet, "/api/auth/me", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		w := do(r, tc.method, tc.path, tc.token)
		assert.Equal(t, tc.want, w.Code, "%s %s as %q", tc.method, tc.path, tc.token)
	}
}

func TestRouterThrottlesLogin(t *testing.T) {
	r := testRouter(t, config.EnvDevelopment, nil)

	w := do(r, http.MethodPost, "/api/auth/login", "")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
}

func TestRouterObservesRouteTemplates(t *testing.T) {
	rec := &routeRecorder{}
	r := testRouter(t, config.EnvDevelopment, rec)

	do(r, http.MethodGet, "/api/students/42", "")
	do(r, http.MethodGet, "/nowhere", "")

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, []string{"GET /api/students/:id", "GET unmatched"}, rec.paths)
}
