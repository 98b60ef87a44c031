package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biniyam0960/Student-information-System/internal/middleware"
	"github.com/biniyam0960/Student-information-System/internal/models"
	"github.com/biniyam0960/Student-information-System/internal/service"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

type envelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *appErrors.Error       `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func withUser(c *gin.Context, userID int64, role models.UserRole) {
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: userID, Role: role})
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

type authServiceMock struct {
	registeredRole models.UserRole
	loginReq       models.LoginRequest
	loginErr       error
	meUserID       int64
}

func (m *authServiceMock) Register(_ context.Context, callerRole models.UserRole, req models.RegisterRequest) (*models.UserInfo, error) {
	m.registeredRole = callerRole
	return &models.UserInfo{ID: 1, Email: req.Email, Role: models.RoleStudent}, nil
}

func (m *authServiceMock) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	m.loginReq = req
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &models.LoginResponse{AccessToken: "access", RefreshToken: "refresh"}, nil
}

func (m *authServiceMock) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return &models.RefreshTokenResponse{AccessToken: "access-2"}, nil
}

func (m *authServiceMock) Logout(context.Context, string, int64, models.LoginRequest) error {
	return nil
}

func (m *authServiceMock) ChangePassword(context.Context, int64, models.ChangePasswordRequest) error {
	return nil
}

func (m *authServiceMock) Me(_ context.Context, userID int64) (*models.UserInfo, error) {
	m.meUserID = userID
	return &models.UserInfo{ID: userID}, nil
}

func TestAuthHandlerRegisterPassesCallerRole(t *testing.T) {
	svc := &authServiceMock{}
	h := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/auth/register", mustJSON(t, models.RegisterRequest{Username: "abebe", Email: "a@b.c", Password: "secret1"}))
	h.Register(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.UserRole(""), svc.registeredRole)

	c, w = newGinContext(http.MethodPost, "/auth/register", mustJSON(t, models.RegisterRequest{Username: "abebe", Email: "a@b.c", Password: "secret1", Role: models.RoleTeacher}))
	withUser(c, 1, models.RoleAdmin)
	h.Register(c)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.RoleAdmin, svc.registeredRole)
}

func TestAuthHandlerLogin(t *testing.T) {
	svc := &authServiceMock{}
	h := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"a@b.c","password":"x"}`))
	c.Request.Header.Set("User-Agent", "test-agent")
	h.Login(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test-agent", svc.loginReq.UserAgent)

	svc.loginErr = appErrors.ErrInvalidCredentials
	c, w = newGinContext(http.MethodPost, "/auth/login", []byte(`{"email":"a@b.c","password":"x"}`))
	h.Login(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode(t, w).Error.Code)

	c, w = newGinContext(http.MethodPost, "/auth/login", []byte(`{`))
	h.Login(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandlerMeRequiresUser(t *testing.T) {
	svc := &authServiceMock{}
	h := NewAuthHandler(svc)

	c, w := newGinContext(http.MethodGet, "/auth/me", nil)
	h.Me(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newGinContext(http.MethodGet, "/auth/me", nil)
	withUser(c, 42, models.RoleStudent)
	h.Me(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(42), svc.meUserID)
}

type studentServiceMock struct {
	filter models.StudentFilter
	actor  service.Actor
	getErr error
}

func (m *studentServiceMock) List(_ context.Context, filter models.StudentFilter) ([]models.StudentDetail, *models.Pagination, error) {
	m.filter = filter
	return []models.StudentDetail{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 0}, nil
}

func (m *studentServiceMock) Get(_ context.Context, id int64, actor service.Actor) (*models.StudentDetail, error) {
	m.actor = actor
	if m.getErr != nil {
		return nil, m.getErr
	}
	return &models.StudentDetail{Student: models.Student{ID: id}}, nil
}

func (m *studentServiceMock) Create(context.Context, models.CreateStudentRequest) (*models.Student, error) {
	return &models.Student{ID: 1}, nil
}

func (m *studentServiceMock) Update(_ context.Context, id int64, _ models.UpdateStudentRequest) (*models.Student, error) {
	return &models.Student{ID: id}, nil
}

func (m *studentServiceMock) Delete(context.Context, int64) error { return nil }

func TestStudentHandlerListParsesFilter(t *testing.T) {
	svc := &studentServiceMock{}
	h := NewStudentHandler(svc)

	c, w := newGinContext(http.MethodGet, "/students?status=Active&page=2&limit=5", nil)
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StudentFilter{Status: models.StudentStatusActive, Page: 2, PageSize: 5}, svc.filter)
	assert.Equal(t, 5, decode(t, w).Pagination.PageSize)
}

func TestStudentHandlerGet(t *testing.T) {
	svc := &studentServiceMock{}
	h := NewStudentHandler(svc)

	c, w := newGinContext(http.MethodGet, "/students/abc", nil)
	withUser(c, 3, models.RoleStudent)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	h.Get(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	svc.getErr = appErrors.Clone(appErrors.ErrForbidden, "students may only view their own record")
	c, w = newGinContext(http.MethodGet, "/students/7", nil)
	withUser(c, 3, models.RoleStudent)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.Get(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, service.Actor{UserID: 3, Role: models.RoleStudent}, svc.actor)
}

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{
		"database": func(context.Context) error { return nil },
	})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]Pinger{
		"database": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("connection refused") },
	})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	c, w = newGinContext(http.MethodGet, "/metrics", nil)
	h.Prometheus(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
