package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/biniyam0960/Student-information-System/internal/models"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

type mockStudentRepo struct {
	students   map[int64]models.StudentDetail
	lastFilter models.StudentFilter
	listTotal  int
	createErr  error
	createdBy  *models.User
	deleted    []int64
	err        error
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	details := make([]models.StudentDetail, 0, len(m.students))
	for _, s := range m.students {
		details = append(details, s)
	}
	return details, m.listTotal, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByUserID(ctx context.Context, userID int64) (*models.StudentDetail, error) {
	for _, s := range m.students {
		if s.UserID == userID {
			detail := s
			return &detail, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) Create(ctx context.Context, user *models.User, student *models.Student) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.students == nil {
		m.students = make(map[int64]models.StudentDetail)
	}
	user.ID = int64(100 + len(m.students))
	student.ID = int64(len(m.students) + 1)
	student.UserID = user.ID
	m.createdBy = user
	m.students[student.ID] = models.StudentDetail{Student: *student, Email: user.Email}
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, id int64, req models.UpdateStudentRequest) (*models.Student, error) {
	detail, ok := m.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if req.StudentNumber != nil {
		detail.StudentNumber = *req.StudentNumber
	}
	if req.CurrentStatus != nil {
		detail.CurrentStatus = *req.CurrentStatus
	}
	m.students[id] = detail
	return &detail.Student, nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.students[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.students, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newStudentFixture() *mockStudentRepo {
	return &mockStudentRepo{students: map[int64]models.StudentDetail{
		1: {Student: models.Student{ID: 1, UserID: 10, StudentNumber: "S-001", CurrentStatus: models.StudentStatusActive}},
		2: {Student: models.Student{ID: 2, UserID: 20, StudentNumber: "S-002", CurrentStatus: models.StudentStatusActive}},
	}, listTotal: 2}
}

func TestStudentServiceList(t *testing.T) {
	repo := newStudentFixture()
	svc := NewStudentService(repo, nil, validator.New(), zap.NewNop())

	students, pagination, err := svc.List(context.Background(), models.StudentFilter{Status: models.StudentStatusActive, Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, students, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 100, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
	assert.Equal(t, models.StudentStatusActive, repo.lastFilter.Status)

	_, _, err = svc.List(context.Background(), models.StudentFilter{Status: "expelled"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceGetOwnership(t *testing.T) {
	svc := NewStudentService(newStudentFixture(), nil, nil, nil)

	student, err := svc.Get(context.Background(), 1, Actor{UserID: 10, Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, "S-001", student.StudentNumber)

	_, err = svc.Get(context.Background(), 2, Actor{UserID: 10, Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Get(context.Background(), 2, Actor{UserID: 1, Role: models.RoleTeacher})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), 99, Actor{UserID: 1, Role: models.RoleAdmin})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceResolveByUser(t *testing.T) {
	svc := NewStudentService(newStudentFixture(), nil, nil, nil)

	student, err := svc.ResolveByUser(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), student.ID)

	_, err = svc.ResolveByUser(context.Background(), 30)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, 400, appErr.Status)
	assert.Equal(t, "student record not found for user", appErr.Message)
}

func TestStudentServiceCreate(t *testing.T) {
	repo := &mockStudentRepo{}
	svc := NewStudentService(repo, nil, nil, nil)

	student, err := svc.Create(context.Background(), models.CreateStudentRequest{
		Username:      "almaz",
		Email:         "Almaz@Example.com",
		Password:      "secret1",
		FirstName:     "Almaz",
		LastName:      "Tesfaye",
		StudentNumber: "S-100",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusActive, student.CurrentStatus)
	assert.Equal(t, models.RoleStudent, repo.createdBy.Role)
	assert.Equal(t, "almaz@example.com", repo.createdBy.Email)
	assert.NotEqual(t, "secret1", repo.createdBy.PasswordHash)

	_, err = svc.Create(context.Background(), models.CreateStudentRequest{Username: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceCreateDuplicate(t *testing.T) {
	repo := &mockStudentRepo{createErr: &pgconn.PgError{Code: "23505"}}
	svc := NewStudentService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateStudentRequest{
		Username: "almaz", Email: "a@example.com", Password: "secret1",
		FirstName: "Almaz", LastName: "Tesfaye", StudentNumber: "S-100",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdateAndDelete(t *testing.T) {
	repo := newStudentFixture()
	svc := NewStudentService(repo, nil, nil, nil)

	status := models.StudentStatusGraduated
	student, err := svc.Update(context.Background(), 1, models.UpdateStudentRequest{CurrentStatus: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusGraduated, student.CurrentStatus)
	assert.Equal(t, "S-001", student.StudentNumber)

	bad := models.StudentStatus("expelled")
	_, err = svc.Update(context.Background(), 1, models.UpdateStudentRequest{CurrentStatus: &bad})
	require.Error(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1))
	assert.Equal(t, []int64{1}, repo.deleted)

	err = svc.Delete(context.Background(), 1)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDeleteEvictsGPA(t *testing.T) {
	repo := newStudentFixture()
	cacheRepo := newFakeCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewStudentService(repo, cache, nil, nil)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, GPAKey(1), models.GPAReport{StudentID: 1}, time.Minute))
	require.NoError(t, cache.Set(ctx, GPAKey(2), models.GPAReport{StudentID: 2}, time.Minute))

	err := svc.Delete(ctx, 3)
	require.Error(t, err)
	assert.Len(t, cacheRepo.items, 2)

	require.NoError(t, svc.Delete(ctx, 1))
	_, present := cacheRepo.items[GPAKey(1)]
	assert.False(t, present)
	_, present = cacheRepo.items[GPAKey(2)]
	assert.True(t, present)
}
