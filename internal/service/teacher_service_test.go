package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biniyam0960/Student-information-System/internal/models"
	appErrors "github.com/biniyam0960/Student-information-System/pkg/errors"
)

type mockTeacherRepo struct {
	teachers  map[int64]models.TeacherDetail
	createErr error
	user      *models.User
}

func (m *mockTeacherRepo) List(ctx context.Context) ([]models.TeacherDetail, error) {
	out := make([]models.TeacherDetail, 0, len(m.teachers))
	for _, t := range m.teachers {
		out = append(out, t)
	}
	return out, nil
}

func (m *mockTeacherRepo) FindByID(ctx context.Context, id int64) (*models.TeacherDetail, error) {
	if t, ok := m.teachers[id]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTeacherRepo) Create(ctx context.Context, user *models.User, teacher *models.Teacher) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 50
	teacher.ID = 5
	teacher.UserID = user.ID
	m.user = user
	return nil
}

func (m *mockTeacherRepo) Update(ctx context.Context, id int64, req models.UpdateTeacherRequest) (*models.Teacher, error) {
	t, ok := m.teachers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	if req.Phone != nil {
		t.Phone = req.Phone
	}
	return &t.Teacher, nil
}

func (m *mockTeacherRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := m.teachers[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.teachers, id)
	return nil
}

func TestTeacherServiceCreate(t *testing.T) {
	repo := &mockTeacherRepo{}
	svc := NewTeacherService(repo, nil, nil)

	teacher, err := svc.Create(context.Background(), models.CreateTeacherRequest{
		Username:       "tsegaye",
		Email:          "T@Example.com",
		Password:       "secret1",
		FirstName:      "Tsegaye",
		LastName:       "Bekele",
		EmployeeNumber: "EMP-1",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(50), teacher.UserID)
	assert.Equal(t, models.RoleTeacher, repo.user.Role)
	assert.Equal(t, "t@example.com", repo.user.Email)
}

func TestTeacherServiceCreateErrors(t *testing.T) {
	req := models.CreateTeacherRequest{
		Username: "tsegaye", Email: "t@example.com", Password: "secret1",
		FirstName: "Tsegaye", LastName: "Bekele", EmployeeNumber: "EMP-1",
	}

	svc := NewTeacherService(&mockTeacherRepo{createErr: &pq.Error{Code: "23505"}}, nil, nil)
	_, err := svc.Create(context.Background(), req)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	svc = NewTeacherService(&mockTeacherRepo{createErr: &pq.Error{Code: "23503"}}, nil, nil)
	_, err = svc.Create(context.Background(), req)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), models.CreateTeacherRequest{})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTeacherServiceGetUpdateDelete(t *testing.T) {
	repo := &mockTeacherRepo{teachers: map[int64]models.TeacherDetail{
		1: {Teacher: models.Teacher{ID: 1, UserID: 9, EmployeeNumber: "EMP-9"}},
	}}
	svc := NewTeacherService(repo, nil, nil)

	teacher, err := svc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "EMP-9", teacher.EmployeeNumber)

	phone := "+251911000000"
	updated, err := svc.Update(context.Background(), 1, models.UpdateTeacherRequest{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, phone, *updated.Phone)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.Delete(context.Background(), 1))
	_, err = svc.Get(context.Background(), 1)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
