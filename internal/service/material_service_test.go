package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type mockMaterialRepo struct {
	rows     []models.CourseMaterial
	byID     map[string]*models.CourseMaterial
	lastType models.MaterialType
	created  []*models.CourseMaterial
	deleted  []string
}

func (m *mockMaterialRepo) ListByCourse(ctx context.Context, courseID string, materialType models.MaterialType) ([]models.CourseMaterial, error) {
	m.lastType = materialType
	return m.rows, nil
}

func (m *mockMaterialRepo) FindByID(ctx context.Context, id string) (*models.CourseMaterial, error) {
	if material, ok := m.byID[id]; ok {
		cp := *material
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockMaterialRepo) Create(ctx context.Context, material *models.CourseMaterial) error {
	material.ID = "new-material"
	m.created = append(m.created, material)
	return nil
}

func (m *mockMaterialRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func newMaterialService(repo *mockMaterialRepo, courses *mockCourseReader, enrolls *mockEnrollments) *MaterialService {
	return NewMaterialService(repo, courses, enrolls, nil, zap.NewNop())
}

func TestMaterialListStudentNeedsEnrollment(t *testing.T) {
	repo := &mockMaterialRepo{rows: []models.CourseMaterial{{ID: "m1"}}}
	enrolls := &mockEnrollments{enrolled: map[string]bool{pairKey("c1", "s1"): true}}
	svc := newMaterialService(repo, &mockCourseReader{}, enrolls)

	claims := &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}
	materials, err := svc.ListByCourse(context.Background(), claims, "c1", "")
	require.NoError(t, err)
	require.Len(t, materials, 1)

	claims2 := &models.JWTClaims{UserID: "s2", Role: models.RoleStudent}
	_, err = svc.ListByCourse(context.Background(), claims2, "c1", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMaterialListRejectsUnknownType(t *testing.T) {
	svc := newMaterialService(&mockMaterialRepo{}, &mockCourseReader{}, &mockEnrollments{})

	_, err := svc.ListByCourse(context.Background(), adminClaims(), "c1", models.MaterialType("hologram"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMaterialListPassesTypeFilter(t *testing.T) {
	repo := &mockMaterialRepo{}
	svc := newMaterialService(repo, &mockCourseReader{}, &mockEnrollments{})

	_, err := svc.ListByCourse(context.Background(), adminClaims(), "c1", models.MaterialTypeVideo)
	require.NoError(t, err)
	assert.Equal(t, models.MaterialTypeVideo, repo.lastType)
}

func TestMaterialCreateByCourseOwner(t *testing.T) {
	repo := &mockMaterialRepo{}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"c1": {ID: "c1", LecturerID: "l1"},
	}}
	svc := newMaterialService(repo, courses, &mockEnrollments{})

	material, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, "c1", CreateMaterialRequest{
		Title:        "Week 1 slides",
		MaterialType: models.MaterialTypeDocument,
		URL:          "https://cdn.example.com/slides.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", material.CourseID)
	assert.Equal(t, "l1", material.CreatedBy)
	assert.Equal(t, "https://cdn.example.com/slides.pdf", material.LinkURL)
}

func TestMaterialCreateRejectsBadURL(t *testing.T) {
	courses := &mockCourseReader{courses: map[string]*models.Course{"c1": {ID: "c1"}}}
	svc := newMaterialService(&mockMaterialRepo{}, courses, &mockEnrollments{})

	_, err := svc.Create(context.Background(), adminClaims(), "c1", CreateMaterialRequest{
		Title:        "Week 1 slides",
		MaterialType: models.MaterialTypeDocument,
		URL:          "not-a-url",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestMaterialCreateNotOwnedCourse(t *testing.T) {
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"c1": {ID: "c1", LecturerID: "l2"},
	}}
	svc := newMaterialService(&mockMaterialRepo{}, courses, &mockEnrollments{})

	_, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, "c1", CreateMaterialRequest{
		Title:        "Week 1 slides",
		MaterialType: models.MaterialTypeDocument,
		URL:          "https://cdn.example.com/slides.pdf",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestMaterialDeleteChecksOwnership(t *testing.T) {
	repo := &mockMaterialRepo{byID: map[string]*models.CourseMaterial{
		"m1": {ID: "m1", CourseID: "c1"},
	}}
	courses := &mockCourseReader{courses: map[string]*models.Course{
		"c1": {ID: "c1", LecturerID: "l2"},
	}}
	svc := newMaterialService(repo, courses, &mockEnrollments{})

	err := svc.Delete(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, "m1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), adminClaims(), "m1"))
	assert.Equal(t, []string{"m1"}, repo.deleted)
}

func TestMaterialDeleteMissing(t *testing.T) {
	svc := newMaterialService(&mockMaterialRepo{}, &mockCourseReader{}, &mockEnrollments{})

	err := svc.Delete(context.Background(), adminClaims(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
