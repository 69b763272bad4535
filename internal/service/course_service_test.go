package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type mockCourseRepo struct {
	rows       []models.CourseDetail
	byID       map[string]*models.Course
	details    map[string]*models.CourseDetail
	lastFilter models.CourseFilter
	created    []*models.Course
	updated    []*models.Course
	deleted    []string
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	m.lastFilter = filter
	return m.rows, nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := m.byID[id]; ok {
		cp := *course
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	if detail, ok := m.details[id]; ok {
		cp := *detail
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "new-course"
	course.Status = models.CourseStatusPending
	m.created = append(m.created, course)
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.updated = append(m.updated, course)
	return nil
}

func (m *mockCourseRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type mockClassRepo struct {
	rows    []models.CourseClass
	listErr error
	created []*models.CourseClass
}

func (m *mockClassRepo) ListByCourse(ctx context.Context, courseID string) ([]models.CourseClass, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rows, nil
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.CourseClass) error {
	class.ID = "new-class"
	m.created = append(m.created, class)
	return nil
}

type mockMaterialLister struct {
	rows    []models.CourseMaterial
	listErr error
}

func (m *mockMaterialLister) ListByCourse(ctx context.Context, courseID string, materialType models.MaterialType) ([]models.CourseMaterial, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rows, nil
}

func newCourseService(repo *mockCourseRepo, classes *mockClassRepo, materials *mockMaterialLister, scope models.CourseScope) *CourseService {
	return NewCourseService(repo, classes, materials, &mockScopeResolver{scope: scope}, nil, nil, zap.NewNop())
}

func TestCourseListScopesAndNames(t *testing.T) {
	repo := &mockCourseRepo{rows: []models.CourseDetail{
		{Course: models.Course{ID: "c1"}, LecturerName: "Dr. One"},
		{Course: models.Course{ID: "c2"}},
	}}
	svc := newCourseService(repo, &mockClassRepo{}, &mockMaterialLister{}, models.ScopeOf("c1", "c2"))

	courses, err := svc.List(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, models.CourseStatusApproved)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Dr. One", courses[0].LecturerName)
	assert.Equal(t, "unspecified", courses[1].LecturerName)
	assert.Equal(t, []string{"c1", "c2"}, repo.lastFilter.Scope.IDs)
	assert.Equal(t, models.CourseStatusApproved, repo.lastFilter.Status)
}

func TestCourseDetailComposesClassesAndMaterials(t *testing.T) {
	repo := &mockCourseRepo{details: map[string]*models.CourseDetail{
		"c1": {Course: models.Course{ID: "c1", Name: "Algebra"}},
	}}
	classes := &mockClassRepo{rows: []models.CourseClass{{ID: "cl1", CourseID: "c1"}}}
	materials := &mockMaterialLister{rows: []models.CourseMaterial{{ID: "m1", CourseID: "c1"}}}
	svc := newCourseService(repo, classes, materials, models.UnboundedScope())

	detail, err := svc.Detail(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "unspecified", detail.Course.LecturerName)
	require.Len(t, detail.Classes, 1)
	require.Len(t, detail.Materials, 1)
}

func TestCourseDetailDegradesOnLookupFailures(t *testing.T) {
	repo := &mockCourseRepo{details: map[string]*models.CourseDetail{
		"c1": {Course: models.Course{ID: "c1"}},
	}}
	classes := &mockClassRepo{listErr: errors.New("boom")}
	materials := &mockMaterialLister{listErr: errors.New("boom")}
	svc := newCourseService(repo, classes, materials, models.UnboundedScope())

	detail, err := svc.Detail(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, detail.Classes)
	assert.Empty(t, detail.Materials)
}

func TestCourseDetailNotFound(t *testing.T) {
	svc := newCourseService(&mockCourseRepo{}, &mockClassRepo{}, &mockMaterialLister{}, models.UnboundedScope())

	_, err := svc.Detail(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseCreateStartsPending(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newCourseService(repo, &mockClassRepo{}, &mockMaterialLister{}, models.UnboundedScope())

	course, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, CreateCourseRequest{
		Code: "MATH101", Name: "Algebra", Semester: "odd", Year: 2026,
	})
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusPending, course.Status)
	assert.Equal(t, "l1", course.LecturerID)
}

func TestCourseCreateAdminAssignsLecturer(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newCourseService(repo, &mockClassRepo{}, &mockMaterialLister{}, models.UnboundedScope())

	course, err := svc.Create(context.Background(), adminClaims(), CreateCourseRequest{
		Code: "MATH101", Name: "Algebra", Semester: "odd", Year: 2026, LecturerID: "l7",
	})
	require.NoError(t, err)
	assert.Equal(t, "l7", course.LecturerID)
}

func TestCourseCreateLecturerCannotAssignOthers(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := newCourseService(repo, &mockClassRepo{}, &mockMaterialLister{}, models.UnboundedScope())

	course, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, CreateCourseRequest{
		Code: "MATH101", Name: "Algebra", Semester: "odd", Year: 2026, LecturerID: "l7",
	})
	require.NoError(t, err)
	assert.Equal(t, "l1", course.LecturerID)
}

func TestCourseCreateValidation(t *testing.T) {
	svc := newCourseService(&mockCourseRepo{}, &mockClassRepo{}, &mockMaterialLister{}, models.UnboundedScope())

	_, err := svc.Create(context.Background(), adminClaims(), CreateCourseRequest{
		Code: "MATH101", Name: "Algebra", Semester: "odd", Year: 1999,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCourseUpdateRequiresOwnership(t *testing.T) {
	repo := &mockCourseRepo{byID: map[string]*models.Course{
		"c1": {ID: "c1", LecturerID: "l2"},
	}}
	svc := newCourseService(repo, &mockClassRepo{}, &mockMaterialLister{}, models.UnboundedScope())

	_, err := svc.Update(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, "c1", UpdateCourseRequest{
		Code: "MATH101", Name: "Algebra", Semester: "odd", Year: 2026,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestCourseDeleteByAdmin(t *testing.T) {
	repo := &mockCourseRepo{byID: map[string]*models.Course{
		"c1": {ID: "c1", LecturerID: "l2"},
	}}
	svc := newCourseService(repo, &mockClassRepo{}, &mockMaterialLister{}, models.UnboundedScope())

	require.NoError(t, svc.Delete(context.Background(), adminClaims(), "c1"))
	assert.Equal(t, []string{"c1"}, repo.deleted)
}

func TestCreateClassByOwner(t *testing.T) {
	repo := &mockCourseRepo{byID: map[string]*models.Course{
		"c1": {ID: "c1", LecturerID: "l1"},
	}}
	classes := &mockClassRepo{}
	svc := newCourseService(repo, classes, &mockMaterialLister{}, models.UnboundedScope())

	class, err := svc.CreateClass(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, "c1", CreateCourseClassRequest{
		ClassCode: "A", ClassName: "Morning", MaxStudents: 30,
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", class.CourseID)
	require.Len(t, classes.created, 1)
}

func TestCreateClassStudentForbidden(t *testing.T) {
	repo := &mockCourseRepo{byID: map[string]*models.Course{
		"c1": {ID: "c1"},
	}}
	svc := newCourseService(repo, &mockClassRepo{}, &mockMaterialLister{}, models.UnboundedScope())

	_, err := svc.CreateClass(context.Background(), &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, "c1", CreateCourseClassRequest{
		ClassCode: "A", ClassName: "Morning", MaxStudents: 30,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCourseDeleteInvalidatesDashboardCache(t *testing.T) {
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	require.NoError(t, cache.Set(context.Background(), "dashboard:counts", DashboardCounts{Courses: 3}, time.Minute))

	repo := &mockCourseRepo{byID: map[string]*models.Course{"c1": {ID: "c1", LecturerID: "l1"}}}
	svc := NewCourseService(repo, &mockClassRepo{}, &mockMaterialLister{}, &mockScopeResolver{}, cache, nil, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), adminClaims(), "c1"))

	var cached DashboardCounts
	hit, err := cache.Get(context.Background(), "dashboard:counts", &cached)
	require.NoError(t, err)
	assert.False(t, hit)
}
