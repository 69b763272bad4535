package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type mockLecturerCourses struct {
	ids []string
	err error
}

func (m *mockLecturerCourses) ListIDsByLecturer(ctx context.Context, lecturerID string) ([]string, error) {
	return m.ids, m.err
}

type mockStudentCourses struct {
	ids []string
	err error
}

func (m *mockStudentCourses) ListCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error) {
	return m.ids, m.err
}

func TestScopeServiceAdminUnbounded(t *testing.T) {
	svc := NewScopeService(&mockLecturerCourses{}, &mockStudentCourses{}, zap.NewNop())

	scope, err := svc.VisibleCourseIDs(context.Background(), models.RoleAdmin, "admin-1")
	require.NoError(t, err)
	assert.True(t, scope.All)
	assert.True(t, scope.Contains("anything"))
}

func TestScopeServiceLecturerOwnedCourses(t *testing.T) {
	svc := NewScopeService(&mockLecturerCourses{ids: []string{"c2", "c1", "c2"}}, &mockStudentCourses{}, zap.NewNop())

	scope, err := svc.VisibleCourseIDs(context.Background(), models.RoleLecturer, "lect-1")
	require.NoError(t, err)
	assert.False(t, scope.All)
	assert.Equal(t, []string{"c1", "c2"}, scope.IDs)
}

func TestScopeServiceStudentEnrollments(t *testing.T) {
	svc := NewScopeService(&mockLecturerCourses{}, &mockStudentCourses{ids: []string{"c3"}}, zap.NewNop())

	scope, err := svc.VisibleCourseIDs(context.Background(), models.RoleStudent, "stud-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c3"}, scope.IDs)
	assert.True(t, scope.Contains("c3"))
	assert.False(t, scope.Contains("c4"))
}

func TestScopeServiceStudentNoEnrollmentsIsEmpty(t *testing.T) {
	svc := NewScopeService(&mockLecturerCourses{}, &mockStudentCourses{}, zap.NewNop())

	scope, err := svc.VisibleCourseIDs(context.Background(), models.RoleStudent, "stud-1")
	require.NoError(t, err)
	assert.True(t, scope.Empty())
}

func TestScopeServiceStoreFailurePropagates(t *testing.T) {
	svc := NewScopeService(&mockLecturerCourses{err: errors.New("connection refused")}, &mockStudentCourses{}, zap.NewNop())

	_, err := svc.VisibleCourseIDs(context.Background(), models.RoleLecturer, "lect-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErr.Code)
}

func TestScopeServiceUnknownRole(t *testing.T) {
	svc := NewScopeService(&mockLecturerCourses{}, &mockStudentCourses{}, zap.NewNop())

	_, err := svc.VisibleCourseIDs(context.Background(), models.UserRole("GUEST"), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
