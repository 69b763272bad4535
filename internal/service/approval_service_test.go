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

type mockApprovalCourses struct {
	courses  map[string]*models.Course
	listRows []models.CourseDetail
	listErr  error
	updated  map[string]models.CourseStatus
}

func (m *mockApprovalCourses) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.listRows, nil
}

func (m *mockApprovalCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if course, ok := m.courses[id]; ok {
		cp := *course
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApprovalCourses) UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error {
	if m.updated == nil {
		m.updated = make(map[string]models.CourseStatus)
	}
	m.updated[id] = status
	return nil
}

type mockAuditWriter struct {
	logs []*models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, log)
	return nil
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestCourseStatusTransitions(t *testing.T) {
	cases := []struct {
		from    models.CourseStatus
		to      models.CourseStatus
		allowed bool
	}{
		{models.CourseStatusPending, models.CourseStatusApproved, true},
		{models.CourseStatusPending, models.CourseStatusRejected, true},
		{models.CourseStatusRejected, models.CourseStatusApproved, true},
		{models.CourseStatusRejected, models.CourseStatusRejected, false},
		{models.CourseStatusApproved, models.CourseStatusRejected, false},
		{models.CourseStatusApproved, models.CourseStatusPending, false},
		{models.CourseStatusApproved, models.CourseStatusApproved, false},
		{models.CourseStatusPending, models.CourseStatusPending, false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestApprovalDecideApprovesPending(t *testing.T) {
	repo := &mockApprovalCourses{courses: map[string]*models.Course{
		"c1": {ID: "c1", Status: models.CourseStatusPending},
	}}
	audits := &mockAuditWriter{}
	svc := NewApprovalService(repo, audits, nil, zap.NewNop())

	course, err := svc.Decide(context.Background(), adminClaims(), "c1", ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusApproved, course.Status)
	assert.Equal(t, models.CourseStatusApproved, repo.updated["c1"])
	require.Len(t, audits.logs, 1)
	assert.Equal(t, models.AuditActionCourseApprove, audits.logs[0].Action)
}

func TestApprovalDecideReapprovesRejected(t *testing.T) {
	repo := &mockApprovalCourses{courses: map[string]*models.Course{
		"c1": {ID: "c1", Status: models.CourseStatusRejected},
	}}
	svc := NewApprovalService(repo, &mockAuditWriter{}, nil, zap.NewNop())

	course, err := svc.Decide(context.Background(), adminClaims(), "c1", ApprovalActionApprove)
	require.NoError(t, err)
	assert.Equal(t, models.CourseStatusApproved, course.Status)
}

func TestApprovalDecideApprovedIsTerminal(t *testing.T) {
	repo := &mockApprovalCourses{courses: map[string]*models.Course{
		"c1": {ID: "c1", Status: models.CourseStatusApproved},
	}}
	svc := NewApprovalService(repo, &mockAuditWriter{}, nil, zap.NewNop())

	_, err := svc.Decide(context.Background(), adminClaims(), "c1", ApprovalActionReject)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestApprovalDecideRequiresAdmin(t *testing.T) {
	svc := NewApprovalService(&mockApprovalCourses{}, &mockAuditWriter{}, nil, zap.NewNop())

	_, err := svc.Decide(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, "c1", ApprovalActionApprove)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestApprovalDecideUnknownAction(t *testing.T) {
	svc := NewApprovalService(&mockApprovalCourses{}, &mockAuditWriter{}, nil, zap.NewNop())

	_, err := svc.Decide(context.Background(), adminClaims(), "c1", ApprovalAction("archive"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestApprovalDecideMissingCourse(t *testing.T) {
	svc := NewApprovalService(&mockApprovalCourses{}, &mockAuditWriter{}, nil, zap.NewNop())

	_, err := svc.Decide(context.Background(), adminClaims(), "missing", ApprovalActionApprove)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApprovalOverviewGroupsAndNames(t *testing.T) {
	repo := &mockApprovalCourses{listRows: []models.CourseDetail{
		{Course: models.Course{ID: "c1", Status: models.CourseStatusPending}, LecturerName: "Dr. One"},
		{Course: models.Course{ID: "c2", Status: models.CourseStatusApproved}},
		{Course: models.Course{ID: "c3", Status: models.CourseStatusRejected}, LecturerName: "Dr. Three"},
	}}
	svc := NewApprovalService(repo, &mockAuditWriter{}, nil, zap.NewNop())

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	require.Len(t, overview.Pending, 1)
	require.Len(t, overview.Approved, 1)
	require.Len(t, overview.Rejected, 1)
	assert.Equal(t, "unspecified", overview.Approved[0].LecturerName)
	assert.Equal(t, "Dr. One", overview.Pending[0].LecturerName)
}
