package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/middleware"
	"github.com/noah-isme/academic-portal-api/internal/models"
	"github.com/noah-isme/academic-portal-api/internal/service"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type stubAttendanceStore struct {
	rows     []models.AttendanceDetail
	session  bool
	inserted []models.AttendanceRecord
}

func (s *stubAttendanceStore) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error) {
	return s.rows, nil
}

func (s *stubAttendanceStore) BatchInsert(ctx context.Context, records []models.AttendanceRecord) error {
	s.inserted = records
	return nil
}

func (s *stubAttendanceStore) SessionExists(ctx context.Context, courseID string, sessionDate time.Time) (bool, error) {
	return s.session, nil
}

type stubEnrollmentStore struct {
	students []models.EnrolledStudent
}

func (s *stubEnrollmentStore) ListStudentsByCourse(ctx context.Context, courseID string) ([]models.EnrolledStudent, error) {
	return s.students, nil
}

type stubScope struct {
	scope models.CourseScope
}

func (s *stubScope) VisibleCourseIDs(ctx context.Context, role models.UserRole, userID string) (models.CourseScope, error) {
	return s.scope, nil
}

func newAttendanceHandler(store *stubAttendanceStore, courses *stubCourseStore, scope models.CourseScope) *AttendanceHandler {
	attendance := service.NewAttendanceService(store, &stubEnrollmentStore{}, courses, &stubScope{scope: scope}, nil, zap.NewNop())
	export := service.NewExportService(attendance, nil, nil, zap.NewNop())
	return NewAttendanceHandler(attendance, export)
}

func attendanceTestContext(method, target, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, target, strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func TestAttendanceHandlerListRequiresClaims(t *testing.T) {
	handler := newAttendanceHandler(&stubAttendanceStore{}, &stubCourseStore{}, models.UnboundedScope())

	c, rec := attendanceTestContext(http.MethodGet, "/attendance", "", nil)
	handler.List(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAttendanceHandlerSubmitBatchMalformedBody(t *testing.T) {
	handler := newAttendanceHandler(&stubAttendanceStore{}, &stubCourseStore{}, models.UnboundedScope())

	c, rec := attendanceTestContext(http.MethodPost, "/attendance", `{"course_id":`, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	handler.SubmitBatch(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, appErrors.ErrInvalidBatch.Code, envelope.Error["code"])
}

func TestAttendanceHandlerSubmitBatchCreates(t *testing.T) {
	store := &stubAttendanceStore{}
	courses := &stubCourseStore{courses: map[string]*models.Course{"c1": {ID: "c1"}}}
	handler := newAttendanceHandler(store, courses, models.UnboundedScope())

	body := `{"course_id":"c1","session_date":"2026-08-30","statuses":{"s1":"present","s2":"late"}}`
	c, rec := attendanceTestContext(http.MethodPost, "/attendance", body, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	handler.SubmitBatch(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, store.inserted, 2)
}

func TestAttendanceHandlerExportCSV(t *testing.T) {
	store := &stubAttendanceStore{rows: []models.AttendanceDetail{
		{
			AttendanceRecord: models.AttendanceRecord{ID: "r1", SessionDate: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), Status: models.AttendanceStatusPresent},
			CourseName:       "Algebra",
			StudentName:      "Ana",
		},
	}}
	handler := newAttendanceHandler(store, &stubCourseStore{}, models.UnboundedScope())

	c, rec := attendanceTestContext(http.MethodGet, "/attendance/export?format=csv", "", &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Body.String(), "2026-08-30,Algebra,Ana,present")
}

func TestAttendanceHandlerExportUnknownFormat(t *testing.T) {
	handler := newAttendanceHandler(&stubAttendanceStore{}, &stubCourseStore{}, models.UnboundedScope())

	c, rec := attendanceTestContext(http.MethodGet, "/attendance/export?format=xlsx", "", &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})
	handler.Export(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
