package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

// sessionDateLayout is the only accepted session date format; it
// carries no time component by construction.
const sessionDateLayout = "2006-01-02"

type attendanceRepository interface {
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceDetail, error)
	BatchInsert(ctx context.Context, records []models.AttendanceRecord) error
	SessionExists(ctx context.Context, courseID string, sessionDate time.Time) (bool, error)
}

type courseStudentLister interface {
	ListStudentsByCourse(ctx context.Context, courseID string) ([]models.EnrolledStudent, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// SubmitAttendanceRequest describes a full attendance session write.
type SubmitAttendanceRequest struct {
	CourseID    string                             `json:"course_id" validate:"required"`
	SessionDate string                             `json:"session_date" validate:"required"`
	Statuses    map[string]models.AttendanceStatus `json:"statuses" validate:"required"`
}

// AttendanceFilterRequest narrows an attendance listing. From and To
// bound the session date inclusively and accept bare calendar dates.
type AttendanceFilterRequest struct {
	CourseID string
	From     string
	To       string
}

// AttendanceService produces role-scoped attendance listings and
// records whole sessions as atomic batches.
type AttendanceService struct {
	repo        attendanceRepository
	enrollments courseStudentLister
	courses     courseReader
	scope       courseScopeResolver
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAttendanceService constructs AttendanceService.
func NewAttendanceService(repo attendanceRepository, enrollments courseStudentLister, courses courseReader, scope courseScopeResolver, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, enrollments: enrollments, courses: courses, scope: scope, validator: validate, logger: logger}
}

// List returns attendance visible to the caller, newest session first.
// Students see their own rows, lecturers the rows of their courses,
// admins everything. Names joined from courses and profiles degrade to
// "unspecified" when the related row is missing.
func (s *AttendanceService) List(ctx context.Context, claims *models.JWTClaims, req AttendanceFilterRequest) ([]models.AttendanceDetail, error) {
	filter := models.AttendanceFilter{CourseID: req.CourseID}
	if req.From != "" {
		from, err := time.ParseInLocation(sessionDateLayout, req.From, time.UTC)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "from must be a calendar date (YYYY-MM-DD)")
		}
		filter.DateFrom = &from
	}
	if req.To != "" {
		to, err := time.ParseInLocation(sessionDateLayout, req.To, time.UTC)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "to must be a calendar date (YYYY-MM-DD)")
		}
		filter.DateTo = &to
	}
	switch claims.Role {
	case models.RoleStudent:
		filter.StudentID = claims.UserID
	case models.RoleLecturer:
		scope, err := s.scope.VisibleCourseIDs(ctx, claims.Role, claims.UserID)
		if err != nil {
			return nil, err
		}
		if req.CourseID != "" && !scope.Contains(req.CourseID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course not owned by lecturer")
		}
		filter.Scope = scope
	case models.RoleAdmin:
		filter.Scope = models.UnboundedScope()
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}

	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list attendance")
	}
	for i := range records {
		if records[i].CourseName == "" {
			records[i].CourseName = "unspecified"
		}
		if records[i].StudentName == "" {
			records[i].StudentName = "unspecified"
		}
	}
	return records, nil
}

// Roster returns the enrolled students of a course, each defaulted to
// present, as the initial state of a new attendance session.
func (s *AttendanceService) Roster(ctx context.Context, claims *models.JWTClaims, courseID string) ([]models.RosterEntry, error) {
	if err := s.requireCourseAccess(ctx, claims, courseID); err != nil {
		return nil, err
	}
	students, err := s.enrollments.ListStudentsByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load course roster")
	}
	roster := make([]models.RosterEntry, len(students))
	for i, student := range students {
		roster[i] = models.RosterEntry{
			StudentID: student.StudentID,
			FullName:  student.FullName,
			Email:     student.Email,
			Status:    models.AttendanceStatusPresent,
		}
	}
	return roster, nil
}

// SubmitBatch writes one attendance row per student in a single batch.
// The status map must be non-empty and every status valid; the session
// date must be a bare calendar date. The batch commits as a whole.
func (s *AttendanceService) SubmitBatch(ctx context.Context, claims *models.JWTClaims, req SubmitAttendanceRequest) ([]models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidBatch.Code, appErrors.ErrInvalidBatch.Status, "invalid attendance payload")
	}
	if len(req.Statuses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidBatch, "attendance batch is empty")
	}
	sessionDate, err := time.ParseInLocation(sessionDateLayout, req.SessionDate, time.UTC)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidBatch, "session date must be a calendar date (YYYY-MM-DD)")
	}
	for studentID, status := range req.Statuses {
		if studentID == "" || !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrInvalidBatch, "attendance batch contains an invalid entry")
		}
	}
	if err := s.requireCourseAccess(ctx, claims, req.CourseID); err != nil {
		return nil, err
	}

	exists, err := s.repo.SessionExists(ctx, req.CourseID, sessionDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to check session")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance already recorded for session")
	}

	records := make([]models.AttendanceRecord, 0, len(req.Statuses))
	for studentID, status := range req.Statuses {
		records = append(records, models.AttendanceRecord{
			CourseID:    req.CourseID,
			StudentID:   studentID,
			SessionDate: sessionDate,
			Status:      status,
		})
	}
	if err := s.repo.BatchInsert(ctx, records); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance batch")
	}
	return records, nil
}

func (s *AttendanceService) requireCourseAccess(ctx context.Context, claims *models.JWTClaims, courseID string) error {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load course")
	}
	if claims.Role == models.RoleAdmin {
		return nil
	}
	if claims.Role != models.RoleLecturer {
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot record attendance")
	}
	scope, err := s.scope.VisibleCourseIDs(ctx, claims.Role, claims.UserID)
	if err != nil {
		return err
	}
	if !scope.Contains(courseID) {
		return appErrors.Clone(appErrors.ErrForbidden, "course not owned by lecturer")
	}
	return nil
}
