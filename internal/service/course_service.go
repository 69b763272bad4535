package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindDetailByID(ctx context.Context, id string) (*models.CourseDetail, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseClassRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]models.CourseClass, error)
	Create(ctx context.Context, class *models.CourseClass) error
}

type courseMaterialLister interface {
	ListByCourse(ctx context.Context, courseID string, materialType models.MaterialType) ([]models.CourseMaterial, error)
}

// CreateCourseRequest describes course creation.
type CreateCourseRequest struct {
	Code        string  `json:"code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Semester    string  `json:"semester" validate:"required"`
	Year        int     `json:"year" validate:"required,gte=2000"`
	LecturerID  string  `json:"lecturer_id"`
}

// UpdateCourseRequest describes course updates.
type UpdateCourseRequest struct {
	Code        string  `json:"code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
	Semester    string  `json:"semester" validate:"required"`
	Year        int     `json:"year" validate:"required,gte=2000"`
}

// CreateCourseClassRequest describes a new class section.
type CreateCourseClassRequest struct {
	ClassCode   string `json:"class_code" validate:"required"`
	ClassName   string `json:"class_name" validate:"required"`
	MaxStudents int    `json:"max_students" validate:"required,gt=0"`
}

// CourseDetailResponse bundles a course with its sections and materials
// for the detail view.
type CourseDetailResponse struct {
	Course    models.CourseDetail     `json:"course"`
	Classes   []models.CourseClass    `json:"classes"`
	Materials []models.CourseMaterial `json:"materials"`
}

// CourseService orchestrates course listings and lifecycle, scoped per
// role. Approval transitions live in ApprovalService.
type CourseService struct {
	repo      courseRepository
	classes   courseClassRepository
	materials courseMaterialLister
	scope     courseScopeResolver
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs CourseService.
func NewCourseService(repo courseRepository, classes courseClassRepository, materials courseMaterialLister, scope courseScopeResolver, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, classes: classes, materials: materials, scope: scope, cache: cache, validator: validate, logger: logger}
}

// List returns courses visible to the caller, newest first, with
// lecturer names resolved.
func (s *CourseService) List(ctx context.Context, claims *models.JWTClaims, status models.CourseStatus) ([]models.CourseDetail, error) {
	scope, err := s.scope.VisibleCourseIDs(ctx, claims.Role, claims.UserID)
	if err != nil {
		return nil, err
	}
	courses, err := s.repo.List(ctx, models.CourseFilter{Scope: scope, Status: status})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list courses")
	}
	for i := range courses {
		if courses[i].LecturerName == "" {
			courses[i].LecturerName = "unspecified"
		}
	}
	return courses, nil
}

// Detail returns a course with its class sections and materials.
func (s *CourseService) Detail(ctx context.Context, id string) (*CourseDetailResponse, error) {
	course, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load course")
	}
	if course.LecturerName == "" {
		course.LecturerName = "unspecified"
	}

	classes, err := s.classes.ListByCourse(ctx, id)
	if err != nil {
		s.logger.Warn("course classes lookup failed", zap.String("course_id", id), zap.Error(err))
		classes = []models.CourseClass{}
	}
	materials, err := s.materials.ListByCourse(ctx, id, "")
	if err != nil {
		s.logger.Warn("course materials lookup failed", zap.String("course_id", id), zap.Error(err))
		materials = []models.CourseMaterial{}
	}

	return &CourseDetailResponse{Course: *course, Classes: classes, Materials: materials}, nil
}

// Create registers a new course. The status is always pending until an
// admin approves it. Lecturers own the courses they create; admins may
// create on behalf of a lecturer.
func (s *CourseService) Create(ctx context.Context, claims *models.JWTClaims, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	lecturerID := claims.UserID
	if claims.Role == models.RoleAdmin && req.LecturerID != "" {
		lecturerID = req.LecturerID
	}
	course := &models.Course{
		Code:        req.Code,
		Name:        req.Name,
		Description: req.Description,
		Semester:    req.Semester,
		Year:        req.Year,
		LecturerID:  lecturerID,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	invalidateDashboards(ctx, s.cache, s.logger)
	return course, nil
}

// Update rewrites the descriptive course fields.
func (s *CourseService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.requireManageable(ctx, claims, id)
	if err != nil {
		return nil, err
	}
	course.Code = req.Code
	course.Name = req.Name
	course.Description = req.Description
	course.Semester = req.Semester
	course.Year = req.Year
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	invalidateDashboards(ctx, s.cache, s.logger)
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	if _, err := s.requireManageable(ctx, claims, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	invalidateDashboards(ctx, s.cache, s.logger)
	return nil
}

// CreateClass adds a class section to a course the caller manages.
func (s *CourseService) CreateClass(ctx context.Context, claims *models.JWTClaims, courseID string, req CreateCourseClassRequest) (*models.CourseClass, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	if _, err := s.requireManageable(ctx, claims, courseID); err != nil {
		return nil, err
	}
	class := &models.CourseClass{
		CourseID:    courseID,
		ClassCode:   req.ClassCode,
		ClassName:   req.ClassName,
		MaxStudents: req.MaxStudents,
	}
	if err := s.classes.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// requireManageable loads the course and ensures the caller may manage
// it: admins always, lecturers only their own courses.
func (s *CourseService) requireManageable(ctx context.Context, claims *models.JWTClaims, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load course")
	}
	switch claims.Role {
	case models.RoleAdmin:
		return course, nil
	case models.RoleLecturer:
		if course.LecturerID != claims.UserID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "course not owned by lecturer")
		}
		return course, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot manage courses")
	}
}
