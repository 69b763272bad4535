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

type materialRepository interface {
	ListByCourse(ctx context.Context, courseID string, materialType models.MaterialType) ([]models.CourseMaterial, error)
	FindByID(ctx context.Context, id string) (*models.CourseMaterial, error)
	Create(ctx context.Context, material *models.CourseMaterial) error
	Delete(ctx context.Context, id string) error
}

type courseAccessChecker interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// CreateMaterialRequest describes a new course material entry.
type CreateMaterialRequest struct {
	ClassID      *string             `json:"class_id"`
	Title        string              `json:"title" validate:"required"`
	Description  *string             `json:"description"`
	MaterialType models.MaterialType `json:"material_type" validate:"required"`
	URL          string              `json:"url" validate:"required,url"`
}

// MaterialService manages course materials: lecturer-uploaded links to
// documents, videos and external resources.
type MaterialService struct {
	repo      materialRepository
	courses   courseAccessChecker
	enrolls   enrollmentChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMaterialService constructs MaterialService.
func NewMaterialService(repo materialRepository, courses courseAccessChecker, enrolls enrollmentChecker, validate *validator.Validate, logger *zap.Logger) *MaterialService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{repo: repo, courses: courses, enrolls: enrolls, validator: validate, logger: logger}
}

// ListByCourse returns a course's materials, optionally filtered by
// type. Students must be enrolled in the course.
func (s *MaterialService) ListByCourse(ctx context.Context, claims *models.JWTClaims, courseID string, materialType models.MaterialType) ([]models.CourseMaterial, error) {
	if materialType != "" && !materialType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown material type")
	}
	if err := s.requireReadable(ctx, claims, courseID); err != nil {
		return nil, err
	}
	materials, err := s.repo.ListByCourse(ctx, courseID, materialType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list materials")
	}
	return materials, nil
}

// Create adds a material to a course the caller teaches.
func (s *MaterialService) Create(ctx context.Context, claims *models.JWTClaims, courseID string, req CreateMaterialRequest) (*models.CourseMaterial, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid material payload")
	}
	if !req.MaterialType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown material type")
	}
	if err := s.requireManageable(ctx, claims, courseID); err != nil {
		return nil, err
	}
	material := &models.CourseMaterial{
		CourseID:     courseID,
		ClassID:      req.ClassID,
		Title:        req.Title,
		Description:  req.Description,
		MaterialType: req.MaterialType,
		LinkURL:      req.URL,
		CreatedBy:    claims.UserID,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create material")
	}
	return material, nil
}

// Delete removes a material. Admins may delete any; lecturers only
// materials on courses they teach.
func (s *MaterialService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "material not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load material")
	}
	if err := s.requireManageable(ctx, claims, material.CourseID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete material")
	}
	return nil
}

func (s *MaterialService) requireManageable(ctx context.Context, claims *models.JWTClaims, courseID string) error {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load course")
	}
	switch claims.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleLecturer:
		if course.LecturerID != claims.UserID {
			return appErrors.Clone(appErrors.ErrForbidden, "course not owned by lecturer")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot manage materials")
	}
}

func (s *MaterialService) requireReadable(ctx context.Context, claims *models.JWTClaims, courseID string) error {
	switch claims.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleLecturer:
		return s.requireManageable(ctx, claims, courseID)
	case models.RoleStudent:
		ok, err := s.enrolls.Exists(ctx, courseID, claims.UserID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to check enrollment")
		}
		if !ok {
			return appErrors.Clone(appErrors.ErrForbidden, "student not enrolled in course")
		}
		return nil
	default:
		return appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
}
