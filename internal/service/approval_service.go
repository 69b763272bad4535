package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

// ApprovalAction is a requested course approval decision.
type ApprovalAction string

const (
	ApprovalActionApprove ApprovalAction = "approve"
	ApprovalActionReject  ApprovalAction = "reject"
)

// TargetStatus maps the action to the course status it produces.
func (a ApprovalAction) TargetStatus() (models.CourseStatus, bool) {
	switch a {
	case ApprovalActionApprove:
		return models.CourseStatusApproved, true
	case ApprovalActionReject:
		return models.CourseStatusRejected, true
	default:
		return "", false
	}
}

type approvalCourseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	UpdateStatus(ctx context.Context, id string, status models.CourseStatus) error
}

type auditLogWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ApprovalOverview groups all courses by their approval state, each
// group ordered newest first.
type ApprovalOverview struct {
	Pending  []models.CourseDetail `json:"pending"`
	Approved []models.CourseDetail `json:"approved"`
	Rejected []models.CourseDetail `json:"rejected"`
}

// ApprovalService drives the course approval state machine. The
// transition table is pure; authorization is enforced here and at the
// route layer.
type ApprovalService struct {
	courses approvalCourseRepository
	audits  auditLogWriter
	cache   *CacheService
	logger  *zap.Logger
}

// NewApprovalService constructs ApprovalService.
func NewApprovalService(courses approvalCourseRepository, audits auditLogWriter, cache *CacheService, logger *zap.Logger) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{courses: courses, audits: audits, cache: cache, logger: logger}
}

// Overview returns every course grouped by approval status with
// lecturer names resolved. Missing lecturer profiles render as
// "unspecified" rather than failing the listing.
func (s *ApprovalService) Overview(ctx context.Context) (*ApprovalOverview, error) {
	courses, err := s.courses.List(ctx, models.CourseFilter{Scope: models.UnboundedScope()})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list courses")
	}
	overview := &ApprovalOverview{
		Pending:  []models.CourseDetail{},
		Approved: []models.CourseDetail{},
		Rejected: []models.CourseDetail{},
	}
	for _, course := range courses {
		if course.LecturerName == "" {
			course.LecturerName = "unspecified"
		}
		switch course.Status {
		case models.CourseStatusApproved:
			overview.Approved = append(overview.Approved, course)
		case models.CourseStatusRejected:
			overview.Rejected = append(overview.Rejected, course)
		default:
			overview.Pending = append(overview.Pending, course)
		}
	}
	return overview, nil
}

// Decide applies an approval action to a course. Allowed transitions:
// pending to approved or rejected, and rejected back to approved. An
// approved course never changes state again.
func (s *ApprovalService) Decide(ctx context.Context, actor *models.JWTClaims, courseID string, action ApprovalAction) (*models.Course, error) {
	if actor == nil || actor.Role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only admins may decide approvals")
	}
	target, ok := action.TargetStatus()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown approval action")
	}

	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to load course")
	}

	if !course.Status.CanTransitionTo(target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "course status transition not allowed")
	}

	if err := s.courses.UpdateStatus(ctx, courseID, target); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist course status")
	}

	s.recordDecision(ctx, actor, course, target)
	invalidateDashboards(ctx, s.cache, s.logger)

	course.Status = target
	return course, nil
}

func (s *ApprovalService) recordDecision(ctx context.Context, actor *models.JWTClaims, course *models.Course, target models.CourseStatus) {
	if s.audits == nil {
		return
	}
	action := models.AuditActionCourseApprove
	if target == models.CourseStatusRejected {
		action = models.AuditActionCourseReject
	}
	payload, _ := json.Marshal(map[string]string{"status": string(target)})
	if err := s.audits.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   "courses",
		ResourceID: &course.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record approval audit log", zap.Error(err))
	}
}

