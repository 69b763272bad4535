package service

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type lecturerCourseIDLister interface {
	ListIDsByLecturer(ctx context.Context, lecturerID string) ([]string, error)
}

type studentCourseIDLister interface {
	ListCourseIDsByStudent(ctx context.Context, studentID string) ([]string, error)
}

// ScopeService computes the set of course IDs a caller may act on. The
// result is a pure function of role, user ID and the current ownership
// and enrollment rows; a store failure propagates and is never
// collapsed into an empty scope.
type ScopeService struct {
	courses     lecturerCourseIDLister
	enrollments studentCourseIDLister
	logger      *zap.Logger
}

// NewScopeService constructs a ScopeService.
func NewScopeService(courses lecturerCourseIDLister, enrollments studentCourseIDLister, logger *zap.Logger) *ScopeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeService{courses: courses, enrollments: enrollments, logger: logger}
}

// VisibleCourseIDs resolves the visible course set for a role. Admins
// receive an unbounded scope, lecturers the courses they own, students
// the courses they are enrolled in (duplicates collapsed).
func (s *ScopeService) VisibleCourseIDs(ctx context.Context, role models.UserRole, userID string) (models.CourseScope, error) {
	switch role {
	case models.RoleAdmin:
		return models.UnboundedScope(), nil
	case models.RoleLecturer:
		ids, err := s.courses.ListIDsByLecturer(ctx, userID)
		if err != nil {
			return models.CourseScope{}, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to resolve lecturer courses")
		}
		return models.ScopeOf(dedupe(ids)...), nil
	case models.RoleStudent:
		ids, err := s.enrollments.ListCourseIDsByStudent(ctx, userID)
		if err != nil {
			return models.CourseScope{}, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to resolve student enrollments")
		}
		return models.ScopeOf(dedupe(ids)...), nil
	default:
		return models.CourseScope{}, appErrors.Clone(appErrors.ErrForbidden, "unknown role")
	}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
