package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

// submissionLookupConcurrency bounds the per-row enrichment fan-out so
// a large listing does not exhaust database connections.
const submissionLookupConcurrency = 8

type assignmentRepository interface {
	ListScoped(ctx context.Context, scope models.CourseScope) ([]models.Assignment, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

type submissionReader interface {
	FindByAssignmentAndStudent(ctx context.Context, assignmentID, studentID string) (*models.Submission, error)
}

type courseNameResolver interface {
	NamesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}

type courseScopeResolver interface {
	VisibleCourseIDs(ctx context.Context, role models.UserRole, userID string) (models.CourseScope, error)
}

// CreateAssignmentRequest describes assignment creation.
type CreateAssignmentRequest struct {
	CourseID    string     `json:"course_id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	MaxScore    float64    `json:"max_score" validate:"required,gt=0"`
}

// UpdateAssignmentRequest describes assignment updates.
type UpdateAssignmentRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	MaxScore    float64    `json:"max_score" validate:"required,gt=0"`
}

// SubmitAssignmentRequest describes a student submission.
type SubmitAssignmentRequest struct {
	Content *string `json:"content"`
}

// GradeSubmissionRequest describes grading a submission.
type GradeSubmissionRequest struct {
	Score float64 `json:"score" validate:"gte=0"`
}

// AssignmentService produces role-scoped assignment listings and
// orchestrates assignment and submission workflows.
type AssignmentService struct {
	repo        assignmentRepository
	submissions submissionRepositoryFull
	courses     courseNameResolver
	scope       courseScopeResolver
	enrollments enrollmentChecker
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

type submissionRepositoryFull interface {
	submissionReader
	FindByID(ctx context.Context, id string) (*models.Submission, error)
	ListByAssignment(ctx context.Context, assignmentID string) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Grade(ctx context.Context, id string, score float64, gradedAt time.Time) error
}

type enrollmentChecker interface {
	Exists(ctx context.Context, courseID, studentID string) (bool, error)
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(repo assignmentRepository, submissions submissionRepositoryFull, courses courseNameResolver, scope courseScopeResolver, enrollments enrollmentChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, submissions: submissions, courses: courses, scope: scope, enrollments: enrollments, cache: cache, validator: validate, logger: logger}
}

// List returns assignments visible to the caller, ordered by due date,
// each carrying its course name. Student callers additionally get the
// derived submission status and score per assignment. Per-row
// submission lookups fan out concurrently; listing order is preserved
// by writing results at the row's index.
func (s *AssignmentService) List(ctx context.Context, claims *models.JWTClaims) ([]models.AssignmentDetail, error) {
	scope, err := s.scope.VisibleCourseIDs(ctx, claims.Role, claims.UserID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.repo.ListScoped(ctx, scope)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list assignments")
	}

	courseIDs := make([]string, 0, len(assignments))
	seen := make(map[string]struct{}, len(assignments))
	for _, a := range assignments {
		if _, ok := seen[a.CourseID]; ok {
			continue
		}
		seen[a.CourseID] = struct{}{}
		courseIDs = append(courseIDs, a.CourseID)
	}
	names, err := s.courses.NamesByIDs(ctx, courseIDs)
	if err != nil {
		// Enrichment failure degrades to empty names, never fails the listing.
		s.logger.Warn("course name lookup failed", zap.Error(err))
		names = map[string]string{}
	}

	details := make([]models.AssignmentDetail, len(assignments))
	for i, a := range assignments {
		details[i] = models.AssignmentDetail{Assignment: a, CourseName: names[a.CourseID]}
	}

	if claims.Role == models.RoleStudent {
		s.attachSubmissionState(ctx, claims.UserID, details)
	}
	return details, nil
}

// attachSubmissionState resolves each row's submission concurrently and
// derives the display status. A failed lookup leaves that row pending.
func (s *AssignmentService) attachSubmissionState(ctx context.Context, studentID string, details []models.AssignmentDetail) {
	sem := make(chan struct{}, submissionLookupConcurrency)
	var wg sync.WaitGroup
	for i := range details {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			submission, err := s.submissions.FindByAssignmentAndStudent(ctx, details[i].ID, studentID)
			if err != nil {
				s.logger.Warn("submission lookup failed",
					zap.String("assignment_id", details[i].ID), zap.Error(err))
				details[i].SubmissionStatus = models.SubmissionStatusPending
				return
			}
			status, score := models.DeriveSubmissionStatus(submission)
			details[i].SubmissionStatus = status
			details[i].Score = score
		}(i)
	}
	wg.Wait()
}

// Create registers a new assignment inside a course the caller manages.
func (s *AssignmentService) Create(ctx context.Context, claims *models.JWTClaims, req CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := s.requireCourseAccess(ctx, claims, req.CourseID); err != nil {
		return nil, err
	}
	assignment := &models.Assignment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		MaxScore:    req.MaxScore,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	invalidateDashboards(ctx, s.cache, s.logger)
	return assignment, nil
}

// Update rewrites an assignment the caller manages.
func (s *AssignmentService) Update(ctx context.Context, claims *models.JWTClaims, id string, req UpdateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	assignment, err := s.findAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourseAccess(ctx, claims, assignment.CourseID); err != nil {
		return nil, err
	}
	assignment.Title = req.Title
	assignment.Description = req.Description
	assignment.DueDate = req.DueDate
	assignment.MaxScore = req.MaxScore
	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	invalidateDashboards(ctx, s.cache, s.logger)
	return assignment, nil
}

// Delete removes an assignment the caller manages.
func (s *AssignmentService) Delete(ctx context.Context, claims *models.JWTClaims, id string) error {
	assignment, err := s.findAssignment(ctx, id)
	if err != nil {
		return err
	}
	if err := s.requireCourseAccess(ctx, claims, assignment.CourseID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	invalidateDashboards(ctx, s.cache, s.logger)
	return nil
}

// ListSubmissions returns every submission for an assignment, oldest
// first. Restricted to the course's lecturer and admins.
func (s *AssignmentService) ListSubmissions(ctx context.Context, claims *models.JWTClaims, assignmentID string) ([]models.Submission, error) {
	assignment, err := s.findAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourseAccess(ctx, claims, assignment.CourseID); err != nil {
		return nil, err
	}
	submissions, err := s.submissions.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list submissions")
	}
	return submissions, nil
}

// Submit records a student's submission for an assignment. Requires an
// enrollment in the assignment's course and at most one submission per
// student per assignment.
func (s *AssignmentService) Submit(ctx context.Context, claims *models.JWTClaims, assignmentID string, req SubmitAssignmentRequest) (*models.Submission, error) {
	assignment, err := s.findAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	enrolled, err := s.enrollments.Exists(ctx, assignment.CourseID, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to verify enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not enrolled in course")
	}
	existing, err := s.submissions.FindByAssignmentAndStudent(ctx, assignmentID, claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check submission")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "assignment already submitted")
	}
	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    claims.UserID,
		Content:      req.Content,
		SubmittedAt:  time.Now().UTC(),
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	return submission, nil
}

// GradeSubmission records a score on a submission. The score is capped
// by the assignment's max score.
func (s *AssignmentService) GradeSubmission(ctx context.Context, claims *models.JWTClaims, submissionID string, req GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	submission, err := s.submissions.FindByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load submission")
	}
	assignment, err := s.findAssignment(ctx, submission.AssignmentID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCourseAccess(ctx, claims, assignment.CourseID); err != nil {
		return nil, err
	}
	if req.Score > assignment.MaxScore {
		return nil, appErrors.Clone(appErrors.ErrValidation, "score exceeds assignment max score")
	}
	gradedAt := time.Now().UTC()
	if err := s.submissions.Grade(ctx, submissionID, req.Score, gradedAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade submission")
	}
	submission.Score = &req.Score
	submission.GradedAt = &gradedAt
	return submission, nil
}

func (s *AssignmentService) findAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// requireCourseAccess ensures the caller may manage content in the
// course: admins always, lecturers only for courses they own.
func (s *AssignmentService) requireCourseAccess(ctx context.Context, claims *models.JWTClaims, courseID string) error {
	if claims.Role == models.RoleAdmin {
		return nil
	}
	if claims.Role != models.RoleLecturer {
		return appErrors.Clone(appErrors.ErrForbidden, "role cannot manage assignments")
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
