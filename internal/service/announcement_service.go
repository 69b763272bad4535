package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type announcementRepository interface {
	List(ctx context.Context, limit int) ([]models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
}

// CreateAnnouncementRequest describes the create payload.
type CreateAnnouncementRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// AnnouncementService handles portal-wide announcements.
type AnnouncementService struct {
	repo      announcementRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns the newest announcements, capped at limit.
func (s *AnnouncementService) List(ctx context.Context, limit int) ([]models.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	announcements, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to list announcements")
	}
	return announcements, nil
}

// Create publishes an announcement. Only admins and lecturers may post.
func (s *AnnouncementService) Create(ctx context.Context, claims *models.JWTClaims, req CreateAnnouncementRequest) (*models.Announcement, error) {
	if claims.Role != models.RoleAdmin && claims.Role != models.RoleLecturer {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role cannot publish announcements")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}
	announcement := &models.Announcement{
		Title:     req.Title,
		Content:   req.Content,
		CreatedBy: claims.UserID,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	invalidateDashboards(ctx, s.cache, s.logger)
	return announcement, nil
}
