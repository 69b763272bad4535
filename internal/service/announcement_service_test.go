package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

type mockAnnouncementRepo struct {
	rows      []models.Announcement
	lastLimit int
	created   []*models.Announcement
}

func (m *mockAnnouncementRepo) List(ctx context.Context, limit int) ([]models.Announcement, error) {
	m.lastLimit = limit
	return m.rows, nil
}

func (m *mockAnnouncementRepo) Create(ctx context.Context, announcement *models.Announcement) error {
	announcement.ID = "new-announcement"
	m.created = append(m.created, announcement)
	return nil
}

func TestAnnouncementListCapsLimit(t *testing.T) {
	repo := &mockAnnouncementRepo{}
	svc := NewAnnouncementService(repo, nil, nil, zap.NewNop())

	_, err := svc.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastLimit)

	_, err = svc.List(context.Background(), 500)
	require.NoError(t, err)
	assert.Equal(t, 20, repo.lastLimit)

	_, err = svc.List(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 7, repo.lastLimit)
}

func TestAnnouncementCreateByLecturer(t *testing.T) {
	repo := &mockAnnouncementRepo{}
	svc := NewAnnouncementService(repo, nil, nil, zap.NewNop())

	announcement, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "l1", Role: models.RoleLecturer}, CreateAnnouncementRequest{
		Title: "Midterm schedule", Content: "Week 8, see the portal calendar.",
	})
	require.NoError(t, err)
	assert.Equal(t, "l1", announcement.CreatedBy)
	require.Len(t, repo.created, 1)
}

func TestAnnouncementCreateStudentForbidden(t *testing.T) {
	svc := NewAnnouncementService(&mockAnnouncementRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "s1", Role: models.RoleStudent}, CreateAnnouncementRequest{
		Title: "Hi", Content: "Hello",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAnnouncementCreateValidation(t *testing.T) {
	svc := NewAnnouncementService(&mockAnnouncementRepo{}, nil, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), adminClaims(), CreateAnnouncementRequest{Title: "Missing body"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAnnouncementCreateInvalidatesDashboardCache(t *testing.T) {
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	require.NoError(t, cache.Set(context.Background(), "dashboard:counts", DashboardCounts{Announcements: 2}, time.Minute))

	svc := NewAnnouncementService(&mockAnnouncementRepo{}, cache, nil, zap.NewNop())
	_, err := svc.Create(context.Background(), adminClaims(), CreateAnnouncementRequest{Title: "Exams", Content: "Schedule posted"})
	require.NoError(t, err)

	var cached DashboardCounts
	hit, err := cache.Get(context.Background(), "dashboard:counts", &cached)
	require.NoError(t, err)
	assert.False(t, hit)
}
