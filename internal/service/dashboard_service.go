package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-portal-api/internal/models"
	appErrors "github.com/noah-isme/academic-portal-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:counts"

type entityCounter interface {
	Count(ctx context.Context) (int, error)
}

type announcementReader interface {
	List(ctx context.Context, limit int) ([]models.Announcement, error)
	Count(ctx context.Context) (int, error)
}

// DashboardCounts is the admin landing-page summary.
type DashboardCounts struct {
	Users         int `json:"users"`
	Courses       int `json:"courses"`
	Assignments   int `json:"assignments"`
	Announcements int `json:"announcements"`
}

// DashboardResponse bundles counts with the latest announcements.
type DashboardResponse struct {
	Counts        DashboardCounts       `json:"counts"`
	Announcements []models.Announcement `json:"announcements"`
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL          time.Duration
	AnnouncementLimit int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Users         entityCounter
	Courses       entityCounter
	Assignments   entityCounter
	Announcements announcementReader
	Cache         *CacheService
	Logger        *zap.Logger
	Config        DashboardServiceConfig
}

// DashboardService composes the dashboard payload. Counts are fetched
// concurrently and cached; approval decisions invalidate the cache.
type DashboardService struct {
	users         entityCounter
	courses       entityCounter
	assignments   entityCounter
	announcements announcementReader
	cache         *CacheService
	logger        *zap.Logger
	cfg           DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.AnnouncementLimit <= 0 {
		cfg.AnnouncementLimit = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		users:         params.Users,
		courses:       params.Courses,
		assignments:   params.Assignments,
		announcements: params.Announcements,
		cache:         params.Cache,
		logger:        logger,
		cfg:           cfg,
	}
}

// Summary returns the dashboard payload and reports cache utilisation.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardResponse, bool, error) {
	counts, hit, err := s.loadCounts(ctx)
	if err != nil {
		return nil, false, err
	}

	announcements := []models.Announcement{}
	if s.announcements != nil {
		announcements, err = s.announcements.List(ctx, s.cfg.AnnouncementLimit)
		if err != nil {
			s.logger.Warn("dashboard announcements fetch failed", zap.Error(err))
			announcements = []models.Announcement{}
		}
	}

	return &DashboardResponse{Counts: *counts, Announcements: announcements}, hit, nil
}

func (s *DashboardService) loadCounts(ctx context.Context) (*DashboardCounts, bool, error) {
	if s.cache != nil {
		var cached DashboardCounts
		if hit, err := s.cache.Get(ctx, dashboardCacheKey, &cached); err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		} else if hit {
			return &cached, true, nil
		}
	}

	counts, err := s.collectCounts(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, counts, s.cfg.CacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return counts, false, nil
}

// collectCounts fans the four count queries out concurrently.
func (s *DashboardService) collectCounts(ctx context.Context) (*DashboardCounts, error) {
	counts := &DashboardCounts{}
	tasks := []struct {
		counter entityCounter
		dest    *int
	}{
		{s.users, &counts.Users},
		{s.courses, &counts.Courses},
		{s.assignments, &counts.Assignments},
		{s.announcements, &counts.Announcements},
	}

	var wg sync.WaitGroup
	errs := make([]error, len(tasks))
	for i, task := range tasks {
		if task.counter == nil {
			continue
		}
		wg.Add(1)
		go func(i int, counter entityCounter, dest *int) {
			defer wg.Done()
			value, err := counter.Count(ctx)
			if err != nil {
				errs[i] = err
				return
			}
			*dest = value
		}(i, task.counter, task.dest)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to collect dashboard counts")
		}
	}
	return counts, nil
}
