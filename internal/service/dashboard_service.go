package service

import (
	"context"
	"time"

	"github.com/stemsi/minilms-backend/internal/model"
)

// DashboardService handles admin dashboard business logic.
type DashboardService struct {
	repo DashboardRepository
	loc  *time.Location
	now  func() time.Time
}

// NewDashboardService creates a new DashboardService. loc decides which
// weekday counts as today.
func NewDashboardService(repo DashboardRepository, loc *time.Location) *DashboardService {
	if loc == nil {
		loc = time.UTC
	}
	return &DashboardService{repo: repo, loc: loc, now: time.Now}
}

// Stats computes the dashboard counters at request time.
func (s *DashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	today := int(s.now().In(s.loc).Weekday())
	return s.repo.GetStats(ctx, today)
}
