package memory

import (
	"context"

	"github.com/stemsi/minilms-backend/internal/model"
)

// DashboardRepository computes dashboard figures over the in-memory tables.
type DashboardRepository struct {
	db *DB
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(db *DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) GetStats(_ context.Context, dayOfWeek int) (*model.DashboardStats, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s := &model.DashboardStats{
		TotalStudents:      len(r.db.students),
		TotalParents:       len(r.db.parents),
		TotalClasses:       len(r.db.classes),
		TotalRegistrations: len(r.db.registrations),
	}
	for _, sub := range r.db.subscriptions {
		if sub.IsActive {
			s.ActiveSubscriptions++
		}
	}
	for _, c := range r.db.classes {
		if c.DayOfWeek == dayOfWeek {
			s.ClassesToday++
		}
	}
	return s, nil
}
