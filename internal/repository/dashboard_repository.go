package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/minilms-backend/internal/model"
)

// DashboardRepository handles admin dashboard data access.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetStats counts every figure in one statement so they come from the same
// snapshot. dayOfWeek selects the classes held today (0 = Sunday).
func (r *DashboardRepository) GetStats(ctx context.Context, dayOfWeek int) (*model.DashboardStats, error) {
	s := &model.DashboardStats{}
	err := r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM students),
			(SELECT COUNT(*) FROM parents),
			(SELECT COUNT(*) FROM classes),
			(SELECT COUNT(*) FROM class_registrations),
			(SELECT COUNT(*) FROM subscriptions WHERE is_active),
			(SELECT COUNT(*) FROM classes WHERE day_of_week = $1)`,
		dayOfWeek,
	).Scan(&s.TotalStudents, &s.TotalParents, &s.TotalClasses, &s.TotalRegistrations,
		&s.ActiveSubscriptions, &s.ClassesToday)
	if err != nil {
		return nil, err
	}
	return s, nil
}
