package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/minilms-backend/internal/model"
)

const subscriptionColumns = `id, student_id, package_name, total_sessions, used_sessions,
	start_date, end_date, is_active, created_at, updated_at`

// SubscriptionRepository handles subscription data access.
type SubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(pool *pgxpool.Pool) *SubscriptionRepository {
	return &SubscriptionRepository{pool: pool}
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	s := &model.Subscription{}
	if err := row.Scan(&s.ID, &s.StudentID, &s.PackageName, &s.TotalSessions, &s.UsedSessions,
		&s.StartDate.Time, &s.EndDate.Time, &s.IsActive, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return s, nil
}

func collectSubscriptions(rows pgx.Rows) ([]model.Subscription, error) {
	defer rows.Close()
	subs := []model.Subscription{}
	for rows.Next() {
		s, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, *s)
	}
	return subs, rows.Err()
}

// GetByID retrieves a subscription by ID.
func (r *SubscriptionRepository) GetByID(ctx context.Context, id int) (*model.Subscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("subscription", id)
	}
	return s, err
}

// List retrieves subscriptions ordered by ID.
func (r *SubscriptionRepository) List(ctx context.Context, params model.ListParams) ([]model.Subscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY id LIMIT $1 OFFSET $2`,
		params.Limit, params.Skip,
	)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

// ListByStudent retrieves every subscription owned by a student.
func (r *SubscriptionRepository) ListByStudent(ctx context.Context, studentID int) ([]model.Subscription, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE student_id = $1 ORDER BY id`, studentID)
	if err != nil {
		return nil, err
	}
	return collectSubscriptions(rows)
}

// Create inserts a new subscription. A missing student surfaces as NotFound.
func (r *SubscriptionRepository) Create(ctx context.Context, s *model.Subscription) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO subscriptions (student_id, package_name, total_sessions, used_sessions, start_date, end_date, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		s.StudentID, s.PackageName, s.TotalSessions, s.UsedSessions, s.StartDate.Time, s.EndDate.Time, s.IsActive,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if pgErrorCode(err) == pgForeignKeyViolation {
		return NotFound("student", s.StudentID)
	}
	return err
}

// Update locks the subscription row, lets apply mutate a copy, and writes it
// back. The lock keeps a concurrent UseSession from being overwritten.
func (r *SubscriptionRepository) Update(ctx context.Context, id int, apply func(*model.Subscription) error) (*model.Subscription, error) {
	var updated *model.Subscription
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := scanSubscription(tx.QueryRow(ctx,
			`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return NotFound("subscription", id)
		}
		if err != nil {
			return fmt.Errorf("lock subscription: %w", err)
		}

		if err := apply(s); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx,
			`UPDATE subscriptions SET package_name = $1, total_sessions = $2, used_sessions = $3,
			 start_date = $4, end_date = $5, is_active = $6, updated_at = CURRENT_TIMESTAMP
			 WHERE id = $7
			 RETURNING updated_at`,
			s.PackageName, s.TotalSessions, s.UsedSessions, s.StartDate.Time, s.EndDate.Time, s.IsActive, id,
		).Scan(&s.UpdatedAt); err != nil {
			return err
		}
		updated = s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// UseSession consumes one session with a single conditional UPDATE. When no
// row qualifies, the current row is read to report why.
func (r *SubscriptionRepository) UseSession(ctx context.Context, id int) (*model.Subscription, error) {
	s, err := scanSubscription(r.pool.QueryRow(ctx,
		`UPDATE subscriptions SET used_sessions = used_sessions + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = $1 AND is_active AND used_sessions < total_sessions
		 RETURNING `+subscriptionColumns, id))
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.IsActive {
		return nil, ErrInactiveSubscription
	}
	return nil, ErrSessionsExhausted
}

// Delete removes a subscription by ID.
func (r *SubscriptionRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subscriptions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFound("subscription", id)
	}
	return nil
}
