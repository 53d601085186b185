package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/minilms-backend/internal/model"
)

// current_students is always counted from class_registrations so it can
// never drift from the rows it describes.
const classSelect = `SELECT c.id, c.name, c.subject, c.teacher_name, c.day_of_week,
	c.time_slot_start, c.time_slot_end, c.max_students,
	(SELECT COUNT(*) FROM class_registrations r WHERE r.class_id = c.id),
	c.created_at, c.updated_at
	FROM classes c`

// ClassRepository handles class data access.
type ClassRepository struct {
	pool *pgxpool.Pool
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(pool *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{pool: pool}
}

func scanClass(row pgx.Row) (*model.Class, error) {
	var (
		c          model.Class
		start, end pgtype.Time
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Subject, &c.TeacherName, &c.DayOfWeek,
		&start, &end, &c.MaxStudents, &c.CurrentStudents, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.TimeSlotStart = model.TimeOfDayFromMicroseconds(start.Microseconds)
	c.TimeSlotEnd = model.TimeOfDayFromMicroseconds(end.Microseconds)
	return &c, nil
}

func collectClasses(rows pgx.Rows) ([]model.Class, error) {
	defer rows.Close()
	classes := []model.Class{}
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, err
		}
		classes = append(classes, *c)
	}
	return classes, rows.Err()
}

func timeParam(t model.TimeOfDay) pgtype.Time {
	return pgtype.Time{Microseconds: t.Microseconds(), Valid: true}
}

// GetByID retrieves a class by its ID.
func (r *ClassRepository) GetByID(ctx context.Context, id int) (*model.Class, error) {
	c, err := scanClass(r.pool.QueryRow(ctx, classSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("class", id)
	}
	return c, err
}

// List retrieves classes ordered by ID.
func (r *ClassRepository) List(ctx context.Context, params model.ListParams) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx, classSelect+` ORDER BY c.id LIMIT $1 OFFSET $2`, params.Limit, params.Skip)
	if err != nil {
		return nil, err
	}
	return collectClasses(rows)
}

// ListAll retrieves every class ordered by day and start time.
func (r *ClassRepository) ListAll(ctx context.Context) ([]model.Class, error) {
	rows, err := r.pool.Query(ctx, classSelect+` ORDER BY c.day_of_week, c.time_slot_start, c.id`)
	if err != nil {
		return nil, err
	}
	return collectClasses(rows)
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, c *model.Class) error {
	c.CurrentStudents = 0
	return r.pool.QueryRow(ctx,
		`INSERT INTO classes (name, subject, teacher_name, day_of_week, time_slot_start, time_slot_end, max_students)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		c.Name, c.Subject, c.TeacherName, c.DayOfWeek, timeParam(c.TimeSlotStart), timeParam(c.TimeSlotEnd), c.MaxStudents,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// Update locks the class row, lets apply mutate a copy that carries the
// current registration count, and writes it back. Holding the lock keeps a
// concurrent registration from slipping in between the count and the write.
func (r *ClassRepository) Update(ctx context.Context, id int, apply func(*model.Class) error) (*model.Class, error) {
	var updated *model.Class
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		c, err := lockClass(ctx, tx, id)
		if err != nil {
			return err
		}

		if err := apply(c); err != nil {
			return err
		}

		if err := tx.QueryRow(ctx,
			`UPDATE classes SET name = $1, subject = $2, teacher_name = $3, day_of_week = $4,
			 time_slot_start = $5, time_slot_end = $6, max_students = $7, updated_at = CURRENT_TIMESTAMP
			 WHERE id = $8
			 RETURNING updated_at`,
			c.Name, c.Subject, c.TeacherName, c.DayOfWeek, timeParam(c.TimeSlotStart), timeParam(c.TimeSlotEnd),
			c.MaxStudents, id,
		).Scan(&c.UpdatedAt); err != nil {
			return err
		}
		updated = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a class by its ID. Registrations go with it.
func (r *ClassRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM classes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFound("class", id)
	}
	return nil
}

// lockClass takes a row lock on the class and returns it with its current
// registration count, read inside the same transaction.
func lockClass(ctx context.Context, tx pgx.Tx, id int) (*model.Class, error) {
	if _, err := tx.Exec(ctx, `SELECT 1 FROM classes WHERE id = $1 FOR UPDATE`, id); err != nil {
		return nil, fmt.Errorf("lock class: %w", err)
	}
	c, err := scanClass(tx.QueryRow(ctx, classSelect+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("class", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read class: %w", err)
	}
	return c, nil
}
