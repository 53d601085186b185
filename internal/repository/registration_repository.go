package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/schedule"
)

// RegistrationRepository handles the class/student join table.
type RegistrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository creates a new RegistrationRepository.
func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

// Register seats a student in a class.
//
// The class row and then the student row are locked for the whole
// transaction, always in that order, so concurrent registrations for the same
// class serialize on the seat count and concurrent registrations for the same
// student serialize on the schedule check.
func (r *RegistrationRepository) Register(ctx context.Context, classID, studentID int) (*model.Registration, error) {
	reg := &model.Registration{ClassID: classID, StudentID: studentID}

	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		target, err := lockClass(ctx, tx, classID)
		if err != nil {
			return err
		}

		var lockedID int
		err = tx.QueryRow(ctx, `SELECT id FROM students WHERE id = $1 FOR UPDATE`, studentID).Scan(&lockedID)
		if errors.Is(err, pgx.ErrNoRows) {
			return NotFound("student", studentID)
		}
		if err != nil {
			return fmt.Errorf("lock student: %w", err)
		}

		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM class_registrations WHERE class_id = $1 AND student_id = $2)`,
			classID, studentID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrDuplicateRegistration
		}

		if target.CurrentStudents >= target.MaxStudents {
			return &CapacityError{Current: target.CurrentStudents, Max: target.MaxStudents}
		}

		rows, err := tx.Query(ctx, classSelect+`
			JOIN class_registrations cr ON cr.class_id = c.id
			WHERE cr.student_id = $1 AND c.day_of_week = $2`,
			studentID, target.DayOfWeek,
		)
		if err != nil {
			return err
		}
		sameDay, err := collectClasses(rows)
		if err != nil {
			return err
		}
		if existing, ok := schedule.FindConflict(sameDay, *target); ok {
			return &ScheduleConflictError{Existing: existing}
		}

		err = tx.QueryRow(ctx,
			`INSERT INTO class_registrations (class_id, student_id)
			 VALUES ($1, $2)
			 RETURNING id, created_at`,
			classID, studentID,
		).Scan(&reg.ID, &reg.CreatedAt)
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrDuplicateRegistration
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Unregister removes a student's seat in a class.
func (r *RegistrationRepository) Unregister(ctx context.Context, classID, studentID int) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := lockClass(ctx, tx, classID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`DELETE FROM class_registrations WHERE class_id = $1 AND student_id = $2`,
			classID, studentID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return NotFound("registration", 0)
		}
		return nil
	})
}

// ListStudents returns the students registered to a class ordered by ID.
func (r *RegistrationRepository) ListStudents(ctx context.Context, classID int) ([]model.Student, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM classes WHERE id = $1)`, classID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, NotFound("class", classID)
	}

	rows, err := r.pool.Query(ctx, studentSelect+`
		JOIN class_registrations cr ON cr.student_id = s.id
		WHERE cr.class_id = $1
		ORDER BY s.id`, classID)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

// ListClasses returns the classes a student is registered in.
func (r *RegistrationRepository) ListClasses(ctx context.Context, studentID int) ([]model.Class, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM students WHERE id = $1)`, studentID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, NotFound("student", studentID)
	}

	rows, err := r.pool.Query(ctx, classSelect+`
		JOIN class_registrations cr ON cr.class_id = c.id
		WHERE cr.student_id = $1
		ORDER BY c.day_of_week, c.time_slot_start, c.id`, studentID)
	if err != nil {
		return nil, err
	}
	return collectClasses(rows)
}
