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

const studentSelect = `SELECT s.id, s.name, s.dob, s.gender, s.current_grade, s.parent_id,
	COALESCE(p.name, ''), s.created_at, s.updated_at
	FROM students s LEFT JOIN parents p ON p.id = s.parent_id`

// StudentRepository handles student data access.
type StudentRepository struct {
	pool *pgxpool.Pool
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{pool: pool}
}

func scanStudent(row pgx.Row) (*model.Student, error) {
	var (
		s      model.Student
		dob    pgtype.Date
		gender *string
	)
	if err := row.Scan(&s.ID, &s.Name, &dob, &gender, &s.CurrentGrade, &s.ParentID,
		&s.ParentName, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if dob.Valid {
		d := model.DateOf(dob.Time)
		s.DOB = &d
	}
	if gender != nil {
		g := model.Gender(*gender)
		s.Gender = &g
	}
	return &s, nil
}

func collectStudents(rows pgx.Rows) ([]model.Student, error) {
	defer rows.Close()
	students := []model.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *s)
	}
	return students, rows.Err()
}

func dateParam(d *model.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time, Valid: true}
}

func genderParam(g *model.Gender) *string {
	if g == nil {
		return nil
	}
	v := string(*g)
	return &v
}

// GetByID retrieves a student by ID, including the parent's name.
func (r *StudentRepository) GetByID(ctx context.Context, id int) (*model.Student, error) {
	s, err := scanStudent(r.pool.QueryRow(ctx, studentSelect+` WHERE s.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("student", id)
	}
	return s, err
}

// List retrieves students ordered by ID.
func (r *StudentRepository) List(ctx context.Context, params model.ListParams) ([]model.Student, error) {
	rows, err := r.pool.Query(ctx, studentSelect+` ORDER BY s.id LIMIT $1 OFFSET $2`, params.Limit, params.Skip)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

// ListByParents retrieves every student owned by one of parentIDs.
func (r *StudentRepository) ListByParents(ctx context.Context, parentIDs []int) ([]model.Student, error) {
	if len(parentIDs) == 0 {
		return []model.Student{}, nil
	}
	rows, err := r.pool.Query(ctx, studentSelect+` WHERE s.parent_id = ANY($1) ORDER BY s.id`, parentIDs)
	if err != nil {
		return nil, err
	}
	return collectStudents(rows)
}

// Create inserts a new student. A missing parent surfaces as NotFound.
func (r *StudentRepository) Create(ctx context.Context, s *model.Student) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO students (name, dob, gender, current_grade, parent_id)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		s.Name, dateParam(s.DOB), genderParam(s.Gender), s.CurrentGrade, s.ParentID,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if pgErrorCode(err) == pgForeignKeyViolation {
		return NotFound("parent", s.ParentID)
	}
	return err
}

// Update locks the student row, lets apply mutate a copy, and writes it back.
func (r *StudentRepository) Update(ctx context.Context, id int, apply func(*model.Student) error) (*model.Student, error) {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		s, err := scanStudent(tx.QueryRow(ctx, studentSelect+` WHERE s.id = $1 FOR UPDATE OF s`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return NotFound("student", id)
		}
		if err != nil {
			return fmt.Errorf("lock student: %w", err)
		}

		if err := apply(s); err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE students SET name = $1, dob = $2, gender = $3, current_grade = $4, parent_id = $5,
			 updated_at = CURRENT_TIMESTAMP
			 WHERE id = $6`,
			s.Name, dateParam(s.DOB), genderParam(s.Gender), s.CurrentGrade, s.ParentID, id,
		)
		if pgErrorCode(err) == pgForeignKeyViolation {
			return NotFound("parent", s.ParentID)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	// Re-read so parent_name reflects a changed parent_id.
	return r.GetByID(ctx, id)
}

// Delete removes a student. Registrations and subscriptions are removed by
// ON DELETE CASCADE.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFound("student", id)
	}
	return nil
}
