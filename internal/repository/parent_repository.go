package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/minilms-backend/internal/model"
)

const parentColumns = `id, name, phone, email, created_at, updated_at`

// ParentRepository handles parent data access.
type ParentRepository struct {
	pool *pgxpool.Pool
}

// NewParentRepository creates a new ParentRepository.
func NewParentRepository(pool *pgxpool.Pool) *ParentRepository {
	return &ParentRepository{pool: pool}
}

func scanParent(row pgx.Row) (*model.Parent, error) {
	p := &model.Parent{}
	if err := row.Scan(&p.ID, &p.Name, &p.Phone, &p.Email, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a parent by ID.
func (r *ParentRepository) GetByID(ctx context.Context, id int) (*model.Parent, error) {
	p, err := scanParent(r.pool.QueryRow(ctx,
		`SELECT `+parentColumns+` FROM parents WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, NotFound("parent", id)
	}
	return p, err
}

// List retrieves parents ordered by ID.
func (r *ParentRepository) List(ctx context.Context, params model.ListParams) ([]model.Parent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+parentColumns+` FROM parents ORDER BY id LIMIT $1 OFFSET $2`,
		params.Limit, params.Skip,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parents := []model.Parent{}
	for rows.Next() {
		p, err := scanParent(rows)
		if err != nil {
			return nil, err
		}
		parents = append(parents, *p)
	}
	return parents, rows.Err()
}

// Create inserts a new parent.
func (r *ParentRepository) Create(ctx context.Context, p *model.Parent) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO parents (name, phone, email)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at`,
		p.Name, p.Phone, p.Email,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if pgErrorCode(err) == pgUniqueViolation {
		return ErrDuplicatePhone
	}
	return err
}

// Update locks the parent row, lets apply mutate a copy, and writes it back.
func (r *ParentRepository) Update(ctx context.Context, id int, apply func(*model.Parent) error) (*model.Parent, error) {
	var updated *model.Parent
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		p, err := scanParent(tx.QueryRow(ctx,
			`SELECT `+parentColumns+` FROM parents WHERE id = $1 FOR UPDATE`, id))
		if errors.Is(err, pgx.ErrNoRows) {
			return NotFound("parent", id)
		}
		if err != nil {
			return fmt.Errorf("lock parent: %w", err)
		}

		if err := apply(p); err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`UPDATE parents SET name = $1, phone = $2, email = $3, updated_at = CURRENT_TIMESTAMP
			 WHERE id = $4
			 RETURNING updated_at`,
			p.Name, p.Phone, p.Email, id,
		).Scan(&p.UpdatedAt)
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrDuplicatePhone
		}
		if err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a parent. Students, their registrations and their
// subscriptions are removed by ON DELETE CASCADE.
func (r *ParentRepository) Delete(ctx context.Context, id int) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM parents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return NotFound("parent", id)
	}
	return nil
}
