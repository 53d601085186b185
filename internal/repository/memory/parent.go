package memory

import (
	"context"

	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/repository"
)

// ParentRepository is the in-memory parent table.
type ParentRepository struct {
	db *DB
}

// NewParentRepository creates a new ParentRepository.
func NewParentRepository(db *DB) *ParentRepository {
	return &ParentRepository{db: db}
}

func (r *ParentRepository) phoneTaken(phone string, exceptID int) bool {
	for id, p := range r.db.parents {
		if id != exceptID && p.Phone == phone {
			return true
		}
	}
	return false
}

func (r *ParentRepository) GetByID(_ context.Context, id int) (*model.Parent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	p, ok := r.db.parents[id]
	if !ok {
		return nil, repository.NotFound("parent", id)
	}
	return &p, nil
}

func (r *ParentRepository) List(_ context.Context, params model.ListParams) ([]model.Parent, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	parents := make([]model.Parent, 0, len(r.db.parents))
	for _, id := range sortedIDs(r.db.parents) {
		parents = append(parents, r.db.parents[id])
	}
	return page(parents, params), nil
}

func (r *ParentRepository) Create(_ context.Context, p *model.Parent) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if r.phoneTaken(p.Phone, 0) {
		return repository.ErrDuplicatePhone
	}
	now := r.db.now()
	p.ID = r.db.nextID("parents")
	p.CreatedAt, p.UpdatedAt = now, now
	row := *p
	row.Students = nil
	r.db.parents[p.ID] = row
	return nil
}

func (r *ParentRepository) Update(_ context.Context, id int, apply func(*model.Parent) error) (*model.Parent, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	p, ok := r.db.parents[id]
	if !ok {
		return nil, repository.NotFound("parent", id)
	}
	if err := apply(&p); err != nil {
		return nil, err
	}
	if r.phoneTaken(p.Phone, id) {
		return nil, repository.ErrDuplicatePhone
	}
	p.ID = id
	p.UpdatedAt = r.db.now()
	p.Students = nil
	r.db.parents[id] = p
	return &p, nil
}

// Delete removes a parent together with its students, and their
// registrations and subscriptions.
func (r *ParentRepository) Delete(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.parents[id]; !ok {
		return repository.NotFound("parent", id)
	}
	for sid, s := range r.db.students {
		if s.ParentID == id {
			r.db.deleteStudent(sid)
		}
	}
	delete(r.db.parents, id)
	return nil
}
