package memory

import (
	"context"

	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/repository"
)

// StudentRepository is the in-memory student table.
type StudentRepository struct {
	db *DB
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) GetByID(_ context.Context, id int) (*model.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.studentRow(id)
	if !ok {
		return nil, repository.NotFound("student", id)
	}
	return &s, nil
}

func (r *StudentRepository) List(_ context.Context, params model.ListParams) ([]model.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	students := make([]model.Student, 0, len(r.db.students))
	for _, id := range sortedIDs(r.db.students) {
		s, _ := r.db.studentRow(id)
		students = append(students, s)
	}
	return page(students, params), nil
}

func (r *StudentRepository) ListByParents(_ context.Context, parentIDs []int) ([]model.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	wanted := make(map[int]struct{}, len(parentIDs))
	for _, id := range parentIDs {
		wanted[id] = struct{}{}
	}
	students := []model.Student{}
	for _, id := range sortedIDs(r.db.students) {
		s, _ := r.db.studentRow(id)
		if _, ok := wanted[s.ParentID]; ok {
			students = append(students, s)
		}
	}
	return students, nil
}

func (r *StudentRepository) Create(_ context.Context, s *model.Student) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	parent, ok := r.db.parents[s.ParentID]
	if !ok {
		return repository.NotFound("parent", s.ParentID)
	}
	now := r.db.now()
	s.ID = r.db.nextID("students")
	s.CreatedAt, s.UpdatedAt = now, now
	s.ParentName = parent.Name
	r.db.students[s.ID] = *s
	return nil
}

func (r *StudentRepository) Update(_ context.Context, id int, apply func(*model.Student) error) (*model.Student, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.studentRow(id)
	if !ok {
		return nil, repository.NotFound("student", id)
	}
	if err := apply(&s); err != nil {
		return nil, err
	}
	parent, ok := r.db.parents[s.ParentID]
	if !ok {
		return nil, repository.NotFound("parent", s.ParentID)
	}
	s.ID = id
	s.ParentName = parent.Name
	s.UpdatedAt = r.db.now()
	r.db.students[id] = s
	return &s, nil
}

// Delete removes a student together with its registrations and subscriptions.
func (r *StudentRepository) Delete(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.students[id]; !ok {
		return repository.NotFound("student", id)
	}
	r.db.deleteStudent(id)
	return nil
}
