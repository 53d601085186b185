package memory

import (
	"context"
	"sort"

	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/repository"
)

// ClassRepository is the in-memory class table.
type ClassRepository struct {
	db *DB
}

// NewClassRepository creates a new ClassRepository.
func NewClassRepository(db *DB) *ClassRepository {
	return &ClassRepository{db: db}
}

func (r *ClassRepository) GetByID(_ context.Context, id int) (*model.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	c, ok := r.db.classRow(id)
	if !ok {
		return nil, repository.NotFound("class", id)
	}
	return &c, nil
}

func (r *ClassRepository) List(_ context.Context, params model.ListParams) ([]model.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	classes := make([]model.Class, 0, len(r.db.classes))
	for _, id := range sortedIDs(r.db.classes) {
		c, _ := r.db.classRow(id)
		classes = append(classes, c)
	}
	return page(classes, params), nil
}

// ListAll returns every class ordered by day, start time and ID.
func (r *ClassRepository) ListAll(_ context.Context) ([]model.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	classes := make([]model.Class, 0, len(r.db.classes))
	for _, id := range sortedIDs(r.db.classes) {
		c, _ := r.db.classRow(id)
		classes = append(classes, c)
	}
	sortBySchedule(classes)
	return classes, nil
}

func (r *ClassRepository) Create(_ context.Context, c *model.Class) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	now := r.db.now()
	c.ID = r.db.nextID("classes")
	c.CurrentStudents = 0
	c.CreatedAt, c.UpdatedAt = now, now
	r.db.classes[c.ID] = *c
	return nil
}

// Update runs apply against the class with its live registration count while
// holding the write lock.
func (r *ClassRepository) Update(_ context.Context, id int, apply func(*model.Class) error) (*model.Class, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	c, ok := r.db.classRow(id)
	if !ok {
		return nil, repository.NotFound("class", id)
	}
	if err := apply(&c); err != nil {
		return nil, err
	}
	c.ID = id
	c.CurrentStudents = r.db.countRegistrations(id)
	c.UpdatedAt = r.db.now()
	r.db.classes[id] = c
	return &c, nil
}

// Delete removes a class and its registrations.
func (r *ClassRepository) Delete(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.classes[id]; !ok {
		return repository.NotFound("class", id)
	}
	for rid, reg := range r.db.registrations {
		if reg.ClassID == id {
			delete(r.db.registrations, rid)
		}
	}
	delete(r.db.classes, id)
	return nil
}

func sortBySchedule(classes []model.Class) {
	sort.SliceStable(classes, func(i, j int) bool {
		a, b := classes[i], classes[j]
		if a.DayOfWeek != b.DayOfWeek {
			return a.DayOfWeek < b.DayOfWeek
		}
		if a.TimeSlotStart != b.TimeSlotStart {
			return a.TimeSlotStart < b.TimeSlotStart
		}
		return a.ID < b.ID
	})
}
