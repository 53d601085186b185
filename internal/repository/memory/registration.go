package memory

import (
	"context"

	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/repository"
	"github.com/stemsi/minilms-backend/internal/schedule"
)

// RegistrationRepository is the in-memory class/student join table.
type RegistrationRepository struct {
	db *DB
}

// NewRegistrationRepository creates a new RegistrationRepository.
func NewRegistrationRepository(db *DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

// Register seats a student in a class. All checks and the insert run under
// the write lock.
func (r *RegistrationRepository) Register(_ context.Context, classID, studentID int) (*model.Registration, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	target, ok := r.db.classRow(classID)
	if !ok {
		return nil, repository.NotFound("class", classID)
	}
	if _, ok := r.db.students[studentID]; !ok {
		return nil, repository.NotFound("student", studentID)
	}

	var sameDay []model.Class
	for _, reg := range r.db.registrations {
		if reg.StudentID != studentID {
			continue
		}
		if reg.ClassID == classID {
			return nil, repository.ErrDuplicateRegistration
		}
		if c, ok := r.db.classRow(reg.ClassID); ok && c.DayOfWeek == target.DayOfWeek {
			sameDay = append(sameDay, c)
		}
	}

	if target.CurrentStudents >= target.MaxStudents {
		return nil, &repository.CapacityError{Current: target.CurrentStudents, Max: target.MaxStudents}
	}

	sortBySchedule(sameDay)
	if existing, ok := schedule.FindConflict(sameDay, target); ok {
		return nil, &repository.ScheduleConflictError{Existing: existing}
	}

	reg := model.Registration{
		ID:        r.db.nextID("registrations"),
		ClassID:   classID,
		StudentID: studentID,
		CreatedAt: r.db.now(),
	}
	r.db.registrations[reg.ID] = reg
	return &reg, nil
}

func (r *RegistrationRepository) Unregister(_ context.Context, classID, studentID int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.classes[classID]; !ok {
		return repository.NotFound("class", classID)
	}
	for id, reg := range r.db.registrations {
		if reg.ClassID == classID && reg.StudentID == studentID {
			delete(r.db.registrations, id)
			return nil
		}
	}
	return repository.NotFound("registration", 0)
}

// ListStudents returns the students registered to a class ordered by ID.
func (r *RegistrationRepository) ListStudents(_ context.Context, classID int) ([]model.Student, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if _, ok := r.db.classes[classID]; !ok {
		return nil, repository.NotFound("class", classID)
	}
	seated := make(map[int]struct{})
	for _, reg := range r.db.registrations {
		if reg.ClassID == classID {
			seated[reg.StudentID] = struct{}{}
		}
	}
	students := []model.Student{}
	for _, id := range sortedIDs(r.db.students) {
		if _, ok := seated[id]; ok {
			s, _ := r.db.studentRow(id)
			students = append(students, s)
		}
	}
	return students, nil
}

// ListClasses returns the classes a student is registered in.
func (r *RegistrationRepository) ListClasses(_ context.Context, studentID int) ([]model.Class, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	if _, ok := r.db.students[studentID]; !ok {
		return nil, repository.NotFound("student", studentID)
	}
	classes := []model.Class{}
	for _, reg := range r.db.registrations {
		if reg.StudentID == studentID {
			if c, ok := r.db.classRow(reg.ClassID); ok {
				classes = append(classes, c)
			}
		}
	}
	sortBySchedule(classes)
	return classes, nil
}
