package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
)

// StudentService handles student business logic.
type StudentService struct {
	studentRepo      StudentRepository
	registrationRepo RegistrationRepository
	classCache       ClassListCache
	log              zerolog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(studentRepo StudentRepository, registrationRepo RegistrationRepository, classCache ClassListCache, log zerolog.Logger) *StudentService {
	return &StudentService{
		studentRepo:      studentRepo,
		registrationRepo: registrationRepo,
		classCache:       classCache,
		log:              log.With().Str("component", "student_service").Logger(),
	}
}

// GetByID retrieves a student by ID.
func (s *StudentService) GetByID(ctx context.Context, id int) (*model.Student, error) {
	return s.studentRepo.GetByID(ctx, id)
}

// List retrieves a page of students.
func (s *StudentService) List(ctx context.Context, params model.ListParams) ([]model.Student, error) {
	return s.studentRepo.List(ctx, params)
}

// Create validates and stores a new student. The parent must exist.
func (s *StudentService) Create(ctx context.Context, req *model.CreateStudentRequest) (*model.Student, error) {
	st := req.ToStudent()
	if err := st.Validate(); err != nil {
		return nil, err
	}
	if err := s.studentRepo.Create(ctx, st); err != nil {
		return nil, err
	}
	return s.studentRepo.GetByID(ctx, st.ID)
}

// Update merges req into the stored student and re-validates the result.
func (s *StudentService) Update(ctx context.Context, id int, req *model.UpdateStudentRequest) (*model.Student, error) {
	return s.studentRepo.Update(ctx, id, func(st *model.Student) error {
		req.ApplyTo(st)
		return st.Validate()
	})
}

// Delete removes a student together with their registrations and
// subscriptions.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	if err := s.studentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.classCache.Invalidate(ctx)
	s.log.Info().Int("student_id", id).Msg("Student deleted")
	return nil
}

// Classes lists the classes a student is registered in.
func (s *StudentService) Classes(ctx context.Context, id int) ([]model.Class, error) {
	return s.registrationRepo.ListClasses(ctx, id)
}
