package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
)

// RegistrationService seats students in classes.
type RegistrationService struct {
	registrationRepo RegistrationRepository
	classCache       ClassListCache
	log              zerolog.Logger
}

// NewRegistrationService creates a new RegistrationService.
func NewRegistrationService(registrationRepo RegistrationRepository, classCache ClassListCache, log zerolog.Logger) *RegistrationService {
	return &RegistrationService{
		registrationRepo: registrationRepo,
		classCache:       classCache,
		log:              log.With().Str("component", "registration_service").Logger(),
	}
}

// Register seats a student in a class. It fails with NotFound,
// DuplicateRegistration, CapacityExceeded or ScheduleConflict, checked in
// that order.
func (s *RegistrationService) Register(ctx context.Context, classID, studentID int) (*model.Registration, error) {
	reg, err := s.registrationRepo.Register(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}
	s.classCache.Invalidate(ctx)
	s.log.Info().Int("class_id", classID).Int("student_id", studentID).Msg("Student registered")
	return reg, nil
}

// Unregister frees a student's seat in a class.
func (s *RegistrationService) Unregister(ctx context.Context, classID, studentID int) error {
	if err := s.registrationRepo.Unregister(ctx, classID, studentID); err != nil {
		return err
	}
	s.classCache.Invalidate(ctx)
	s.log.Info().Int("class_id", classID).Int("student_id", studentID).Msg("Student unregistered")
	return nil
}

// Students lists the students registered to a class ordered by ID.
func (s *RegistrationService) Students(ctx context.Context, classID int) ([]model.Student, error) {
	return s.registrationRepo.ListStudents(ctx, classID)
}
