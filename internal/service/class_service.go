package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/schedule"
)

// ClassService handles class business logic.
type ClassService struct {
	classRepo ClassRepository
	cache     ClassListCache
	log       zerolog.Logger
}

// NewClassService creates a new ClassService.
func NewClassService(classRepo ClassRepository, cache ClassListCache, log zerolog.Logger) *ClassService {
	return &ClassService{
		classRepo: classRepo,
		cache:     cache,
		log:       log.With().Str("component", "class_service").Logger(),
	}
}

// GetByID retrieves a class by its ID.
func (s *ClassService) GetByID(ctx context.Context, id int) (*model.Class, error) {
	return s.classRepo.GetByID(ctx, id)
}

// List retrieves a page of classes. The default page is served from the
// cache when possible.
func (s *ClassService) List(ctx context.Context, params model.ListParams) ([]model.Class, error) {
	if !params.IsDefault() {
		return s.classRepo.List(ctx, params)
	}

	cached, token, ok := s.cache.Get(ctx)
	if ok {
		return cached, nil
	}
	classes, err := s.classRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, token, classes)
	return classes, nil
}

// Schedule lays every class out on the weekly display grid.
func (s *ClassService) Schedule(ctx context.Context) (schedule.Grid, error) {
	classes, err := s.classRepo.ListAll(ctx)
	if err != nil {
		return schedule.Grid{}, err
	}
	return schedule.BuildGrid(classes, schedule.DefaultSlots), nil
}

// Create validates and stores a new class.
func (s *ClassService) Create(ctx context.Context, req *model.CreateClassRequest) (*model.Class, error) {
	c := req.ToClass()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.classRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return c, nil
}

// Update merges req into the stored class and re-validates it against the
// live registration count.
func (s *ClassService) Update(ctx context.Context, id int, req *model.UpdateClassRequest) (*model.Class, error) {
	c, err := s.classRepo.Update(ctx, id, func(c *model.Class) error {
		req.ApplyTo(c)
		return c.Validate()
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	return c, nil
}

// Delete removes a class and its registrations.
func (s *ClassService) Delete(ctx context.Context, id int) error {
	if err := s.classRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx)
	s.log.Info().Int("class_id", id).Msg("Class deleted")
	return nil
}
