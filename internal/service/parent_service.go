package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
)

// ParentService handles parent business logic.
type ParentService struct {
	parentRepo  ParentRepository
	studentRepo StudentRepository
	classCache  ClassListCache
	log         zerolog.Logger
}

// NewParentService creates a new ParentService.
func NewParentService(parentRepo ParentRepository, studentRepo StudentRepository, classCache ClassListCache, log zerolog.Logger) *ParentService {
	return &ParentService{
		parentRepo:  parentRepo,
		studentRepo: studentRepo,
		classCache:  classCache,
		log:         log.With().Str("component", "parent_service").Logger(),
	}
}

// GetByID retrieves a parent with their students.
func (s *ParentService) GetByID(ctx context.Context, id int) (*model.Parent, error) {
	p, err := s.parentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	parents := []model.Parent{*p}
	if err := s.attachStudents(ctx, parents); err != nil {
		return nil, err
	}
	return &parents[0], nil
}

// List retrieves a page of parents, each with their students.
func (s *ParentService) List(ctx context.Context, params model.ListParams) ([]model.Parent, error) {
	parents, err := s.parentRepo.List(ctx, params)
	if err != nil {
		return nil, err
	}
	if err := s.attachStudents(ctx, parents); err != nil {
		return nil, err
	}
	return parents, nil
}

// Create validates and stores a new parent.
func (s *ParentService) Create(ctx context.Context, req *model.CreateParentRequest) (*model.Parent, error) {
	p := req.ToParent()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := s.parentRepo.Create(ctx, p); err != nil {
		return nil, err
	}
	p.Students = []model.Student{}
	return p, nil
}

// Update merges req into the stored parent and re-validates the result.
func (s *ParentService) Update(ctx context.Context, id int, req *model.UpdateParentRequest) (*model.Parent, error) {
	p, err := s.parentRepo.Update(ctx, id, func(p *model.Parent) error {
		req.ApplyTo(p)
		return p.Validate()
	})
	if err != nil {
		return nil, err
	}
	parents := []model.Parent{*p}
	if err := s.attachStudents(ctx, parents); err != nil {
		return nil, err
	}
	return &parents[0], nil
}

// Delete removes a parent and, through the cascade, their students with
// their registrations and subscriptions.
func (s *ParentService) Delete(ctx context.Context, id int) error {
	if err := s.parentRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.classCache.Invalidate(ctx)
	s.log.Info().Int("parent_id", id).Msg("Parent deleted")
	return nil
}

func (s *ParentService) attachStudents(ctx context.Context, parents []model.Parent) error {
	if len(parents) == 0 {
		return nil
	}
	ids := make([]int, len(parents))
	index := make(map[int]int, len(parents))
	for i := range parents {
		ids[i] = parents[i].ID
		index[parents[i].ID] = i
		parents[i].Students = []model.Student{}
	}

	students, err := s.studentRepo.ListByParents(ctx, ids)
	if err != nil {
		return err
	}
	for _, st := range students {
		if i, ok := index[st.ParentID]; ok {
			parents[i].Students = append(parents[i].Students, st)
		}
	}
	return nil
}
