package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/minilms-backend/internal/model"
)

// SubscriptionService handles session packages.
type SubscriptionService struct {
	subscriptionRepo SubscriptionRepository
	studentRepo      StudentRepository
	log              zerolog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(subscriptionRepo SubscriptionRepository, studentRepo StudentRepository, log zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		studentRepo:      studentRepo,
		log:              log.With().Str("component", "subscription_service").Logger(),
	}
}

func (s *SubscriptionService) GetByID(ctx context.Context, id int) (*model.Subscription, error) {
	return s.subscriptionRepo.GetByID(ctx, id)
}

func (s *SubscriptionService) List(ctx context.Context, params model.ListParams) ([]model.Subscription, error) {
	return s.subscriptionRepo.List(ctx, params)
}

// ListByStudent returns every subscription owned by an existing student.
func (s *SubscriptionService) ListByStudent(ctx context.Context, studentID int) ([]model.Subscription, error) {
	if _, err := s.studentRepo.GetByID(ctx, studentID); err != nil {
		return nil, err
	}
	return s.subscriptionRepo.ListByStudent(ctx, studentID)
}

// Create stores a new active subscription with no sessions used.
func (s *SubscriptionService) Create(ctx context.Context, req *model.CreateSubscriptionRequest) (*model.Subscription, error) {
	sub := req.ToSubscription()
	sub.UsedSessions = 0
	sub.IsActive = true
	if err := sub.Validate(); err != nil {
		return nil, err
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Update merges req into the stored subscription and re-validates it.
func (s *SubscriptionService) Update(ctx context.Context, id int, req *model.UpdateSubscriptionRequest) (*model.Subscription, error) {
	return s.subscriptionRepo.Update(ctx, id, func(sub *model.Subscription) error {
		req.ApplyTo(sub)
		return sub.Validate()
	})
}

// UseSession consumes one session. Inactive and exhausted subscriptions are
// refused and left unchanged.
func (s *SubscriptionService) UseSession(ctx context.Context, id int) (*model.Subscription, error) {
	sub, err := s.subscriptionRepo.UseSession(ctx, id)
	if err != nil {
		return nil, err
	}
	s.log.Debug().Int("subscription_id", id).Int("used_sessions", sub.UsedSessions).Msg("Session used")
	return sub, nil
}

func (s *SubscriptionService) Delete(ctx context.Context, id int) error {
	return s.subscriptionRepo.Delete(ctx, id)
}
