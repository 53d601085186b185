package memory

import (
	"context"

	"github.com/stemsi/minilms-backend/internal/model"
	"github.com/stemsi/minilms-backend/internal/repository"
)

// SubscriptionRepository is the in-memory subscription table.
type SubscriptionRepository struct {
	db *DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) GetByID(_ context.Context, id int) (*model.Subscription, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.subscriptions[id]
	if !ok {
		return nil, repository.NotFound("subscription", id)
	}
	return &s, nil
}

func (r *SubscriptionRepository) List(_ context.Context, params model.ListParams) ([]model.Subscription, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	subs := make([]model.Subscription, 0, len(r.db.subscriptions))
	for _, id := range sortedIDs(r.db.subscriptions) {
		subs = append(subs, r.db.subscriptions[id])
	}
	return page(subs, params), nil
}

func (r *SubscriptionRepository) ListByStudent(_ context.Context, studentID int) ([]model.Subscription, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	subs := []model.Subscription{}
	for _, id := range sortedIDs(r.db.subscriptions) {
		if s := r.db.subscriptions[id]; s.StudentID == studentID {
			subs = append(subs, s)
		}
	}
	return subs, nil
}

func (r *SubscriptionRepository) Create(_ context.Context, s *model.Subscription) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.students[s.StudentID]; !ok {
		return repository.NotFound("student", s.StudentID)
	}
	now := r.db.now()
	s.ID = r.db.nextID("subscriptions")
	s.CreatedAt, s.UpdatedAt = now, now
	r.db.subscriptions[s.ID] = *s
	return nil
}

func (r *SubscriptionRepository) Update(_ context.Context, id int, apply func(*model.Subscription) error) (*model.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.subscriptions[id]
	if !ok {
		return nil, repository.NotFound("subscription", id)
	}
	if err := apply(&s); err != nil {
		return nil, err
	}
	s.ID = id
	s.UpdatedAt = r.db.now()
	r.db.subscriptions[id] = s
	return &s, nil
}

// UseSession consumes one session if the subscription is active and not
// exhausted.
func (r *SubscriptionRepository) UseSession(_ context.Context, id int) (*model.Subscription, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.subscriptions[id]
	if !ok {
		return nil, repository.NotFound("subscription", id)
	}
	if !s.IsActive {
		return nil, repository.ErrInactiveSubscription
	}
	if s.Exhausted() {
		return nil, repository.ErrSessionsExhausted
	}
	s.UsedSessions++
	s.UpdatedAt = r.db.now()
	r.db.subscriptions[id] = s
	return &s, nil
}

func (r *SubscriptionRepository) Delete(_ context.Context, id int) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.subscriptions[id]; !ok {
		return repository.NotFound("subscription", id)
	}
	delete(r.db.subscriptions, id)
	return nil
}
