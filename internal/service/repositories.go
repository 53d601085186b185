package service

import (
	"context"

	"github.com/stemsi/minilms-backend/internal/model"
)

// The services depend on these interfaces. Both the Postgres repositories in
// internal/repository and the in-memory ones in internal/repository/memory
// satisfy them.

type ParentRepository interface {
	GetByID(ctx context.Context, id int) (*model.Parent, error)
	List(ctx context.Context, params model.ListParams) ([]model.Parent, error)
	Create(ctx context.Context, p *model.Parent) error
	Update(ctx context.Context, id int, apply func(*model.Parent) error) (*model.Parent, error)
	Delete(ctx context.Context, id int) error
}

type StudentRepository interface {
	GetByID(ctx context.Context, id int) (*model.Student, error)
	List(ctx context.Context, params model.ListParams) ([]model.Student, error)
	ListByParents(ctx context.Context, parentIDs []int) ([]model.Student, error)
	Create(ctx context.Context, s *model.Student) error
	Update(ctx context.Context, id int, apply func(*model.Student) error) (*model.Student, error)
	Delete(ctx context.Context, id int) error
}

type ClassRepository interface {
	GetByID(ctx context.Context, id int) (*model.Class, error)
	List(ctx context.Context, params model.ListParams) ([]model.Class, error)
	ListAll(ctx context.Context) ([]model.Class, error)
	Create(ctx context.Context, c *model.Class) error
	Update(ctx context.Context, id int, apply func(*model.Class) error) (*model.Class, error)
	Delete(ctx context.Context, id int) error
}

type RegistrationRepository interface {
	Register(ctx context.Context, classID, studentID int) (*model.Registration, error)
	Unregister(ctx context.Context, classID, studentID int) error
	ListStudents(ctx context.Context, classID int) ([]model.Student, error)
	ListClasses(ctx context.Context, studentID int) ([]model.Class, error)
}

type SubscriptionRepository interface {
	GetByID(ctx context.Context, id int) (*model.Subscription, error)
	List(ctx context.Context, params model.ListParams) ([]model.Subscription, error)
	ListByStudent(ctx context.Context, studentID int) ([]model.Subscription, error)
	Create(ctx context.Context, s *model.Subscription) error
	Update(ctx context.Context, id int, apply func(*model.Subscription) error) (*model.Subscription, error)
	UseSession(ctx context.Context, id int) (*model.Subscription, error)
	Delete(ctx context.Context, id int) error
}

type DashboardRepository interface {
	GetStats(ctx context.Context, dayOfWeek int) (*model.DashboardStats, error)
}

// ClassListCache caches the default page of the class list. Get returns a
// token that must be handed back to Set so that a list read before an
// Invalidate is never stored after it.
type ClassListCache interface {
	Get(ctx context.Context) (classes []model.Class, token string, ok bool)
	Set(ctx context.Context, token string, classes []model.Class)
	Invalidate(ctx context.Context)
}
