package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stemsi/minilms-backend/internal/model"
)

// Storage-level sentinel errors. Typed errors below wrap these so callers can
// classify with errors.Is and still read the details with errors.As.
var (
	ErrNotFound              = errors.New("record not found")
	ErrDuplicatePhone        = errors.New("parent with this phone already exists")
	ErrDuplicateRegistration = errors.New("student is already registered for this class")
	ErrCapacityExceeded      = errors.New("class is full")
	ErrScheduleConflict      = errors.New("schedule conflict")
	ErrInactiveSubscription  = errors.New("subscription is not active")
	ErrSessionsExhausted     = errors.New("no remaining sessions")
)

// Postgres SQLSTATE codes handled explicitly.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// NotFoundError names the missing resource.
type NotFoundError struct {
	Resource string
	ID       int
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s with id %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// Detail returns a human-readable message for API consumers.
func (e *NotFoundError) Detail() string {
	if e.Resource == "" {
		return "Resource not found"
	}
	return strings.ToUpper(e.Resource[:1]) + e.Resource[1:] + " not found"
}

// NotFound builds a NotFoundError.
func NotFound(resource string, id int) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// CapacityError reports a registration attempt against a full class.
type CapacityError struct {
	Current int
	Max     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("class is full (%d/%d)", e.Current, e.Max)
}

func (e *CapacityError) Is(target error) bool { return target == ErrCapacityExceeded }

// ScheduleConflictError names the already-registered class whose time slot
// overlaps the requested one.
type ScheduleConflictError struct {
	Existing model.Class
}

func (e *ScheduleConflictError) Error() string {
	return fmt.Sprintf("schedule conflict: student already registered in '%s' (%s-%s) on the same day",
		e.Existing.Name, e.Existing.TimeSlotStart.Short(), e.Existing.TimeSlotEnd.Short())
}

func (e *ScheduleConflictError) Is(target error) bool { return target == ErrScheduleConflict }

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}
