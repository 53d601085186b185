package model

import (
	"strings"
	"time"
)

// Subscription is a prepaid package of sessions owned by a student.
// IsActive is a manually controlled flag; neither the end date nor running
// out of sessions changes it.
type Subscription struct {
	ID            int       `json:"id"`
	StudentID     int       `json:"student_id"`
	PackageName   string    `json:"package_name"`
	TotalSessions int       `json:"total_sessions"`
	UsedSessions  int       `json:"used_sessions"`
	StartDate     Date      `json:"start_date"`
	EndDate       Date      `json:"end_date"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// RemainingSessions returns total minus used.
func (s *Subscription) RemainingSessions() int {
	return s.TotalSessions - s.UsedSessions
}

// Exhausted reports whether every session has been consumed.
func (s *Subscription) Exhausted() bool {
	return s.UsedSessions >= s.TotalSessions
}

// Validate checks the write-time invariants of a subscription record.
func (s *Subscription) Validate() error {
	if s.StudentID <= 0 {
		return invalid("student_id", "student_id is required")
	}
	if err := required("package_name", s.PackageName); err != nil {
		return err
	}
	if s.TotalSessions < 1 {
		return invalid("total_sessions", "total_sessions must be at least 1")
	}
	if s.UsedSessions < 0 {
		return invalid("used_sessions", "used_sessions cannot be negative")
	}
	if s.UsedSessions > s.TotalSessions {
		return invalid("used_sessions", "used sessions cannot exceed total sessions")
	}
	if s.EndDate.Before(s.StartDate) {
		return invalid("end_date", "end_date must not be before start_date")
	}
	return nil
}

// CreateSubscriptionRequest is the payload for creating a subscription.
type CreateSubscriptionRequest struct {
	StudentID     int    `json:"student_id" binding:"required,min=1"`
	PackageName   string `json:"package_name" binding:"required,min=1,max=255"`
	TotalSessions int    `json:"total_sessions" binding:"required,min=1"`
	StartDate     *Date  `json:"start_date" binding:"required"`
	EndDate       *Date  `json:"end_date" binding:"required"`
}

// ToSubscription converts the request into a new, active record with no
// sessions used.
func (r *CreateSubscriptionRequest) ToSubscription() *Subscription {
	return &Subscription{
		StudentID:     r.StudentID,
		PackageName:   strings.TrimSpace(r.PackageName),
		TotalSessions: r.TotalSessions,
		StartDate:     *r.StartDate,
		EndDate:       *r.EndDate,
	}
}

// UpdateSubscriptionRequest is a partial update; nil fields are left unchanged.
type UpdateSubscriptionRequest struct {
	PackageName   *string `json:"package_name" binding:"omitempty,min=1,max=255"`
	TotalSessions *int    `json:"total_sessions" binding:"omitempty,min=1"`
	UsedSessions  *int    `json:"used_sessions" binding:"omitempty,min=0"`
	StartDate     *Date   `json:"start_date"`
	EndDate       *Date   `json:"end_date"`
	IsActive      *bool   `json:"is_active"`
}

// ApplyTo merges the provided fields into s.
func (r *UpdateSubscriptionRequest) ApplyTo(s *Subscription) {
	if r.PackageName != nil {
		s.PackageName = strings.TrimSpace(*r.PackageName)
	}
	if r.TotalSessions != nil {
		s.TotalSessions = *r.TotalSessions
	}
	if r.UsedSessions != nil {
		s.UsedSessions = *r.UsedSessions
	}
	if r.StartDate != nil {
		s.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		s.EndDate = *r.EndDate
	}
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
}
