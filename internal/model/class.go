package model

import (
	"strings"
	"time"
)

// DefaultMaxStudents is the seat limit applied when none is given.
const DefaultMaxStudents = 30

// Class is a weekly recurring lesson with a fixed seat limit.
// DayOfWeek uses 0 = Sunday through 6 = Saturday.
type Class struct {
	ID              int       `json:"id"`
	Name            string    `json:"name"`
	Subject         string    `json:"subject"`
	TeacherName     string    `json:"teacher_name"`
	DayOfWeek       int       `json:"day_of_week"`
	TimeSlotStart   TimeOfDay `json:"time_slot_start"`
	TimeSlotEnd     TimeOfDay `json:"time_slot_end"`
	MaxStudents     int       `json:"max_students"`
	CurrentStudents int       `json:"current_students"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// SeatsLeft returns the number of open seats.
func (c *Class) SeatsLeft() int {
	return c.MaxStudents - c.CurrentStudents
}

// Validate checks the write-time invariants of a class record.
func (c *Class) Validate() error {
	if err := required("name", c.Name); err != nil {
		return err
	}
	if err := required("subject", c.Subject); err != nil {
		return err
	}
	if err := required("teacher_name", c.TeacherName); err != nil {
		return err
	}
	if c.DayOfWeek < 0 || c.DayOfWeek > 6 {
		return invalid("day_of_week", "day_of_week must be between 0 (Sunday) and 6 (Saturday)")
	}
	if !c.TimeSlotStart.Valid() || !c.TimeSlotEnd.Valid() {
		return invalid("time_slot_start", "time slot must be within a single day")
	}
	if c.TimeSlotStart >= c.TimeSlotEnd {
		return invalid("time_slot_end", "start time must be before end time")
	}
	if c.MaxStudents < 1 {
		return invalid("max_students", "max_students must be at least 1")
	}
	if c.CurrentStudents > c.MaxStudents {
		return invalid("max_students", "max_students (%d) cannot be lower than the %d students already registered", c.MaxStudents, c.CurrentStudents)
	}
	return nil
}

// CreateClassRequest is the payload for creating a class.
type CreateClassRequest struct {
	Name          string     `json:"name" binding:"required,min=1,max=255"`
	Subject       string     `json:"subject" binding:"required,min=1,max=255"`
	TeacherName   string     `json:"teacher_name" binding:"required,min=1,max=255"`
	DayOfWeek     *int       `json:"day_of_week" binding:"required,min=0,max=6"`
	TimeSlotStart *TimeOfDay `json:"time_slot_start" binding:"required"`
	TimeSlotEnd   *TimeOfDay `json:"time_slot_end" binding:"required"`
	MaxStudents   *int       `json:"max_students" binding:"omitempty,min=1"`
}

// ToClass converts the request into a new record.
func (r *CreateClassRequest) ToClass() *Class {
	c := &Class{
		Name:          strings.TrimSpace(r.Name),
		Subject:       strings.TrimSpace(r.Subject),
		TeacherName:   strings.TrimSpace(r.TeacherName),
		DayOfWeek:     *r.DayOfWeek,
		TimeSlotStart: *r.TimeSlotStart,
		TimeSlotEnd:   *r.TimeSlotEnd,
		MaxStudents:   DefaultMaxStudents,
	}
	if r.MaxStudents != nil {
		c.MaxStudents = *r.MaxStudents
	}
	return c
}

// UpdateClassRequest is a partial update; nil fields are left unchanged.
type UpdateClassRequest struct {
	Name          *string    `json:"name" binding:"omitempty,min=1,max=255"`
	Subject       *string    `json:"subject" binding:"omitempty,min=1,max=255"`
	TeacherName   *string    `json:"teacher_name" binding:"omitempty,min=1,max=255"`
	DayOfWeek     *int       `json:"day_of_week" binding:"omitempty,min=0,max=6"`
	TimeSlotStart *TimeOfDay `json:"time_slot_start"`
	TimeSlotEnd   *TimeOfDay `json:"time_slot_end"`
	MaxStudents   *int       `json:"max_students" binding:"omitempty,min=1"`
}

// ApplyTo merges the provided fields into c.
func (r *UpdateClassRequest) ApplyTo(c *Class) {
	if r.Name != nil {
		c.Name = strings.TrimSpace(*r.Name)
	}
	if r.Subject != nil {
		c.Subject = strings.TrimSpace(*r.Subject)
	}
	if r.TeacherName != nil {
		c.TeacherName = strings.TrimSpace(*r.TeacherName)
	}
	if r.DayOfWeek != nil {
		c.DayOfWeek = *r.DayOfWeek
	}
	if r.TimeSlotStart != nil {
		c.TimeSlotStart = *r.TimeSlotStart
	}
	if r.TimeSlotEnd != nil {
		c.TimeSlotEnd = *r.TimeSlotEnd
	}
	if r.MaxStudents != nil {
		c.MaxStudents = *r.MaxStudents
	}
}
