package model

import (
	"strings"
	"time"
)

// Gender represents the student's gender. A nil *Gender means unset.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// ValidGender reports whether g is one of the recognised values.
func ValidGender(g Gender) bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Student is a learner owned by exactly one parent.
type Student struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	DOB          *Date     `json:"dob"`
	Gender       *Gender   `json:"gender"`
	CurrentGrade *int      `json:"current_grade"`
	ParentID     int       `json:"parent_id"`
	ParentName   string    `json:"parent_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Validate checks the write-time invariants of a student record.
// Existence of the parent is checked by the service.
func (s *Student) Validate() error {
	if err := required("name", s.Name); err != nil {
		return err
	}
	if s.ParentID <= 0 {
		return invalid("parent_id", "parent_id is required")
	}
	if s.Gender != nil && !ValidGender(*s.Gender) {
		return invalid("gender", "gender must be one of Male, Female, Other")
	}
	if s.CurrentGrade != nil && (*s.CurrentGrade < 1 || *s.CurrentGrade > 12) {
		return invalid("current_grade", "current_grade must be between 1 and 12")
	}
	return nil
}

// CreateStudentRequest is the payload for creating a student.
type CreateStudentRequest struct {
	Name         string  `json:"name" binding:"required,min=1,max=255"`
	DOB          *Date   `json:"dob"`
	Gender       *Gender `json:"gender" binding:"omitempty,gender"`
	CurrentGrade *int    `json:"current_grade" binding:"omitempty,min=1,max=12"`
	ParentID     int     `json:"parent_id" binding:"required,min=1"`
}

// ToStudent converts the request into a new record.
func (r *CreateStudentRequest) ToStudent() *Student {
	return &Student{
		Name:         strings.TrimSpace(r.Name),
		DOB:          r.DOB,
		Gender:       normalizeGender(r.Gender),
		CurrentGrade: r.CurrentGrade,
		ParentID:     r.ParentID,
	}
}

// UpdateStudentRequest is a partial update; absent fields are left unchanged.
// An explicit null clears dob, gender or current_grade, as does an empty gender.
// Gender and grade ranges are checked by Validate on the merged record.
type UpdateStudentRequest struct {
	Name         *string          `json:"name" binding:"omitempty,min=1,max=255"`
	DOB          Optional[Date]   `json:"dob"`
	Gender       Optional[Gender] `json:"gender"`
	CurrentGrade Optional[int]    `json:"current_grade"`
	ParentID     *int             `json:"parent_id" binding:"omitempty,min=1"`
}

// ApplyTo merges the provided fields into s.
func (r *UpdateStudentRequest) ApplyTo(s *Student) {
	if r.Name != nil {
		s.Name = strings.TrimSpace(*r.Name)
	}
	if r.DOB.Set {
		s.DOB = r.DOB.Value
	}
	if r.Gender.Set {
		s.Gender = normalizeGender(r.Gender.Value)
	}
	if r.CurrentGrade.Set {
		s.CurrentGrade = r.CurrentGrade.Value
	}
	if r.ParentID != nil {
		s.ParentID = *r.ParentID
	}
}

func normalizeGender(g *Gender) *Gender {
	if g == nil || *g == "" {
		return nil
	}
	v := *g
	return &v
}
