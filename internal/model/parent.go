package model

import (
	"strings"
	"time"
)

const maxEmailLength = 255

// Parent is the guardian account that owns one or more students.
type Parent struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     *string   `json:"email"`
	Students  []Student `json:"students"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the write-time invariants of a parent record.
func (p *Parent) Validate() error {
	if err := required("name", p.Name); err != nil {
		return err
	}
	if !PhonePattern.MatchString(p.Phone) {
		return invalid("phone", "phone must have 10 digits and start with 0")
	}
	if p.Email != nil && len(*p.Email) > maxEmailLength {
		return invalid("email", "email must be at most %d characters", maxEmailLength)
	}
	if p.Email != nil && !validEmail(*p.Email) {
		return invalid("email", "email %q is not a valid address", *p.Email)
	}
	return nil
}

// CreateParentRequest is the payload for creating a parent.
type CreateParentRequest struct {
	Name  string  `json:"name" binding:"required,min=1,max=255"`
	Phone string  `json:"phone" binding:"required,phone"`
	Email *string `json:"email" binding:"omitempty,max=255"`
}

// ToParent converts the request into a new record.
func (r *CreateParentRequest) ToParent() *Parent {
	return &Parent{
		Name:  strings.TrimSpace(r.Name),
		Phone: r.Phone,
		Email: normalizeOptional(r.Email),
	}
}

// UpdateParentRequest is a partial update; absent fields are left unchanged.
// An explicit null or empty email clears it.
type UpdateParentRequest struct {
	Name  *string          `json:"name" binding:"omitempty,min=1,max=255"`
	Phone *string          `json:"phone" binding:"omitempty,phone"`
	Email Optional[string] `json:"email"`
}

// ApplyTo merges the provided fields into p.
func (r *UpdateParentRequest) ApplyTo(p *Parent) {
	if r.Name != nil {
		p.Name = strings.TrimSpace(*r.Name)
	}
	if r.Phone != nil {
		p.Phone = *r.Phone
	}
	if r.Email.Set {
		p.Email = normalizeOptional(r.Email.Value)
	}
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
