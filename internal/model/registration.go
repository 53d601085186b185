package model

import "time"

// Registration links a student to a class seat.
type Registration struct {
	ID        int       `json:"id"`
	ClassID   int       `json:"class_id"`
	StudentID int       `json:"student_id"`
	CreatedAt time.Time `json:"created_at"`
}

// RegisterRequest is the payload for POST /classes/:id/register.
type RegisterRequest struct {
	StudentID int `json:"student_id" binding:"required,min=1"`
}
