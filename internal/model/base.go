package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page" form:"page"`
	PageSize int `json:"page_size" form:"page_size"`
}

// Actor identifies the authenticated user performing a request.
// A nil *Actor means the submission is system-originated.
type Actor struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
}

// SystemValidator is recorded as validated_by when no actor is present.
const SystemValidator = "System"

// ValidatedBy returns the name stamped on clinical items and audit rows.
func (a *Actor) ValidatedBy() string {
	if a == nil {
		return SystemValidator
	}
	return a.Username
}
