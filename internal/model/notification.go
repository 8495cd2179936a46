package model

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationCodeRejected     NotificationType = "code_rejected"
	NotificationValidationFailed NotificationType = "validation_failed"
	NotificationCodeSuggestion   NotificationType = "code_suggestion"
)

// Notification is a user-facing alert created when an authenticated
// submission is rejected. Only the owning user may mark it read.
type Notification struct {
	ID          uuid.UUID        `json:"id" db:"id"`
	UserID      uuid.UUID        `json:"user_id" db:"user_id"`
	Type        NotificationType `json:"type" db:"type"`
	Title       string           `json:"title" db:"title"`
	Message     string           `json:"message" db:"message"`
	PatientID   *uuid.UUID       `json:"patient_id,omitempty" db:"patient_id"`
	DiagnosisID *uuid.UUID       `json:"diagnosis_id,omitempty" db:"diagnosis_id"`
	TreatmentID *uuid.UUID       `json:"treatment_id,omitempty" db:"treatment_id"`
	IsRead      bool             `json:"is_read" db:"is_read"`
	CreatedAt   time.Time        `json:"created_at" db:"created_at"`
}

type NotificationFilters struct {
	UnreadOnly bool `form:"unread_only"`
}
