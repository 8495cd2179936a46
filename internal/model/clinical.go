package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ValidationStatus is the lifecycle of a diagnosis or treatment code.
// Items move pending -> approved|rejected once at submission; a manual
// override may later re-set approved/rejected directly.
type ValidationStatus string

const (
	StatusPending  ValidationStatus = "pending"
	StatusApproved ValidationStatus = "approved"
	StatusRejected ValidationStatus = "rejected"
)

func (s ValidationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// IsOverride reports whether s is an allowed manual status override.
func (s ValidationStatus) IsOverride() bool {
	return s == StatusApproved || s == StatusRejected
}

// SuggestionKind tags the structured note attached to rejected items.
type SuggestionKind string

const (
	SuggestionKindRejection  SuggestionKind = "rejection_reason"
	SuggestionKindCandidates SuggestionKind = "code_suggestion"
)

// SuggestionNote is the structured rejection payload stored on a
// diagnosis/treatment. Kind tells consumers whether Codes carries
// near-match candidates or Message alone explains the rejection.
type SuggestionNote struct {
	Kind    SuggestionKind `json:"kind"`
	Message string         `json:"message"`
	Codes   []string       `json:"codes,omitempty"`
}

// Value marshals the note for a jsonb column.
func (n *SuggestionNote) JSON() (json.RawMessage, error) {
	if n == nil {
		return nil, nil
	}
	return json.Marshal(n)
}

// ClinicalItemType distinguishes the two clinical record kinds sharing
// the submission flow.
type ClinicalItemType string

const (
	ClinicalItemDiagnosis ClinicalItemType = "diagnosis"
	ClinicalItemTreatment ClinicalItemType = "treatment"
)

type Diagnosis struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	PatientID      uuid.UUID        `json:"patient_id" db:"patient_id"`
	Code           string           `json:"code" db:"code"`
	CodeSystem     CodeSystem       `json:"code_system" db:"code_system"`
	Description    string           `json:"description" db:"description"`
	Status         ValidationStatus `json:"status" db:"status"`
	ValidationDate time.Time        `json:"validation_date" db:"validation_date"`
	ValidatedBy    string           `json:"validated_by" db:"validated_by"`
	Suggestions    json.RawMessage  `json:"suggestions,omitempty" db:"suggestions"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

type Treatment struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	PatientID      uuid.UUID        `json:"patient_id" db:"patient_id"`
	Code           string           `json:"code" db:"code"`
	CodeSystem     CodeSystem       `json:"code_system" db:"code_system"`
	Description    string           `json:"description" db:"description"`
	Status         ValidationStatus `json:"status" db:"status"`
	ValidationDate time.Time        `json:"validation_date" db:"validation_date"`
	ValidatedBy    string           `json:"validated_by" db:"validated_by"`
	Suggestions    json.RawMessage  `json:"suggestions,omitempty" db:"suggestions"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

type SubmitClinicalItemRequest struct {
	Code        string `json:"code" binding:"required"`
	CodeSystem  string `json:"code_system" binding:"required,codesystem"`
	Description string `json:"description" binding:"required"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
