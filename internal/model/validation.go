package model

import (
	"time"

	"github.com/google/uuid"
)

// ValidationResult is the recorded outcome of one validation attempt.
type ValidationResult string

const (
	ValidationResultApproved ValidationResult = "approved"
	ValidationResultRejected ValidationResult = "rejected"
	ValidationResultPending  ValidationResult = "pending"
)

// ValidationOutcome is computed per attempt and never stored as its
// own entity; it is embedded into the clinical item and audit record.
type ValidationOutcome struct {
	IsValid         bool           `json:"is_valid"`
	MatchedCode     *MedicalCode   `json:"matched_code,omitempty"`
	RejectionReason string         `json:"rejection_reason,omitempty"`
	Suggestions     []*MedicalCode `json:"suggestions,omitempty"`
}

// Result maps the outcome to the value stored on audit rows.
func (o *ValidationOutcome) Result() ValidationResult {
	if o.IsValid {
		return ValidationResultApproved
	}
	return ValidationResultRejected
}

// SuggestionCodes returns the candidate code strings, at most the
// validator's limit.
func (o *ValidationOutcome) SuggestionCodes() []string {
	if len(o.Suggestions) == 0 {
		return nil
	}
	codes := make([]string, 0, len(o.Suggestions))
	for _, s := range o.Suggestions {
		codes = append(codes, s.Code)
	}
	return codes
}

// ValidationRecord is one immutable audit-trail entry. Every validation
// attempt appends exactly one record, approved or rejected alike.
type ValidationRecord struct {
	ID                  uuid.UUID        `json:"id" db:"id"`
	PatientID           uuid.UUID        `json:"patient_id" db:"patient_id"`
	DiagnosisID         *uuid.UUID       `json:"diagnosis_id,omitempty" db:"diagnosis_id"`
	TreatmentID         *uuid.UUID       `json:"treatment_id,omitempty" db:"treatment_id"`
	SubmittedCode       string           `json:"submitted_code" db:"submitted_code"`
	SubmittedCodeSystem CodeSystem       `json:"submitted_code_system" db:"submitted_code_system"`
	Result              ValidationResult `json:"result" db:"result"`
	MatchedCodeID       *uuid.UUID       `json:"matched_code_id,omitempty" db:"matched_code_id"`
	RejectionReason     *string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ValidatedBy         string           `json:"validated_by" db:"validated_by"`
	CreatedAt           time.Time        `json:"created_at" db:"created_at"`
}

// ValidationRecordFilters narrows audit-trail listings.
type ValidationRecordFilters struct {
	PatientID *uuid.UUID       `form:"patient_id"`
	Result    ValidationResult `form:"result"`
	Limit     int              `form:"limit"`
}

type ValidateCodeRequest struct {
	Code       string `json:"code" binding:"required"`
	CodeSystem string `json:"code_system" binding:"required,codesystem"`
}
