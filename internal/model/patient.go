package model

import "time"

type Patient struct {
	Base
	Name      string    `json:"name" db:"name"`
	Age       int       `json:"age" db:"age"`
	Gender    string    `json:"gender" db:"gender"`
	PatientID string    `json:"patient_id" db:"patient_id"`
	LastVisit time.Time `json:"last_visit" db:"last_visit"`

	// Populated on demand, not stored on the patients table.
	Diagnoses  []*Diagnosis `json:"diagnoses,omitempty" db:"-"`
	Treatments []*Treatment `json:"treatments,omitempty" db:"-"`
}

type CreatePatientRequest struct {
	Name      string `json:"name" binding:"required"`
	Age       int    `json:"age" binding:"required,gte=0,lte=150"`
	Gender    string `json:"gender" binding:"required,oneof=male female other"`
	PatientID string `json:"patient_id" binding:"required"`
}

type UpdatePatientRequest struct {
	Name   *string `json:"name"`
	Age    *int    `json:"age" binding:"omitempty,gte=0,lte=150"`
	Gender *string `json:"gender" binding:"omitempty,oneof=male female other"`
}

type PatientFilters struct {
	Search string `form:"search"`
}
