package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ReportType string

const (
	ReportValidation ReportType = "validation"
	ReportPatient    ReportType = "patient"
	ReportCodeUsage  ReportType = "code_usage"
	ReportCompliance ReportType = "compliance"
	ReportAudit      ReportType = "audit"
)

var reportTypeNames = map[ReportType]string{
	ReportValidation: "Validation Summary",
	ReportPatient:    "Patient Records",
	ReportCodeUsage:  "Code Usage Analysis",
	ReportCompliance: "EHR Compliance",
	ReportAudit:      "Audit Report",
}

func (t ReportType) IsValid() bool {
	_, ok := reportTypeNames[t]
	return ok
}

// DisplayName returns the human-readable report title.
func (t ReportType) DisplayName() string {
	return reportTypeNames[t]
}

type Report struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	ReportType     ReportType      `json:"report_type" db:"report_type"`
	GeneratedAt    time.Time       `json:"generated_at" db:"generated_at"`
	DateRangeStart time.Time       `json:"date_range_start" db:"date_range_start"`
	DateRangeEnd   time.Time       `json:"date_range_end" db:"date_range_end"`
	CodeSystem     string          `json:"code_system" db:"code_system"`
	Data           json.RawMessage `json:"data" db:"data"`
	CreatedBy      *uuid.UUID      `json:"created_by,omitempty" db:"created_by"`
}

type GenerateReportRequest struct {
	ReportType string `json:"report_type" binding:"required"`
	DateRange  string `json:"date_range" binding:"omitempty,oneof=last7days last30days last3months lastyear"`
	CodeSystem string `json:"code_system"`
}

// ValidationSummary aggregates clinical-item statuses in a date range.
type ValidationSummary struct {
	TotalCodes   int     `json:"total_codes"`
	Approved     int     `json:"approved"`
	Rejected     int     `json:"rejected"`
	Pending      int     `json:"pending"`
	ApprovalRate float64 `json:"approval_rate"`
}

// PatientRecordEntry is one row of the patient-records report.
type PatientRecordEntry struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Age             int       `json:"age"`
	Gender          string    `json:"gender"`
	PatientID       string    `json:"patient_id"`
	LastVisit       time.Time `json:"last_visit"`
	DiagnosesCount  int       `json:"diagnoses_count"`
	TreatmentsCount int       `json:"treatments_count"`
}

// CodeUsageEntry counts submissions of one code within one system.
type CodeUsageEntry struct {
	Count       int    `json:"count"`
	Description string `json:"description"`
}
