package model

import "database/sql"

// CodeSystem is a named coding standard under which codes are defined.
// The same code string may mean different things across systems.
type CodeSystem string

const (
	CodeSystemICD11   CodeSystem = "ICD-11"
	CodeSystemNAMASTE CodeSystem = "NAMASTE"
	CodeSystemCPT     CodeSystem = "CPT"
	CodeSystemHCPCS   CodeSystem = "HCPCS"
)

// CodeSystems lists every supported coding standard.
var CodeSystems = []CodeSystem{
	CodeSystemICD11,
	CodeSystemNAMASTE,
	CodeSystemCPT,
	CodeSystemHCPCS,
}

func (s CodeSystem) IsValid() bool {
	switch s {
	case CodeSystemICD11, CodeSystemNAMASTE, CodeSystemCPT, CodeSystemHCPCS:
		return true
	}
	return false
}

// MedicalCode is one entry of the master dataset used to validate
// submitted diagnosis/treatment codes. (code, code_system) is unique.
type MedicalCode struct {
	Base
	Code        string         `json:"code" db:"code"`
	CodeSystem  CodeSystem     `json:"code_system" db:"code_system"`
	Description string         `json:"description" db:"description"`
	Category    sql.NullString `json:"category,omitempty" db:"category"`
	IsActive    bool           `json:"is_active" db:"is_active"`
}

type CreateMedicalCodeRequest struct {
	Code        string `json:"code" binding:"required"`
	CodeSystem  string `json:"code_system" binding:"required,codesystem"`
	Description string `json:"description" binding:"required"`
	Category    string `json:"category"`
	IsActive    *bool  `json:"is_active"`
}

type UpdateMedicalCodeRequest struct {
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsActive    *bool   `json:"is_active"`
}

// CodeFilters narrows catalog listings.
type CodeFilters struct {
	CodeSystem CodeSystem `form:"code_system"`
	Search     string     `form:"search"`
	ActiveOnly bool       `form:"active_only"`
}
