package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medicode/medicode-api/internal/model"
)

// MedicalCodeRepository is the catalog query and admin interface.
type MedicalCodeRepository interface {
	Create(ctx context.Context, code *model.MedicalCode) error
	Update(ctx context.Context, code *model.MedicalCode) error
	Get(ctx context.Context, id uuid.UUID) (*model.MedicalCode, error)
	// FindActive returns the active entry matching (code, system) exactly,
	// or (nil, nil) when no such entry exists.
	FindActive(ctx context.Context, code string, system model.CodeSystem) (*model.MedicalCode, error)
	// SearchSimilar returns active entries of the same system whose code
	// contains prefix or whose description contains substring
	// (case-insensitive), in catalog insertion order, up to limit.
	SearchSimilar(ctx context.Context, prefix, substring string, system model.CodeSystem, limit int) ([]*model.MedicalCode, error)
	List(ctx context.Context, filters *model.CodeFilters) ([]*model.MedicalCode, error)
}

type PatientRepository interface {
	Create(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	Update(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	UpdateLastVisit(ctx context.Context, id uuid.UUID, at time.Time) error
}

type DiagnosisRepository interface {
	Create(ctx context.Context, d *model.Diagnosis) error
	Get(ctx context.Context, id uuid.UUID) (*model.Diagnosis, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ValidationStatus, validatedBy string, at time.Time) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Diagnosis, error)
	ListByValidationDateRange(ctx context.Context, start, end time.Time, system model.CodeSystem) ([]*model.Diagnosis, error)
}

type TreatmentRepository interface {
	Create(ctx context.Context, t *model.Treatment) error
	Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.ValidationStatus, validatedBy string, at time.Time) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Treatment, error)
	ListByValidationDateRange(ctx context.Context, start, end time.Time, system model.CodeSystem) ([]*model.Treatment, error)
}

// ValidationRecordRepository is append-only: records are never updated
// or deduplicated.
type ValidationRecordRepository interface {
	Create(ctx context.Context, record *model.ValidationRecord) error
	List(ctx context.Context, filters *model.ValidationRecordFilters) ([]*model.ValidationRecord, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
}

type ReportRepository interface {
	Create(ctx context.Context, report *model.Report) error
	Get(ctx context.Context, id uuid.UUID) (*model.Report, error)
	List(ctx context.Context) ([]*model.Report, error)
}
