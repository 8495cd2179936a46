package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/medicode/medicode-api/pkg/errors"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
)

type diagnosisRepository struct {
	db *sqlx.DB
}

func NewDiagnosisRepository(db *sqlx.DB) repository.DiagnosisRepository {
	return &diagnosisRepository{db: db}
}

func (r *diagnosisRepository) Create(ctx context.Context, d *model.Diagnosis) error {
	query := `
		INSERT INTO diagnoses (id, patient_id, code, code_system, description, status,
			validation_date, validated_by, suggestions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	d.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.PatientID, d.Code, d.CodeSystem, d.Description, d.Status,
		d.ValidationDate, d.ValidatedBy, d.Suggestions, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create diagnosis: %w", err)
	}
	return nil
}

func (r *diagnosisRepository) Get(ctx context.Context, id uuid.UUID) (*model.Diagnosis, error) {
	query := `SELECT * FROM diagnoses WHERE id = $1`
	var d model.Diagnosis
	if err := r.db.GetContext(ctx, &d, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("diagnosis", err)
		}
		return nil, fmt.Errorf("failed to get diagnosis: %w", err)
	}
	return &d, nil
}

func (r *diagnosisRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ValidationStatus, validatedBy string, at time.Time) error {
	query := `UPDATE diagnoses SET status = $1, validated_by = $2, validation_date = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, validatedBy, at, id)
	if err != nil {
		return fmt.Errorf("failed to update diagnosis status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("diagnosis", nil)
	}
	return nil
}

func (r *diagnosisRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Diagnosis, error) {
	query := `SELECT * FROM diagnoses WHERE patient_id = $1 ORDER BY validation_date DESC`
	var items []*model.Diagnosis
	if err := r.db.SelectContext(ctx, &items, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list diagnoses: %w", err)
	}
	return items, nil
}

func (r *diagnosisRepository) ListByValidationDateRange(ctx context.Context, start, end time.Time, system model.CodeSystem) ([]*model.Diagnosis, error) {
	query := `SELECT * FROM diagnoses WHERE validation_date >= $1 AND validation_date <= $2`
	args := []interface{}{start, end}
	if system != "" {
		args = append(args, system)
		query += fmt.Sprintf(" AND code_system = $%d", len(args))
	}
	query += " ORDER BY validation_date DESC"

	var items []*model.Diagnosis
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list diagnoses by date range: %w", err)
	}
	return items, nil
}

type treatmentRepository struct {
	db *sqlx.DB
}

func NewTreatmentRepository(db *sqlx.DB) repository.TreatmentRepository {
	return &treatmentRepository{db: db}
}

func (r *treatmentRepository) Create(ctx context.Context, t *model.Treatment) error {
	query := `
		INSERT INTO treatments (id, patient_id, code, code_system, description, status,
			validation_date, validated_by, suggestions, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	t.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.PatientID, t.Code, t.CodeSystem, t.Description, t.Status,
		t.ValidationDate, t.ValidatedBy, t.Suggestions, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create treatment: %w", err)
	}
	return nil
}

func (r *treatmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	query := `SELECT * FROM treatments WHERE id = $1`
	var t model.Treatment
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("treatment", err)
		}
		return nil, fmt.Errorf("failed to get treatment: %w", err)
	}
	return &t, nil
}

func (r *treatmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ValidationStatus, validatedBy string, at time.Time) error {
	query := `UPDATE treatments SET status = $1, validated_by = $2, validation_date = $3 WHERE id = $4`
	res, err := r.db.ExecContext(ctx, query, status, validatedBy, at, id)
	if err != nil {
		return fmt.Errorf("failed to update treatment status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("treatment", nil)
	}
	return nil
}

func (r *treatmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Treatment, error) {
	query := `SELECT * FROM treatments WHERE patient_id = $1 ORDER BY validation_date DESC`
	var items []*model.Treatment
	if err := r.db.SelectContext(ctx, &items, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}
	return items, nil
}

func (r *treatmentRepository) ListByValidationDateRange(ctx context.Context, start, end time.Time, system model.CodeSystem) ([]*model.Treatment, error) {
	query := `SELECT * FROM treatments WHERE validation_date >= $1 AND validation_date <= $2`
	args := []interface{}{start, end}
	if system != "" {
		args = append(args, system)
		query += fmt.Sprintf(" AND code_system = $%d", len(args))
	}
	query += " ORDER BY validation_date DESC"

	var items []*model.Treatment
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list treatments by date range: %w", err)
	}
	return items, nil
}
