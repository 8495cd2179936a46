package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
)

type validationRecordRepository struct {
	db *sqlx.DB
}

func NewValidationRecordRepository(db *sqlx.DB) repository.ValidationRecordRepository {
	return &validationRecordRepository{db: db}
}

// Create appends one record. There is no Update: the trail is immutable.
func (r *validationRecordRepository) Create(ctx context.Context, record *model.ValidationRecord) error {
	query := `
		INSERT INTO validation_records (id, patient_id, diagnosis_id, treatment_id,
			submitted_code, submitted_code_system, result, matched_code_id,
			rejection_reason, validated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	record.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		record.ID,
		record.PatientID,
		record.DiagnosisID,
		record.TreatmentID,
		record.SubmittedCode,
		record.SubmittedCodeSystem,
		record.Result,
		record.MatchedCodeID,
		record.RejectionReason,
		record.ValidatedBy,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create validation record: %w", err)
	}
	return nil
}

func (r *validationRecordRepository) List(ctx context.Context, filters *model.ValidationRecordFilters) ([]*model.ValidationRecord, error) {
	query := `SELECT * FROM validation_records WHERE 1=1`
	var args []interface{}

	if filters != nil {
		if filters.PatientID != nil {
			args = append(args, *filters.PatientID)
			query += fmt.Sprintf(" AND patient_id = $%d", len(args))
		}
		if filters.Result != "" {
			args = append(args, filters.Result)
			query += fmt.Sprintf(" AND result = $%d", len(args))
		}
	}
	query += " ORDER BY created_at DESC"
	if filters != nil && filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var records []*model.ValidationRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list validation records: %w", err)
	}
	return records, nil
}
