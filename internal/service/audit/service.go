package audit

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
	"github.com/medicode/medicode-api/pkg/metrics"
)

// Service appends validation attempts to the audit trail. Every attempt
// creates exactly one record, approved and rejected alike; repeated
// submissions of the same code each get their own row.
type Service struct {
	repo    repository.ValidationRecordRepository
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewService(repo repository.ValidationRecordRepository, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		metrics: m,
		logger:  logger.With().Str("component", "audit").Logger(),
	}
}

// Record creates one ValidationRecord for a validation attempt.
// diagnosisID and treatmentID are mutually exclusive; both may be nil
// for dry-run validations.
func (s *Service) Record(ctx context.Context, patientID uuid.UUID, diagnosisID, treatmentID *uuid.UUID, submittedCode string, system model.CodeSystem, outcome *model.ValidationOutcome, validatedBy string) (*model.ValidationRecord, error) {
	record := &model.ValidationRecord{
		ID:                  uuid.New(),
		PatientID:           patientID,
		DiagnosisID:         diagnosisID,
		TreatmentID:         treatmentID,
		SubmittedCode:       submittedCode,
		SubmittedCodeSystem: system,
		Result:              outcome.Result(),
		ValidatedBy:         validatedBy,
	}
	if outcome.MatchedCode != nil {
		id := outcome.MatchedCode.ID
		record.MatchedCodeID = &id
	}
	if !outcome.IsValid && outcome.RejectionReason != "" {
		reason := outcome.RejectionReason
		record.RejectionReason = &reason
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to append validation record: %w", err)
	}

	if s.metrics != nil {
		s.metrics.ValidationRecordsCreated.Inc()
	}
	s.logger.Debug().
		Str("patient_id", patientID.String()).
		Str("result", string(record.Result)).
		Str("code", submittedCode).
		Msg("validation attempt recorded")

	return record, nil
}

// List returns audit-trail entries, newest first.
func (s *Service) List(ctx context.Context, filters *model.ValidationRecordFilters) ([]*model.ValidationRecord, error) {
	return s.repo.List(ctx, filters)
}
