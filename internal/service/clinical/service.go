package clinical

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
	apperrors "github.com/medicode/medicode-api/pkg/errors"
)

// Service handles manual status overrides on diagnoses and treatments.
// An override may flip approved/rejected at any time after the
// automatic validation; it re-stamps validated_by and validation_date.
type Service struct {
	diagnosisRepo repository.DiagnosisRepository
	treatmentRepo repository.TreatmentRepository
	logger        zerolog.Logger
}

func NewService(diagnosisRepo repository.DiagnosisRepository, treatmentRepo repository.TreatmentRepository, logger zerolog.Logger) *Service {
	return &Service{
		diagnosisRepo: diagnosisRepo,
		treatmentRepo: treatmentRepo,
		logger:        logger.With().Str("component", "clinical").Logger(),
	}
}

// UpdateDiagnosisStatus applies a manual override. Values outside
// approved/rejected are rejected without state change.
func (s *Service) UpdateDiagnosisStatus(ctx context.Context, id uuid.UUID, status model.ValidationStatus, actor *model.Actor) (*model.Diagnosis, error) {
	if !status.IsOverride() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status: %s", status), nil)
	}

	now := time.Now()
	if err := s.diagnosisRepo.UpdateStatus(ctx, id, status, actor.ValidatedBy(), now); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("diagnosis_id", id.String()).
		Str("status", string(status)).
		Str("validated_by", actor.ValidatedBy()).
		Msg("diagnosis status overridden")

	return s.diagnosisRepo.Get(ctx, id)
}

// UpdateTreatmentStatus applies a manual override on a treatment.
func (s *Service) UpdateTreatmentStatus(ctx context.Context, id uuid.UUID, status model.ValidationStatus, actor *model.Actor) (*model.Treatment, error) {
	if !status.IsOverride() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid status: %s", status), nil)
	}

	now := time.Now()
	if err := s.treatmentRepo.UpdateStatus(ctx, id, status, actor.ValidatedBy(), now); err != nil {
		return nil, err
	}
	s.logger.Info().
		Str("treatment_id", id.String()).
		Str("status", string(status)).
		Str("validated_by", actor.ValidatedBy()).
		Msg("treatment status overridden")

	return s.treatmentRepo.Get(ctx, id)
}
