package patient

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
	"github.com/medicode/medicode-api/internal/service/audit"
	"github.com/medicode/medicode-api/internal/service/notification"
	"github.com/medicode/medicode-api/internal/service/validation"
)

// Service owns the Patient aggregate and orchestrates the clinical
// submission flow: validate the code, persist the item, append the
// audit record, notify on rejection, and bump the patient's last visit.
type Service struct {
	repo          repository.PatientRepository
	diagnosisRepo repository.DiagnosisRepository
	treatmentRepo repository.TreatmentRepository
	validator     *validation.Service
	auditor       *audit.Service
	notifier      *notification.Service
	logger        zerolog.Logger
}

func NewService(
	repo repository.PatientRepository,
	diagnosisRepo repository.DiagnosisRepository,
	treatmentRepo repository.TreatmentRepository,
	validator *validation.Service,
	auditor *audit.Service,
	notifier *notification.Service,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:          repo,
		diagnosisRepo: diagnosisRepo,
		treatmentRepo: treatmentRepo,
		validator:     validator,
		auditor:       auditor,
		notifier:      notifier,
		logger:        logger.With().Str("component", "patient").Logger(),
	}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.Patient, error) {
	patient := &model.Patient{
		Base:      model.Base{ID: uuid.New()},
		Name:      req.Name,
		Age:       req.Age,
		Gender:    req.Gender,
		PatientID: req.PatientID,
		LastVisit: time.Now(),
	}
	if err := s.repo.Create(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if patient.Diagnoses, err = s.diagnosisRepo.ListByPatient(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to load diagnoses: %w", err)
	}
	if patient.Treatments, err = s.treatmentRepo.ListByPatient(ctx, id); err != nil {
		return nil, fmt.Errorf("failed to load treatments: %w", err)
	}
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}

	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return s.repo.List(ctx, filters)
}

// AddDiagnosis runs the submission flow for a new diagnosis. The
// persisted item is the primary artifact: audit, notification and
// last-visit failures are logged but never roll it back.
func (s *Service) AddDiagnosis(ctx context.Context, patientID uuid.UUID, req *model.SubmitClinicalItemRequest, actor *model.Actor) (*model.Diagnosis, error) {
	patient, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	system := model.CodeSystem(req.CodeSystem)
	outcome := s.validator.Validate(ctx, req.Code, system)

	d := &model.Diagnosis{
		ID:             uuid.New(),
		PatientID:      patientID,
		Code:           req.Code,
		CodeSystem:     system,
		Description:    req.Description,
		Status:         statusFor(outcome),
		ValidationDate: time.Now(),
		ValidatedBy:    actor.ValidatedBy(),
	}
	if d.Suggestions, err = suggestionNote(outcome); err != nil {
		return nil, fmt.Errorf("failed to encode suggestions: %w", err)
	}

	if err := s.diagnosisRepo.Create(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to persist diagnosis: %w", err)
	}

	s.finishSubmission(ctx, patient, &d.ID, nil, req.Code, system, outcome, actor)
	return d, nil
}

// AddTreatment runs the submission flow for a new treatment.
func (s *Service) AddTreatment(ctx context.Context, patientID uuid.UUID, req *model.SubmitClinicalItemRequest, actor *model.Actor) (*model.Treatment, error) {
	patient, err := s.repo.Get(ctx, patientID)
	if err != nil {
		return nil, err
	}

	system := model.CodeSystem(req.CodeSystem)
	outcome := s.validator.Validate(ctx, req.Code, system)

	t := &model.Treatment{
		ID:             uuid.New(),
		PatientID:      patientID,
		Code:           req.Code,
		CodeSystem:     system,
		Description:    req.Description,
		Status:         statusFor(outcome),
		ValidationDate: time.Now(),
		ValidatedBy:    actor.ValidatedBy(),
	}
	if t.Suggestions, err = suggestionNote(outcome); err != nil {
		return nil, fmt.Errorf("failed to encode suggestions: %w", err)
	}

	if err := s.treatmentRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to persist treatment: %w", err)
	}

	s.finishSubmission(ctx, patient, nil, &t.ID, req.Code, system, outcome, actor)
	return t, nil
}

// finishSubmission runs the best-effort tail of the flow: audit record
// (unconditional), rejection notification (authenticated rejections
// only), and the last-visit bump.
func (s *Service) finishSubmission(ctx context.Context, patient *model.Patient, diagnosisID, treatmentID *uuid.UUID, code string, system model.CodeSystem, outcome *model.ValidationOutcome, actor *model.Actor) {
	if _, err := s.auditor.Record(ctx, patient.ID, diagnosisID, treatmentID, code, system, outcome, actor.ValidatedBy()); err != nil {
		s.logger.Error().Err(err).Str("patient_id", patient.ID.String()).Msg("audit record failed after item persisted")
	}

	if !outcome.IsValid && actor != nil {
		if _, err := s.notifier.NotifyRejection(ctx, actor, patient, diagnosisID, treatmentID, outcome); err != nil {
			s.logger.Error().Err(err).Str("patient_id", patient.ID.String()).Msg("rejection notification failed")
		}
	}

	if err := s.repo.UpdateLastVisit(ctx, patient.ID, time.Now()); err != nil {
		s.logger.Error().Err(err).Str("patient_id", patient.ID.String()).Msg("last-visit update failed")
	}
}

func statusFor(outcome *model.ValidationOutcome) model.ValidationStatus {
	if outcome.IsValid {
		return model.StatusApproved
	}
	return model.StatusRejected
}

// suggestionNote builds the structured rejection payload stored on the
// item; approved items carry none.
func suggestionNote(outcome *model.ValidationOutcome) ([]byte, error) {
	if outcome.IsValid {
		return nil, nil
	}
	note := &model.SuggestionNote{
		Kind:    model.SuggestionKindRejection,
		Message: outcome.RejectionReason,
	}
	if codes := outcome.SuggestionCodes(); len(codes) > 0 {
		note.Kind = model.SuggestionKindCandidates
		note.Codes = codes
	}
	return note.JSON()
}
