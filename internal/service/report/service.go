package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
	apperrors "github.com/medicode/medicode-api/pkg/errors"
)

// Service generates and stores reporting snapshots over the clinical
// records: validation summaries, per-patient record counts and code
// usage. Compliance and audit report types are stubs, as in the
// upstream product.
type Service struct {
	repo          repository.ReportRepository
	patientRepo   repository.PatientRepository
	diagnosisRepo repository.DiagnosisRepository
	treatmentRepo repository.TreatmentRepository
	logger        zerolog.Logger
}

func NewService(
	repo repository.ReportRepository,
	patientRepo repository.PatientRepository,
	diagnosisRepo repository.DiagnosisRepository,
	treatmentRepo repository.TreatmentRepository,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:          repo,
		patientRepo:   patientRepo,
		diagnosisRepo: diagnosisRepo,
		treatmentRepo: treatmentRepo,
		logger:        logger.With().Str("component", "report").Logger(),
	}
}

// Generate computes the requested report over the date range and
// persists it. The creator is recorded when the request is
// authenticated.
func (s *Service) Generate(ctx context.Context, req *model.GenerateReportRequest, actor *model.Actor) (*model.Report, error) {
	reportType := model.ReportType(req.ReportType)
	if !reportType.IsValid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid report type: %s", req.ReportType), nil)
	}

	start, end := dateRange(req.DateRange)

	system := model.CodeSystem("")
	codeSystemLabel := "all"
	if req.CodeSystem != "" && req.CodeSystem != "all" {
		system = model.CodeSystem(req.CodeSystem)
		if !system.IsValid() {
			return nil, apperrors.BadRequest(fmt.Sprintf("unknown code system: %s", req.CodeSystem), nil)
		}
		codeSystemLabel = req.CodeSystem
	}

	diagnoses, err := s.diagnosisRepo.ListByValidationDateRange(ctx, start, end, system)
	if err != nil {
		return nil, fmt.Errorf("failed to load diagnoses: %w", err)
	}
	treatments, err := s.treatmentRepo.ListByValidationDateRange(ctx, start, end, system)
	if err != nil {
		return nil, fmt.Errorf("failed to load treatments: %w", err)
	}

	var payload interface{}
	switch reportType {
	case model.ReportValidation:
		payload = validationSummary(diagnoses, treatments)
	case model.ReportPatient:
		payload, err = s.patientRecords(ctx, diagnoses, treatments)
		if err != nil {
			return nil, err
		}
	case model.ReportCodeUsage:
		payload = codeUsage(diagnoses, treatments)
	case model.ReportCompliance, model.ReportAudit:
		payload = map[string]string{
			"message": fmt.Sprintf("%s generation not implemented yet", reportType.DisplayName()),
		}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report data: %w", err)
	}

	report := &model.Report{
		ID:             uuid.New(),
		Name:           fmt.Sprintf("%s - %s to %s", reportType.DisplayName(), start.Format("2006-01-02"), end.Format("2006-01-02")),
		ReportType:     reportType,
		DateRangeStart: start,
		DateRangeEnd:   end,
		CodeSystem:     codeSystemLabel,
		Data:           data,
	}
	if actor != nil {
		id := actor.ID
		report.CreatedBy = &id
	}

	if err := s.repo.Create(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}
	return report, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*model.Report, error) {
	return s.repo.List(ctx)
}

// dateRange maps the named range to [start, end] ending now; unknown
// values fall back to the last 30 days.
func dateRange(name string) (time.Time, time.Time) {
	end := time.Now()
	var days int
	switch name {
	case "last7days":
		days = 7
	case "last3months":
		days = 90
	case "lastyear":
		days = 365
	default:
		days = 30
	}
	return end.AddDate(0, 0, -days), end
}

func validationSummary(diagnoses []*model.Diagnosis, treatments []*model.Treatment) *model.ValidationSummary {
	summary := &model.ValidationSummary{}
	count := func(status model.ValidationStatus) {
		summary.TotalCodes++
		switch status {
		case model.StatusApproved:
			summary.Approved++
		case model.StatusRejected:
			summary.Rejected++
		default:
			summary.Pending++
		}
	}
	for _, d := range diagnoses {
		count(d.Status)
	}
	for _, t := range treatments {
		count(t.Status)
	}
	if summary.TotalCodes > 0 {
		summary.ApprovalRate = float64(summary.Approved) / float64(summary.TotalCodes) * 100
	}
	return summary
}

func (s *Service) patientRecords(ctx context.Context, diagnoses []*model.Diagnosis, treatments []*model.Treatment) ([]*model.PatientRecordEntry, error) {
	diagnosisCounts := make(map[uuid.UUID]int)
	treatmentCounts := make(map[uuid.UUID]int)
	for _, d := range diagnoses {
		diagnosisCounts[d.PatientID]++
	}
	for _, t := range treatments {
		treatmentCounts[t.PatientID]++
	}

	entries := make([]*model.PatientRecordEntry, 0, len(diagnosisCounts))
	seen := make(map[uuid.UUID]bool)
	for _, counts := range []map[uuid.UUID]int{diagnosisCounts, treatmentCounts} {
		for patientID := range counts {
			if seen[patientID] {
				continue
			}
			seen[patientID] = true

			patient, err := s.patientRepo.Get(ctx, patientID)
			if err != nil {
				return nil, fmt.Errorf("failed to load patient %s: %w", patientID, err)
			}
			entries = append(entries, &model.PatientRecordEntry{
				ID:              patient.ID,
				Name:            patient.Name,
				Age:             patient.Age,
				Gender:          patient.Gender,
				PatientID:       patient.PatientID,
				LastVisit:       patient.LastVisit,
				DiagnosesCount:  diagnosisCounts[patientID],
				TreatmentsCount: treatmentCounts[patientID],
			})
		}
	}
	return entries, nil
}

func codeUsage(diagnoses []*model.Diagnosis, treatments []*model.Treatment) map[string]*model.CodeUsageEntry {
	usage := make(map[string]*model.CodeUsageEntry)
	add := func(code string, system model.CodeSystem, description string) {
		key := fmt.Sprintf("%s (%s)", code, system)
		if _, ok := usage[key]; !ok {
			usage[key] = &model.CodeUsageEntry{Description: description}
		}
		usage[key].Count++
	}
	for _, d := range diagnoses {
		add(d.Code, d.CodeSystem, d.Description)
	}
	for _, t := range treatments {
		add(t.Code, t.CodeSystem, t.Description)
	}
	return usage
}
