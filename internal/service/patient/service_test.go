package patient

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/service/audit"
	"github.com/medicode/medicode-api/internal/service/notification"
	"github.com/medicode/medicode-api/internal/service/validation"
	apperrors "github.com/medicode/medicode-api/pkg/errors"
)

type fakePatientRepo struct {
	patients      map[uuid.UUID]*model.Patient
	lastVisits    map[uuid.UUID]time.Time
	lastVisitErr  error
	updateVisitCt int
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{
		patients:   make(map[uuid.UUID]*model.Patient),
		lastVisits: make(map[uuid.UUID]time.Time),
	}
}

func (f *fakePatientRepo) Create(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := f.patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return p, nil
}

func (f *fakePatientRepo) Update(_ context.Context, p *model.Patient) error {
	f.patients[p.ID] = p
	return nil
}

func (f *fakePatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.patients, id)
	return nil
}

func (f *fakePatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	out := make([]*model.Patient, 0, len(f.patients))
	for _, p := range f.patients {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePatientRepo) UpdateLastVisit(_ context.Context, id uuid.UUID, at time.Time) error {
	if f.lastVisitErr != nil {
		return f.lastVisitErr
	}
	f.updateVisitCt++
	f.lastVisits[id] = at
	return nil
}

type fakeDiagnosisRepo struct {
	created []*model.Diagnosis
}

func (f *fakeDiagnosisRepo) Create(_ context.Context, d *model.Diagnosis) error {
	f.created = append(f.created, d)
	return nil
}

func (f *fakeDiagnosisRepo) Get(_ context.Context, id uuid.UUID) (*model.Diagnosis, error) {
	for _, d := range f.created {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, apperrors.NotFound("diagnosis", nil)
}

func (f *fakeDiagnosisRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ model.ValidationStatus, _ string, _ time.Time) error {
	return nil
}

func (f *fakeDiagnosisRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Diagnosis, error) {
	var out []*model.Diagnosis
	for _, d := range f.created {
		if d.PatientID == patientID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeDiagnosisRepo) ListByValidationDateRange(_ context.Context, _, _ time.Time, _ model.CodeSystem) ([]*model.Diagnosis, error) {
	return f.created, nil
}

type fakeTreatmentRepo struct {
	created []*model.Treatment
}

func (f *fakeTreatmentRepo) Create(_ context.Context, t *model.Treatment) error {
	f.created = append(f.created, t)
	return nil
}

func (f *fakeTreatmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Treatment, error) {
	for _, t := range f.created {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, apperrors.NotFound("treatment", nil)
}

func (f *fakeTreatmentRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ model.ValidationStatus, _ string, _ time.Time) error {
	return nil
}

func (f *fakeTreatmentRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Treatment, error) {
	var out []*model.Treatment
	for _, t := range f.created {
		if t.PatientID == patientID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTreatmentRepo) ListByValidationDateRange(_ context.Context, _, _ time.Time, _ model.CodeSystem) ([]*model.Treatment, error) {
	return f.created, nil
}

type fakeRecordRepo struct {
	records []*model.ValidationRecord
	err     error
}

func (f *fakeRecordRepo) Create(_ context.Context, r *model.ValidationRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, r)
	return nil
}

func (f *fakeRecordRepo) List(_ context.Context, _ *model.ValidationRecordFilters) ([]*model.ValidationRecord, error) {
	return f.records, nil
}

type fakeNotificationRepo struct {
	notifications []*model.Notification
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeNotificationRepo) Get(_ context.Context, id uuid.UUID) (*model.Notification, error) {
	for _, n := range f.notifications {
		if n.ID == id {
			return n, nil
		}
	}
	return nil, apperrors.NotFound("notification", nil)
}

func (f *fakeNotificationRepo) ListByUser(_ context.Context, userID uuid.UUID, unreadOnly bool) ([]*model.Notification, error) {
	var out []*model.Notification
	for _, n := range f.notifications {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, id uuid.UUID) error {
	for _, n := range f.notifications {
		if n.ID == id {
			n.IsRead = true
			return nil
		}
	}
	return apperrors.NotFound("notification", nil)
}

type fakeCatalog struct {
	entries []*model.MedicalCode
}

func (f *fakeCatalog) FindActive(_ context.Context, code string, system model.CodeSystem) (*model.MedicalCode, error) {
	for _, e := range f.entries {
		if e.Code == code && e.CodeSystem == system && e.IsActive {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) SearchSimilar(_ context.Context, _, _ string, system model.CodeSystem, limit int) ([]*model.MedicalCode, error) {
	var out []*model.MedicalCode
	for _, e := range f.entries {
		if e.CodeSystem == system && e.IsActive {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

type fixture struct {
	svc           *Service
	patientRepo   *fakePatientRepo
	diagnosisRepo *fakeDiagnosisRepo
	treatmentRepo *fakeTreatmentRepo
	recordRepo    *fakeRecordRepo
	notifRepo     *fakeNotificationRepo
	patient       *model.Patient
}

func newFixture(t *testing.T, entries ...*model.MedicalCode) *fixture {
	t.Helper()

	patientRepo := newFakePatientRepo()
	diagnosisRepo := &fakeDiagnosisRepo{}
	treatmentRepo := &fakeTreatmentRepo{}
	recordRepo := &fakeRecordRepo{}
	notifRepo := &fakeNotificationRepo{}

	logger := zerolog.Nop()
	validator := validation.NewService(&fakeCatalog{entries: entries}, nil, logger, 0)
	auditor := audit.NewService(recordRepo, nil, logger)
	notifier := notification.NewService(notifRepo, nil, nil, nil, logger)

	svc := NewService(patientRepo, diagnosisRepo, treatmentRepo, validator, auditor, notifier, logger)

	p, err := svc.CreatePatient(context.Background(), &model.CreatePatientRequest{
		Name:      "Asha Raman",
		Age:       46,
		Gender:    "female",
		PatientID: "P10001",
	})
	require.NoError(t, err)

	return &fixture{
		svc:           svc,
		patientRepo:   patientRepo,
		diagnosisRepo: diagnosisRepo,
		treatmentRepo: treatmentRepo,
		recordRepo:    recordRepo,
		notifRepo:     notifRepo,
		patient:       p,
	}
}

func covidEntry() *model.MedicalCode {
	return &model.MedicalCode{
		Base:        model.Base{ID: uuid.New()},
		Code:        "1A00",
		CodeSystem:  model.CodeSystemICD11,
		Description: "COVID-19, virus identified",
		IsActive:    true,
	}
}

func testActor() *model.Actor {
	return &model.Actor{
		ID:       uuid.New(),
		Username: "doctor1",
		Email:    "doctor@medicode.com",
		Role:     "doctor",
	}
}

func TestAddDiagnosisApproved(t *testing.T) {
	f := newFixture(t, covidEntry())
	actor := testActor()

	d, err := f.svc.AddDiagnosis(context.Background(), f.patient.ID, &model.SubmitClinicalItemRequest{
		Code:        "1A00",
		CodeSystem:  "ICD-11",
		Description: "Confirmed COVID-19 infection",
	}, actor)

	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, d.Status)
	assert.Equal(t, "doctor1", d.ValidatedBy)
	assert.Nil(t, d.Suggestions)

	require.Len(t, f.recordRepo.records, 1)
	record := f.recordRepo.records[0]
	assert.Equal(t, model.ValidationResultApproved, record.Result)
	assert.Equal(t, "1A00", record.SubmittedCode)
	assert.Equal(t, &d.ID, record.DiagnosisID)
	assert.Nil(t, record.TreatmentID)
	assert.NotNil(t, record.MatchedCodeID)
	assert.Nil(t, record.RejectionReason)

	// Approved submissions never notify.
	assert.Empty(t, f.notifRepo.notifications)
}

func TestAddDiagnosisRejectedNotifiesActor(t *testing.T) {
	f := newFixture(t, covidEntry())
	actor := testActor()

	d, err := f.svc.AddDiagnosis(context.Background(), f.patient.ID, &model.SubmitClinicalItemRequest{
		Code:        "9Z99",
		CodeSystem:  "ICD-11",
		Description: "Unknown condition",
	}, actor)

	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, d.Status)

	var note model.SuggestionNote
	require.NoError(t, json.Unmarshal(d.Suggestions, &note))
	assert.Equal(t, model.SuggestionKindCandidates, note.Kind)
	assert.Equal(t, []string{"1A00"}, note.Codes)

	require.Len(t, f.recordRepo.records, 1)
	require.NotNil(t, f.recordRepo.records[0].RejectionReason)

	require.Len(t, f.notifRepo.notifications, 1)
	n := f.notifRepo.notifications[0]
	assert.Equal(t, actor.ID, n.UserID)
	assert.False(t, n.IsRead)
	assert.Equal(t, &d.ID, n.DiagnosisID)
}

func TestAddDiagnosisSystemOriginated(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.AddDiagnosis(context.Background(), f.patient.ID, &model.SubmitClinicalItemRequest{
		Code:        "9Z99",
		CodeSystem:  "ICD-11",
		Description: "Unknown condition",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, d.Status)
	assert.Equal(t, model.SystemValidator, d.ValidatedBy)

	// Audit still happens; notification does not.
	assert.Len(t, f.recordRepo.records, 1)
	assert.Equal(t, model.SystemValidator, f.recordRepo.records[0].ValidatedBy)
	assert.Empty(t, f.notifRepo.notifications)
}

func TestAddDiagnosisNoSuggestionsMessage(t *testing.T) {
	f := newFixture(t)

	d, err := f.svc.AddDiagnosis(context.Background(), f.patient.ID, &model.SubmitClinicalItemRequest{
		Code:        "XXXX",
		CodeSystem:  "ICD-11",
		Description: "Unknown",
	}, nil)

	require.NoError(t, err)
	var note model.SuggestionNote
	require.NoError(t, json.Unmarshal(d.Suggestions, &note))
	assert.Equal(t, model.SuggestionKindRejection, note.Kind)
	assert.Equal(t, "Code not found in master dataset.", note.Message)
	assert.Empty(t, note.Codes)
}

func TestAddTreatmentApproved(t *testing.T) {
	f := newFixture(t, covidEntry())

	tr, err := f.svc.AddTreatment(context.Background(), f.patient.ID, &model.SubmitClinicalItemRequest{
		Code:        "1A00",
		CodeSystem:  "ICD-11",
		Description: "Antiviral therapy",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, tr.Status)

	require.Len(t, f.recordRepo.records, 1)
	assert.Equal(t, &tr.ID, f.recordRepo.records[0].TreatmentID)
	assert.Nil(t, f.recordRepo.records[0].DiagnosisID)
}

func TestRepeatedSubmissionsEachRecorded(t *testing.T) {
	f := newFixture(t, covidEntry())

	for i := 0; i < 3; i++ {
		_, err := f.svc.AddDiagnosis(context.Background(), f.patient.ID, &model.SubmitClinicalItemRequest{
			Code:        "1A00",
			CodeSystem:  "ICD-11",
			Description: "Confirmed COVID-19 infection",
		}, nil)
		require.NoError(t, err)
	}

	assert.Len(t, f.recordRepo.records, 3)
	assert.Len(t, f.diagnosisRepo.created, 3)
}

func TestAuditFailureDoesNotRollBackItem(t *testing.T) {
	f := newFixture(t, covidEntry())
	f.recordRepo.err = errors.New("audit store down")

	d, err := f.svc.AddDiagnosis(context.Background(), f.patient.ID, &model.SubmitClinicalItemRequest{
		Code:        "1A00",
		CodeSystem:  "ICD-11",
		Description: "Confirmed COVID-19 infection",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, d.Status)
	assert.Len(t, f.diagnosisRepo.created, 1)
	assert.Empty(t, f.recordRepo.records)
}

func TestSubmissionUpdatesLastVisit(t *testing.T) {
	f := newFixture(t, covidEntry())

	_, err := f.svc.AddDiagnosis(context.Background(), f.patient.ID, &model.SubmitClinicalItemRequest{
		Code:        "1A00",
		CodeSystem:  "ICD-11",
		Description: "Confirmed COVID-19 infection",
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, 1, f.patientRepo.updateVisitCt)
	assert.WithinDuration(t, time.Now(), f.patientRepo.lastVisits[f.patient.ID], time.Minute)
}

func TestAddDiagnosisUnknownPatient(t *testing.T) {
	f := newFixture(t, covidEntry())

	_, err := f.svc.AddDiagnosis(context.Background(), uuid.New(), &model.SubmitClinicalItemRequest{
		Code:        "1A00",
		CodeSystem:  "ICD-11",
		Description: "Confirmed COVID-19 infection",
	}, nil)

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
	assert.Empty(t, f.recordRepo.records)
}

func TestGetPatientLoadsClinicalItems(t *testing.T) {
	f := newFixture(t, covidEntry())

	_, err := f.svc.AddDiagnosis(context.Background(), f.patient.ID, &model.SubmitClinicalItemRequest{
		Code:        "1A00",
		CodeSystem:  "ICD-11",
		Description: "Confirmed COVID-19 infection",
	}, nil)
	require.NoError(t, err)

	p, err := f.svc.GetPatient(context.Background(), f.patient.ID)
	require.NoError(t, err)
	assert.Len(t, p.Diagnoses, 1)
	assert.Empty(t, p.Treatments)
}
