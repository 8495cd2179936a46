package clinical

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicode/medicode-api/internal/model"
	apperrors "github.com/medicode/medicode-api/pkg/errors"
)

type fakeDiagnosisRepo struct {
	diagnoses map[uuid.UUID]*model.Diagnosis
}

func (f *fakeDiagnosisRepo) Create(_ context.Context, d *model.Diagnosis) error {
	f.diagnoses[d.ID] = d
	return nil
}

func (f *fakeDiagnosisRepo) Get(_ context.Context, id uuid.UUID) (*model.Diagnosis, error) {
	d, ok := f.diagnoses[id]
	if !ok {
		return nil, apperrors.NotFound("diagnosis", nil)
	}
	return d, nil
}

func (f *fakeDiagnosisRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.ValidationStatus, validatedBy string, at time.Time) error {
	d, ok := f.diagnoses[id]
	if !ok {
		return apperrors.NotFound("diagnosis", nil)
	}
	d.Status = status
	d.ValidatedBy = validatedBy
	d.ValidationDate = at
	return nil
}

func (f *fakeDiagnosisRepo) ListByPatient(_ context.Context, _ uuid.UUID) ([]*model.Diagnosis, error) {
	return nil, nil
}

func (f *fakeDiagnosisRepo) ListByValidationDateRange(_ context.Context, _, _ time.Time, _ model.CodeSystem) ([]*model.Diagnosis, error) {
	return nil, nil
}

type fakeTreatmentRepo struct {
	treatments map[uuid.UUID]*model.Treatment
}

func (f *fakeTreatmentRepo) Create(_ context.Context, t *model.Treatment) error {
	f.treatments[t.ID] = t
	return nil
}

func (f *fakeTreatmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Treatment, error) {
	tr, ok := f.treatments[id]
	if !ok {
		return nil, apperrors.NotFound("treatment", nil)
	}
	return tr, nil
}

func (f *fakeTreatmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.ValidationStatus, validatedBy string, at time.Time) error {
	tr, ok := f.treatments[id]
	if !ok {
		return apperrors.NotFound("treatment", nil)
	}
	tr.Status = status
	tr.ValidatedBy = validatedBy
	tr.ValidationDate = at
	return nil
}

func (f *fakeTreatmentRepo) ListByPatient(_ context.Context, _ uuid.UUID) ([]*model.Treatment, error) {
	return nil, nil
}

func (f *fakeTreatmentRepo) ListByValidationDateRange(_ context.Context, _, _ time.Time, _ model.CodeSystem) ([]*model.Treatment, error) {
	return nil, nil
}

func newFixture() (*Service, *fakeDiagnosisRepo, *fakeTreatmentRepo) {
	dRepo := &fakeDiagnosisRepo{diagnoses: make(map[uuid.UUID]*model.Diagnosis)}
	tRepo := &fakeTreatmentRepo{treatments: make(map[uuid.UUID]*model.Treatment)}
	return NewService(dRepo, tRepo, zerolog.Nop()), dRepo, tRepo
}

func TestUpdateDiagnosisStatusOverride(t *testing.T) {
	svc, dRepo, _ := newFixture()
	d := &model.Diagnosis{
		ID:          uuid.New(),
		Status:      model.StatusRejected,
		ValidatedBy: model.SystemValidator,
	}
	dRepo.diagnoses[d.ID] = d
	actor := &model.Actor{ID: uuid.New(), Username: "coder1"}

	updated, err := svc.UpdateDiagnosisStatus(context.Background(), d.ID, model.StatusApproved, actor)

	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, updated.Status)
	assert.Equal(t, "coder1", updated.ValidatedBy)
	assert.WithinDuration(t, time.Now(), updated.ValidationDate, time.Minute)
}

func TestUpdateDiagnosisStatusInvalidValue(t *testing.T) {
	svc, dRepo, _ := newFixture()
	d := &model.Diagnosis{ID: uuid.New(), Status: model.StatusApproved}
	dRepo.diagnoses[d.ID] = d

	for _, status := range []model.ValidationStatus{model.StatusPending, "bogus", ""} {
		_, err := svc.UpdateDiagnosisStatus(context.Background(), d.ID, status, nil)

		require.Error(t, err)
		appErr, ok := apperrors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	}
	// No state change on rejected overrides.
	assert.Equal(t, model.StatusApproved, d.Status)
}

func TestUpdateTreatmentStatusOverride(t *testing.T) {
	svc, _, tRepo := newFixture()
	tr := &model.Treatment{ID: uuid.New(), Status: model.StatusApproved}
	tRepo.treatments[tr.ID] = tr

	updated, err := svc.UpdateTreatmentStatus(context.Background(), tr.ID, model.StatusRejected, nil)

	require.NoError(t, err)
	assert.Equal(t, model.StatusRejected, updated.Status)
	assert.Equal(t, model.SystemValidator, updated.ValidatedBy)
}

func TestUpdateTreatmentStatusUnknownID(t *testing.T) {
	svc, _, _ := newFixture()

	_, err := svc.UpdateTreatmentStatus(context.Background(), uuid.New(), model.StatusApproved, nil)

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
