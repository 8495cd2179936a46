package code

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicode/medicode-api/internal/model"
	apperrors "github.com/medicode/medicode-api/pkg/errors"
)

type fakeRepo struct {
	entries     []*model.MedicalCode
	findCalls   int
	searchCalls int
}

func (f *fakeRepo) Create(_ context.Context, entry *model.MedicalCode) error {
	for _, e := range f.entries {
		if e.Code == entry.Code && e.CodeSystem == entry.CodeSystem {
			return apperrors.Conflict("code already exists in this code system", nil)
		}
	}
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeRepo) Update(_ context.Context, entry *model.MedicalCode) error {
	for i, e := range f.entries {
		if e.ID == entry.ID {
			f.entries[i] = entry
			return nil
		}
	}
	return apperrors.NotFound("medical code", nil)
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (*model.MedicalCode, error) {
	for _, e := range f.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, apperrors.NotFound("medical code", nil)
}

func (f *fakeRepo) FindActive(_ context.Context, code string, system model.CodeSystem) (*model.MedicalCode, error) {
	f.findCalls++
	for _, e := range f.entries {
		if e.Code == code && e.CodeSystem == system && e.IsActive {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeRepo) SearchSimilar(_ context.Context, prefix, substring string, system model.CodeSystem, limit int) ([]*model.MedicalCode, error) {
	f.searchCalls++
	var out []*model.MedicalCode
	for _, e := range f.entries {
		if e.CodeSystem != system || !e.IsActive {
			continue
		}
		if strings.Contains(e.Code, prefix) || strings.Contains(strings.ToLower(e.Description), strings.ToLower(substring)) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, _ *model.CodeFilters) ([]*model.MedicalCode, error) {
	return f.entries, nil
}

func newService(repo *fakeRepo) *Service {
	return NewService(repo, time.Minute, zerolog.Nop())
}

func createReq(code, system string) *model.CreateMedicalCodeRequest {
	return &model.CreateMedicalCodeRequest{
		Code:        code,
		CodeSystem:  system,
		Description: "test entry",
	}
}

func TestCreateDefaultsToActive(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	entry, err := svc.Create(context.Background(), createReq("1A00", "ICD-11"))

	require.NoError(t, err)
	assert.True(t, entry.IsActive)
	assert.NotEqual(t, uuid.Nil, entry.ID)
}

func TestCreateRejectsUnknownSystem(t *testing.T) {
	svc := newService(&fakeRepo{})

	_, err := svc.Create(context.Background(), createReq("1A00", "ICD-10"))

	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestCreateDuplicateConflict(t *testing.T) {
	svc := newService(&fakeRepo{})

	_, err := svc.Create(context.Background(), createReq("1A00", "ICD-11"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), createReq("1A00", "ICD-11"))
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestCreateSameCodeAcrossSystems(t *testing.T) {
	svc := newService(&fakeRepo{})

	_, err := svc.Create(context.Background(), createReq("1A00", "ICD-11"))
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), createReq("1A00", "NAMASTE"))
	require.NoError(t, err)
}

func TestFindActiveCachesHits(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	_, err := svc.Create(context.Background(), createReq("1A00", "ICD-11"))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		entry, err := svc.FindActive(context.Background(), "1A00", model.CodeSystemICD11)
		require.NoError(t, err)
		require.NotNil(t, entry)
	}

	assert.Equal(t, 1, repo.findCalls)
}

func TestFindActiveDoesNotCacheMisses(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	entry, err := svc.FindActive(context.Background(), "1A00", model.CodeSystemICD11)
	require.NoError(t, err)
	require.Nil(t, entry)

	// A freshly created code is visible on the next lookup.
	_, err = svc.Create(context.Background(), createReq("1A00", "ICD-11"))
	require.NoError(t, err)

	entry, err = svc.FindActive(context.Background(), "1A00", model.CodeSystemICD11)
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestUpdateFlushesCache(t *testing.T) {
	repo := &fakeRepo{}
	svc := newService(repo)

	created, err := svc.Create(context.Background(), createReq("1A00", "ICD-11"))
	require.NoError(t, err)

	_, err = svc.FindActive(context.Background(), "1A00", model.CodeSystemICD11)
	require.NoError(t, err)

	inactive := false
	_, err = svc.Update(context.Background(), created.ID, &model.UpdateMedicalCodeRequest{IsActive: &inactive})
	require.NoError(t, err)

	// The deactivated entry no longer serves from cache.
	entry, err := svc.FindActive(context.Background(), "1A00", model.CodeSystemICD11)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestImportSkipsDuplicates(t *testing.T) {
	svc := newService(&fakeRepo{})

	_, err := svc.Create(context.Background(), createReq("1A00", "ICD-11"))
	require.NoError(t, err)

	imported, err := svc.Import(context.Background(), []*model.CreateMedicalCodeRequest{
		createReq("1A00", "ICD-11"),
		createReq("1A01", "ICD-11"),
		createReq("BA00", "ICD-11"),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, imported)
}
