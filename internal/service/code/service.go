package code

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
	apperrors "github.com/medicode/medicode-api/pkg/errors"
)

// Service owns the master code catalog. It fronts the repository with a
// short-lived cache on the exact-match lookup, flushed on every catalog
// write so inactive/edited entries never serve stale hits. It satisfies
// the validator's Catalog interface.
type Service struct {
	repo   repository.MedicalCodeRepository
	cache  *gocache.Cache
	logger zerolog.Logger
}

func NewService(repo repository.MedicalCodeRepository, cacheTTL time.Duration, logger zerolog.Logger) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		repo:   repo,
		cache:  gocache.New(cacheTTL, 2*cacheTTL),
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

func cacheKey(code string, system model.CodeSystem) string {
	return string(system) + ":" + code
}

// FindActive returns the active entry matching (code, system) exactly,
// or (nil, nil) when none exists. Negative results are not cached so a
// freshly imported code is picked up immediately.
func (s *Service) FindActive(ctx context.Context, code string, system model.CodeSystem) (*model.MedicalCode, error) {
	key := cacheKey(code, system)
	if hit, ok := s.cache.Get(key); ok {
		return hit.(*model.MedicalCode), nil
	}

	entry, err := s.repo.FindActive(ctx, code, system)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		s.cache.SetDefault(key, entry)
	}
	return entry, nil
}

// SearchSimilar passes through to the repository; suggestion queries
// are rare enough not to cache.
func (s *Service) SearchSimilar(ctx context.Context, prefix, substring string, system model.CodeSystem, limit int) ([]*model.MedicalCode, error) {
	return s.repo.SearchSimilar(ctx, prefix, substring, system, limit)
}

func (s *Service) Create(ctx context.Context, req *model.CreateMedicalCodeRequest) (*model.MedicalCode, error) {
	system := model.CodeSystem(req.CodeSystem)
	if !system.IsValid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown code system: %s", req.CodeSystem), nil)
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	entry := &model.MedicalCode{
		Base:        model.Base{ID: uuid.New()},
		Code:        req.Code,
		CodeSystem:  system,
		Description: req.Description,
		IsActive:    active,
	}
	if req.Category != "" {
		entry.Category = sql.NullString{String: req.Category, Valid: true}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	s.cache.Flush()
	return entry, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req *model.UpdateMedicalCodeRequest) (*model.MedicalCode, error) {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Description != nil {
		entry.Description = *req.Description
	}
	if req.Category != nil {
		entry.Category = sql.NullString{String: *req.Category, Valid: *req.Category != ""}
	}
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		return nil, err
	}
	s.cache.Flush()
	return entry, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.MedicalCode, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filters *model.CodeFilters) ([]*model.MedicalCode, error) {
	return s.repo.List(ctx, filters)
}

// Import bulk-loads catalog entries, skipping duplicates. Used by the
// seeding command and the admin import endpoint.
func (s *Service) Import(ctx context.Context, entries []*model.CreateMedicalCodeRequest) (int, error) {
	imported := 0
	for _, req := range entries {
		if _, err := s.Create(ctx, req); err != nil {
			if appErr, ok := apperrors.AsAppError(err); ok && appErr.Code == apperrors.ErrConflict {
				s.logger.Debug().Str("code", req.Code).Str("code_system", req.CodeSystem).Msg("skipping duplicate code")
				continue
			}
			return imported, err
		}
		imported++
	}
	s.cache.Flush()
	return imported, nil
}
