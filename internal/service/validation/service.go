package validation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/pkg/metrics"
)

// DefaultSuggestionLimit bounds the number of near-match candidates
// attached to a rejection.
const DefaultSuggestionLimit = 5

const notFoundMessage = "Code not found in master dataset."

// Catalog is the master-dataset query surface the validator depends on.
// FindActive returns (nil, nil) when no active entry matches exactly.
type Catalog interface {
	FindActive(ctx context.Context, code string, system model.CodeSystem) (*model.MedicalCode, error)
	SearchSimilar(ctx context.Context, prefix, substring string, system model.CodeSystem, limit int) ([]*model.MedicalCode, error)
}

// Service decides approved/rejected for a submitted code. It never
// mutates catalog state; identical inputs against an unchanged catalog
// yield identical outcomes.
type Service struct {
	catalog         Catalog
	metrics         *metrics.Metrics
	logger          zerolog.Logger
	suggestionLimit int
}

func NewService(catalog Catalog, m *metrics.Metrics, logger zerolog.Logger, suggestionLimit int) *Service {
	if suggestionLimit <= 0 {
		suggestionLimit = DefaultSuggestionLimit
	}
	return &Service{
		catalog:         catalog,
		metrics:         m,
		logger:          logger.With().Str("component", "validator").Logger(),
		suggestionLimit: suggestionLimit,
	}
}

// Validate looks up an exact active match for (code, system); on a miss
// it collects up to the suggestion limit of near-matches. A catalog
// access failure is folded into a rejection outcome rather than
// propagated: the clinical item is the primary artifact and must be
// persistable even when the catalog is unreachable.
func (s *Service) Validate(ctx context.Context, code string, system model.CodeSystem) *model.ValidationOutcome {
	start := time.Now()
	outcome := s.validate(ctx, code, system)
	if s.metrics != nil {
		s.metrics.ValidationDuration.Observe(time.Since(start).Seconds())
		s.metrics.ValidationsTotal.WithLabelValues(string(outcome.Result()), string(system)).Inc()
		if !outcome.IsValid {
			s.metrics.SuggestionsReturned.Observe(float64(len(outcome.Suggestions)))
		}
	}
	return outcome
}

func (s *Service) validate(ctx context.Context, code string, system model.CodeSystem) *model.ValidationOutcome {
	entry, err := s.catalog.FindActive(ctx, code, system)
	if err != nil {
		return s.catalogFailure(code, system, err)
	}
	if entry != nil {
		return &model.ValidationOutcome{IsValid: true, MatchedCode: entry}
	}

	candidates, err := s.catalog.SearchSimilar(ctx, codePrefix(code), code, system, s.suggestionLimit)
	if err != nil {
		return s.catalogFailure(code, system, err)
	}

	if len(candidates) == 0 {
		return &model.ValidationOutcome{
			IsValid:         false,
			RejectionReason: notFoundMessage,
		}
	}

	return &model.ValidationOutcome{
		IsValid:         false,
		RejectionReason: suggestionText(candidates),
		Suggestions:     candidates,
	}
}

func (s *Service) catalogFailure(code string, system model.CodeSystem, err error) *model.ValidationOutcome {
	if s.metrics != nil {
		s.metrics.CatalogLookupErrors.Inc()
	}
	s.logger.Error().Err(err).
		Str("code", code).
		Str("code_system", string(system)).
		Msg("catalog access failed during validation")
	return &model.ValidationOutcome{
		IsValid:         false,
		RejectionReason: fmt.Sprintf("Validation error: %v", err),
	}
}

// codePrefix returns the leading 3 characters used for the fuzzy code
// search, or the whole code when shorter.
func codePrefix(code string) string {
	if len(code) <= 3 {
		return code
	}
	return code[:3]
}

func suggestionText(candidates []*model.MedicalCode) string {
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		parts = append(parts, fmt.Sprintf("%s (%s)", c.Code, c.Description))
	}
	return fmt.Sprintf("Code not found in master dataset. Similar codes: %s", strings.Join(parts, ", "))
}
