package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medicode/medicode-api/internal/model"
)

// fakeCatalog is an in-memory Catalog for validator tests.
type fakeCatalog struct {
	entries []*model.MedicalCode
	err     error
}

func (f *fakeCatalog) FindActive(_ context.Context, code string, system model.CodeSystem) (*model.MedicalCode, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, e := range f.entries {
		if e.Code == code && e.CodeSystem == system && e.IsActive {
			return e, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) SearchSimilar(_ context.Context, prefix, substring string, system model.CodeSystem, limit int) ([]*model.MedicalCode, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*model.MedicalCode
	for _, e := range f.entries {
		if e.CodeSystem != system || !e.IsActive {
			continue
		}
		if containsFold(e.Code, prefix) || containsFold(e.Description, substring) {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return false
	}
	for i := 0; i+len(sub) <= len(s); i++ {
		match := true
		for j := 0; j < len(sub); j++ {
			a, b := s[i+j], sub[j]
			if 'A' <= a && a <= 'Z' {
				a += 'a' - 'A'
			}
			if 'A' <= b && b <= 'Z' {
				b += 'a' - 'A'
			}
			if a != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func entry(code string, system model.CodeSystem, description string, active bool) *model.MedicalCode {
	return &model.MedicalCode{
		Code:        code,
		CodeSystem:  system,
		Description: description,
		IsActive:    active,
	}
}

func newValidator(catalog Catalog) *Service {
	return NewService(catalog, nil, zerolog.Nop(), DefaultSuggestionLimit)
}

func TestValidateExactMatch(t *testing.T) {
	covid := entry("1A00", model.CodeSystemICD11, "COVID-19, virus identified", true)
	v := newValidator(&fakeCatalog{entries: []*model.MedicalCode{covid}})

	outcome := v.Validate(context.Background(), "1A00", model.CodeSystemICD11)

	require.True(t, outcome.IsValid)
	assert.Equal(t, covid, outcome.MatchedCode)
	assert.Empty(t, outcome.RejectionReason)
	assert.Empty(t, outcome.Suggestions)
	assert.Equal(t, model.ValidationResultApproved, outcome.Result())
}

func TestValidateSameCodeDifferentSystem(t *testing.T) {
	v := newValidator(&fakeCatalog{entries: []*model.MedicalCode{
		entry("1A00", model.CodeSystemICD11, "COVID-19, virus identified", true),
	}})

	outcome := v.Validate(context.Background(), "1A00", model.CodeSystemCPT)

	assert.False(t, outcome.IsValid)
}

func TestValidateInactiveCodeRejected(t *testing.T) {
	v := newValidator(&fakeCatalog{entries: []*model.MedicalCode{
		entry("9Z99", model.CodeSystemICD11, "Retired classification", false),
	}})

	outcome := v.Validate(context.Background(), "9Z99", model.CodeSystemICD11)

	require.False(t, outcome.IsValid)
	assert.Equal(t, "Code not found in master dataset.", outcome.RejectionReason)
	assert.Empty(t, outcome.Suggestions)
}

func TestValidateNoCandidates(t *testing.T) {
	v := newValidator(&fakeCatalog{})

	outcome := v.Validate(context.Background(), "XXXX", model.CodeSystemICD11)

	require.False(t, outcome.IsValid)
	assert.Equal(t, "Code not found in master dataset.", outcome.RejectionReason)
	assert.Equal(t, model.ValidationResultRejected, outcome.Result())
}

func TestValidateSuggestions(t *testing.T) {
	v := newValidator(&fakeCatalog{entries: []*model.MedicalCode{
		entry("5A10", model.CodeSystemICD11, "Type 1 diabetes mellitus", true),
		entry("5A11", model.CodeSystemICD11, "Type 2 diabetes mellitus", true),
	}})

	outcome := v.Validate(context.Background(), "5A99", model.CodeSystemICD11)

	require.False(t, outcome.IsValid)
	require.Len(t, outcome.Suggestions, 2)
	assert.Equal(t, []string{"5A10", "5A11"}, outcome.SuggestionCodes())
	assert.Contains(t, outcome.RejectionReason, "Code not found in master dataset. Similar codes:")
	assert.Contains(t, outcome.RejectionReason, "5A10 (Type 1 diabetes mellitus)")
	assert.Contains(t, outcome.RejectionReason, "5A11 (Type 2 diabetes mellitus)")
}

func TestValidateSuggestionLimit(t *testing.T) {
	entries := []*model.MedicalCode{
		entry("BA00", model.CodeSystemICD11, "Hypertension", true),
		entry("BA01", model.CodeSystemICD11, "Ischaemic heart diseases", true),
		entry("BA02", model.CodeSystemICD11, "Heart failure", true),
		entry("BA03", model.CodeSystemICD11, "Cardiomyopathy", true),
		entry("BA04", model.CodeSystemICD11, "Pericarditis", true),
		entry("BA05", model.CodeSystemICD11, "Endocarditis", true),
		entry("BA06", model.CodeSystemICD11, "Myocarditis", true),
	}
	v := newValidator(&fakeCatalog{entries: entries})

	outcome := v.Validate(context.Background(), "BA99", model.CodeSystemICD11)

	require.False(t, outcome.IsValid)
	assert.Len(t, outcome.Suggestions, DefaultSuggestionLimit)
	// Catalog insertion order is preserved.
	assert.Equal(t, []string{"BA00", "BA01", "BA02", "BA03", "BA04"}, outcome.SuggestionCodes())
}

func TestValidateDescriptionMatch(t *testing.T) {
	v := newValidator(&fakeCatalog{entries: []*model.MedicalCode{
		entry("8A00", model.CodeSystemICD11, "Dementia", true),
	}})

	// The submitted code appears as a substring of a description.
	outcome := v.Validate(context.Background(), "Dementia", model.CodeSystemICD11)

	require.False(t, outcome.IsValid)
	assert.Equal(t, []string{"8A00"}, outcome.SuggestionCodes())
}

func TestValidateCatalogFailure(t *testing.T) {
	v := newValidator(&fakeCatalog{err: errors.New("connection refused")})

	outcome := v.Validate(context.Background(), "1A00", model.CodeSystemICD11)

	require.False(t, outcome.IsValid)
	assert.Contains(t, outcome.RejectionReason, "Validation error:")
	assert.Contains(t, outcome.RejectionReason, "connection refused")
	assert.Empty(t, outcome.Suggestions)
}

func TestValidateIsIdempotent(t *testing.T) {
	v := newValidator(&fakeCatalog{entries: []*model.MedicalCode{
		entry("1A00", model.CodeSystemICD11, "COVID-19, virus identified", true),
	}})

	first := v.Validate(context.Background(), "1A00", model.CodeSystemICD11)
	second := v.Validate(context.Background(), "1A00", model.CodeSystemICD11)

	assert.Equal(t, first, second)
}

func TestCodePrefix(t *testing.T) {
	assert.Equal(t, "5A9", codePrefix("5A99"))
	assert.Equal(t, "5A", codePrefix("5A"))
	assert.Equal(t, "", codePrefix(""))
}
