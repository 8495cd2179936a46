package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	apperrors "github.com/medicode/medicode-api/pkg/errors"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
)

const pqUniqueViolation = "23505"

type medicalCodeRepository struct {
	db *sqlx.DB
}

func NewMedicalCodeRepository(db *sqlx.DB) repository.MedicalCodeRepository {
	return &medicalCodeRepository{db: db}
}

func (r *medicalCodeRepository) Create(ctx context.Context, code *model.MedicalCode) error {
	query := `
		INSERT INTO medical_codes (id, code, code_system, description, category, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	code.CreatedAt = time.Now()
	code.UpdatedAt = code.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		code.ID,
		code.Code,
		code.CodeSystem,
		code.Description,
		code.Category,
		code.IsActive,
		code.CreatedAt,
		code.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return apperrors.Conflict(
				fmt.Sprintf("code %s already exists in %s", code.Code, code.CodeSystem), err)
		}
		return fmt.Errorf("failed to create medical code: %w", err)
	}
	return nil
}

func (r *medicalCodeRepository) Update(ctx context.Context, code *model.MedicalCode) error {
	query := `
		UPDATE medical_codes
		SET description = $1, category = $2, is_active = $3, updated_at = $4
		WHERE id = $5
	`
	code.UpdatedAt = time.Now()
	res, err := r.db.ExecContext(ctx, query,
		code.Description, code.Category, code.IsActive, code.UpdatedAt, code.ID)
	if err != nil {
		return fmt.Errorf("failed to update medical code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.NotFound("medical code", nil)
	}
	return nil
}

func (r *medicalCodeRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicalCode, error) {
	query := `SELECT * FROM medical_codes WHERE id = $1`
	var code model.MedicalCode
	if err := r.db.GetContext(ctx, &code, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("medical code", err)
		}
		return nil, fmt.Errorf("failed to get medical code: %w", err)
	}
	return &code, nil
}

func (r *medicalCodeRepository) FindActive(ctx context.Context, codeStr string, system model.CodeSystem) (*model.MedicalCode, error) {
	query := `
		SELECT * FROM medical_codes
		WHERE code = $1 AND code_system = $2 AND is_active = true
	`
	var code model.MedicalCode
	if err := r.db.GetContext(ctx, &code, query, codeStr, system); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up code: %w", err)
	}
	return &code, nil
}

func (r *medicalCodeRepository) SearchSimilar(ctx context.Context, prefix, substring string, system model.CodeSystem, limit int) ([]*model.MedicalCode, error) {
	// Insertion order matters: suggestions are "first N matches", not ranked.
	query := `
		SELECT * FROM medical_codes
		WHERE code_system = $1 AND is_active = true
		  AND (code ILIKE '%' || $2 || '%' OR description ILIKE '%' || $3 || '%')
		ORDER BY created_at ASC, code ASC
		LIMIT $4
	`
	var codes []*model.MedicalCode
	if err := r.db.SelectContext(ctx, &codes, query, system, prefix, substring, limit); err != nil {
		return nil, fmt.Errorf("failed to search similar codes: %w", err)
	}
	return codes, nil
}

func (r *medicalCodeRepository) List(ctx context.Context, filters *model.CodeFilters) ([]*model.MedicalCode, error) {
	query := `SELECT * FROM medical_codes WHERE 1=1`
	var args []interface{}

	if filters != nil {
		if filters.CodeSystem != "" {
			args = append(args, filters.CodeSystem)
			query += fmt.Sprintf(" AND code_system = $%d", len(args))
		}
		if filters.Search != "" {
			args = append(args, filters.Search)
			query += fmt.Sprintf(" AND (code ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%d || '%%')", len(args), len(args))
		}
		if filters.ActiveOnly {
			query += " AND is_active = true"
		}
	}
	query += " ORDER BY created_at ASC"

	var codes []*model.MedicalCode
	if err := r.db.SelectContext(ctx, &codes, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medical codes: %w", err)
	}
	return codes, nil
}
