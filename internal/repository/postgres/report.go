package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/medicode/medicode-api/pkg/errors"

	"github.com/medicode/medicode-api/internal/model"
	"github.com/medicode/medicode-api/internal/repository"
)

type reportRepository struct {
	db *sqlx.DB
}

func NewReportRepository(db *sqlx.DB) repository.ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *model.Report) error {
	query := `
		INSERT INTO reports (id, name, report_type, generated_at,
			date_range_start, date_range_end, code_system, data, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	report.GeneratedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		report.ID, report.Name, report.ReportType, report.GeneratedAt,
		report.DateRangeStart, report.DateRangeEnd, report.CodeSystem,
		report.Data, report.CreatedBy)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

func (r *reportRepository) Get(ctx context.Context, id uuid.UUID) (*model.Report, error) {
	query := `SELECT * FROM reports WHERE id = $1`
	var report model.Report
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("report", err)
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return &report, nil
}

func (r *reportRepository) List(ctx context.Context) ([]*model.Report, error) {
	query := `SELECT * FROM reports ORDER BY generated_at DESC`
	var reports []*model.Report
	if err := r.db.SelectContext(ctx, &reports, query); err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	return reports, nil
}
