package repository

import (
	"context"
	"fmt"
	"time"

	"tusai/internal/domain"
	"tusai/internal/repository/models"
	"tusai/internal/util"
)

// sqlxReportRepository implements domain.ReportRepository using sqlx.
type sqlxReportRepository struct {
	db DBTX
}

func NewReportRepository(db DBTX) domain.ReportRepository {
	return &sqlxReportRepository{db: db}
}

// InsertReport persists a question report.
func (r *sqlxReportRepository) InsertReport(ctx context.Context, report *domain.QuestionReport) error {
	executor := GetExecutor(ctx, r.db)

	model := &models.QuestionReport{
		ID:         report.ID,
		ReporterID: report.ReporterID,
		QuestionID: report.QuestionID,
		Prompt:     util.StringToNullString(report.Prompt),
		Message:    report.Message,
		CreatedAt:  report.CreatedAt,
	}
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}

	query := `INSERT INTO question_reports (id, reporter_id, question_id, prompt, message, created_at)
	          VALUES (:id, :reporter_id, :question_id, :prompt, :message, :created_at)`

	if _, err := executor.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("failed to insert question report: %w", err)
	}

	report.CreatedAt = model.CreatedAt
	return nil
}
