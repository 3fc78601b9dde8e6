package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tusai/internal/domain"
	"tusai/internal/repository/models"
)

// sqlxHistoryRepository implements domain.HistoryRepository using sqlx.
type sqlxHistoryRepository struct {
	db DBTX
}

func NewHistoryRepository(db DBTX) domain.HistoryRepository {
	return &sqlxHistoryRepository{db: db}
}

func toDomainRecord(m *models.QuizAttempt) *domain.HistoryRecord {
	if m == nil {
		return nil
	}
	details := make([]domain.QuestionDetail, len(m.Details))
	for i, d := range m.Details {
		details[i] = domain.QuestionDetail{
			QuestionID:   d.QuestionID,
			Prompt:       d.Prompt,
			Options:      d.Options,
			CorrectIndex: d.CorrectIndex,
			ChosenIndex:  d.ChosenIndex,
			Correct:      d.Correct,
			Explanation:  d.Explanation,
			Subject:      d.Subject,
		}
	}
	stats := make(map[string]domain.SubjectStat, len(m.SubjectStats))
	for subject, s := range m.SubjectStats {
		stats[subject] = domain.SubjectStat{Correct: s.Correct, Total: s.Total}
	}
	return &domain.HistoryRecord{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Mode:           domain.QuizMode(m.Mode),
		Subjects:       m.Subjects,
		TotalCount:     m.TotalCount,
		CorrectCount:   m.CorrectCount,
		WrongCount:     m.WrongCount,
		Score:          m.Score,
		ElapsedSeconds: m.ElapsedSeconds,
		Details:        details,
		SubjectStats:   stats,
		CreatedAt:      m.CreatedAt,
	}
}

func fromDomainRecord(r *domain.HistoryRecord) *models.QuizAttempt {
	if r == nil {
		return nil
	}
	details := make(models.JSONDetails, len(r.Details))
	for i, d := range r.Details {
		details[i] = models.AttemptDetail{
			QuestionID:   d.QuestionID,
			Prompt:       d.Prompt,
			Options:      d.Options,
			CorrectIndex: d.CorrectIndex,
			ChosenIndex:  d.ChosenIndex,
			Correct:      d.Correct,
			Explanation:  d.Explanation,
			Subject:      d.Subject,
		}
	}
	stats := make(models.JSONSubjectStats, len(r.SubjectStats))
	for subject, s := range r.SubjectStats {
		stats[subject] = models.SubjectStat{Correct: s.Correct, Total: s.Total}
	}
	return &models.QuizAttempt{
		ID:             r.ID,
		OwnerID:        r.OwnerID,
		Mode:           string(r.Mode),
		Subjects:       models.StringSlice(r.Subjects),
		TotalCount:     r.TotalCount,
		CorrectCount:   r.CorrectCount,
		WrongCount:     r.WrongCount,
		Score:          r.Score,
		ElapsedSeconds: r.ElapsedSeconds,
		Details:        details,
		SubjectStats:   stats,
		CreatedAt:      r.CreatedAt,
	}
}

// InsertRecord persists a finished attempt.
func (r *sqlxHistoryRepository) InsertRecord(ctx context.Context, record *domain.HistoryRecord) error {
	executor := GetExecutor(ctx, r.db)

	model := fromDomainRecord(record)
	if model.CreatedAt.IsZero() {
		model.CreatedAt = time.Now()
	}

	query := `INSERT INTO quiz_attempts (id, owner_id, mode, subjects, total_count, correct_count, wrong_count, score, elapsed_seconds, details, subject_stats, created_at)
	          VALUES (:id, :owner_id, :mode, :subjects, :total_count, :correct_count, :wrong_count, :score, :elapsed_seconds, :details, :subject_stats, :created_at)`

	if _, err := executor.NamedExecContext(ctx, query, model); err != nil {
		return fmt.Errorf("failed to insert quiz attempt: %w", err)
	}

	record.CreatedAt = model.CreatedAt
	return nil
}

// GetRecordByID retrieves one attempt by its ID. Returns (nil, nil) when no
// such attempt exists; ownership checks belong to the service layer.
func (r *sqlxHistoryRepository) GetRecordByID(ctx context.Context, id string) (*domain.HistoryRecord, error) {
	executor := GetExecutor(ctx, r.db)

	var model models.QuizAttempt
	query := `SELECT id, owner_id, mode, subjects, total_count, correct_count, wrong_count, score, elapsed_seconds, details, subject_stats, created_at
	          FROM quiz_attempts WHERE id = $1`

	if err := executor.GetContext(ctx, &model, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get quiz attempt by id: %w", err)
	}
	return toDomainRecord(&model), nil
}

// GetRecordsByOwner lists an owner's attempts, newest first.
func (r *sqlxHistoryRepository) GetRecordsByOwner(ctx context.Context, ownerID string) ([]domain.HistoryRecord, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.QuizAttempt
	query := `SELECT id, owner_id, mode, subjects, total_count, correct_count, wrong_count, score, elapsed_seconds, details, subject_stats, created_at
	          FROM quiz_attempts WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`

	if err := executor.SelectContext(ctx, &rows, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts: %w", err)
	}

	records := make([]domain.HistoryRecord, len(rows))
	for i := range rows {
		records[i] = *toDomainRecord(&rows[i])
	}
	return records, nil
}

// AggregateScores computes per-user score averages across all attempts,
// optionally restricted to attempts that included the given subject. Ties
// on the average break by ascending user ID so the ordering is total.
func (r *sqlxHistoryRepository) AggregateScores(ctx context.Context, subject string) ([]domain.LeaderboardEntry, error) {
	executor := GetExecutor(ctx, r.db)

	var rows []models.LeaderboardRow
	query := `SELECT owner_id, AVG(score) AS average_score, COUNT(*) AS quiz_count
	          FROM quiz_attempts
	          WHERE ($1 = '' OR subjects @> jsonb_build_array($1::text))
	          GROUP BY owner_id
	          ORDER BY average_score DESC, owner_id ASC`

	if err := executor.SelectContext(ctx, &rows, query, subject); err != nil {
		return nil, fmt.Errorf("failed to aggregate scores: %w", err)
	}

	entries := make([]domain.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = domain.LeaderboardEntry{
			UserID:       row.UserID,
			AverageScore: row.AverageScore,
			QuizCount:    row.QuizCount,
		}
	}
	return entries, nil
}
