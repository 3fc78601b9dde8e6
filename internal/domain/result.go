package domain

import (
	"context"
	"math"
	"time"
)

// QuestionDetail is the per-question record inside a finished result.
type QuestionDetail struct {
	QuestionID   string  `json:"question_id"`
	Prompt       string  `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int     `json:"correct_index"`
	ChosenIndex  *int    `json:"chosen_index"` // nil = unanswered
	Correct      bool    `json:"correct"`
	Explanation  string  `json:"explanation,omitempty"`
	Subject      string  `json:"subject,omitempty"`
}

// SubjectStat is the correct/total pair for one subject tag.
type SubjectStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// QuizResult is the finalized, immutable outcome of a completed session.
// correct + wrong always equals total: an unanswered question counts as
// wrong.
type QuizResult struct {
	TotalCount     int
	CorrectCount   int
	WrongCount     int
	Score          int // integer percentage in [0,100]
	Mode           QuizMode
	Subjects       []string
	ElapsedSeconds int
	Details        []QuestionDetail
	SubjectStats   map[string]SubjectStat
	FinishedAt     time.Time
}

// scoreSession computes the result for a finished session. Unanswered slots
// score as wrong. An empty session scores 0 rather than dividing by zero.
func scoreSession(s *QuizSession) *QuizResult {
	now := time.Now()
	result := &QuizResult{
		TotalCount:     len(s.Questions),
		Mode:           s.Config.Mode,
		Subjects:       s.Config.Subjects,
		ElapsedSeconds: int(now.Sub(s.startedAt).Seconds()),
		Details:        make([]QuestionDetail, len(s.Questions)),
		SubjectStats:   make(map[string]SubjectStat),
		FinishedAt:     now,
	}

	for i, q := range s.Questions {
		chosen := s.answers[i]
		correct := chosen != nil && *chosen == q.CorrectIndex
		if correct {
			result.CorrectCount++
		}
		result.Details[i] = QuestionDetail{
			QuestionID:   q.ID,
			Prompt:       q.Prompt,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			ChosenIndex:  chosen,
			Correct:      correct,
			Explanation:  q.Explanation,
			Subject:      q.Subject,
		}
		if q.Subject != "" {
			stat := result.SubjectStats[q.Subject]
			stat.Total++
			if correct {
				stat.Correct++
			}
			result.SubjectStats[q.Subject] = stat
		}
	}

	result.WrongCount = result.TotalCount - result.CorrectCount
	result.Score = ScorePercentage(result.CorrectCount, result.TotalCount)
	return result
}

// ScorePercentage returns round(100*correct/total), or 0 for an empty total.
func ScorePercentage(correct, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(correct) / float64(total)))
}

// HistoryRecord is the persisted, owner-scoped form of a QuizResult.
type HistoryRecord struct {
	ID             string
	OwnerID        string
	Mode           QuizMode
	Subjects       []string
	TotalCount     int
	CorrectCount   int
	WrongCount     int
	Score          int
	ElapsedSeconds int
	Details        []QuestionDetail
	SubjectStats   map[string]SubjectStat
	CreatedAt      time.Time
}

// HistoryFilters narrows a history listing. Zero values mean "no filter".
type HistoryFilters struct {
	Subject string
	Mode    QuizMode
	Limit   int
}

// Matches applies the filters as a pure predicate over one record.
func (f HistoryFilters) Matches(r *HistoryRecord) bool {
	if f.Mode != "" && r.Mode != f.Mode {
		return false
	}
	if f.Subject != "" {
		found := false
		for _, s := range r.Subjects {
			if s == f.Subject {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// LeaderboardEntry is one user's aggregate standing.
type LeaderboardEntry struct {
	UserID       string  `json:"user_id"`
	AverageScore float64 `json:"average_score"`
	QuizCount    int     `json:"quiz_count"`
}

// LeaderboardView is the cross-user aggregate plus the requesting user's
// position. Rank is nil when the user has no matching records: callers must
// render an explicit "not ranked yet" state, never a fabricated rank.
type LeaderboardView struct {
	Subject      string             `json:"subject,omitempty"`
	Entries      []LeaderboardEntry `json:"entries"`
	Rank         *int               `json:"rank,omitempty"` // 1-based
	AverageScore float64            `json:"average_score"`
	Ranked       bool               `json:"ranked"`
}

// HistoryRepository defines the interface for history persistence. Reading
// across owners is a distinct operation from owner-scoped reads: the
// leaderboard aggregate needs broader authorization than listing.
type HistoryRepository interface {
	InsertRecord(ctx context.Context, record *HistoryRecord) error
	GetRecordByID(ctx context.Context, id string) (*HistoryRecord, error)
	GetRecordsByOwner(ctx context.Context, ownerID string) ([]HistoryRecord, error)
	AggregateScores(ctx context.Context, subject string) ([]LeaderboardEntry, error)
}

// QuestionReport is the fire-and-forget side channel for flagging a broken
// question. It never affects session state.
type QuestionReport struct {
	ID         string
	ReporterID string
	QuestionID string
	Prompt     string
	Message    string
	CreatedAt  time.Time
}

// ReportRepository defines the interface for question report persistence.
type ReportRepository interface {
	InsertReport(ctx context.Context, report *QuestionReport) error
}

// QuestionSource produces the question payload for a finalized config. It is
// an external boundary: implementations must return exactly
// config.QuestionCount items, and the session engine re-validates the shape
// regardless.
type QuestionSource interface {
	Generate(ctx context.Context, config QuizConfig) ([]Question, error)
}
