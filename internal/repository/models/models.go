package models

import (
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringSlice stores a []string as a JSONB column.
type StringSlice []string

// Value implements the driver.Valuer interface.
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface.
func (s *StringSlice) Scan(value interface{}) error {
	bytesToParse, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("StringSlice Scan: %w", err)
	}
	if bytesToParse == nil {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(bytesToParse, s)
}

// JSONDetails stores the per-question breakdown of an attempt as JSONB.
// The element shape mirrors domain.QuestionDetail.
type JSONDetails []AttemptDetail

// AttemptDetail is one question's outcome inside an attempt row.
type AttemptDetail struct {
	QuestionID   string   `json:"question_id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	ChosenIndex  *int     `json:"chosen_index"`
	Correct      bool     `json:"correct"`
	Explanation  string   `json:"explanation,omitempty"`
	Subject      string   `json:"subject,omitempty"`
}

func (d JSONDetails) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

func (d *JSONDetails) Scan(value interface{}) error {
	bytesToParse, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("JSONDetails Scan: %w", err)
	}
	if bytesToParse == nil {
		*d = JSONDetails{}
		return nil
	}
	return json.Unmarshal(bytesToParse, d)
}

// JSONSubjectStats stores per-subject correct/total pairs as JSONB.
type JSONSubjectStats map[string]SubjectStat

// SubjectStat mirrors domain.SubjectStat.
type SubjectStat struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (m JSONSubjectStats) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	jsonData, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

func (m *JSONSubjectStats) Scan(value interface{}) error {
	bytesToParse, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("JSONSubjectStats Scan: %w", err)
	}
	if bytesToParse == nil {
		*m = JSONSubjectStats{}
		return nil
	}
	return json.Unmarshal(bytesToParse, m)
}

// jsonBytes normalizes a raw DB value into JSON bytes. A nil return with
// nil error means "treat as empty".
func jsonBytes(value interface{}) ([]byte, error) {
	if value == nil {
		return nil, nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	return b, nil
}

// Profile is a row in the profiles table.
type Profile struct {
	ID            string         `db:"id"` // ULID, shared with the identity
	GoogleID      sql.NullString `db:"google_id"`
	Email         sql.NullString `db:"email"`
	DisplayName   sql.NullString `db:"display_name"`
	IsPremium     bool           `db:"is_premium"`
	PremiumExpiry sql.NullTime   `db:"premium_expiry"`
	BillingRef    sql.NullString `db:"billing_ref"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
	DeletedAt     sql.NullTime   `db:"deleted_at"`
}

// QuizAttempt is a row in the quiz_attempts table, the durable record of a
// finished session.
type QuizAttempt struct {
	ID             string           `db:"id"` // ULID
	OwnerID        string           `db:"owner_id"`
	Mode           string           `db:"mode"`
	Subjects       StringSlice      `db:"subjects"`
	TotalCount     int              `db:"total_count"`
	CorrectCount   int              `db:"correct_count"`
	WrongCount     int              `db:"wrong_count"`
	Score          int              `db:"score"`
	ElapsedSeconds int              `db:"elapsed_seconds"`
	Details        JSONDetails      `db:"details"`
	SubjectStats   JSONSubjectStats `db:"subject_stats"`
	CreatedAt      time.Time        `db:"created_at"`
}

// QuestionReport is a row in the question_reports table.
type QuestionReport struct {
	ID         string         `db:"id"` // ULID
	ReporterID string         `db:"reporter_id"`
	QuestionID string         `db:"question_id"`
	Prompt     sql.NullString `db:"prompt"`
	Message    string         `db:"message"`
	CreatedAt  time.Time      `db:"created_at"`
}

// LeaderboardRow is one aggregated leaderboard row from quiz_attempts.
type LeaderboardRow struct {
	UserID       string  `db:"owner_id"`
	AverageScore float64 `db:"average_score"`
	QuizCount    int     `db:"quiz_count"`
}
