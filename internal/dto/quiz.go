package dto

import "time"

// StartQuizRequest is the finalized wizard output posted to start a session.
// The server re-applies tier clamps to question_count and time_limit_minutes,
// a tampered request cannot exceed the caller's tier.
// @Description Request body for starting a quiz session
type StartQuizRequest struct {
	Subjects         []string `json:"subjects" validate:"required"`
	Mode             string   `json:"mode" validate:"required"`
	QuestionCount    int      `json:"question_count"`
	TimeLimitMinutes *int     `json:"time_limit_minutes,omitempty"`
}

// QuestionView is a question as shown to the taker. The correct index and
// explanation never leave the server while the session is live.
type QuestionView struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Subject string   `json:"subject,omitempty"`
}

// SessionResponse is the live session state after any mutation.
// @Description Current quiz session state
type SessionResponse struct {
	SessionID        string         `json:"session_id"`
	Mode             string         `json:"mode"`
	Subjects         []string       `json:"subjects"`
	QuestionCount    int            `json:"question_count"`
	CurrentIndex     int            `json:"current_index"`
	Question         QuestionView   `json:"question"`
	Answers          []*int         `json:"answers"` // null slot = unanswered
	StartedAt        time.Time      `json:"started_at"`
	Deadline         *time.Time     `json:"deadline,omitempty"`
	TimeLimitMinutes *int           `json:"time_limit_minutes,omitempty"`
}

// SelectAnswerRequest toggles an option on a question.
// @Description Request body for selecting (or clearing) an answer
type SelectAnswerRequest struct {
	QuestionIndex int `json:"question_index"`
	OptionIndex   int `json:"option_index"`
}

// NavigateRequest moves the session cursor. Direction is "next" or "prev";
// a non-nil GoTo jumps to an absolute index instead.
// @Description Request body for session navigation
type NavigateRequest struct {
	Direction string `json:"direction,omitempty"`
	GoTo      *int   `json:"go_to,omitempty"`
}

// QuestionDetailResponse is one question's outcome in a finished result.
type QuestionDetailResponse struct {
	QuestionID   string   `json:"question_id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	ChosenIndex  *int     `json:"chosen_index"`
	Correct      bool     `json:"correct"`
	Explanation  string   `json:"explanation,omitempty"`
	Subject      string   `json:"subject,omitempty"`
}

// SubjectStatResponse is the correct/total pair for one subject.
type SubjectStatResponse struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// ResultResponse is the finalized outcome of a session.
// @Description Quiz result with per-question and per-subject breakdown
type ResultResponse struct {
	RecordID       string                         `json:"record_id"`
	TotalCount     int                            `json:"total_count"`
	CorrectCount   int                            `json:"correct_count"`
	WrongCount     int                            `json:"wrong_count"`
	Score          int                            `json:"score"`
	Mode           string                         `json:"mode"`
	Subjects       []string                       `json:"subjects"`
	ElapsedSeconds int                            `json:"elapsed_seconds"`
	Details        []QuestionDetailResponse       `json:"details"`
	SubjectStats   map[string]SubjectStatResponse `json:"subject_stats"`
	FinishedAt     time.Time                      `json:"finished_at"`
}

// ReportQuestionRequest flags a broken question.
// @Description Request body for reporting a question
type ReportQuestionRequest struct {
	QuestionID string `json:"question_id" validate:"required"`
	Message    string `json:"message" validate:"required"`
}

// HistoryItemResponse is one row in a history listing.
type HistoryItemResponse struct {
	ID             string    `json:"id"`
	Mode           string    `json:"mode"`
	Subjects       []string  `json:"subjects"`
	TotalCount     int       `json:"total_count"`
	CorrectCount   int       `json:"correct_count"`
	Score          int       `json:"score"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	CreatedAt      time.Time `json:"created_at"`
}

// HistoryListResponse is an owner-scoped history listing, newest first.
// @Description List of past quiz attempts
type HistoryListResponse struct {
	Items []HistoryItemResponse `json:"items"`
	Total int                   `json:"total"`
}

// LeaderboardEntryResponse is one ranked user.
type LeaderboardEntryResponse struct {
	Rank         int     `json:"rank"`
	UserID       string  `json:"user_id"`
	DisplayName  string  `json:"display_name,omitempty"`
	AverageScore float64 `json:"average_score"`
	QuizCount    int     `json:"quiz_count"`
}

// LeaderboardResponse is the aggregate plus the caller's own position.
// Rank is omitted and Ranked is false when the caller has no matching
// attempts; clients must show "not ranked yet" rather than a made-up rank.
// @Description Leaderboard with the caller's rank
type LeaderboardResponse struct {
	Subject      string                     `json:"subject,omitempty"`
	Entries      []LeaderboardEntryResponse `json:"entries"`
	Rank         *int                       `json:"rank,omitempty"`
	AverageScore float64                    `json:"average_score"`
	Ranked       bool                       `json:"ranked"`
}

// SubjectsResponse is the canonical subject catalog.
// @Description Canonical subject list
type SubjectsResponse struct {
	Subjects []string `json:"subjects"`
}
