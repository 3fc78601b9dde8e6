package domain

import (
	"fmt"
	"time"
)

// Question is a single multiple-choice question as delivered by a question
// source. Subject may be empty for untagged questions.
type Question struct {
	ID           string
	Prompt       string
	Options      []string
	CorrectIndex int
	Explanation  string
	Subject      string
}

// Validate checks the question's shape. Question payloads cross an external
// boundary (the AI/question source) and are not trusted.
func (q *Question) Validate() error {
	if q.Prompt == "" {
		return NewInvalidInputError("question prompt is required")
	}
	if len(q.Options) < 2 {
		return NewInvalidInputError(fmt.Sprintf("question %q needs at least 2 options, got %d", q.ID, len(q.Options)))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return NewInvalidInputError(fmt.Sprintf("question %q correct index %d out of range [0,%d)", q.ID, q.CorrectIndex, len(q.Options)))
	}
	return nil
}

// NavigationDirection describes a session navigation request.
type NavigationDirection int

const (
	NavigateNext NavigationDirection = iota
	NavigatePrev
)

// QuizSession is an in-progress, in-memory quiz attempt. It is scoped to a
// single user interaction: two concurrent editors of the same session race
// silently, and an in-progress session is lost if the process restarts.
type QuizSession struct {
	ID        string
	OwnerID   string
	Config    QuizConfig
	Questions []Question

	current   int
	answers   []*int // nil slot = unanswered
	startedAt time.Time
	deadline  *time.Time
	finished  bool
}

// NewQuizSession validates the question payload against the config and
// creates a session with all answer slots unanswered and the cursor at 0.
func NewQuizSession(id, ownerID string, config QuizConfig, questions []Question) (*QuizSession, error) {
	if len(questions) != config.QuestionCount {
		return nil, NewConfigMismatchError(config.QuestionCount, len(questions))
	}
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	s := &QuizSession{
		ID:        id,
		OwnerID:   ownerID,
		Config:    config,
		Questions: questions,
		answers:   make([]*int, len(questions)),
		startedAt: now,
	}
	if config.TimeLimitMinutes != nil {
		d := now.Add(time.Duration(*config.TimeLimitMinutes) * time.Minute)
		s.deadline = &d
	}
	return s, nil
}

// Current returns the 0-based index of the question the session points at.
func (s *QuizSession) Current() int {
	return s.current
}

// StartedAt returns the session start timestamp.
func (s *QuizSession) StartedAt() time.Time {
	return s.startedAt
}

// Deadline returns the optional countdown deadline. The deadline is advisory:
// it does not cancel or auto-submit the session when it passes.
func (s *QuizSession) Deadline() *time.Time {
	return s.deadline
}

// Finished reports whether Finish has been called.
func (s *QuizSession) Finished() bool {
	return s.finished
}

// Answer returns the selected option index for question i, or nil if
// unanswered.
func (s *QuizSession) Answer(i int) (*int, error) {
	if i < 0 || i >= len(s.Questions) {
		return nil, NewIndexOutOfRangeError("question", i, len(s.Questions))
	}
	return s.answers[i], nil
}

// Select records an answer with toggle semantics: selecting the option a slot
// already holds clears the slot back to unanswered.
func (s *QuizSession) Select(index, optionIndex int) error {
	if s.finished {
		return NewSessionFinishedError(s.ID)
	}
	if index < 0 || index >= len(s.Questions) {
		return NewIndexOutOfRangeError("question", index, len(s.Questions))
	}
	if optionIndex < 0 || optionIndex >= len(s.Questions[index].Options) {
		return NewIndexOutOfRangeError("option", optionIndex, len(s.Questions[index].Options))
	}
	if s.answers[index] != nil && *s.answers[index] == optionIndex {
		s.answers[index] = nil
		return nil
	}
	v := optionIndex
	s.answers[index] = &v
	return nil
}

// Navigate moves the cursor one step, clamped at the edges (no wraparound).
func (s *QuizSession) Navigate(direction NavigationDirection) error {
	if s.finished {
		return NewSessionFinishedError(s.ID)
	}
	switch direction {
	case NavigateNext:
		if s.current < len(s.Questions)-1 {
			s.current++
		}
	case NavigatePrev:
		if s.current > 0 {
			s.current--
		}
	}
	return nil
}

// GoTo moves the cursor to an absolute index. An out-of-range index fails
// and leaves the cursor unchanged.
func (s *QuizSession) GoTo(index int) error {
	if s.finished {
		return NewSessionFinishedError(s.ID)
	}
	if index < 0 || index >= len(s.Questions) {
		return NewIndexOutOfRangeError("question", index, len(s.Questions))
	}
	s.current = index
	return nil
}

// Result scores the current answer state without freezing the session. It
// fails once the session is finished. Callers that tie the freeze to a
// durable write use Result followed by MarkFinished instead of Finish, so a
// failed write leaves the session open for an explicit retry.
func (s *QuizSession) Result() (*QuizResult, error) {
	if s.finished {
		return nil, NewSessionFinishedError(s.ID)
	}
	return scoreSession(s), nil
}

// MarkFinished freezes the session. Every mutation and any further finish
// fails with SESSION_FINISHED afterwards.
func (s *QuizSession) MarkFinished() {
	s.finished = true
}

// Finish freezes the answer state and produces the scored result. It is
// single-use: a second call fails rather than double-submitting.
func (s *QuizSession) Finish() (*QuizResult, error) {
	result, err := s.Result()
	if err != nil {
		return nil, err
	}
	s.MarkFinished()
	return result, nil
}
