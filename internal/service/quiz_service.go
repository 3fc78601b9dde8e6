package service

import (
	"context"
	"fmt"

	"tusai/internal/domain"
	"tusai/internal/dto"
	"tusai/internal/logger"
	"tusai/internal/session"
	"tusai/internal/util"

	"go.uber.org/zap"
)

// QuizService drives the session lifecycle: start, answer, navigate, finish,
// report. All operations are owner-scoped through the session store.
type QuizService interface {
	StartQuiz(ctx context.Context, profile *domain.Profile, req dto.StartQuizRequest) (*dto.SessionResponse, error)
	SelectAnswer(ctx context.Context, userID, sessionID string, req dto.SelectAnswerRequest) (*dto.SessionResponse, error)
	Navigate(ctx context.Context, userID, sessionID string, req dto.NavigateRequest) (*dto.SessionResponse, error)
	GetSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error)
	FinishQuiz(ctx context.Context, profile *domain.Profile, sessionID string) (*dto.ResultResponse, error)
	SubmitReport(ctx context.Context, userID, sessionID string, req dto.ReportQuestionRequest) error
}

type quizServiceImpl struct {
	store       *session.Store
	source      domain.QuestionSource
	historyRepo domain.HistoryRepository
	reportRepo  domain.ReportRepository
}

func NewQuizService(store *session.Store, source domain.QuestionSource, historyRepo domain.HistoryRepository, reportRepo domain.ReportRepository) QuizService {
	return &quizServiceImpl{
		store:       store,
		source:      source,
		historyRepo: historyRepo,
		reportRepo:  reportRepo,
	}
}

// StartQuiz runs the request through the wizard state machine and re-applies
// the tier clamps server-side. A tampered request can never exceed the
// caller's tier: the clamps run here regardless of what the client finalized.
func (s *quizServiceImpl) StartQuiz(ctx context.Context, profile *domain.Profile, req dto.StartQuizRequest) (*dto.SessionResponse, error) {
	mode, ok := domain.ParseQuizMode(req.Mode)
	if !ok {
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown quiz mode %q", req.Mode))
	}
	for _, subject := range req.Subjects {
		if !domain.IsKnownSubject(subject) {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown subject %q", subject))
		}
	}

	wizard := domain.NewWizard()
	wizard.SelectSubjects(req.Subjects)
	wizard.SelectMode(mode)
	if err := wizard.Advance(); err != nil {
		return nil, err
	}

	isPremium := domain.AllowsCapability(profile, domain.CapabilityPremium)
	config := wizard.Finalize(req.QuestionCount, req.TimeLimitMinutes, isPremium)

	questions, err := s.source.Generate(ctx, config)
	if err != nil {
		return nil, domain.NewUpstreamError("question source failed", err)
	}

	sess, err := domain.NewQuizSession(util.NewULID(), profile.ID, config, questions)
	if err != nil {
		return nil, err
	}
	s.store.Put(sess)

	logger.Get().Info("Quiz session started",
		zap.String("sessionID", sess.ID),
		zap.String("userID", profile.ID),
		zap.String("mode", string(config.Mode)),
		zap.Int("questionCount", config.QuestionCount))

	return toSessionResponse(sess), nil
}

func (s *quizServiceImpl) SelectAnswer(ctx context.Context, userID, sessionID string, req dto.SelectAnswerRequest) (*dto.SessionResponse, error) {
	sess, err := s.store.Get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	if err := sess.Select(req.QuestionIndex, req.OptionIndex); err != nil {
		return nil, err
	}
	return toSessionResponse(sess), nil
}

func (s *quizServiceImpl) Navigate(ctx context.Context, userID, sessionID string, req dto.NavigateRequest) (*dto.SessionResponse, error) {
	sess, err := s.store.Get(sessionID, userID)
	if err != nil {
		return nil, err
	}

	if req.GoTo != nil {
		if err := sess.GoTo(*req.GoTo); err != nil {
			return nil, err
		}
		return toSessionResponse(sess), nil
	}

	var direction domain.NavigationDirection
	switch req.Direction {
	case "next":
		direction = domain.NavigateNext
	case "prev":
		direction = domain.NavigatePrev
	default:
		return nil, domain.NewInvalidInputError(fmt.Sprintf("unknown navigation direction %q", req.Direction))
	}
	if err := sess.Navigate(direction); err != nil {
		return nil, err
	}
	return toSessionResponse(sess), nil
}

func (s *quizServiceImpl) GetSession(ctx context.Context, userID, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.store.Get(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return toSessionResponse(sess), nil
}

// FinishQuiz finalizes the session and persists the durable record. The
// session is frozen only after the record is durable: a failed insert leaves
// it open, so the caller can retry the finish instead of losing the attempt.
func (s *quizServiceImpl) FinishQuiz(ctx context.Context, profile *domain.Profile, sessionID string) (*dto.ResultResponse, error) {
	sess, err := s.store.Get(sessionID, profile.ID)
	if err != nil {
		return nil, err
	}

	result, err := sess.Result()
	if err != nil {
		return nil, err
	}

	record := &domain.HistoryRecord{
		ID:             util.NewULID(),
		OwnerID:        profile.ID,
		Mode:           result.Mode,
		Subjects:       result.Subjects,
		TotalCount:     result.TotalCount,
		CorrectCount:   result.CorrectCount,
		WrongCount:     result.WrongCount,
		Score:          result.Score,
		ElapsedSeconds: result.ElapsedSeconds,
		Details:        result.Details,
		SubjectStats:   result.SubjectStats,
		CreatedAt:      result.FinishedAt,
	}
	if err := s.historyRepo.InsertRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to persist quiz attempt: %w", err)
	}
	sess.MarkFinished()
	// The finished session stays in the store so a repeated finish surfaces
	// SESSION_FINISHED instead of a spurious not-found.

	logger.Get().Info("Quiz session finished",
		zap.String("sessionID", sessionID),
		zap.String("userID", profile.ID),
		zap.Int("score", result.Score))

	isPremium := domain.AllowsCapability(profile, domain.CapabilityPremium)
	return ToResultResponse(record, isPremium), nil
}

// SubmitReport persists a question report. It is a side channel: it never
// touches session state, and the session keeps running after a report.
func (s *quizServiceImpl) SubmitReport(ctx context.Context, userID, sessionID string, req dto.ReportQuestionRequest) error {
	sess, err := s.store.Get(sessionID, userID)
	if err != nil {
		return err
	}

	var prompt string
	for i := range sess.Questions {
		if sess.Questions[i].ID == req.QuestionID {
			prompt = sess.Questions[i].Prompt
			break
		}
	}
	if prompt == "" {
		return domain.NewNotFoundError(fmt.Sprintf("question %s not in session", req.QuestionID))
	}

	report := &domain.QuestionReport{
		ID:         util.NewULID(),
		ReporterID: userID,
		QuestionID: req.QuestionID,
		Prompt:     prompt,
		Message:    req.Message,
	}
	if err := s.reportRepo.InsertReport(ctx, report); err != nil {
		return fmt.Errorf("failed to persist question report: %w", err)
	}

	logger.Get().Info("Question reported",
		zap.String("questionID", req.QuestionID),
		zap.String("userID", userID))
	return nil
}

func toSessionResponse(sess *domain.QuizSession) *dto.SessionResponse {
	current := sess.Current()
	question := sess.Questions[current]

	answers := make([]*int, len(sess.Questions))
	for i := range sess.Questions {
		if chosen, err := sess.Answer(i); err == nil && chosen != nil {
			v := *chosen
			answers[i] = &v
		}
	}

	return &dto.SessionResponse{
		SessionID:     sess.ID,
		Mode:          string(sess.Config.Mode),
		Subjects:      sess.Config.Subjects,
		QuestionCount: sess.Config.QuestionCount,
		CurrentIndex:  current,
		Question: dto.QuestionView{
			ID:      question.ID,
			Prompt:  question.Prompt,
			Options: question.Options,
			Subject: question.Subject,
		},
		Answers:          answers,
		StartedAt:        sess.StartedAt(),
		Deadline:         sess.Deadline(),
		TimeLimitMinutes: sess.Config.TimeLimitMinutes,
	}
}

// ToResultResponse maps a record to the API shape, applying the explanation
// gate: premium sees every explanation, the free tier only the first wrong
// answer's.
func ToResultResponse(record *domain.HistoryRecord, isPremium bool) *dto.ResultResponse {
	firstWrong := -1
	for i, d := range record.Details {
		if !d.Correct {
			firstWrong = i
			break
		}
	}

	details := make([]dto.QuestionDetailResponse, len(record.Details))
	for i, d := range record.Details {
		explanation := d.Explanation
		if !isPremium && i != firstWrong {
			explanation = ""
		}
		details[i] = dto.QuestionDetailResponse{
			QuestionID:   d.QuestionID,
			Prompt:       d.Prompt,
			Options:      d.Options,
			CorrectIndex: d.CorrectIndex,
			ChosenIndex:  d.ChosenIndex,
			Correct:      d.Correct,
			Explanation:  explanation,
			Subject:      d.Subject,
		}
	}

	stats := make(map[string]dto.SubjectStatResponse, len(record.SubjectStats))
	for subject, stat := range record.SubjectStats {
		stats[subject] = dto.SubjectStatResponse{Correct: stat.Correct, Total: stat.Total}
	}

	return &dto.ResultResponse{
		RecordID:       record.ID,
		TotalCount:     record.TotalCount,
		CorrectCount:   record.CorrectCount,
		WrongCount:     record.WrongCount,
		Score:          record.Score,
		Mode:           string(record.Mode),
		Subjects:       record.Subjects,
		ElapsedSeconds: record.ElapsedSeconds,
		Details:        details,
		SubjectStats:   stats,
		FinishedAt:     record.CreatedAt,
	}
}
