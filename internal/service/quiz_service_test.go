package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"tusai/internal/domain"
	"tusai/internal/dto"
	"tusai/internal/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func questionBank(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			ID:           fmt.Sprintf("q-%d", i),
			Prompt:       fmt.Sprintf("prompt %d", i),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: i % 4,
			Explanation:  fmt.Sprintf("explanation %d", i),
			Subject:      "anatomy",
		}
	}
	return questions
}

func freeProfile() *domain.Profile {
	return &domain.Profile{ID: "user-1"}
}

func premiumProfile() *domain.Profile {
	return &domain.Profile{ID: "user-1", IsPremium: true}
}

func newQuizServiceForTest(t *testing.T) (QuizService, *session.Store, *MockQuestionSource, *MockHistoryRepository, *MockReportRepository) {
	t.Helper()
	store := session.NewStore()
	source := new(MockQuestionSource)
	historyRepo := new(MockHistoryRepository)
	reportRepo := new(MockReportRepository)
	svc := NewQuizService(store, source, historyRepo, reportRepo)
	return svc, store, source, historyRepo, reportRepo
}

func TestQuizService_StartQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("NonPremiumClampsConfig", func(t *testing.T) {
		svc, store, source, _, _ := newQuizServiceForTest(t)

		limit := 60
		source.On("Generate", ctx, mock.MatchedBy(func(c domain.QuizConfig) bool {
			return c.QuestionCount == domain.FreeQuestionCap && c.TimeLimitMinutes == nil
		})).Return(questionBank(domain.FreeQuestionCap), nil).Once()

		resp, err := svc.StartQuiz(ctx, freeProfile(), dto.StartQuizRequest{
			Subjects:         []string{"anatomy"},
			Mode:             "mixed",
			QuestionCount:    40,
			TimeLimitMinutes: &limit,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.FreeQuestionCap, resp.QuestionCount)
		assert.Nil(t, resp.TimeLimitMinutes)
		assert.Nil(t, resp.Deadline)
		assert.Equal(t, 0, resp.CurrentIndex)
		assert.Equal(t, 1, store.Len())
		source.AssertExpectations(t)
	})

	t.Run("PremiumKeepsCountAndLimit", func(t *testing.T) {
		svc, _, source, _, _ := newQuizServiceForTest(t)

		limit := 60
		source.On("Generate", ctx, mock.MatchedBy(func(c domain.QuizConfig) bool {
			return c.QuestionCount == 40 && c.TimeLimitMinutes != nil && *c.TimeLimitMinutes == 60
		})).Return(questionBank(40), nil).Once()

		resp, err := svc.StartQuiz(ctx, premiumProfile(), dto.StartQuizRequest{
			Subjects:         []string{"anatomy"},
			Mode:             "mixed",
			QuestionCount:    40,
			TimeLimitMinutes: &limit,
		})
		require.NoError(t, err)
		assert.Equal(t, 40, resp.QuestionCount)
		require.NotNil(t, resp.Deadline)
	})

	t.Run("UnknownMode", func(t *testing.T) {
		svc, _, _, _, _ := newQuizServiceForTest(t)
		_, err := svc.StartQuiz(ctx, freeProfile(), dto.StartQuizRequest{
			Subjects: []string{"anatomy"},
			Mode:     "speedrun",
		})
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeInvalidInput, domainErr.Code)
	})

	t.Run("UnknownSubject", func(t *testing.T) {
		svc, _, _, _, _ := newQuizServiceForTest(t)
		_, err := svc.StartQuiz(ctx, freeProfile(), dto.StartQuizRequest{
			Subjects: []string{"astrology"},
			Mode:     "mixed",
		})
		assert.Error(t, err)
	})

	t.Run("EmptySubjects", func(t *testing.T) {
		svc, _, _, _, _ := newQuizServiceForTest(t)
		_, err := svc.StartQuiz(ctx, freeProfile(), dto.StartQuizRequest{
			Subjects: []string{},
			Mode:     "mixed",
		})
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeEmptySelection, domainErr.Code)
	})

	t.Run("WeakSubjectsModeOverridesSubjects", func(t *testing.T) {
		svc, _, source, _, _ := newQuizServiceForTest(t)

		source.On("Generate", ctx, mock.MatchedBy(func(c domain.QuizConfig) bool {
			return len(c.Subjects) == domain.WeakSubjectCount
		})).Return(questionBank(domain.FreeQuestionCap), nil).Once()

		resp, err := svc.StartQuiz(ctx, freeProfile(), dto.StartQuizRequest{
			Subjects: []string{"obstetrics-gynecology"},
			Mode:     "weak-subjects",
		})
		require.NoError(t, err)
		assert.Equal(t, domain.WeakSubjects(), resp.Subjects)
	})

	t.Run("SourceFailure", func(t *testing.T) {
		svc, _, source, _, _ := newQuizServiceForTest(t)
		source.On("Generate", ctx, mock.Anything).Return(nil, fmt.Errorf("model offline")).Once()

		_, err := svc.StartQuiz(ctx, freeProfile(), dto.StartQuizRequest{
			Subjects: []string{"anatomy"},
			Mode:     "mixed",
		})
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeUpstream, domainErr.Code)
	})

	t.Run("MalformedQuestionPayloadRejected", func(t *testing.T) {
		svc, store, source, _, _ := newQuizServiceForTest(t)
		bad := questionBank(domain.FreeQuestionCap)
		bad[3].CorrectIndex = 99
		source.On("Generate", ctx, mock.Anything).Return(bad, nil).Once()

		_, err := svc.StartQuiz(ctx, freeProfile(), dto.StartQuizRequest{
			Subjects: []string{"anatomy"},
			Mode:     "mixed",
		})
		assert.Error(t, err)
		assert.Equal(t, 0, store.Len())
	})
}

func startSession(t *testing.T, svc QuizService, source *MockQuestionSource, profile *domain.Profile) string {
	t.Helper()
	ctx := context.Background()
	source.On("Generate", ctx, mock.Anything).Return(questionBank(domain.FreeQuestionCap), nil).Once()
	resp, err := svc.StartQuiz(ctx, profile, dto.StartQuizRequest{
		Subjects: []string{"anatomy"},
		Mode:     "mixed",
	})
	require.NoError(t, err)
	return resp.SessionID
}

func TestQuizService_SelectAnswer(t *testing.T) {
	ctx := context.Background()
	svc, _, source, _, _ := newQuizServiceForTest(t)
	sessionID := startSession(t, svc, source, freeProfile())

	resp, err := svc.SelectAnswer(ctx, "user-1", sessionID, dto.SelectAnswerRequest{QuestionIndex: 2, OptionIndex: 1})
	require.NoError(t, err)
	require.NotNil(t, resp.Answers[2])
	assert.Equal(t, 1, *resp.Answers[2])

	// same option again toggles the slot back to unanswered
	resp, err = svc.SelectAnswer(ctx, "user-1", sessionID, dto.SelectAnswerRequest{QuestionIndex: 2, OptionIndex: 1})
	require.NoError(t, err)
	assert.Nil(t, resp.Answers[2])

	_, err = svc.SelectAnswer(ctx, "user-1", sessionID, dto.SelectAnswerRequest{QuestionIndex: 99, OptionIndex: 0})
	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeIndexOutOfRange, domainErr.Code)

	_, err = svc.SelectAnswer(ctx, "someone-else", sessionID, dto.SelectAnswerRequest{QuestionIndex: 0, OptionIndex: 0})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.CodeSessionNotFound, domainErr.Code)
}

func TestQuizService_Navigate(t *testing.T) {
	ctx := context.Background()
	svc, _, source, _, _ := newQuizServiceForTest(t)
	sessionID := startSession(t, svc, source, freeProfile())

	resp, err := svc.Navigate(ctx, "user-1", sessionID, dto.NavigateRequest{Direction: "next"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.CurrentIndex)

	// prev below zero clamps
	resp, err = svc.Navigate(ctx, "user-1", sessionID, dto.NavigateRequest{Direction: "prev"})
	require.NoError(t, err)
	resp, err = svc.Navigate(ctx, "user-1", sessionID, dto.NavigateRequest{Direction: "prev"})
	require.NoError(t, err)
	assert.Equal(t, 0, resp.CurrentIndex)

	goTo := 7
	resp, err = svc.Navigate(ctx, "user-1", sessionID, dto.NavigateRequest{GoTo: &goTo})
	require.NoError(t, err)
	assert.Equal(t, 7, resp.CurrentIndex)

	// out-of-range jump leaves the cursor where it was
	badGoTo := 42
	_, err = svc.Navigate(ctx, "user-1", sessionID, dto.NavigateRequest{GoTo: &badGoTo})
	assert.Error(t, err)
	state, err := svc.GetSession(ctx, "user-1", sessionID)
	require.NoError(t, err)
	assert.Equal(t, 7, state.CurrentIndex)

	_, err = svc.Navigate(ctx, "user-1", sessionID, dto.NavigateRequest{Direction: "sideways"})
	assert.Error(t, err)
}

func TestQuizService_FinishQuiz(t *testing.T) {
	ctx := context.Background()

	t.Run("ScoresAndPersists", func(t *testing.T) {
		svc, _, source, historyRepo, _ := newQuizServiceForTest(t)
		sessionID := startSession(t, svc, source, freeProfile())

		// answer 7 of 10 correctly; bank's correct index is i%4
		for i := 0; i < 7; i++ {
			_, err := svc.SelectAnswer(ctx, "user-1", sessionID, dto.SelectAnswerRequest{QuestionIndex: i, OptionIndex: i % 4})
			require.NoError(t, err)
		}

		historyRepo.On("InsertRecord", ctx, mock.MatchedBy(func(r *domain.HistoryRecord) bool {
			return r.OwnerID == "user-1" && r.Score == 70 && r.CorrectCount == 7 && r.WrongCount == 3
		})).Return(nil).Once()

		result, err := svc.FinishQuiz(ctx, freeProfile(), sessionID)
		require.NoError(t, err)
		assert.Equal(t, 70, result.Score)
		assert.Equal(t, 10, result.TotalCount)
		assert.Equal(t, result.TotalCount, result.CorrectCount+result.WrongCount)
		assert.Equal(t, dto.SubjectStatResponse{Correct: 7, Total: 10}, result.SubjectStats["anatomy"])
		historyRepo.AssertExpectations(t)
	})

	t.Run("SecondFinishRejected", func(t *testing.T) {
		svc, _, source, historyRepo, _ := newQuizServiceForTest(t)
		sessionID := startSession(t, svc, source, freeProfile())
		historyRepo.On("InsertRecord", ctx, mock.Anything).Return(nil).Once()

		_, err := svc.FinishQuiz(ctx, freeProfile(), sessionID)
		require.NoError(t, err)

		_, err = svc.FinishQuiz(ctx, freeProfile(), sessionID)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeSessionFinished, domainErr.Code)
	})

	t.Run("RetryAfterPersistFailureSucceeds", func(t *testing.T) {
		svc, _, source, historyRepo, _ := newQuizServiceForTest(t)
		sessionID := startSession(t, svc, source, freeProfile())
		for i := 0; i < 7; i++ {
			_, err := svc.SelectAnswer(ctx, "user-1", sessionID, dto.SelectAnswerRequest{QuestionIndex: i, OptionIndex: i % 4})
			require.NoError(t, err)
		}

		historyRepo.On("InsertRecord", ctx, mock.Anything).Return(errors.New("db down")).Once()
		_, err := svc.FinishQuiz(ctx, freeProfile(), sessionID)
		require.Error(t, err)

		// a failed write must not freeze the session: the attempt is still
		// there and a retried finish persists it with the same answers
		historyRepo.On("InsertRecord", ctx, mock.MatchedBy(func(r *domain.HistoryRecord) bool {
			return r.Score == 70 && r.CorrectCount == 7
		})).Return(nil).Once()
		result, err := svc.FinishQuiz(ctx, freeProfile(), sessionID)
		require.NoError(t, err)
		assert.Equal(t, 70, result.Score)

		// only the successful finish freezes the session
		_, err = svc.FinishQuiz(ctx, freeProfile(), sessionID)
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeSessionFinished, domainErr.Code)
		historyRepo.AssertExpectations(t)
	})

	t.Run("FreeTierSeesOnlyFirstWrongExplanation", func(t *testing.T) {
		svc, _, source, historyRepo, _ := newQuizServiceForTest(t)
		sessionID := startSession(t, svc, source, freeProfile())
		historyRepo.On("InsertRecord", ctx, mock.Anything).Return(nil).Once()

		// answer question 0 correctly, leave the rest wrong
		_, err := svc.SelectAnswer(ctx, "user-1", sessionID, dto.SelectAnswerRequest{QuestionIndex: 0, OptionIndex: 0})
		require.NoError(t, err)

		result, err := svc.FinishQuiz(ctx, freeProfile(), sessionID)
		require.NoError(t, err)

		assert.Empty(t, result.Details[0].Explanation) // correct answer
		assert.NotEmpty(t, result.Details[1].Explanation)
		for _, d := range result.Details[2:] {
			assert.Empty(t, d.Explanation)
		}
	})

	t.Run("PremiumSeesAllExplanations", func(t *testing.T) {
		svc, _, source, historyRepo, _ := newQuizServiceForTest(t)
		sessionID := startSession(t, svc, source, premiumProfile())
		historyRepo.On("InsertRecord", ctx, mock.Anything).Return(nil).Once()

		result, err := svc.FinishQuiz(ctx, premiumProfile(), sessionID)
		require.NoError(t, err)
		for _, d := range result.Details {
			assert.NotEmpty(t, d.Explanation)
		}
	})
}

func TestQuizService_SubmitReport(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, _, source, _, reportRepo := newQuizServiceForTest(t)
		sessionID := startSession(t, svc, source, freeProfile())

		reportRepo.On("InsertReport", ctx, mock.MatchedBy(func(r *domain.QuestionReport) bool {
			return r.QuestionID == "q-3" && r.ReporterID == "user-1" && r.Prompt == "prompt 3"
		})).Return(nil).Once()

		err := svc.SubmitReport(ctx, "user-1", sessionID, dto.ReportQuestionRequest{QuestionID: "q-3", Message: "two correct options"})
		require.NoError(t, err)
		reportRepo.AssertExpectations(t)

		// reporting never touches session state
		state, err := svc.GetSession(ctx, "user-1", sessionID)
		require.NoError(t, err)
		assert.Equal(t, 0, state.CurrentIndex)
	})

	t.Run("UnknownQuestion", func(t *testing.T) {
		svc, _, source, _, _ := newQuizServiceForTest(t)
		sessionID := startSession(t, svc, source, freeProfile())

		err := svc.SubmitReport(ctx, "user-1", sessionID, dto.ReportQuestionRequest{QuestionID: "nope", Message: "x"})
		var domainErr *domain.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, domain.CodeNotFound, domainErr.Code)
	})
}
