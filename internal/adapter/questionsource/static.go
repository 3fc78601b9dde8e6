package questionsource

import (
	"context"
	"fmt"

	"tusai/internal/domain"
)

// StaticSource serves questions from a deterministic built-in bank. It is
// the default source: no external dependency, and the same config always
// yields the same questions, which keeps local development reproducible.
type StaticSource struct{}

func NewStaticSource() *StaticSource {
	return &StaticSource{}
}

// promptTemplates cycle per subject so a 40-question quiz does not repeat
// one prompt verbatim.
var promptTemplates = []string{
	"Which of the following statements about %s is correct?",
	"A standard exam item on %s: which option is true?",
	"Regarding %s, which answer best matches current practice?",
	"Which option about %s is most accurate?",
}

// Generate returns exactly config.QuestionCount questions, spreading them
// round-robin over the configured subjects.
func (s *StaticSource) Generate(ctx context.Context, config domain.QuizConfig) ([]domain.Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(config.Subjects) == 0 {
		return nil, domain.NewInvalidInputError("at least one subject is required")
	}

	questions := make([]domain.Question, config.QuestionCount)
	for i := range questions {
		subject := config.Subjects[i%len(config.Subjects)]
		template := promptTemplates[i%len(promptTemplates)]
		questions[i] = domain.Question{
			ID:     fmt.Sprintf("static-%s-%d", subject, i),
			Prompt: fmt.Sprintf(template, subject),
			Options: []string{
				fmt.Sprintf("Statement A about %s", subject),
				fmt.Sprintf("Statement B about %s", subject),
				fmt.Sprintf("Statement C about %s", subject),
				fmt.Sprintf("Statement D about %s", subject),
			},
			CorrectIndex: i % 4,
			Explanation:  fmt.Sprintf("Option %c is correct; the others contradict the standard teaching on %s.", 'A'+rune(i%4), subject),
			Subject:      subject,
		}
	}
	return questions, nil
}
