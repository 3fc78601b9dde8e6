package questionsource

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"tusai/internal/config"
	"tusai/internal/domain"
	"tusai/internal/logger"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"go.uber.org/zap"
)

// OllamaSource generates questions with a local Ollama model. The model is
// an untrusted boundary: its output is parsed defensively here and validated
// again by the session engine.
type OllamaSource struct {
	serverURL string
	model     string
	timeout   time.Duration
}

func NewOllamaSource(cfg config.OllamaConfig) *OllamaSource {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &OllamaSource{
		serverURL: cfg.ServerURL,
		model:     cfg.Model,
		timeout:   timeout,
	}
}

type generatedQuestion struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
	Subject      string   `json:"subject"`
}

// Generate asks the model for the full batch in one call and parses the JSON
// array out of the response.
func (s *OllamaSource) Generate(ctx context.Context, config domain.QuizConfig) ([]domain.Question, error) {
	appLogger := logger.Get()

	prompt := fmt.Sprintf(`You are a medical exam question writer. Generate exactly %d multiple-choice questions for the subjects: %s.
Respond with ONLY a JSON array in the following format:
[
    {
        "prompt": "question text",
        "options": ["option 1", "option 2", "option 3", "option 4"],
        "correct_index": 0,
        "explanation": "why the correct option is correct",
        "subject": "one of the requested subjects"
    }
]

Rules:
1. Every question has exactly 4 options
2. correct_index is the 0-based index of the correct option
3. subject must be one of: %s
4. Questions must be at the difficulty of a national medical licensing exam`,
		config.QuestionCount,
		strings.Join(config.Subjects, ", "),
		strings.Join(config.Subjects, ", "))

	raw, err := s.callLLM(ctx, prompt)
	if err != nil {
		return nil, domain.NewUpstreamError("question generation failed", err)
	}

	cleaned := strings.TrimSpace(raw)

	// strip a <think>...</think> block if the model emits one
	if thinkStart := strings.Index(cleaned, "<think>"); thinkStart != -1 {
		if thinkEnd := strings.Index(cleaned, "</think>"); thinkEnd != -1 && thinkEnd > thinkStart {
			cleaned = strings.TrimSpace(cleaned[:thinkStart] + cleaned[thinkEnd+len("</think>"):])
		}
	}

	jsonStart := strings.Index(cleaned, "[")
	jsonEnd := strings.LastIndex(cleaned, "]")
	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		appLogger.Error("No JSON array found in model response", zap.String("response", cleaned))
		return nil, domain.NewUpstreamError("no JSON array in model response", nil)
	}

	var generated []generatedQuestion
	if err := json.Unmarshal([]byte(cleaned[jsonStart:jsonEnd+1]), &generated); err != nil {
		appLogger.Error("Failed to unmarshal generated questions", zap.Error(err))
		return nil, domain.NewUpstreamError("failed to parse generated questions", err)
	}
	if len(generated) != config.QuestionCount {
		return nil, domain.NewConfigMismatchError(config.QuestionCount, len(generated))
	}

	questions := make([]domain.Question, len(generated))
	for i, g := range generated {
		questions[i] = domain.Question{
			ID:           fmt.Sprintf("ollama-%d-%d", time.Now().UnixNano(), i),
			Prompt:       g.Prompt,
			Options:      g.Options,
			CorrectIndex: g.CorrectIndex,
			Explanation:  g.Explanation,
			Subject:      g.Subject,
		}
		if err := questions[i].Validate(); err != nil {
			return nil, domain.NewUpstreamError("model produced a malformed question", err)
		}
	}
	return questions, nil
}

func (s *OllamaSource) callLLM(ctx context.Context, prompt string) (string, error) {
	httpClient := &http.Client{
		Timeout: s.timeout,
		Transport: &http.Transport{
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     10 * time.Second,
		},
	}

	llm, err := ollama.New(
		ollama.WithServerURL(s.serverURL),
		ollama.WithModel(s.model),
		ollama.WithHTTPClient(httpClient),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create LLM client: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	response, err := llm.Call(callCtx, prompt, llms.WithTemperature(0.3))
	if err != nil {
		if err == context.DeadlineExceeded {
			return "", fmt.Errorf("LLM request timed out: %w", err)
		}
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	return response, nil
}
