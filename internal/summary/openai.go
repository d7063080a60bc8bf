package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const (
	defaultModel  = openai.GPT3Dot5Turbo
	defaultPrompt = "\n\nSummarize the news article above in two sentences."
	maxInputRunes = 4000
)

var errNoChoices = errors.New("openai returned no choices")

// OpenAISummarizer shortens article text for notification bodies.
// With an empty API key it is disabled and returns empty summaries.
type OpenAISummarizer struct {
	client  *openai.Client
	prompt  string
	model   string
	enabled bool
}

func NewOpenAISummarizer(apiKey, prompt string, log *zap.SugaredLogger) *OpenAISummarizer {
	if prompt == "" {
		prompt = defaultPrompt
	}

	s := &OpenAISummarizer{
		client:  openai.NewClient(apiKey),
		prompt:  prompt,
		model:   defaultModel,
		enabled: apiKey != "",
	}

	if log != nil {
		log.Infow("openai summarizer configured", "enabled", s.enabled)
	}

	return s
}

func (s *OpenAISummarizer) Enabled() bool {
	return s.enabled
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, text string) (string, error) {
	if !s.enabled || strings.TrimSpace(text) == "" {
		return "", nil
	}

	request := openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: truncateRunes(text, maxInputRunes) + s.prompt,
			},
		},
		MaxTokens:   256,
		Temperature: 0.7,
		TopP:        1,
	}

	resp, err := s.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errNoChoices
	}

	return completeSentences(resp.Choices[0].Message.Content), nil
}

// completeSentences drops a trailing sentence cut off by the token limit.
func completeSentences(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasSuffix(raw, ".") {
		return raw
	}

	last := strings.LastIndex(raw, ".")
	if last < 0 {
		return raw
	}

	return raw[:last+1]
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
