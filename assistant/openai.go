package assistant

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"

	"github.com/benjamonnguyen/studyplan"
)

type LLMConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	RateLimit float64
	Burst     int
}

// LLMCompleter is a Completer backed by a langchaingo model, throttled by a
// process-wide token bucket.
type LLMCompleter struct {
	llm       llms.Model
	maxTokens int
	limiter   *rate.Limiter
}

var _ Completer = (*LLMCompleter)(nil)

// NewOpenAICompleter talks to an OpenAI-compatible chat completions API.
func NewOpenAICompleter(cfg LLMConfig) (*LLMCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key required")
	}
	model := cfg.Model
	if model == "" {
		model = studyplan.DefaultAssistantModel
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewLLMCompleter(llm, cfg), nil
}

func NewLLMCompleter(llm llms.Model, cfg LLMConfig) *LLMCompleter {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = studyplan.DefaultMaxTokens
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = studyplan.DefaultRateLimit
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = studyplan.DefaultBurst
	}
	return &LLMCompleter{
		llm:       llm,
		maxTokens: maxTokens,
		limiter:   rate.NewLimiter(rate.Limit(limit), burst),
	}
}

func (c *LLMCompleter) Complete(ctx context.Context, system, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", studyplan.UpstreamError(ReasonTimeout, "Assistant is busy. Please try again shortly.", err)
	}

	resp, err := c.llm.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}, llms.WithMaxTokens(c.maxTokens))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Content, nil
}

// Disabled is the Completer used when no backend is configured.
type Disabled struct{}

func (Disabled) Complete(context.Context, string, string) (string, error) {
	return "", studyplan.UpstreamError(ReasonUnavailable, "Assistant is not configured.", nil)
}
