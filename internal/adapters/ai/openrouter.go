package ai

import (
	"context"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"cartera/internal/adapters/config"
	"cartera/pkg/errors"
	"cartera/pkg/logger"
	"cartera/pkg/ratelimit"
)

// Ensure OpenRouterClient implements Client
var _ Client = (*OpenRouterClient)(nil)

// OpenRouterClient talks to OpenRouter through the OpenAI-compatible API
type OpenRouterClient struct {
	client      openai.Client // NewClient returns Client (not *Client)
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	rateLimiter *ratelimit.Limiter
	log         *logger.Logger
}

// NewOpenRouterClient creates a chat completion client from config
func NewOpenRouterClient(cfg config.LLMConfig) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "openrouter API key is required")
	}
	if cfg.Model == "" {
		return nil, errors.Wrap(errors.ErrConfiguration, "model is required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimSuffix(cfg.BaseURL, "/") + "/"),
	}
	// OpenRouter attribution headers, optional but recommended
	if cfg.Referer != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.Referer))
	}
	if cfg.Title != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.Title))
	}

	return &OpenRouterClient{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.RequestTimeout,
		rateLimiter: ratelimit.NewLimiter("openrouter", cfg.RequestsPerMinute),
		log:         logger.Get().With("component", "openrouter", "model", cfg.Model),
	}, nil
}

// Complete sends a single-turn completion request
func (c *OpenRouterClient) Complete(ctx context.Context, prompt string) (*Completion, error) {
	if prompt == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "prompt cannot be empty")
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter wait")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUpstream, "openrouter completion: %v", err)
	}

	if len(response.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrUpstream, "openrouter returned no choices")
	}

	completion := &Completion{
		Content: response.Choices[0].Message.Content,
		Usage: TokenUsage{
			InputTokens:  int(response.Usage.PromptTokens),
			OutputTokens: int(response.Usage.CompletionTokens),
		},
		HasUsage: response.Usage.TotalTokens > 0,
	}

	c.log.Debugw("completion received",
		"duration", time.Since(start),
		"input_tokens", completion.Usage.InputTokens,
		"output_tokens", completion.Usage.OutputTokens,
		"has_usage", completion.HasUsage)

	return completion, nil
}

// Model returns the configured model identifier
func (c *OpenRouterClient) Model() string {
	return c.model
}
