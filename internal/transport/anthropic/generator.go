// Package anthropic implements domain.Generator on top of the Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/kailas-cloud/projectrag/internal/domain"
	"github.com/kailas-cloud/projectrag/internal/metrics"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 1024
)

// Config holds the Anthropic provider settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
	Logger      *zap.Logger
}

// Generator answers grounded questions with Claude.
type Generator struct {
	client      anthropic.Client
	model       string
	temperature float64
	maxTokens   int64
	timeout     time.Duration
	logger      *zap.Logger
}

// NewGenerator creates a Claude-backed generator. Retries are disabled;
// failures reach the caller as-is.
func NewGenerator(cfg *Config) *Generator {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Generator{
		client:      anthropic.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   int64(maxTokens),
		timeout:     cfg.Timeout,
		logger:      cfg.Logger,
	}
}

// Generate implements domain.Generator.
func (g *Generator) Generate(ctx context.Context, req domain.GenerationRequest) (domain.GenerationResult, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	params := anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt())),
		},
		Temperature: anthropic.Float(g.temperature),
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}

	start := time.Now()

	resp, err := g.client.Messages.New(ctx, params)

	duration := time.Since(start)

	if err != nil {
		metrics.GenerationRequestsTotal.WithLabelValues("anthropic", g.model, "error").Inc()
		return domain.GenerationResult{}, wrapError(err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		metrics.GenerationRequestsTotal.WithLabelValues("anthropic", g.model, "error").Inc()
		return domain.GenerationResult{}, fmt.Errorf("no text in message response: %w", domain.ErrLLMProviderError)
	}

	promptTokens := int(resp.Usage.InputTokens)
	completionTokens := int(resp.Usage.OutputTokens)

	metrics.GenerationRequestsTotal.WithLabelValues("anthropic", g.model, "success").Inc()
	metrics.GenerationRequestDuration.WithLabelValues("anthropic", g.model).Observe(duration.Seconds())
	metrics.GenerationTokensTotal.WithLabelValues("anthropic", g.model, "prompt").Add(float64(promptTokens))
	metrics.GenerationTokensTotal.WithLabelValues("anthropic", g.model, "completion").Add(float64(completionTokens))

	g.logger.Debug("Message completed",
		zap.String("model", g.model),
		zap.Duration("duration", duration),
		zap.String("stop_reason", string(resp.StopReason)),
		zap.Int("input_tokens", promptTokens),
		zap.Int("output_tokens", completionTokens),
	)

	return domain.GenerationResult{
		Text:             text.String(),
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
	}, nil
}

func wrapError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("anthropic API error %d: %w", apiErr.StatusCode, domain.ErrLLMProviderError)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("anthropic request aborted: %w: %w", domain.ErrLLMProviderError, err)
	}
	return fmt.Errorf("anthropic request failed: %w", domain.ErrLLMProviderError)
}
