// Package llm wraps the Anthropic API behind the narrow text-generation
// interface the agents consume.
package llm

import (
	"context"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/meridian-wealth/renewal-cli/internal/config"
	"github.com/meridian-wealth/renewal-cli/internal/resilience"
)

// GenerateRequest is one text-generation call.
type GenerateRequest struct {
	System string
	Prompt string

	// Context carries supporting material (screen state, profile dumps)
	// appended to the prompt as a separate user turn when non-empty.
	Context string
}

// Generator produces advisor-facing text from a prompt. Implementations
// must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// AnthropicGenerator implements Generator over the official SDK with a
// client-side request rate limit, a per-call timeout, and a single retry on
// transient failures.
type AnthropicGenerator struct {
	client    sdk.Client
	model     string
	maxTokens int64
	timeout   time.Duration
	limiter   *rate.Limiter
	retry     resilience.RetryConfig
}

// NewAnthropic creates an AnthropicGenerator from config.
func NewAnthropic(cfg config.AnthropicConfig) *AnthropicGenerator {
	rpm := cfg.RequestsPerMin
	if rpm <= 0 {
		rpm = 60
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &AnthropicGenerator{
		client:    sdk.NewClient(option.WithAPIKey(cfg.Key)),
		model:     cfg.Model,
		maxTokens: maxTokens,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		retry:     resilience.SingleRetry(),
	}
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", eris.Wrap(err, "llm: rate limit wait")
	}

	messages := []sdk.MessageParam{
		sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
	}
	if req.Context != "" {
		messages = append(messages, sdk.NewUserMessage(sdk.NewTextBlock(req.Context)))
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}

	retryCfg := g.retry
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "generate")

	text, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (string, error) {
		callCtx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()

		msg, err := g.client.Messages.New(callCtx, params)
		if err != nil {
			return "", eris.Wrap(err, "llm: create message")
		}

		zap.L().Debug("llm: message complete",
			zap.String("model", string(msg.Model)),
			zap.Int64("input_tokens", msg.Usage.InputTokens),
			zap.Int64("output_tokens", msg.Usage.OutputTokens),
			zap.String("stop_reason", string(msg.StopReason)),
		)

		var out string
		for _, block := range msg.Content {
			if block.Type == "text" {
				out += block.Text
			}
		}
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
