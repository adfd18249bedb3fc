// Package anthropic implements the Generator contract on the Anthropic
// Messages API.
package anthropic

import (
	"context"
	"errors"
	"log"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/provider"
)

// Config configures the Anthropic generator.
type Config struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string

	// FastModel serves provider.TierFast requests.
	FastModel string

	// QualityModel serves provider.TierQuality requests.
	QualityModel string

	// MaxTokens is the default response token cap when a request does
	// not set one.
	MaxTokens int64
}

// DefaultConfig returns sensible defaults for the hosted API.
var DefaultConfig = Config{
	FastModel:    "claude-3-5-haiku-latest",
	QualityModel: "claude-sonnet-4-20250514",
	MaxTokens:    1024,
}

// Generator calls the Anthropic Messages API.
type Generator struct {
	client *anthropic.Client
	config Config
}

// New creates a Generator from config, filling unset fields from
// DefaultConfig.
func New(cfg Config) *Generator {
	if cfg.FastModel == "" {
		cfg.FastModel = DefaultConfig.FastModel
	}
	if cfg.QualityModel == "" {
		cfg.QualityModel = DefaultConfig.QualityModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = DefaultConfig.MaxTokens
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Generator{
		client: &client,
		config: cfg,
	}
}

// Generate runs one Messages API call, streaming when req.OnChunk is
// set.
func (g *Generator) Generate(ctx context.Context, req *provider.GenerateRequest) (string, error) {
	params := g.buildParams(req)

	var (
		text string
		err  error
	)
	if req.OnChunk != nil {
		text, err = g.generateStreaming(ctx, params, req.OnChunk)
	} else {
		text, err = g.generateBlocking(ctx, params)
	}
	if err != nil {
		return "", classify(ctx, err)
	}
	return text, nil
}

func (g *Generator) buildParams(req *provider.GenerateRequest) anthropic.MessageNewParams {
	model := g.config.FastModel
	if req.Tier == provider.TierQuality {
		model = g.config.QualityModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = g.config.MaxTokens
	}

	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, turn := range req.History {
		block := anthropic.NewTextBlock(turn.Content)
		if turn.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	return params
}

func (g *Generator) generateBlocking(ctx context.Context, params anthropic.MessageNewParams) (string, error) {
	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", err
	}
	return textOf(resp), nil
}

func (g *Generator) generateStreaming(ctx context.Context, params anthropic.MessageNewParams, onChunk func(string)) (string, error) {
	stream := g.client.Messages.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			// Accumulation errors are non-fatal; the delta still streams.
			log.Printf("[ANTHROPIC] accumulate event: %v", err)
		}

		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			switch delta := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				onChunk(delta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return "", err
	}
	return textOf(&message), nil
}

func textOf(resp *anthropic.Message) string {
	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	return text
}

// classify maps SDK failures onto the error catalog. Rate limits and
// 5xx responses are transient; deadline overruns are timeouts.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return core.TimeoutError("anthropic call exceeded budget", err)
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		if apierr.StatusCode == 429 || apierr.StatusCode >= 500 {
			return core.UnavailableError("anthropic API unavailable", err)
		}
		return core.InternalError(err)
	}

	// Transport-level failures (connection refused, resets) are
	// transient from the caller's perspective.
	return core.UnavailableError("anthropic call failed", err)
}
