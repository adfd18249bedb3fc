// Package agents defines the Agent contract and the closed set of
// variants. Variants differ only in prompt policy and model tier; the
// orchestrator treats them uniformly.
package agents

import (
	"context"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/provider"
)

// Request carries one generation turn to an agent.
type Request struct {
	// Message is the user's message (or, for drafting, the raw
	// conversation context to transform).
	Message string

	// History holds prior session messages, oldest first.
	History []core.Message

	// Enrichment is optional retrieved-memory context appended to the
	// system prompt.
	Enrichment string

	// OnChunk, when set, streams incremental text.
	OnChunk func(text string)
}

// Agent is the single contract every variant implements.
type Agent interface {
	// Name identifies the agent in responses and logs.
	Name() string

	// Generate produces the agent's response text.
	Generate(ctx context.Context, req *Request) (string, error)
}

// promptAgent is the shared implementation: a name, a prompt policy,
// and a model tier over one Generator.
type promptAgent struct {
	name      string
	system    string
	tier      provider.ModelTier
	maxTokens int64
	generator provider.Generator
}

func (a *promptAgent) Name() string {
	return a.name
}

func (a *promptAgent) Generate(ctx context.Context, req *Request) (string, error) {
	system := a.system
	if req.Enrichment != "" {
		system += "\n\n" + req.Enrichment
	}

	history := make([]provider.Turn, 0, len(req.History))
	for _, msg := range req.History {
		role := "user"
		if msg.Role == core.RoleAgent {
			role = "assistant"
		}
		history = append(history, provider.Turn{Role: role, Content: msg.Content})
	}

	return a.generator.Generate(ctx, &provider.GenerateRequest{
		System:    system,
		Prompt:    req.Message,
		History:   history,
		Tier:      a.tier,
		MaxTokens: a.maxTokens,
		OnChunk:   req.OnChunk,
	})
}

// NewVent creates the Vent Validator: empathetic support on the fast
// model tier.
func NewVent(generator provider.Generator) Agent {
	return &promptAgent{
		name:      "Vent Validator",
		system:    ventSystemPrompt,
		tier:      provider.TierFast,
		maxTokens: 512,
		generator: generator,
	}
}

// NewScribe creates The Scribe: sanitize-aware drafting on the quality
// tier.
func NewScribe(generator provider.Generator) Agent {
	return &promptAgent{
		name:      "The Scribe",
		system:    scribeSystemPrompt,
		tier:      provider.TierQuality,
		maxTokens: 1024,
		generator: generator,
	}
}

// NewPISimulator creates the PI Simulator: critical grant and research
// feedback on the quality tier.
func NewPISimulator(generator provider.Generator) Agent {
	return &promptAgent{
		name:      "PI Simulator",
		system:    piSimulatorSystemPrompt,
		tier:      provider.TierQuality,
		maxTokens: 1024,
		generator: generator,
	}
}
