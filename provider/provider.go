// Package provider defines the external model capabilities the engine
// consumes: text embedding and text generation. Implementations live in
// subpackages (anthropic, onnx, mock) so the engine can be wired against
// hosted APIs, local models, or deterministic test doubles.
package provider

import (
	"context"
)

// ModelTier selects generation quality vs. latency. Agents differ only
// in prompt policy and tier; the mapping from tier to concrete model is
// a Generator implementation detail.
type ModelTier string

const (
	// TierFast is for low-latency conversational turns.
	TierFast ModelTier = "fast"

	// TierQuality is for drafting and critique where output quality
	// dominates latency.
	TierQuality ModelTier = "quality"
)

// Turn is one prior exchange supplied as generation context.
type Turn struct {
	Role    string // "user" or "assistant"
	Content string
}

// GenerateRequest describes one generation call.
type GenerateRequest struct {
	// System is the agent's prompt policy.
	System string

	// Prompt is the user-visible message being answered.
	Prompt string

	// History holds prior turns, oldest first.
	History []Turn

	Tier      ModelTier
	MaxTokens int64

	// OnChunk, when set, receives incremental text as it is produced.
	// The full text is still returned at the end.
	OnChunk func(text string)
}

// Generator produces text from a prompt and context. Calls suspend on
// network I/O and must honor ctx cancellation.
//
// Implementations classify their failures through the core error
// catalog: transient upstream failures as provider_unavailable, budget
// overruns as provider_timeout.
type Generator interface {
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// Embedder converts text to a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
