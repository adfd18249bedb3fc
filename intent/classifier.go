// Package intent classifies user messages into the closed intent set
// that drives agent routing.
package intent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/provider"
)

// Keyword tables for the deterministic fast path, checked in priority
// order (grant beats shareable beats technical beats vent). A hit means
// no provider call is made.
var (
	memoryKeywords = []string{
		"how many times", "how many", "how often", "count my",
		"my memory", "my timeline", "my journey", "my past struggles",
		"have i mentioned", "did i tell you", "what did i say",
		"remind me what", "summarize my", "summary of my",
	}
	grantKeywords = []string{
		"grant proposal", "grant", "proposal", "research plan",
		"feedback on", "review my", "critique", "mentorship", "mentor",
	}
	shareableKeywords = []string{
		"post", "draft", "help me draft", "create a post", "write a post",
		"shareable", "public", "linkedin", "social media", "announce",
		"acceptance", "published", "share my", "share the", "news",
	}
	technicalKeywords = []string{
		"semantic", "search", "debug", "agentic", "system", "code",
		"implementation", "algorithm", "method", "technique",
	}
	emotionalKeywords = []string{
		"struggling", "failed", "frustrated", "anxious", "worried",
		"stressed", "difficult", "hard", "overwhelmed", "burnout",
		"imposter", "alone", "isolated", "rejected", "exhausted", "numb",
	}
)

// Memory-query subtype cues, checked in order. Quantitative wins: a
// wrong top-K answer to "how many times" is a correctness bug, not a
// relevance miss.
var (
	quantitativeCues = []string{"how many", "how often", "count", "number of times"}
	summaryCues      = []string{"summarize", "summary", "overview", "overall", "in general"}
	referenceCues    = []string{"that breakthrough", "that insight", "the one where", "the time i", "link me", "show me the"}
)

const fallbackPrompt = `Classify the intent of this message from a researcher.

Message: %q

Respond with exactly one of these labels and nothing else:
- vent: venting, struggling, or needing emotional support
- technical: technical discussion, questions, sharing knowledge
- grant: asking for grant/proposal feedback or mentorship
- shareable: news or insight that should be shared publicly
- memory_query: asking about their own past conversations or progress

Label:`

// Config holds Classifier configuration.
type Config struct {
	// MaxTokens caps the fallback classification call. Default: 8.
	MaxTokens int64
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{MaxTokens: 8}

// Classifier maps a raw message plus recent history onto the closed
// intent set. Deterministic keyword rules run first; only ambiguous
// messages cost a provider call.
type Classifier struct {
	generator provider.Generator
	config    *Config
}

// New creates a Classifier. The generator backs the fallback path and
// may be nil, in which case ambiguity fails closed to unknown.
func New(generator provider.Generator, config *Config) *Classifier {
	if config == nil {
		config = DefaultConfig
	}
	if config.MaxTokens == 0 {
		config.MaxTokens = DefaultConfig.MaxTokens
	}
	return &Classifier{generator: generator, config: config}
}

// Classify never fails: provider errors and out-of-set labels degrade
// to IntentUnknown, which the orchestrator routes as vent.
func (c *Classifier) Classify(ctx context.Context, message string, recent []core.Message) core.Classification {
	if cls, ok := c.fastPath(message); ok {
		return cls
	}
	return c.fallback(ctx, message)
}

// fastPath applies the deterministic keyword rules.
func (c *Classifier) fastPath(message string) (core.Classification, bool) {
	lower := strings.ToLower(message)

	if containsAny(lower, memoryKeywords) {
		return core.Classification{
			Intent:      core.IntentMemoryQuery,
			MemoryQuery: classifyMemoryQuery(lower),
			FastPath:    true,
		}, true
	}
	if containsAny(lower, grantKeywords) {
		return core.Classification{Intent: core.IntentGrant, FastPath: true}, true
	}
	if containsAny(lower, shareableKeywords) {
		return core.Classification{Intent: core.IntentShareable, FastPath: true}, true
	}
	emotional := containsAny(lower, emotionalKeywords)
	if containsAny(lower, technicalKeywords) && !emotional {
		return core.Classification{Intent: core.IntentTechnical, FastPath: true}, true
	}
	if emotional {
		return core.Classification{Intent: core.IntentVent, FastPath: true}, true
	}
	return core.Classification{}, false
}

// fallback makes one constrained provider call. Anything that is not a
// clean member of the closed set fails closed to unknown.
func (c *Classifier) fallback(ctx context.Context, message string) core.Classification {
	if c.generator == nil {
		return core.Classification{Intent: core.IntentUnknown}
	}

	label, err := c.generator.Generate(ctx, &provider.GenerateRequest{
		Prompt:    fmt.Sprintf(fallbackPrompt, message),
		Tier:      provider.TierFast,
		MaxTokens: c.config.MaxTokens,
	})
	if err != nil {
		log.Printf("[INTENT] Fallback classification failed: %v", err)
		return core.Classification{Intent: core.IntentUnknown}
	}

	intent := core.Intent(strings.ToLower(strings.TrimSpace(label)))
	if !intent.Valid() || intent == core.IntentUnknown {
		log.Printf("[INTENT] Out-of-set label %q, failing closed", label)
		return core.Classification{Intent: core.IntentUnknown}
	}
	cls := core.Classification{Intent: intent}
	if intent == core.IntentMemoryQuery {
		cls.MemoryQuery = classifyMemoryQuery(strings.ToLower(message))
	}
	return cls
}

// classifyMemoryQuery tags the retrieval breadth for a memory query.
func classifyMemoryQuery(lower string) core.MemoryQueryKind {
	if containsAny(lower, quantitativeCues) {
		return core.MemoryQueryQuantitative
	}
	if containsAny(lower, summaryCues) {
		return core.MemoryQuerySummary
	}
	if containsAny(lower, referenceCues) {
		return core.MemoryQueryReference
	}
	return core.MemoryQuerySpecific
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
