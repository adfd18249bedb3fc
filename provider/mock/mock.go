// Package mock provides deterministic provider implementations for
// tests and offline development.
package mock

import (
	"context"
	"hash/fnv"
	"math"
	"sync"

	"github.com/researchinpublic/mentor-go-sdk/provider"
)

// Embedder generates deterministic embeddings from a text hash. The
// vectors carry no real semantics but are stable across calls, which is
// what store and matcher tests need.
type Embedder struct {
	dimensions int
}

// NewEmbedder creates a mock embedder.
func NewEmbedder() *Embedder {
	return &Embedder{
		dimensions: 384, // Match all-MiniLM-L6-v2 dimensions
	}
}

// Embed creates a deterministic unit vector from text.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimensions)
	for i := 0; i < m.dimensions; i++ {
		// Simple LCG keeps the output reproducible per input.
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}

// normalize converts embedding to unit vector.
func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = v / norm
	}
	return normalized
}

// Generator replays scripted responses. Responses are consumed in
// order; when the script runs out, Fallback (or an echo of the prompt)
// is returned. Errs are consumed before Responses, letting tests drive
// retry and degradation paths.
type Generator struct {
	mu sync.Mutex

	// Responses are returned in order, one per call.
	Responses []string

	// Errs are returned in order before any response is consumed.
	Errs []error

	// Fallback is returned once the Responses script is exhausted.
	Fallback string

	// Delay, when set, makes each call wait for the duration or ctx
	// expiry, whichever comes first.
	Delay func(ctx context.Context) error

	// Calls records every request for assertions.
	Calls []*provider.GenerateRequest
}

// Generate pops the next scripted error or response.
func (g *Generator) Generate(ctx context.Context, req *provider.GenerateRequest) (string, error) {
	g.mu.Lock()
	g.Calls = append(g.Calls, req)

	if len(g.Errs) > 0 {
		err := g.Errs[0]
		g.Errs = g.Errs[1:]
		g.mu.Unlock()
		return "", err
	}

	var text string
	switch {
	case len(g.Responses) > 0:
		text = g.Responses[0]
		g.Responses = g.Responses[1:]
	case g.Fallback != "":
		text = g.Fallback
	default:
		text = req.Prompt
	}
	delay := g.Delay
	g.mu.Unlock()

	if delay != nil {
		if err := delay(ctx); err != nil {
			return "", err
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if req.OnChunk != nil {
		req.OnChunk(text)
	}
	return text, nil
}

// CallCount returns how many Generate calls were made.
func (g *Generator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}
