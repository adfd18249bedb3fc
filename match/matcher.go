// Package match finds anonymized peers with similar struggles in the
// global graph.
package match

import (
	"context"
	"log"
	"sort"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/memory"
)

// Config holds Matcher configuration.
type Config struct {
	// TopK is the maximum number of matches returned. Default: 3.
	TopK int

	// MinSimilarity is the floor below which entries are filtered out.
	// Default: 0.7.
	MinSimilarity float64
}

// DefaultConfig returns the contract defaults.
var DefaultConfig = &Config{
	TopK:          3,
	MinSimilarity: 0.7,
}

// Matcher queries the global anonymized index through the memory store.
type Matcher struct {
	store  *memory.Store
	config *Config
}

// New creates a Matcher over the store's global index.
func New(store *memory.Store, config *Config) *Matcher {
	if config == nil {
		config = DefaultConfig
	}
	if config.TopK == 0 {
		config.TopK = DefaultConfig.TopK
	}
	if config.MinSimilarity == 0 {
		config.MinSimilarity = DefaultConfig.MinSimilarity
	}
	return &Matcher{store: store, config: config}
}

// FindPeers returns the top-K global entries most similar to the query
// embedding, excluding the querying user's own promoted entries.
// Results are sorted by descending similarity with recency as the tie
// break. "No match" and "empty index" both yield an empty slice, never
// an error: that outcome is expected, a provider failure is not.
func (m *Matcher) FindPeers(ctx context.Context, embedding []float32, excludeUserID string) ([]core.MatchResult, error) {
	index := m.store.Global()
	if index.Count() == 0 {
		return nil, nil
	}

	// Over-fetch so self-entries and sub-threshold hits can be dropped
	// without starving the top-K.
	hits, err := index.Query(ctx, embedding, m.config.TopK*3)
	if err != nil {
		return nil, err
	}

	selfHash := m.store.OwnerHash(excludeUserID)
	matches := make([]core.MatchResult, 0, m.config.TopK)
	for _, hit := range hits {
		if hit.Similarity < m.config.MinSimilarity {
			continue
		}
		if excludeUserID != "" && hit.Entry.OwnerHash == selfHash {
			continue
		}
		matches = append(matches, core.MatchResult{
			PeerNodeID:        hit.Entry.ID,
			Similarity:        hit.Similarity,
			AnonymizedSummary: hit.Entry.Summary,
			NodeType:          string(hit.Entry.NodeType),
			CreatedAt:         hit.Entry.CreatedAt,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	if len(matches) > m.config.TopK {
		matches = matches[:m.config.TopK]
	}

	log.Printf("[MATCH] %d peer match(es) above %.2f", len(matches), m.config.MinSimilarity)
	return matches, nil
}
