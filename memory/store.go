package memory

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/provider"
)

// Config holds Store configuration.
type Config struct {
	// MinContentLength rejects node content below this many characters.
	// Default: 20.
	MinContentLength int

	// DedupThreshold is the cosine similarity above which a promotion
	// is treated as a duplicate of an existing global entry and
	// dropped. Default: 0.95.
	DedupThreshold float64

	// AnonymizationSalt feeds the one-way owner hash on promoted
	// entries. Required for self-exclusion in matching; must stay
	// stable across restarts for exclusion to keep working.
	AnonymizationSalt string

	// MaxSummaryLength truncates anonymized content summaries.
	// Default: 200.
	MaxSummaryLength int
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	MinContentLength: 20,
	DedupThreshold:   0.95,
	MaxSummaryLength: 200,
}

// Store owns the per-user memory graphs and the global anonymized
// index. All graph mutations for one user are serialized; operations
// across users run concurrently.
type Store struct {
	embedder provider.Embedder
	index    Index
	config   *Config

	mu    sync.Mutex
	users map[string]*graphHandle
}

// graphHandle pairs a user's graph with its lock. The write lock
// enforces single-writer-per-user; reads share.
type graphHandle struct {
	mu sync.RWMutex
	g  *userGraph
}

// NewStore creates a Store over the given embedder and global index.
func NewStore(embedder provider.Embedder, index Index, config *Config) *Store {
	if config == nil {
		config = DefaultConfig
	}
	if config.MinContentLength == 0 {
		config.MinContentLength = DefaultConfig.MinContentLength
	}
	if config.DedupThreshold == 0 {
		config.DedupThreshold = DefaultConfig.DedupThreshold
	}
	if config.MaxSummaryLength == 0 {
		config.MaxSummaryLength = DefaultConfig.MaxSummaryLength
	}
	return &Store{
		embedder: embedder,
		index:    index,
		config:   config,
		users:    make(map[string]*graphHandle),
	}
}

// Global exposes the anonymized index for the matcher.
func (s *Store) Global() Index {
	return s.index
}

func (s *Store) handle(userID string) *graphHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.users[userID]
	if !ok {
		h = &graphHandle{g: newUserGraph()}
		s.users[userID] = h
	}
	return h
}

// AddNode embeds content and appends a new node to the user's graph.
// Nodes are immutable once created.
func (s *Store) AddNode(ctx context.Context, userID, content string, typ NodeType) (*Node, error) {
	if userID == "" {
		return nil, core.ValidationError("userID cannot be empty")
	}
	if !typ.Valid() {
		return nil, core.ValidationError("unknown node type: " + string(typ))
	}
	if len(strings.TrimSpace(content)) < s.config.MinContentLength {
		return nil, core.ValidationError("content too short to store")
	}

	embedding, err := s.embedder.Embed(ctx, content)
	if err != nil {
		return nil, core.UnavailableError("embed node content", err)
	}

	node := &Node{
		NodeID:    uuid.New().String(),
		UserID:    userID,
		Content:   content,
		Type:      typ,
		Embedding: embedding,
		CreatedAt: time.Now(),
	}

	h := s.handle(userID)
	h.mu.Lock()
	h.g.nodes[node.NodeID] = node
	h.g.order = append(h.g.order, node.NodeID)
	h.mu.Unlock()

	log.Printf("[MEMORY] Added node: user=%s type=%s id=%s", userID, typ, node.NodeID)
	return node, nil
}

// AddEdge appends a directed edge between two existing nodes of the
// same user's graph. Strength outside [0,1] is rejected.
func (s *Store) AddEdge(userID, sourceID, targetID string, rel Relationship, strength float64) (*Edge, error) {
	if !rel.Valid() {
		return nil, core.ValidationError("unknown relationship: " + string(rel))
	}
	if strength < 0 || strength > 1 {
		return nil, core.ValidationError("edge strength must be in [0,1]")
	}

	h := s.handle(userID)
	h.mu.Lock()
	defer h.mu.Unlock()

	// Both endpoints must exist in this user's graph.
	if _, ok := h.g.nodes[sourceID]; !ok {
		return nil, core.NotFoundError("source node not in graph: " + sourceID)
	}
	if _, ok := h.g.nodes[targetID]; !ok {
		return nil, core.NotFoundError("target node not in graph: " + targetID)
	}

	edge := Edge{
		EdgeID:       uuid.New().String(),
		SourceID:     sourceID,
		TargetID:     targetID,
		Relationship: rel,
		Strength:     strength,
	}
	h.g.edges = append(h.g.edges, edge)
	return &edge, nil
}

// Edges returns the edges whose source is nodeID, ordered by descending
// strength. Strength ranks, it never excludes.
func (s *Store) Edges(userID, nodeID string) []Edge {
	h := s.handle(userID)
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []Edge
	for _, e := range h.g.edges {
		if e.SourceID == nodeID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Strength > out[j].Strength
	})
	return out
}

// DeleteUser removes a user's entire graph. This is the only path that
// deletes nodes, backing explicit user-data-deletion requests. Promoted
// global entries are untouched: they carry nothing traceable back.
func (s *Store) DeleteUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	log.Printf("[MEMORY] Deleted graph for user=%s", userID)
}
