package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/researchinpublic/mentor-go-sdk/core"
)

// Filter narrows a user's node set.
type Filter struct {
	// Types keeps only the listed node types. Empty keeps all.
	Types []NodeType

	// Since/Until bound CreatedAt. Zero values are open ends.
	Since time.Time
	Until time.Time

	// Contains keeps nodes whose content contains the substring,
	// case-insensitive.
	Contains string
}

func (f Filter) matches(n *Node) bool {
	if len(f.Types) > 0 {
		ok := false
		for _, t := range f.Types {
			if n.Type == t {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if !f.Since.IsZero() && n.CreatedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && n.CreatedAt.After(f.Until) {
		return false
	}
	if f.Contains != "" && !strings.Contains(strings.ToLower(n.Content), strings.ToLower(f.Contains)) {
		return false
	}
	return true
}

// Sort orders query results.
type Sort int

const (
	// SortNewest orders by CreatedAt descending (default).
	SortNewest Sort = iota

	// SortOldest orders by CreatedAt ascending.
	SortOldest
)

// Page selects a window of the filtered set. A zero Limit defaults
// to 20.
type Page struct {
	Offset int
	Limit  int
}

// PageInfo describes the window returned by QueryByUser. TotalCount is
// always the size of the complete filtered set, independent of paging.
type PageInfo struct {
	TotalCount int `json:"total_count"`
	Offset     int `json:"offset"`
	Limit      int `json:"limit"`
	HasMore    bool `json:"has_more"`
}

// Summary aggregates a user's graph by node type.
type Summary struct {
	Total  int              `json:"total"`
	ByType map[NodeType]int `json:"by_type"`
}

// QueryByUser returns one page of the user's filtered, sorted nodes.
func (s *Store) QueryByUser(userID string, filter Filter, sortBy Sort, page Page) ([]Node, PageInfo, error) {
	if page.Limit <= 0 {
		page.Limit = 20
	}
	if page.Offset < 0 {
		return nil, PageInfo{}, core.ValidationError("page offset cannot be negative")
	}

	h := s.handle(userID)
	h.mu.RLock()
	filtered := h.g.filtered(filter)
	h.mu.RUnlock()

	switch sortBy {
	case SortOldest:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
		})
	default:
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
		})
	}

	info := PageInfo{
		TotalCount: len(filtered),
		Offset:     page.Offset,
		Limit:      page.Limit,
	}

	if page.Offset >= len(filtered) {
		return []Node{}, info, nil
	}
	end := page.Offset + page.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	info.HasMore = end < len(filtered)

	out := make([]Node, 0, end-page.Offset)
	for _, n := range filtered[page.Offset:end] {
		out = append(out, *n)
	}
	return out, info, nil
}

// Count returns the size of the complete filtered set. Quantitative
// memory queries must use this, never a page length: undercounting
// breaks "how many times" answers.
func (s *Store) Count(userID string, filter Filter) int {
	h := s.handle(userID)
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, id := range h.g.order {
		if filter.matches(h.g.nodes[id]) {
			count++
		}
	}
	return count
}

// Summarize returns aggregate node counts by type for a user.
func (s *Store) Summarize(userID string) Summary {
	h := s.handle(userID)
	h.mu.RLock()
	defer h.mu.RUnlock()

	summary := Summary{ByType: make(map[NodeType]int)}
	for _, id := range h.g.order {
		summary.Total++
		summary.ByType[h.g.nodes[id].Type]++
	}
	return summary
}

// Similar returns the user's own top-n nodes by cosine similarity to
// the query text, most similar first. Used for specific/reference
// memory queries.
func (s *Store) Similar(ctx context.Context, userID, query string, n int) ([]Node, error) {
	if n <= 0 {
		n = 5
	}
	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, core.UnavailableError("embed memory query", err)
	}

	h := s.handle(userID)
	h.mu.RLock()
	type scored struct {
		node *Node
		sim  float64
	}
	ranked := make([]scored, 0, len(h.g.order))
	for _, id := range h.g.order {
		node := h.g.nodes[id]
		ranked = append(ranked, scored{node, Cosine(embedding, node.Embedding)})
	}
	h.mu.RUnlock()

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].sim > ranked[j].sim
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	out := make([]Node, 0, n)
	for _, r := range ranked[:n] {
		out = append(out, *r.node)
	}
	return out, nil
}

// filtered collects matching nodes in insertion order. Caller holds the
// graph lock.
func (g *userGraph) filtered(filter Filter) []*Node {
	var out []*Node
	for _, id := range g.order {
		if n := g.nodes[id]; filter.matches(n) {
			out = append(out, n)
		}
	}
	return out
}

// Cosine computes cosine similarity between two vectors. Mismatched or
// empty vectors score 0.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
