package memory

import (
	"time"
)

// NodeType classifies an extracted conversational unit.
type NodeType string

const (
	NodeStruggle     NodeType = "struggle"
	NodeInsight      NodeType = "insight"
	NodeBreakthrough NodeType = "breakthrough"
	NodeTopic        NodeType = "topic"
	NodeQuestion     NodeType = "question"
)

// Valid reports whether t is a member of the closed node-type set.
func (t NodeType) Valid() bool {
	switch t {
	case NodeStruggle, NodeInsight, NodeBreakthrough, NodeTopic, NodeQuestion:
		return true
	}
	return false
}

// Node is one unit of a user's memory graph. Nodes are immutable after
// creation; only explicit user-data deletion removes them.
type Node struct {
	NodeID    string    `json:"node_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	Type      NodeType  `json:"node_type"`
	Embedding []float32 `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Relationship labels a directed edge between two nodes.
type Relationship string

const (
	RelRelatedTo  Relationship = "related_to"
	RelLedTo      Relationship = "led_to"
	RelSimilarTo  Relationship = "similar_to"
	RelResolvedBy Relationship = "resolved_by"
	RelFollows    Relationship = "follows"
)

// Valid reports whether r is a member of the closed relationship set.
func (r Relationship) Valid() bool {
	switch r {
	case RelRelatedTo, RelLedTo, RelSimilarTo, RelResolvedBy, RelFollows:
		return true
	}
	return false
}

// Edge is a directed relationship between two nodes of the same graph.
// Multiple edges between the same pair with different relationships are
// allowed. Strength is advisory ranking input, never an exclusion
// threshold.
type Edge struct {
	EdgeID       string       `json:"edge_id"`
	SourceID     string       `json:"source_id"`
	TargetID     string       `json:"target_id"`
	Relationship Relationship `json:"relationship"`
	Strength     float64      `json:"strength"`
}

// userGraph holds one user's arena of nodes plus its edge list.
// The embedded lock serializes writes per user.
type userGraph struct {
	nodes map[string]*Node
	order []string // node IDs in insertion order
	edges []Edge
}

func newUserGraph() *userGraph {
	return &userGraph{
		nodes: make(map[string]*Node),
	}
}
