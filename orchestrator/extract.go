package orchestrator

import (
	"context"
	"log"
	"strings"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/memory"
)

// Candidate is a piece of a turn proposed for the memory graph.
type Candidate struct {
	Content string
	Type    memory.NodeType
	Score   float64
}

// Scorer decides what a turn contributes to the user's memory graph.
// The default is keyword-based; callers can swap in a model-backed
// implementation without touching the orchestrator.
type Scorer interface {
	Score(message, response string, cls core.Classification) []Candidate
}

// KeywordScorer scores salience from deterministic keyword signals.
type KeywordScorer struct {
	// MinScore drops candidates scoring below it. Default: 0.5.
	MinScore float64
}

// NewKeywordScorer returns the default scorer.
func NewKeywordScorer() *KeywordScorer {
	return &KeywordScorer{MinScore: 0.5}
}

var (
	struggleSignals = []string{
		"frustrated", "struggling", "stuck", "failing", "failed",
		"overwhelmed", "anxious", "exhausted", "giving up", "hopeless",
		"imposter", "burned out", "burnt out", "not working",
	}
	breakthroughSignals = []string{
		"finally worked", "it worked", "breakthrough", "accepted",
		"published", "solved", "figured it out", "success",
	}
	insightSignals = []string{
		"realized", "learned", "understood", "insight", "figured out",
		"makes sense now", "turns out",
	}
	topicSignals = []string{
		"experiment", "protocol", "assay", "dataset", "model",
		"analysis", "hypothesis", "method",
	}
)

// Score proposes at most one node per turn: the strongest single signal
// wins, mirroring how a mentor files one takeaway per conversation.
func (s *KeywordScorer) Score(message, response string, cls core.Classification) []Candidate {
	lower := strings.ToLower(message)
	floor := s.MinScore
	if floor <= 0 {
		floor = 0.5
	}

	best := Candidate{Content: strings.TrimSpace(message)}
	consider := func(typ memory.NodeType, signals []string, weight float64) {
		score := 0.0
		for _, sig := range signals {
			if strings.Contains(lower, sig) {
				score += weight
			}
		}
		if score > 1 {
			score = 1
		}
		if score > best.Score {
			best.Type = typ
			best.Score = score
		}
	}

	consider(memory.NodeBreakthrough, breakthroughSignals, 0.9)
	consider(memory.NodeInsight, insightSignals, 0.7)
	consider(memory.NodeStruggle, struggleSignals, 0.6)
	consider(memory.NodeTopic, topicSignals, 0.35)

	// Intent is a strong prior when keywords alone are not decisive.
	switch cls.Intent {
	case core.IntentVent:
		if best.Score < 0.6 {
			best.Type = memory.NodeStruggle
			best.Score = 0.6
		}
	case core.IntentTechnical:
		if strings.Contains(message, "?") && best.Score < 0.55 {
			best.Type = memory.NodeQuestion
			best.Score = 0.55
		}
	}

	if best.Score < floor || best.Type == "" {
		return nil
	}
	return []Candidate{best}
}

// persistTurn appends the exchanged messages and writes extracted nodes
// and edges. It runs only after a successful turn and never fails the
// turn: storage errors are logged and swallowed.
func (o *Orchestrator) persistTurn(ctx context.Context, session *core.Session, message string, response *core.AgentResponse, cls core.Classification) {
	session.Append(core.NewMessage(core.RoleUser, message, ""))
	session.Append(core.NewMessage(core.RoleAgent, response.MainResponse, response.AgentUsed))

	// Queries read the graph; they leave no trace in it.
	if cls.Intent == core.IntentMemoryQuery {
		return
	}

	candidates := o.scorer.Score(message, response.MainResponse, cls)

	// A breakthrough or insight in a non-drafting turn earns an
	// opportunistic social draft alongside the main response.
	if cls.Intent != core.IntentShareable && hasShareableMoment(candidates) {
		o.sideDraft(ctx, session, message, response)
	}

	if len(candidates) == 0 {
		return
	}

	prev := o.latestNode(session.UserID)
	for _, c := range candidates {
		node, err := o.deps.Store.AddNode(ctx, session.UserID, c.Content, c.Type)
		if err != nil {
			log.Printf("[ORCHESTRATOR] Memory write failed for user %s: %v", session.UserID, err)
			continue
		}

		if prev != nil {
			if _, err := o.deps.Store.AddEdge(session.UserID, prev.NodeID, node.NodeID, memory.RelFollows, 0.5); err != nil {
				log.Printf("[ORCHESTRATOR] Edge write failed: %v", err)
			}
			resolved := prev.Type == memory.NodeStruggle &&
				(node.Type == memory.NodeBreakthrough || node.Type == memory.NodeInsight)
			if resolved {
				if _, err := o.deps.Store.AddEdge(session.UserID, prev.NodeID, node.NodeID, memory.RelResolvedBy, 0.8); err != nil {
					log.Printf("[ORCHESTRATOR] Edge write failed: %v", err)
				}
			}
		}

		// Struggles and breakthroughs feed the anonymized peer index.
		if node.Type == memory.NodeStruggle || node.Type == memory.NodeBreakthrough {
			if _, err := o.deps.Store.PromoteToGlobal(ctx, node); err != nil {
				log.Printf("[ORCHESTRATOR] Promotion failed for node %s: %v", node.NodeID, err)
			}
		}
		prev = node
	}
}

// latestNode returns the user's most recent node, or nil.
func (o *Orchestrator) latestNode(userID string) *memory.Node {
	nodes, _, err := o.deps.Store.QueryByUser(userID, memory.Filter{}, memory.SortNewest, memory.Page{Limit: 1})
	if err != nil || len(nodes) == 0 {
		return nil
	}
	return &nodes[0]
}
