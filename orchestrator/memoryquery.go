package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/memory"
)

// memoryAgentName labels responses answered from the graph rather than
// a model.
const memoryAgentName = "Memory Archivist"

// answerMemoryQuery answers a memory_query turn directly from the
// store. No generation call is made: the graph is the source of truth
// and the answer must not be paraphrased into inaccuracy.
func (o *Orchestrator) answerMemoryQuery(ctx context.Context, session *core.Session, message string, cls core.Classification, onChunk func(string)) (*core.AgentResponse, error) {
	userID := session.UserID
	var text string

	switch cls.MemoryQuery {
	case core.MemoryQueryQuantitative:
		// Counted over the complete filtered set, never a page.
		filter := filterFromQuery(message)
		count := o.deps.Store.Count(userID, filter)
		text = formatCount(count, filter)

	case core.MemoryQuerySummary:
		text = formatSummary(o.deps.Store.Summarize(userID))

	case core.MemoryQueryReference:
		nodes, err := o.deps.Store.Similar(ctx, userID, message, 3)
		if err != nil {
			return nil, err
		}
		text = formatNodes(nodes, "Here's what I have on record:")

	default:
		nodes, err := o.deps.Store.Similar(ctx, userID, message, 5)
		if err != nil {
			return nil, err
		}
		text = formatNodes(nodes, "The closest entries in your research memory:")
	}

	if onChunk != nil {
		onChunk(text)
	}
	return &core.AgentResponse{
		SessionID:    session.ID,
		MainResponse: text,
		AgentUsed:    memoryAgentName,
		Intent:       core.IntentMemoryQuery,
	}, nil
}

// MemorySummary returns aggregate node counts for a user.
func (o *Orchestrator) MemorySummary(userID string) (memory.Summary, error) {
	if strings.TrimSpace(userID) == "" {
		return memory.Summary{}, core.ValidationError("userID cannot be empty")
	}
	return o.deps.Store.Summarize(userID), nil
}

// MemoryTimeline returns one page of a user's nodes, newest first.
func (o *Orchestrator) MemoryTimeline(userID string, filter memory.Filter, page memory.Page) ([]memory.Node, memory.PageInfo, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, memory.PageInfo{}, core.ValidationError("userID cannot be empty")
	}
	return o.deps.Store.QueryByUser(userID, filter, memory.SortNewest, page)
}

// filterFromQuery narrows a quantitative question to the node types it
// names. "How many times have I struggled" counts struggles only.
func filterFromQuery(message string) memory.Filter {
	lower := strings.ToLower(message)
	var types []memory.NodeType
	for keyword, typ := range map[string]memory.NodeType{
		"struggl":      memory.NodeStruggle,
		"frustrat":     memory.NodeStruggle,
		"insight":      memory.NodeInsight,
		"realiz":       memory.NodeInsight,
		"breakthrough": memory.NodeBreakthrough,
		"question":     memory.NodeQuestion,
		"topic":        memory.NodeTopic,
	} {
		if strings.Contains(lower, keyword) {
			types = appendType(types, typ)
		}
	}
	return memory.Filter{Types: types}
}

func appendType(types []memory.NodeType, typ memory.NodeType) []memory.NodeType {
	for _, t := range types {
		if t == typ {
			return types
		}
	}
	return append(types, typ)
}

func formatCount(count int, filter memory.Filter) string {
	what := "entries"
	if len(filter.Types) == 1 {
		what = string(filter.Types[0]) + " entries"
	}
	switch count {
	case 0:
		return fmt.Sprintf("I don't have any %s in your research memory yet.", what)
	case 1:
		return fmt.Sprintf("I have 1 %s in your research memory.", strings.TrimSuffix(what, " entries")+" entry")
	default:
		return fmt.Sprintf("I have %d %s in your research memory.", count, what)
	}
}

func formatSummary(s memory.Summary) string {
	if s.Total == 0 {
		return "Your research memory is empty so far. As we talk, I'll keep track of struggles, insights, and breakthroughs."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Your research memory holds %d entries:", s.Total)
	for _, typ := range []memory.NodeType{
		memory.NodeStruggle, memory.NodeInsight, memory.NodeBreakthrough,
		memory.NodeQuestion, memory.NodeTopic,
	} {
		if n := s.ByType[typ]; n > 0 {
			fmt.Fprintf(&b, "\n- %d %s", n, typ)
		}
	}
	return b.String()
}

func formatNodes(nodes []memory.Node, header string) string {
	if len(nodes) == 0 {
		return "I couldn't find anything matching that in your research memory."
	}
	var b strings.Builder
	b.WriteString(header)
	for _, n := range nodes {
		content := n.Content
		if len(content) > 160 {
			content = content[:160] + "..."
		}
		fmt.Fprintf(&b, "\n- [%s, %s] %s", n.Type, n.CreatedAt.Format("Jan 2 2006"), content)
	}
	return b.String()
}
