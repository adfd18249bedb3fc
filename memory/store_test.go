package memory_test

import (
	"context"
	"strings"
	"testing"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/memory"
	"github.com/researchinpublic/mentor-go-sdk/memory/store/chromem"
	"github.com/researchinpublic/mentor-go-sdk/provider/mock"
)

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	index, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	return memory.NewStore(mock.NewEmbedder(), index, &memory.Config{
		AnonymizationSalt: "test-salt",
	})
}

func TestAddNode_Validation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.AddNode(ctx, "u1", "too short", memory.NodeStruggle); err == nil {
		t.Fatal("Expected error for content below minimum length")
	} else if core.CodeOf(err) != core.CodeValidation {
		t.Errorf("Expected validation error, got %s", core.CodeOf(err))
	}

	if _, err := store.AddNode(ctx, "u1", "this content is certainly long enough", "folklore"); err == nil {
		t.Fatal("Expected error for invalid node type")
	}
}

func TestAddNode_InsertionOrderAndImmutability(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	contents := []string{
		"my western blot failed again for the third week running",
		"realized the antibody concentration was the whole problem",
		"the blot finally worked and the bands are clean",
	}
	for _, c := range contents {
		if _, err := store.AddNode(ctx, "u1", c, memory.NodeStruggle); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}

	nodes, info, err := store.QueryByUser("u1", memory.Filter{}, memory.SortOldest, memory.Page{Limit: 10})
	if err != nil {
		t.Fatalf("QueryByUser failed: %v", err)
	}
	if info.TotalCount != 3 {
		t.Fatalf("Expected 3 nodes, got %d", info.TotalCount)
	}
	for i, n := range nodes {
		if n.Content != contents[i] {
			t.Errorf("Node %d out of order: %q", i, n.Content)
		}
	}

	// Mutating the returned copy must not touch the stored node.
	nodes[0].Content = "tampered"
	again, _, _ := store.QueryByUser("u1", memory.Filter{}, memory.SortOldest, memory.Page{Limit: 1})
	if again[0].Content != contents[0] {
		t.Error("Stored node was mutated through a query result")
	}
}

func TestAddEdge_Invariants(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	a, err := store.AddNode(ctx, "u1", "struggling with the cloning protocol again today", memory.NodeStruggle)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	b, err := store.AddNode(ctx, "u1", "finally got clean colonies after switching competent cells", memory.NodeBreakthrough)
	if err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	if _, err := store.AddEdge("u1", a.NodeID, "missing", memory.RelLedTo, 0.5); core.CodeOf(err) != core.CodeNotFound {
		t.Errorf("Expected not_found for dangling target, got %v", err)
	}
	if _, err := store.AddEdge("u1", a.NodeID, b.NodeID, memory.RelLedTo, 1.5); core.CodeOf(err) != core.CodeValidation {
		t.Errorf("Expected validation error for strength > 1, got %v", err)
	}
	if _, err := store.AddEdge("u1", a.NodeID, b.NodeID, "teleports_to", 0.5); core.CodeOf(err) != core.CodeValidation {
		t.Errorf("Expected validation error for unknown relationship, got %v", err)
	}

	if _, err := store.AddEdge("u1", a.NodeID, b.NodeID, memory.RelResolvedBy, 0.9); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}
	if _, err := store.AddEdge("u1", a.NodeID, b.NodeID, memory.RelFollows, 0.4); err != nil {
		t.Fatalf("AddEdge failed: %v", err)
	}

	edges := store.Edges("u1", a.NodeID)
	if len(edges) != 2 {
		t.Fatalf("Expected 2 edges, got %d", len(edges))
	}
	if edges[0].Strength < edges[1].Strength {
		t.Error("Edges not sorted by descending strength")
	}
}

func TestCount_IndependentOfPaging(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for i := 0; i < 25; i++ {
		content := strings.Repeat("struggle entry ", 3)
		if _, err := store.AddNode(ctx, "u1", content+string(rune('a'+i)), memory.NodeStruggle); err != nil {
			t.Fatalf("AddNode failed: %v", err)
		}
	}
	if _, err := store.AddNode(ctx, "u1", "one insight about the sampling methodology", memory.NodeInsight); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	filter := memory.Filter{Types: []memory.NodeType{memory.NodeStruggle}}
	if got := store.Count("u1", filter); got != 25 {
		t.Errorf("Count = %d, want 25", got)
	}

	// A small page must not change the reported total.
	nodes, info, err := store.QueryByUser("u1", filter, memory.SortNewest, memory.Page{Limit: 5})
	if err != nil {
		t.Fatalf("QueryByUser failed: %v", err)
	}
	if len(nodes) != 5 {
		t.Errorf("Expected page of 5, got %d", len(nodes))
	}
	if info.TotalCount != 25 {
		t.Errorf("TotalCount = %d, want 25 regardless of page size", info.TotalCount)
	}
	if !info.HasMore {
		t.Error("Expected HasMore on a partial page")
	}
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	seed := map[memory.NodeType]int{
		memory.NodeStruggle: 3,
		memory.NodeInsight:  2,
	}
	for typ, n := range seed {
		for i := 0; i < n; i++ {
			content := "seeded content for summarize test " + string(typ) + string(rune('0'+i))
			if _, err := store.AddNode(ctx, "u1", content, typ); err != nil {
				t.Fatalf("AddNode failed: %v", err)
			}
		}
	}

	s := store.Summarize("u1")
	if s.Total != 5 {
		t.Errorf("Total = %d, want 5", s.Total)
	}
	if s.ByType[memory.NodeStruggle] != 3 || s.ByType[memory.NodeInsight] != 2 {
		t.Errorf("ByType wrong: %+v", s.ByType)
	}
}

func TestSimilar_RanksOwnNodesOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.AddNode(ctx, "u1", "qPCR primer efficiency has been terrible all month", memory.NodeStruggle); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	if _, err := store.AddNode(ctx, "u2", "other user's note about conference abstracts", memory.NodeTopic); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}

	nodes, err := store.Similar(ctx, "u1", "qPCR troubles", 5)
	if err != nil {
		t.Fatalf("Similar failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("Expected only u1's node, got %d", len(nodes))
	}
	if nodes[0].UserID != "u1" {
		t.Errorf("Similar leaked another user's node")
	}
}

func TestDeleteUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.AddNode(ctx, "u1", "content that will be erased with the user", memory.NodeStruggle); err != nil {
		t.Fatalf("AddNode failed: %v", err)
	}
	store.DeleteUser("u1")
	if got := store.Count("u1", memory.Filter{}); got != 0 {
		t.Errorf("Count after delete = %d, want 0", got)
	}
}
