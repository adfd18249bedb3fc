package match_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/researchinpublic/mentor-go-sdk/match"
	"github.com/researchinpublic/mentor-go-sdk/memory"
	"github.com/researchinpublic/mentor-go-sdk/memory/store/chromem"
	"github.com/researchinpublic/mentor-go-sdk/provider/mock"
)

func newTestMatcher(t *testing.T) (*match.Matcher, *memory.Store) {
	t.Helper()
	index, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	store := memory.NewStore(mock.NewEmbedder(), index, &memory.Config{
		AnonymizationSalt: "test-salt",
	})
	return match.New(store, nil), store
}

// vec builds a 3-dim unit vector at the given angle from the x axis.
func vec(angle float64) []float32 {
	return []float32{float32(math.Cos(angle)), float32(math.Sin(angle)), 0}
}

func addEntry(t *testing.T, store *memory.Store, id, ownerHash string, embedding []float32, createdAt time.Time) {
	t.Helper()
	err := store.Global().Add(context.Background(), &memory.GlobalEntry{
		ID:        id,
		Summary:   "anonymized struggle " + id,
		NodeType:  memory.NodeStruggle,
		Embedding: embedding,
		OwnerHash: ownerHash,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("Add entry %s failed: %v", id, err)
	}
}

func TestFindPeers_EmptyIndexIsNotAnError(t *testing.T) {
	matcher, _ := newTestMatcher(t)

	matches, err := matcher.FindPeers(context.Background(), vec(0), "me")
	if err != nil {
		t.Fatalf("Empty index must not error: %v", err)
	}
	if len(matches) != 0 {
		t.Errorf("Expected no matches, got %d", len(matches))
	}
}

func TestFindPeers_ThresholdAndExclusion(t *testing.T) {
	matcher, store := newTestMatcher(t)
	now := time.Now()

	// Aligned with the query, above the 0.7 floor.
	addEntry(t, store, "peer-close", "other-hash", vec(0.1), now)
	// Orthogonal, well below the floor.
	addEntry(t, store, "peer-far", "other-hash", vec(math.Pi/2), now)
	// Perfect match but owned by the querying user.
	addEntry(t, store, "mine", store.OwnerHash("me"), vec(0), now)

	matches, err := matcher.FindPeers(context.Background(), vec(0), "me")
	if err != nil {
		t.Fatalf("FindPeers failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("Expected exactly 1 match, got %d", len(matches))
	}
	if matches[0].PeerNodeID != "peer-close" {
		t.Errorf("Wrong match: %s", matches[0].PeerNodeID)
	}
	if matches[0].AnonymizedSummary == "" {
		t.Error("Match lost its anonymized summary")
	}
}

func TestFindPeers_TopKAndRecencyTieBreak(t *testing.T) {
	matcher, store := newTestMatcher(t)
	now := time.Now()

	// Four identical embeddings: similarity ties, recency decides.
	addEntry(t, store, "oldest", "h1", vec(0), now.Add(-3*time.Hour))
	addEntry(t, store, "newer", "h2", vec(0), now.Add(-1*time.Hour))
	addEntry(t, store, "newest", "h3", vec(0), now)
	addEntry(t, store, "older", "h4", vec(0), now.Add(-2*time.Hour))

	matches, err := matcher.FindPeers(context.Background(), vec(0), "me")
	if err != nil {
		t.Fatalf("FindPeers failed: %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("Expected top-3, got %d", len(matches))
	}
	want := []string{"newest", "newer", "older"}
	for i, id := range want {
		if matches[i].PeerNodeID != id {
			t.Errorf("Position %d = %s, want %s", i, matches[i].PeerNodeID, id)
		}
	}
}
