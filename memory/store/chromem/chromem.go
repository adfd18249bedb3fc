// Package chromem implements the global anonymized index on chromem-go,
// a pure Go embedded vector database.
package chromem

import (
	"context"
	"fmt"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/researchinpublic/mentor-go-sdk/memory"
)

const collectionName = "global"

// Index wraps a chromem-go collection holding anonymized entries.
type Index struct {
	db  *chromem.DB
	col *chromem.Collection

	// Writes are serialized per promotion op; reads share.
	mu sync.RWMutex
}

// New creates an in-memory index.
func New() (*Index, error) {
	return fromDB(chromem.NewDB())
}

// NewPersistent creates an index backed by an on-disk chromem database,
// so the global graph survives restarts.
func NewPersistent(path string) (*Index, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("open persistent db: %w", err)
	}
	return fromDB(db)
}

func fromDB(db *chromem.DB) (*Index, error) {
	// No embedding func: entries arrive pre-embedded. Default distance
	// is cosine, which is what the matcher expects.
	col, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, col: col}, nil
}

// Add inserts an anonymized entry.
func (x *Index) Add(ctx context.Context, entry *memory.GlobalEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	doc := chromem.Document{
		ID:        entry.ID,
		Content:   entry.Summary,
		Embedding: entry.Embedding,
		Metadata: map[string]string{
			"node_type":  string(entry.NodeType),
			"owner_hash": entry.OwnerHash,
			"created_at": entry.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
	if err := x.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Query returns up to limit entries by descending similarity. An empty
// index yields an empty slice.
func (x *Index) Query(ctx context.Context, embedding []float32, limit int) ([]memory.GlobalHit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	// chromem-go rejects nResults above the collection size.
	count := x.col.Count()
	if count == 0 {
		return nil, nil
	}
	if limit > count {
		limit = count
	}

	results, err := x.col.QueryEmbedding(ctx, embedding, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	hits := make([]memory.GlobalHit, 0, len(results))
	for _, result := range results {
		hits = append(hits, memory.GlobalHit{
			Entry:      toEntry(result),
			Similarity: float64(result.Similarity),
		})
	}
	return hits, nil
}

// Count returns the number of entries.
func (x *Index) Count() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.col.Count()
}

// Close releases resources. chromem keeps everything in memory or
// flushed to disk already; nothing to do.
func (x *Index) Close() error {
	return nil
}

func toEntry(result chromem.Result) memory.GlobalEntry {
	createdAt, _ := time.Parse(time.RFC3339Nano, result.Metadata["created_at"])
	return memory.GlobalEntry{
		ID:        result.ID,
		Summary:   result.Content,
		NodeType:  memory.NodeType(result.Metadata["node_type"]),
		Embedding: result.Embedding,
		OwnerHash: result.Metadata["owner_hash"],
		CreatedAt: createdAt,
	}
}

// compile-time interface check
var _ memory.Index = (*Index)(nil)
