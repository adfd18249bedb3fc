package memory

import (
	"context"
	"time"
)

// GlobalEntry is an anonymized copy of a promoted node. It carries no
// user ID and no raw content; OwnerHash is a salted one-way hash used
// only to exclude a user's own entries from their matches.
type GlobalEntry struct {
	ID        string
	Summary   string
	NodeType  NodeType
	Embedding []float32
	OwnerHash string
	CreatedAt time.Time
}

// GlobalHit is a similarity-scored entry returned by an Index query.
type GlobalHit struct {
	Entry      GlobalEntry
	Similarity float64
}

// Index is the global anonymized vector index. Implementations:
// chromem (embedded, local), swappable for a hosted vector store
// without changing the Store contract.
type Index interface {
	// Add inserts an anonymized entry. Entry embeddings must be set.
	Add(ctx context.Context, entry *GlobalEntry) error

	// Query returns up to limit entries by descending cosine
	// similarity to the embedding. An empty index returns an empty
	// slice, not an error.
	Query(ctx context.Context, embedding []float32, limit int) ([]GlobalHit, error)

	// Count returns the number of entries in the index.
	Count() int

	// Close releases resources.
	Close() error
}
