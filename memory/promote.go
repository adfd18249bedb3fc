package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/researchinpublic/mentor-go-sdk/core"
)

// Identifying-content patterns, mirrored from the Guardian's heuristic
// battery. Promotion scrubs rather than blocks: the anonymized summary
// keeps the shape of the struggle without the identifiers.
var (
	piPattern          = regexp.MustCompile(`(?i)(professor|dr\.|prof\.)\s+[A-Z][a-z]+`)
	institutionPattern = regexp.MustCompile(`(?i)(university|institute|lab)\s+(of\s+)?[A-Z][A-Za-z]+`)
	reagentPattern     = regexp.MustCompile(`(?i)(reagent|antibody|compound)\s+[A-Z0-9-]+`)
	sequencePattern    = regexp.MustCompile(`[ACGTU]{12,}`)
)

// PromoteToGlobal inserts an anonymized copy of a node into the global
// index. The transform is one-way: user ID dropped, identifying content
// scrubbed, ownership reduced to a salted hash. Near-duplicates of
// existing entries (above DedupThreshold) are silently dropped.
func (s *Store) PromoteToGlobal(ctx context.Context, node *Node) (*GlobalEntry, error) {
	if node == nil {
		return nil, core.ValidationError("node cannot be nil")
	}
	if len(node.Embedding) == 0 {
		return nil, core.ValidationError("node has no embedding")
	}

	entry := &GlobalEntry{
		ID:        uuid.New().String(),
		Summary:   Anonymize(node.Content, s.config.MaxSummaryLength),
		NodeType:  node.Type,
		Embedding: node.Embedding,
		OwnerHash: s.OwnerHash(node.UserID),
		CreatedAt: node.CreatedAt,
	}

	// Duplicate suppression keeps the global graph from filling with
	// restatements of the same struggle.
	hits, err := s.index.Query(ctx, entry.Embedding, 1)
	if err != nil {
		return nil, core.UnavailableError("query global index", err)
	}
	if len(hits) > 0 && hits[0].Similarity >= s.config.DedupThreshold {
		log.Printf("[MEMORY] Skipped promotion (duplicate, sim=%.3f)", hits[0].Similarity)
		return nil, nil
	}

	if err := s.index.Add(ctx, entry); err != nil {
		return nil, core.UnavailableError("add global entry", err)
	}
	log.Printf("[MEMORY] Promoted node %s to global index as %s", node.NodeID, entry.ID)
	return entry, nil
}

// OwnerHash derives the one-way ownership hash stored on promoted
// entries. It lets the matcher exclude a user's own entries while
// keeping the global graph non-traversable back to a user ID.
func (s *Store) OwnerHash(userID string) string {
	sum := sha256.Sum256([]byte(s.config.AnonymizationSalt + ":" + userID))
	return hex.EncodeToString(sum[:])
}

// Anonymize scrubs identifying content and truncates to maxLen. The
// scrub is irreversible; redaction markers replace matches in place.
func Anonymize(content string, maxLen int) string {
	out := piPattern.ReplaceAllString(content, "[advisor]")
	out = institutionPattern.ReplaceAllString(out, "[institution]")
	out = reagentPattern.ReplaceAllString(out, "[material]")
	out = sequencePattern.ReplaceAllString(out, "[sequence]")
	out = strings.TrimSpace(out)

	if maxLen > 3 && len(out) > maxLen {
		out = out[:maxLen-3] + "..."
	}
	return out
}
