// Package memory owns the per-user memory graphs and the global
// anonymized graph used for peer matching.
//
// A user's graph is an arena of immutable nodes (stable IDs) plus a
// separate edge list referencing those IDs; nodes never hold pointers
// to each other, which keeps promotion and serialization simple.
// Mutations to one user's graph are serialized (single writer per
// user); reads and cross-user operations run concurrently.
//
// Promotion copies a node into the global index after a one-way
// anonymizing transform: the user ID is dropped, identifying content is
// scrubbed, and ownership survives only as a salted hash so a user's
// own entries can be excluded from their matches without the entry ever
// being traceable back to them.
//
// Architecture:
//   - Store: the per-user graphs and all graph operations
//   - Index: the global anonymized vector index (chromem-go locally,
//     swappable for a hosted vector store in production)
package memory
