package core

// Intent is the classified purpose of a user message. It drives agent
// routing in the orchestrator.
type Intent string

const (
	IntentVent        Intent = "vent"
	IntentTechnical   Intent = "technical"
	IntentGrant       Intent = "grant"
	IntentShareable   Intent = "shareable"
	IntentMemoryQuery Intent = "memory_query"

	// IntentUnknown is the fail-closed default. The orchestrator routes
	// it to the Vent agent for default empathetic handling.
	IntentUnknown Intent = "unknown"
)

// Valid reports whether i is a member of the closed intent set.
func (i Intent) Valid() bool {
	switch i {
	case IntentVent, IntentTechnical, IntentGrant, IntentShareable,
		IntentMemoryQuery, IntentUnknown:
		return true
	}
	return false
}

// MemoryQueryKind refines a memory_query intent to decide retrieval
// breadth. Quantitative queries must be answered from the complete
// filtered node set, never a top-K slice.
type MemoryQueryKind string

const (
	MemoryQueryQuantitative MemoryQueryKind = "quantitative"
	MemoryQuerySpecific     MemoryQueryKind = "specific"
	MemoryQuerySummary      MemoryQueryKind = "summary"
	MemoryQueryReference    MemoryQueryKind = "reference"
)

// Classification is the result of intent classification.
type Classification struct {
	Intent Intent

	// MemoryQuery is set only when Intent is IntentMemoryQuery.
	MemoryQuery MemoryQueryKind

	// FastPath records whether the deterministic rules decided, without
	// a provider call.
	FastPath bool
}
