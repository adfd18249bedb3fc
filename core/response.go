package core

import "time"

// RiskLevel is the Guardian's risk classification for scanned content.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Exceeds reports whether r is a higher risk than other.
func (r RiskLevel) Exceeds(other RiskLevel) bool {
	return r.rank() > other.rank()
}

func (r RiskLevel) rank() int {
	switch r {
	case RiskHigh:
		return 2
	case RiskMedium:
		return 1
	default:
		return 0
	}
}

// GuardianReport is the result of a Guardian scan. It is ephemeral and
// attached to the content it scanned.
type GuardianReport struct {
	RiskLevel   RiskLevel `json:"risk_level"`
	Concerns    []string  `json:"concerns"`
	Blocked     bool      `json:"blocked"`
	Suggestions []string  `json:"suggestions,omitempty"`
}

// MatchResult is one anonymized peer match. Computed per query, never
// persisted.
type MatchResult struct {
	PeerNodeID        string    `json:"peer_node_id"`
	Similarity        float64   `json:"similarity"`
	AnonymizedSummary string    `json:"anonymized_summary"`
	NodeType          string    `json:"node_type,omitempty"`
	CreatedAt         time.Time `json:"created_at,omitempty"`
}

// AgentMetadata carries structured analysis parsed out of agent output.
// Vent responses fill the emotional fields; PI Simulator responses fill
// the clarity fields.
type AgentMetadata struct {
	EmotionalSpectrum  string `json:"emotional_spectrum,omitempty"`
	EmotionalIntensity int    `json:"emotional_intensity,omitempty"`
	GroundingTechnique string `json:"grounding_technique,omitempty"`

	ClarityScore  int    `json:"clarity_score,omitempty"`
	LogicScore    int    `json:"logic_score,omitempty"`
	CritiqueFocus string `json:"critique_focus,omitempty"`
}

// AgentResponse is the aggregated result of one processed turn.
type AgentResponse struct {
	SessionID string `json:"session_id"`

	// MainResponse is the primary agent's text, with any metadata
	// blocks stripped.
	MainResponse string `json:"main_response"`

	// AgentUsed names the agent that produced MainResponse.
	AgentUsed string `json:"agent_used"`

	Intent Intent `json:"intent"`

	// PeerMatches is empty when the matcher found nothing, was not
	// invoked, or failed (graceful degradation).
	PeerMatches []MatchResult `json:"peer_matches,omitempty"`

	// SocialDraft is a side draft produced in auto mode when the turn
	// contained a shareable moment. Always post-Guardian-scan.
	SocialDraft string `json:"social_draft,omitempty"`

	// GuardianReport is set when a draft was scanned this turn.
	GuardianReport *GuardianReport `json:"guardian_report,omitempty"`

	Metadata AgentMetadata `json:"agent_metadata"`
}

// StreamEventType discriminates streaming events.
type StreamEventType string

const (
	// StreamText is an incremental text chunk. Zero or more per stream.
	StreamText StreamEventType = "text"

	// StreamComplete is the terminal success event carrying the full
	// structured response. Exactly one of complete/error ends a stream.
	StreamComplete StreamEventType = "complete"

	// StreamError is the terminal failure event.
	StreamError StreamEventType = "error"
)

// StreamEvent is one element of a streamed response.
type StreamEvent struct {
	Type StreamEventType `json:"type"`

	// Text is set for StreamText events.
	Text string `json:"text,omitempty"`

	// Response is set for StreamComplete events.
	Response *AgentResponse `json:"response,omitempty"`

	// Err is set for StreamError events.
	Err *Error `json:"error,omitempty"`
}
