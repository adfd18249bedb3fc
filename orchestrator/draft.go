package orchestrator

import (
	"context"
	"log"
	"strings"

	"github.com/researchinpublic/mentor-go-sdk/agents"
	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/memory"
)

// Draft is the outcome of the two-stage drafting pipeline. Report is
// set even when the pipeline fails with a blocked verdict, so callers
// can show the user what tripped the scan.
type Draft struct {
	Content string               `json:"content"`
	Report  *core.GuardianReport `json:"guardian_report"`
}

// DraftPost produces a shareable post from the session's recent
// conversation, or from overrideContext when non-empty. Raw content is
// scanned before generation and the generated post is scanned again;
// a HIGH verdict at either stage blocks without exposing content.
func (o *Orchestrator) DraftPost(ctx context.Context, sessionID, overrideContext string) (*Draft, error) {
	entry, err := o.entry(sessionID)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	return o.draft(ctx, entry.session, overrideContext, nil)
}

func (o *Orchestrator) draft(ctx context.Context, session *core.Session, override string, onChunk func(string)) (*Draft, error) {
	source := strings.TrimSpace(override)
	if source == "" {
		source = recentUserContext(session)
	}
	if source == "" {
		return nil, core.ValidationError("nothing to draft from: session has no user messages")
	}

	// Pre-scan the raw material. A blocked verdict here means generation
	// never runs: the model must not see content we already know leaks.
	pre, err := o.deps.Guardian.Scan(ctx, source)
	if err != nil {
		return nil, err
	}
	if pre.Blocked {
		log.Printf("[ORCHESTRATOR] Draft blocked pre-generation for session %s", session.ID)
		return &Draft{Report: pre}, core.BlockedError("content blocked by risk scan: " + strings.Join(pre.Concerns, "; "))
	}

	raw, err := o.invokeAgent(ctx, o.deps.Scribe, &agents.Request{
		Message: source,
		OnChunk: onChunk,
	})
	if err != nil {
		return nil, err
	}
	_, clean := agents.ParseMetadata(raw)

	// The model may have reintroduced specifics from its own output.
	post, err := o.deps.Guardian.Scan(ctx, clean)
	if err != nil {
		return nil, err
	}
	if post.Blocked {
		log.Printf("[ORCHESTRATOR] Draft blocked post-generation for session %s", session.ID)
		return &Draft{Report: post}, core.BlockedError("generated draft blocked by risk scan: " + strings.Join(post.Concerns, "; "))
	}

	return &Draft{Content: clean, Report: post}, nil
}

// sideDraft opportunistically attaches a social draft to a
// non-shareable turn when the turn produced a shareable moment. Any
// failure leaves SocialDraft empty without touching the turn.
func (o *Orchestrator) sideDraft(ctx context.Context, session *core.Session, message string, response *core.AgentResponse) {
	draft, err := o.draft(ctx, session, message, nil)
	if err != nil {
		log.Printf("[ORCHESTRATOR] Side draft skipped for session %s: %v", session.ID, err)
		return
	}
	response.SocialDraft = draft.Content
	if response.GuardianReport == nil {
		response.GuardianReport = draft.Report
	}
}

// hasShareableMoment reports whether extraction found a candidate worth
// celebrating publicly.
func hasShareableMoment(candidates []Candidate) bool {
	for _, c := range candidates {
		if c.Type == memory.NodeBreakthrough || c.Type == memory.NodeInsight {
			return true
		}
	}
	return false
}

// recentUserContext joins the last few user messages, oldest first.
func recentUserContext(session *core.Session) string {
	var parts []string
	for _, msg := range session.Recent(12) {
		if msg.Role == core.RoleUser {
			parts = append(parts, msg.Content)
		}
	}
	if len(parts) > 6 {
		parts = parts[len(parts)-6:]
	}
	return strings.Join(parts, "\n\n")
}
