// Package orchestrator coordinates intent classification, agent
// dispatch, peer matching, risk scanning, and memory writes for each
// conversation turn.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/researchinpublic/mentor-go-sdk/agents"
	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/guardian"
	"github.com/researchinpublic/mentor-go-sdk/intent"
	"github.com/researchinpublic/mentor-go-sdk/match"
	"github.com/researchinpublic/mentor-go-sdk/memory"
	"github.com/researchinpublic/mentor-go-sdk/provider"
)

// State names the phases of one process invocation.
type State string

const (
	StateClassifying State = "CLASSIFYING"
	StateDispatching State = "DISPATCHING"
	StateAggregating State = "AGGREGATING"
	StateScanning    State = "SCANNING"
	StatePersisting  State = "PERSISTING"
	StateDone        State = "DONE"
	StateFailed      State = "FAILED"
)

// Mode forces a specific agent, bypassing classification.
type Mode string

const (
	ModeAuto   Mode = ""
	ModeVent   Mode = "vent"
	ModeScribe Mode = "scribe"
	ModePI     Mode = "pi"
)

// Config holds Orchestrator configuration.
type Config struct {
	// AgentTimeout is the hard wall-clock budget per agent invocation.
	// Default: 10s.
	AgentTimeout time.Duration

	// MatcherTimeout bounds the concurrent peer-match step. Its expiry
	// never fails the turn. Default: 5s.
	MatcherTimeout time.Duration

	// MaxRetries bounds internal retries of transient provider
	// failures. Timeouts are never retried. Default: 3.
	MaxRetries int

	// RetryBaseDelay is the first backoff delay; it doubles per attempt
	// and is capped at AgentTimeout. Default: 1s.
	RetryBaseDelay time.Duration

	// SessionTTL is the idle age after which ExpireSessions drops a
	// session. Default: 24h.
	SessionTTL time.Duration
}

// DefaultConfig returns the contract defaults.
var DefaultConfig = &Config{
	AgentTimeout:   10 * time.Second,
	MatcherTimeout: 5 * time.Second,
	MaxRetries:     3,
	RetryBaseDelay: time.Second,
	SessionTTL:     24 * time.Hour,
}

// Deps are the collaborators an Orchestrator coordinates.
type Deps struct {
	Classifier  *intent.Classifier
	Vent        agents.Agent
	Scribe      agents.Agent
	PISimulator agents.Agent
	Matcher     *match.Matcher // optional; nil disables peer matching
	Guardian    *guardian.Scanner
	Store       *memory.Store
	Embedder    provider.Embedder
}

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithConfig overrides the default configuration.
func WithConfig(cfg *Config) Option {
	return func(o *Orchestrator) {
		o.config = cfg
	}
}

// WithScorer replaces the default salience scorer deciding which parts
// of a turn become memory nodes.
func WithScorer(s Scorer) Option {
	return func(o *Orchestrator) {
		o.scorer = s
	}
}

// Orchestrator is the top-level coordinator. It owns the session
// registry; sessions are created, reset, and expired only through it.
type Orchestrator struct {
	deps   Deps
	config *Config
	scorer Scorer

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// sessionEntry pairs a session with its turn lock. Holding the lock for
// the whole invocation keeps turns of one session strictly ordered.
type sessionEntry struct {
	mu       sync.Mutex
	session  *core.Session
	lastUsed time.Time
}

// New creates an Orchestrator.
func New(deps Deps, opts ...Option) (*Orchestrator, error) {
	if deps.Classifier == nil || deps.Vent == nil || deps.Scribe == nil ||
		deps.PISimulator == nil || deps.Guardian == nil ||
		deps.Store == nil || deps.Embedder == nil {
		return nil, fmt.Errorf("orchestrator: missing required dependency")
	}

	o := &Orchestrator{
		deps:     deps,
		config:   DefaultConfig,
		scorer:   NewKeywordScorer(),
		sessions: make(map[string]*sessionEntry),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// CreateSession registers a new session for a user.
func (o *Orchestrator) CreateSession(userID string) (*core.Session, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, core.ValidationError("userID cannot be empty")
	}
	session := core.NewSession(userID)

	o.mu.Lock()
	o.sessions[session.ID] = &sessionEntry{session: session, lastUsed: time.Now()}
	o.mu.Unlock()

	log.Printf("[ORCHESTRATOR] Created session %s for user %s", session.ID, userID)
	return session, nil
}

// ResetSession discards a session's history and issues a new session ID
// for the same user. The old ID stops resolving.
func (o *Orchestrator) ResetSession(sessionID string) (*core.Session, error) {
	o.mu.Lock()
	entry, ok := o.sessions[sessionID]
	if !ok {
		o.mu.Unlock()
		return nil, core.NotFoundError("session not found: " + sessionID)
	}
	delete(o.sessions, sessionID)
	userID := entry.session.UserID
	o.mu.Unlock()

	return o.CreateSession(userID)
}

// Session resolves a session by ID.
func (o *Orchestrator) Session(sessionID string) (*core.Session, error) {
	entry, err := o.entry(sessionID)
	if err != nil {
		return nil, err
	}
	return entry.session, nil
}

// ExpireSessions drops sessions idle longer than the configured TTL and
// returns how many were removed.
func (o *Orchestrator) ExpireSessions() int {
	cutoff := time.Now().Add(-o.config.SessionTTL)

	o.mu.Lock()
	defer o.mu.Unlock()
	removed := 0
	for id, entry := range o.sessions {
		if entry.lastUsed.Before(cutoff) {
			delete(o.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[ORCHESTRATOR] Expired %d idle session(s)", removed)
	}
	return removed
}

func (o *Orchestrator) entry(sessionID string) (*sessionEntry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	entry, ok := o.sessions[sessionID]
	if !ok {
		return nil, core.NotFoundError("session not found: " + sessionID)
	}
	entry.lastUsed = time.Now()
	return entry, nil
}

// Process runs one blocking turn: classify, dispatch, aggregate, scan
// if drafting, persist. The per-session lock is held from entry to
// DONE/FAILED, so two concurrent calls on the same session serialize.
func (o *Orchestrator) Process(ctx context.Context, sessionID, message string, forced Mode) (*core.AgentResponse, error) {
	return o.process(ctx, sessionID, message, forced, nil)
}

func (o *Orchestrator) process(ctx context.Context, sessionID, message string, forced Mode, onChunk func(string)) (*core.AgentResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, core.ValidationError("message cannot be empty")
	}
	entry, err := o.entry(sessionID)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	session := entry.session

	state := StateClassifying
	defer func() {
		if state != StateDone {
			log.Printf("[ORCHESTRATOR] Turn for session %s ended in %s", sessionID, StateFailed)
		}
	}()

	// CLASSIFYING
	var cls core.Classification
	switch forced {
	case ModeAuto:
		cls = o.deps.Classifier.Classify(ctx, message, session.Recent(6))
	case ModeVent:
		cls = core.Classification{Intent: core.IntentVent}
	case ModeScribe:
		cls = core.Classification{Intent: core.IntentShareable}
	case ModePI:
		cls = core.Classification{Intent: core.IntentGrant}
	default:
		return nil, core.ValidationError("unknown mode: " + string(forced))
	}
	log.Printf("[ORCHESTRATOR] Session %s intent=%s fastpath=%t", sessionID, cls.Intent, cls.FastPath)

	// DISPATCHING
	state = StateDispatching
	response, err := o.dispatch(ctx, session, message, cls, forced, onChunk)
	if err != nil {
		return nil, err
	}

	// PERSISTING: always attempted after a successful response, even
	// when the matcher step failed.
	state = StatePersisting
	o.persistTurn(ctx, session, message, response, cls)

	state = StateDone
	return response, nil
}

// dispatch routes to the right pipeline and aggregates the result.
func (o *Orchestrator) dispatch(ctx context.Context, session *core.Session, message string, cls core.Classification, forced Mode, onChunk func(string)) (*core.AgentResponse, error) {
	switch cls.Intent {
	case core.IntentMemoryQuery:
		return o.answerMemoryQuery(ctx, session, message, cls, onChunk)

	case core.IntentShareable:
		return o.dispatchScribe(ctx, session, message, onChunk)

	default:
		return o.dispatchConversational(ctx, session, message, cls, forced, onChunk)
	}
}

// dispatchConversational runs the primary agent, fanning out to the
// peer matcher when the turn is an emotional struggle. The matcher is a
// non-critical enhancement: its failure or timeout leaves PeerMatches
// empty and the turn intact.
func (o *Orchestrator) dispatchConversational(ctx context.Context, session *core.Session, message string, cls core.Classification, forced Mode, onChunk func(string)) (*core.AgentResponse, error) {
	agent := o.agentFor(cls.Intent)

	// Fan out the matcher before the (slow) generation so both run
	// concurrently. Buffered channel: the goroutine never leaks even if
	// the primary fails first.
	var matchCh chan []core.MatchResult
	isStruggle := cls.Intent == core.IntentVent || cls.Intent == core.IntentUnknown
	if isStruggle && o.deps.Matcher != nil && forced == ModeAuto {
		matchCh = make(chan []core.MatchResult, 1)
		go o.findPeers(ctx, session.UserID, message, matchCh)
	}

	raw, err := o.invokeAgent(ctx, agent, &agents.Request{
		Message: message,
		History: session.History(),
		OnChunk: onChunk,
	})
	if err != nil {
		return nil, err
	}

	// AGGREGATING
	meta, clean := agents.ParseMetadata(raw)
	response := &core.AgentResponse{
		SessionID:    session.ID,
		MainResponse: clean,
		AgentUsed:    agent.Name(),
		Intent:       cls.Intent,
		Metadata:     meta,
	}

	if matchCh != nil {
		response.PeerMatches = <-matchCh
	}
	return response, nil
}

// dispatchScribe runs the two-stage drafting pipeline: pre-scan the raw
// content, generate, re-scan the output. Content shown to the user is
// always the post-second-scan version.
func (o *Orchestrator) dispatchScribe(ctx context.Context, session *core.Session, message string, onChunk func(string)) (*core.AgentResponse, error) {
	// Never stream raw generation here: the client may only see content
	// that survived the second scan.
	draft, err := o.draft(ctx, session, message, nil)
	if err != nil {
		return nil, err
	}
	if onChunk != nil {
		onChunk(draft.Content)
	}
	return &core.AgentResponse{
		SessionID:      session.ID,
		MainResponse:   draft.Content,
		AgentUsed:      o.deps.Scribe.Name(),
		Intent:         core.IntentShareable,
		GuardianReport: draft.Report,
	}, nil
}

// findPeers embeds the message and queries the matcher under its own
// timeout. All failure modes degrade to nil matches.
func (o *Orchestrator) findPeers(ctx context.Context, userID, message string, out chan<- []core.MatchResult) {
	mctx, cancel := context.WithTimeout(ctx, o.config.MatcherTimeout)
	defer cancel()

	embedding, err := o.deps.Embedder.Embed(mctx, message)
	if err != nil {
		log.Printf("[ORCHESTRATOR] Matcher embed failed (degrading): %v", err)
		out <- nil
		return
	}
	matches, err := o.deps.Matcher.FindPeers(mctx, embedding, userID)
	if err != nil {
		log.Printf("[ORCHESTRATOR] Matcher failed (degrading): %v", err)
		out <- nil
		return
	}
	out <- matches
}

// invokeAgent runs one agent call under the hard wall-clock budget.
// Transient provider failures retry with exponential backoff. A timeout
// is never retried.
func (o *Orchestrator) invokeAgent(ctx context.Context, agent agents.Agent, req *agents.Request) (string, error) {
	delay := o.config.RetryBaseDelay

	for attempt := 0; ; attempt++ {
		actx, cancel := context.WithTimeout(ctx, o.config.AgentTimeout)
		text, err := agent.Generate(actx, req)
		cancel()

		if err == nil {
			return text, nil
		}
		if errors.Is(err, context.DeadlineExceeded) || core.CodeOf(err) == core.CodeProviderTimeout {
			return "", core.TimeoutError(fmt.Sprintf("%s exceeded %s budget", agent.Name(), o.config.AgentTimeout), err)
		}
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		if core.CodeOf(err) != core.CodeProviderUnavailable || attempt >= o.config.MaxRetries {
			return "", err
		}

		log.Printf("[ORCHESTRATOR] %s transient failure (attempt %d/%d), backing off %s: %v",
			agent.Name(), attempt+1, o.config.MaxRetries, delay, err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		delay *= 2
		if delay > o.config.AgentTimeout {
			delay = o.config.AgentTimeout
		}
	}
}

// agentFor maps an intent to its agent. Unknown is routed to Vent
// explicitly: default empathetic handling, not an error.
func (o *Orchestrator) agentFor(i core.Intent) agents.Agent {
	switch i {
	case core.IntentTechnical, core.IntentGrant:
		return o.deps.PISimulator
	case core.IntentShareable:
		return o.deps.Scribe
	case core.IntentVent, core.IntentUnknown:
		return o.deps.Vent
	default:
		return o.deps.Vent
	}
}
