// Package server exposes the orchestrator over HTTP: JSON endpoints for
// session and memory operations, SSE and WebSocket for streamed turns.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/memory"
	"github.com/researchinpublic/mentor-go-sdk/orchestrator"
)

// Config holds Server configuration.
type Config struct {
	// Addr is the listen address. Default: ":8080".
	Addr string

	// RequestTimeout bounds non-streaming handlers. Default: 30s.
	RequestTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	Addr:           ":8080",
	RequestTimeout: 30 * time.Second,
}

// Server routes HTTP traffic to an Orchestrator.
type Server struct {
	orch   *orchestrator.Orchestrator
	config *Config
	router chi.Router
}

// New creates a Server.
func New(orch *orchestrator.Orchestrator, config *Config) *Server {
	if config == nil {
		config = DefaultConfig
	}
	s := &Server{orch: orch, config: config}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/sessions", s.handleCreateSession)
		r.Post("/sessions/{sessionID}/messages", s.handleMessage)
		r.Post("/sessions/{sessionID}/reset", s.handleReset)
		r.Get("/sessions/{sessionID}/stream", s.handleStream)
		r.Post("/sessions/{sessionID}/draft", s.handleDraft)
		r.Get("/users/{userID}/memory/summary", s.handleMemorySummary)
		r.Get("/users/{userID}/memory/timeline", s.handleMemoryTimeline)
		r.Get("/ws", s.handleWS)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	s.router = r
	return s
}

// Handler returns the root handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.router
}

// ListenAndServe blocks serving HTTP on the configured address.
func (s *Server) ListenAndServe() error {
	log.Printf("[SERVER] Listening on %s", s.config.Addr)
	srv := &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.ValidationError("invalid JSON body"))
		return
	}

	session, err := s.orch.CreateSession(req.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	session, err := s.orch.ResetSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
		Mode    string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, core.ValidationError("invalid JSON body"))
		return
	}

	ctx := r.Context()
	response, err := s.orch.Process(ctx, chi.URLParam(r, "sessionID"), req.Message, orchestrator.Mode(req.Mode))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// handleStream serves one turn as Server-Sent Events. Each event's data
// line is a JSON StreamEvent; the stream ends after the terminal event.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	message := r.URL.Query().Get("message")
	mode := r.URL.Query().Get("mode")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, core.ValidationError("streaming unsupported by connection"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	events := s.orch.ProcessStream(r.Context(), chi.URLParam(r, "sessionID"), message, orchestrator.Mode(mode))
	for event := range events {
		payload, err := json.Marshal(event)
		if err != nil {
			log.Printf("[SERVER] Marshal stream event: %v", err)
			return
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
		flusher.Flush()
	}
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Context string `json:"context"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, core.ValidationError("invalid JSON body"))
			return
		}
	}

	draft, err := s.orch.DraftPost(r.Context(), chi.URLParam(r, "sessionID"), req.Context)
	if err != nil {
		// A blocked draft still carries the report explaining the block.
		e := core.AsError(err)
		if e.Code == core.CodeGuardianBlocked && draft != nil {
			writeJSON(w, e.HTTPStatus, struct {
				Error          *core.Error          `json:"error"`
				GuardianReport *core.GuardianReport `json:"guardian_report"`
			}{e, draft.Report})
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleMemorySummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.orch.MemorySummary(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMemoryTimeline(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var filter memory.Filter
	if types := q.Get("types"); types != "" {
		for _, t := range strings.Split(types, ",") {
			filter.Types = append(filter.Types, memory.NodeType(strings.TrimSpace(t)))
		}
	}
	filter.Contains = q.Get("contains")

	page := memory.Page{}
	if v := q.Get("offset"); v != "" {
		page.Offset, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		page.Limit, _ = strconv.Atoi(v)
	}

	nodes, info, err := s.orch.MemoryTimeline(chi.URLParam(r, "userID"), filter, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Nodes []memory.Node   `json:"nodes"`
		Page  memory.PageInfo `json:"page"`
	}{nodes, info})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[SERVER] Encode response: %v", err)
	}
}

// writeError maps any error onto the catalog and serializes it. The
// correlation ID in the payload matches the one logged here.
func writeError(w http.ResponseWriter, err error) {
	e := core.AsError(err)
	log.Printf("[SERVER] Request failed code=%s correlation=%s: %v", e.Code, e.CorrelationID, err)
	writeJSON(w, e.HTTPStatus, struct {
		Error *core.Error `json:"error"`
	}{e})
}
