package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/researchinpublic/mentor-go-sdk/agents"
	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/guardian"
	"github.com/researchinpublic/mentor-go-sdk/intent"
	"github.com/researchinpublic/mentor-go-sdk/match"
	"github.com/researchinpublic/mentor-go-sdk/memory"
	"github.com/researchinpublic/mentor-go-sdk/memory/store/chromem"
	"github.com/researchinpublic/mentor-go-sdk/orchestrator"
	"github.com/researchinpublic/mentor-go-sdk/provider/mock"
	"github.com/researchinpublic/mentor-go-sdk/server"
)

const ventReply = `[[EMOTIONAL_ANALYSIS]]
{"emotional_spectrum": "Frustration", "emotional_intensity": 6, "grounding_technique": "Box Breathing"}
[[END_EMOTIONAL_ANALYSIS]]

You're not alone in this.`

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()

	index, err := chromem.New()
	if err != nil {
		t.Fatalf("Failed to create index: %v", err)
	}
	embedder := mock.NewEmbedder()
	store := memory.NewStore(embedder, index, &memory.Config{AnonymizationSalt: "s"})
	scanner, err := guardian.New(nil, &guardian.Config{ModelPass: false})
	if err != nil {
		t.Fatalf("Failed to create guardian: %v", err)
	}

	orch, err := orchestrator.New(orchestrator.Deps{
		Classifier:  intent.New(nil, nil),
		Vent:        agents.NewVent(&mock.Generator{Fallback: ventReply}),
		Scribe:      agents.NewScribe(&mock.Generator{Fallback: "Struggle is part of the story. #PhDlife"}),
		PISimulator: agents.NewPISimulator(&mock.Generator{Fallback: "Tighten the aims."}),
		Matcher:     match.New(store, nil),
		Guardian:    scanner,
		Store:       store,
		Embedder:    embedder,
	})
	if err != nil {
		t.Fatalf("Failed to create orchestrator: %v", err)
	}

	ts := httptest.NewServer(server.New(orch, nil).Handler())
	t.Cleanup(ts.Close)
	return ts, store
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s failed: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
}

func createSession(t *testing.T, ts *httptest.Server, userID string) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/v1/sessions", map[string]string{"user_id": userID})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Create session status = %d", resp.StatusCode)
	}
	var session struct {
		SessionID string `json:"session_id"`
	}
	decode(t, resp, &session)
	if session.SessionID == "" {
		t.Fatal("Empty session ID")
	}
	return session.SessionID
}

func TestSessionAndMessageRoundTrip(t *testing.T) {
	ts, _ := newTestServer(t)
	sessionID := createSession(t, ts, "u1")

	resp := postJSON(t, ts.URL+"/v1/sessions/"+sessionID+"/messages", map[string]string{
		"message": "I'm frustrated, the imaging run failed overnight again",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Message status = %d", resp.StatusCode)
	}
	var response core.AgentResponse
	decode(t, resp, &response)

	if response.AgentUsed != "Vent Validator" {
		t.Errorf("AgentUsed = %s", response.AgentUsed)
	}
	if strings.Contains(response.MainResponse, "EMOTIONAL_ANALYSIS") {
		t.Error("Metadata block leaked over the wire")
	}
	if response.Metadata.EmotionalIntensity != 6 {
		t.Errorf("Metadata lost in serialization: %+v", response.Metadata)
	}
}

func TestErrorEnvelope(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/v1/sessions/nope/messages", map[string]string{
		"message": "hello there",
	})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("Status = %d, want 404", resp.StatusCode)
	}
	var envelope struct {
		Error *core.Error `json:"error"`
	}
	decode(t, resp, &envelope)
	if envelope.Error == nil || envelope.Error.Code != core.CodeNotFound {
		t.Fatalf("Envelope = %+v", envelope)
	}
	if envelope.Error.CorrelationID == "" {
		t.Error("Error lost its correlation ID")
	}
}

func TestDraftBlockedCarriesReport(t *testing.T) {
	ts, _ := newTestServer(t)
	sessionID := createSession(t, ts, "u1")

	resp := postJSON(t, ts.URL+"/v1/sessions/"+sessionID+"/draft", map[string]string{
		"context": "the insert ACGTACGTACGTACGT finally ligated after months",
	})
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("Status = %d, want 422", resp.StatusCode)
	}
	var body struct {
		Error          *core.Error          `json:"error"`
		GuardianReport *core.GuardianReport `json:"guardian_report"`
	}
	decode(t, resp, &body)
	if body.Error == nil || body.Error.Code != core.CodeGuardianBlocked {
		t.Fatalf("Error = %+v", body.Error)
	}
	if body.GuardianReport == nil || !body.GuardianReport.Blocked {
		t.Error("Blocked draft response missing its scan report")
	}
}

func TestMemoryEndpoints(t *testing.T) {
	ts, store := newTestServer(t)
	ctx := t.Context()

	for _, c := range []string{
		"the ligation failed for the third straight attempt",
		"realized the competent cells were past their date",
	} {
		if _, err := store.AddNode(ctx, "u1", c, memory.NodeStruggle); err != nil {
			t.Fatalf("Seed node failed: %v", err)
		}
	}

	resp, err := http.Get(ts.URL + "/v1/users/u1/memory/summary")
	if err != nil {
		t.Fatalf("GET summary failed: %v", err)
	}
	var summary memory.Summary
	decode(t, resp, &summary)
	if summary.Total != 2 {
		t.Errorf("Summary total = %d, want 2", summary.Total)
	}

	resp, err = http.Get(ts.URL + "/v1/users/u1/memory/timeline?types=struggle&limit=1")
	if err != nil {
		t.Fatalf("GET timeline failed: %v", err)
	}
	var timeline struct {
		Nodes []memory.Node   `json:"nodes"`
		Page  memory.PageInfo `json:"page"`
	}
	decode(t, resp, &timeline)
	if len(timeline.Nodes) != 1 {
		t.Errorf("Timeline page length = %d, want 1", len(timeline.Nodes))
	}
	if timeline.Page.TotalCount != 2 {
		t.Errorf("Timeline total = %d, want 2", timeline.Page.TotalCount)
	}
	if !timeline.Page.HasMore {
		t.Error("Expected HasMore with limit below total")
	}
}

func TestStreamEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	sessionID := createSession(t, ts, "u1")

	resp, err := http.Get(ts.URL + "/v1/sessions/" + sessionID +
		"/stream?message=" + strings.ReplaceAll("I'm frustrated with the broken centrifuge", " ", "%20"))
	if err != nil {
		t.Fatalf("GET stream failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("Content-Type = %s", ct)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Read stream failed: %v", err)
	}
	raw := buf.String()
	if !strings.Contains(raw, "event: text") {
		t.Error("Stream missing text events")
	}
	if !strings.Contains(raw, "event: complete") {
		t.Error("Stream missing terminal complete event")
	}
	if strings.Contains(raw, "EMOTIONAL_ANALYSIS") {
		t.Error("Metadata block leaked into the stream")
	}
}
