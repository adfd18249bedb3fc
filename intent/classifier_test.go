package intent_test

import (
	"context"
	"errors"
	"testing"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/intent"
	"github.com/researchinpublic/mentor-go-sdk/provider/mock"
)

func TestClassify_FastPaths(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    core.Intent
	}{
		{"vent", "I'm so frustrated with my experiments", core.IntentVent},
		{"technical", "how do I debug this semantic search pipeline", core.IntentTechnical},
		{"grant", "can you give me feedback on my grant proposal", core.IntentGrant},
		{"shareable", "my paper got published, help me draft a post", core.IntentShareable},
		{"memory", "how many times have I struggled with cloning", core.IntentMemoryQuery},
		{"grant beats shareable", "review my grant announcement post", core.IntentGrant},
		{"emotional beats technical", "I'm struggling to debug this code and feel like a failure", core.IntentVent},
	}

	classifier := intent.New(nil, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cls := classifier.Classify(context.Background(), tc.message, nil)
			if cls.Intent != tc.want {
				t.Errorf("Classify(%q) = %s, want %s", tc.message, cls.Intent, tc.want)
			}
			if !cls.FastPath {
				t.Error("Expected the deterministic fast path to decide")
			}
		})
	}
}

func TestClassify_MemoryQuerySubtypes(t *testing.T) {
	cases := []struct {
		message string
		want    core.MemoryQueryKind
	}{
		{"how many times have I mentioned burnout", core.MemoryQueryQuantitative},
		{"summarize my journey so far", core.MemoryQuerySummary},
		{"remind me what I said about the one where the gel ran backwards", core.MemoryQueryReference},
		{"what did I say about my committee meeting", core.MemoryQuerySpecific},
	}

	classifier := intent.New(nil, nil)
	for _, tc := range cases {
		cls := classifier.Classify(context.Background(), tc.message, nil)
		if cls.Intent != core.IntentMemoryQuery {
			t.Errorf("Classify(%q) intent = %s, want memory_query", tc.message, cls.Intent)
			continue
		}
		if cls.MemoryQuery != tc.want {
			t.Errorf("Classify(%q) subtype = %s, want %s", tc.message, cls.MemoryQuery, tc.want)
		}
	}
}

func TestClassify_FallbackUsesProvider(t *testing.T) {
	gen := &mock.Generator{Responses: []string{"technical"}}
	classifier := intent.New(gen, nil)

	cls := classifier.Classify(context.Background(), "thoughts on reviewer two", nil)
	if cls.Intent != core.IntentTechnical {
		t.Errorf("Intent = %s, want technical", cls.Intent)
	}
	if cls.FastPath {
		t.Error("Ambiguous message should not take the fast path")
	}
	if gen.CallCount() != 1 {
		t.Errorf("Expected 1 provider call, got %d", gen.CallCount())
	}
}

func TestClassify_FailsClosedToUnknown(t *testing.T) {
	cases := []struct {
		name string
		gen  *mock.Generator
	}{
		{"provider error", &mock.Generator{Errs: []error{errors.New("boom")}}},
		{"out-of-set label", &mock.Generator{Responses: []string{"philosophy"}}},
		{"unknown label", &mock.Generator{Responses: []string{"unknown"}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classifier := intent.New(tc.gen, nil)
			cls := classifier.Classify(context.Background(), "thoughts on reviewer two", nil)
			if cls.Intent != core.IntentUnknown {
				t.Errorf("Intent = %s, want unknown", cls.Intent)
			}
		})
	}
}

func TestClassify_NilGeneratorFailsClosed(t *testing.T) {
	classifier := intent.New(nil, nil)
	cls := classifier.Classify(context.Background(), "thoughts on reviewer two", nil)
	if cls.Intent != core.IntentUnknown {
		t.Errorf("Intent = %s, want unknown", cls.Intent)
	}
}
