package guardian_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/guardian"
	"github.com/researchinpublic/mentor-go-sdk/provider/mock"
)

const lowVerdict = `{"risk_level": "LOW", "concerns": [], "suggestions": []}`

func heuristicsOnly(t *testing.T) *guardian.Scanner {
	t.Helper()
	scanner, err := guardian.New(nil, &guardian.Config{ModelPass: false})
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}
	return scanner
}

func TestScan_Heuristics(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    core.RiskLevel
		blocked bool
		concern string
	}{
		{
			name:    "clean content",
			content: "Research is hard but I keep showing up every day",
			want:    core.RiskLow,
		},
		{
			name:    "pi name",
			content: "My PI Dr. Smith rejected the draft again",
			want:    core.RiskMedium,
			concern: "PI name",
		},
		{
			name:    "institution",
			content: "The whole cohort at University of Springfield saw it",
			want:    core.RiskMedium,
			concern: "institution",
		},
		{
			name:    "raw sequence",
			content: "The insert reads ACGTACGTACGTACGT and won't ligate",
			want:    core.RiskHigh,
			blocked: true,
			concern: "sequence",
		},
		{
			name:    "grant number",
			content: "Funded under grant no. R01-123456, results pending",
			want:    core.RiskHigh,
			blocked: true,
			concern: "grant number",
		},
	}

	scanner := heuristicsOnly(t)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report, err := scanner.Scan(context.Background(), tc.content)
			if err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			if report.RiskLevel != tc.want {
				t.Errorf("RiskLevel = %s, want %s", report.RiskLevel, tc.want)
			}
			if report.Blocked != tc.blocked {
				t.Errorf("Blocked = %t, want %t", report.Blocked, tc.blocked)
			}
			if tc.concern != "" && !containsConcern(report.Concerns, tc.concern) {
				t.Errorf("Concerns %v missing %q", report.Concerns, tc.concern)
			}
		})
	}
}

func containsConcern(concerns []string, substr string) bool {
	for _, c := range concerns {
		if strings.Contains(strings.ToLower(c), strings.ToLower(substr)) {
			return true
		}
	}
	return false
}

func TestScan_ModelPassRaisesRisk(t *testing.T) {
	gen := &mock.Generator{Responses: []string{
		`{"risk_level": "HIGH", "concerns": ["Describes unpublished data"], "suggestions": ["Remove the result"]}`,
	}}
	scanner, err := guardian.New(gen, &guardian.Config{ModelPass: true})
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}

	report, err := scanner.Scan(context.Background(), "We measured a 40% yield improvement, unpublished")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if report.RiskLevel != core.RiskHigh || !report.Blocked {
		t.Errorf("Expected blocked HIGH, got %s blocked=%t", report.RiskLevel, report.Blocked)
	}
	if len(report.Suggestions) == 0 {
		t.Error("Model suggestions were dropped in the merge")
	}
}

func TestScan_IdenticalContentIsCached(t *testing.T) {
	gen := &mock.Generator{Fallback: lowVerdict}
	scanner, err := guardian.New(gen, &guardian.Config{ModelPass: true})
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}

	content := "Thinking about writing up the methods section this week"
	first, err := scanner.Scan(context.Background(), content)
	if err != nil {
		t.Fatalf("First scan failed: %v", err)
	}
	second, err := scanner.Scan(context.Background(), content)
	if err != nil {
		t.Fatalf("Second scan failed: %v", err)
	}

	if gen.CallCount() != 1 {
		t.Errorf("Expected 1 model call, got %d", gen.CallCount())
	}
	if first.RiskLevel != second.RiskLevel || first.Blocked != second.Blocked {
		t.Error("Repeat scan of identical content diverged")
	}
}

func TestScan_ModelFailureIsNeverSilentLow(t *testing.T) {
	gen := &mock.Generator{Errs: []error{
		core.UnavailableError("api down", nil),
		core.UnavailableError("api down", nil),
	}}
	scanner, err := guardian.New(gen, &guardian.Config{
		ModelPass:    true,
		ModelRetries: 1,
		RetryDelay:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}

	_, err = scanner.Scan(context.Background(), "Low risk words about research life")
	if err == nil {
		t.Fatal("Expected a scan failure, not a silent LOW report")
	}
	if core.CodeOf(err) != core.CodeProviderUnavailable {
		t.Errorf("Code = %s, want provider_unavailable", core.CodeOf(err))
	}
}

func TestScan_ModelFailureStillBlocksOnHighHeuristics(t *testing.T) {
	gen := &mock.Generator{Errs: []error{
		core.UnavailableError("api down", nil),
		core.UnavailableError("api down", nil),
	}}
	scanner, err := guardian.New(gen, &guardian.Config{
		ModelPass:    true,
		ModelRetries: 1,
		RetryDelay:   time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}

	report, err := scanner.Scan(context.Background(), "Plasmid carries ACGTACGTACGTACGTACGT upstream")
	if err != nil {
		t.Fatalf("Heuristic HIGH should block without the model: %v", err)
	}
	if !report.Blocked || report.RiskLevel != core.RiskHigh {
		t.Errorf("Expected blocked HIGH, got %s blocked=%t", report.RiskLevel, report.Blocked)
	}
}

func TestScan_UnparseableVerdictIsMedium(t *testing.T) {
	gen := &mock.Generator{Responses: []string{"I think this looks fine to me!"}}
	scanner, err := guardian.New(gen, &guardian.Config{ModelPass: true})
	if err != nil {
		t.Fatalf("Failed to create scanner: %v", err)
	}

	report, err := scanner.Scan(context.Background(), "Nothing identifying in here at all")
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if report.RiskLevel != core.RiskMedium {
		t.Errorf("RiskLevel = %s, want MEDIUM for unparseable verdict", report.RiskLevel)
	}
}
