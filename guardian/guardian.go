// Package guardian is the risk-scanning gate applied before any
// externally-shareable content is returned. It never touches the memory
// store; a scan has no side effects beyond its cache.
package guardian

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/researchinpublic/mentor-go-sdk/core"
	"github.com/researchinpublic/mentor-go-sdk/provider"
)

const systemPrompt = `You are "The Guardian," an IP safety and compliance agent protecting researchers' intellectual property. You scan content before it moves from private to public and identify potential IP leaks: novel chemical structures, unpublished sequences or data, PI names, and institution identifiers. Generic descriptions and common methods are LOW risk; specific techniques without proprietary data are MEDIUM; identifiable or unpublished specifics are HIGH.`

const scanPrompt = `Analyze this content for IP safety risks:

%s

Scan for:
1. Novel chemical structures or specific reagent names
2. Unpublished genomic sequences
3. Specific PI names or institution identifiers
4. Unpublished data or results
5. Proprietary information

Respond with JSON only:
{"risk_level": "LOW|MEDIUM|HIGH", "concerns": ["specific issues"], "suggestions": ["suggested sanitizations"]}`

// Heuristic battery. These are deterministic and run before the model
// pass; the final risk level is the maximum across all checks.
var heuristics = []struct {
	pattern *regexp.Regexp
	risk    core.RiskLevel
	concern string
}{
	{regexp.MustCompile(`(?i)(professor|dr\.|prof\.)\s+[A-Z][a-z]+`), core.RiskMedium, "Detected PI name"},
	{regexp.MustCompile(`(?i)(university|institute|lab)\s+(of\s+)?[A-Z][A-Za-z]+`), core.RiskMedium, "Detected institution name"},
	{regexp.MustCompile(`(?i)(reagent|antibody|compound)\s+[A-Z0-9-]+`), core.RiskMedium, "Detected reagent name"},
	{regexp.MustCompile(`[ACGTU]{12,}`), core.RiskHigh, "Detected raw sequence data"},
	{regexp.MustCompile(`(?i)grant\s+(no\.?|number)\s*[A-Z0-9-]+`), core.RiskHigh, "Detected grant number"},
}

// Config holds Scanner configuration.
type Config struct {
	// ModelPass toggles the model-assisted holistic check. Off, the
	// scanner is heuristics-only (offline mode).
	ModelPass bool

	// ModelRetries is how many times a transient model failure is
	// retried before the scan fails. Default: 2.
	ModelRetries int

	// RetryDelay is the pause between model retries. Default: 500ms.
	RetryDelay time.Duration

	// CacheSize bounds the scan cache in entries. Default: 4096.
	CacheSize int64
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = &Config{
	ModelPass:    true,
	ModelRetries: 2,
	RetryDelay:   500 * time.Millisecond,
	CacheSize:    4096,
}

// Scanner classifies content into a risk level and concern list.
type Scanner struct {
	generator provider.Generator
	cache     *ristretto.Cache
	config    *Config
}

// New creates a Scanner. The generator backs the holistic pass and may
// be nil when Config.ModelPass is false.
func New(generator provider.Generator, config *Config) (*Scanner, error) {
	if config == nil {
		config = DefaultConfig
	}
	if config.ModelRetries == 0 {
		config.ModelRetries = DefaultConfig.ModelRetries
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = DefaultConfig.RetryDelay
	}
	if config.CacheSize == 0 {
		config.CacheSize = DefaultConfig.CacheSize
	}
	if config.ModelPass && generator == nil {
		return nil, fmt.Errorf("model pass enabled but no generator provided")
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: config.CacheSize * 10,
		MaxCost:     config.CacheSize,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create scan cache: %w", err)
	}

	return &Scanner{
		generator: generator,
		cache:     cache,
		config:    config,
	}, nil
}

// Scan classifies content. Identical content yields an identical report
// (cached), and a scan failure is a distinct error, never a silent LOW:
// if the heuristics already justify blocking, the blocked report is
// returned even when the model pass is unreachable.
func (s *Scanner) Scan(ctx context.Context, content string) (*core.GuardianReport, error) {
	key := cacheKey(content)
	if cached, ok := s.cache.Get(key); ok {
		report := cached.(core.GuardianReport)
		return &report, nil
	}

	report := s.heuristicPass(content)

	if s.config.ModelPass {
		modelReport, err := s.modelPass(ctx, content)
		if err != nil {
			if report.RiskLevel == core.RiskHigh {
				// Blocking without the model is still fail-closed.
				log.Printf("[GUARDIAN] Model pass failed, heuristics already block: %v", err)
				s.remember(key, report)
				return &report, nil
			}
			return nil, core.UnavailableError("guardian model pass failed", err)
		}
		report = merge(report, modelReport)
	}

	s.remember(key, report)
	return &report, nil
}

// heuristicPass runs the deterministic battery.
func (s *Scanner) heuristicPass(content string) core.GuardianReport {
	report := core.GuardianReport{RiskLevel: core.RiskLow, Concerns: []string{}}
	for _, h := range heuristics {
		match := h.pattern.FindString(content)
		if match == "" {
			continue
		}
		report.Concerns = append(report.Concerns, fmt.Sprintf("%s: %q", h.concern, match))
		if h.risk.Exceeds(report.RiskLevel) {
			report.RiskLevel = h.risk
		}
	}
	report.Blocked = report.RiskLevel == core.RiskHigh
	return report
}

// modelPass runs the holistic model check, retrying transient failures.
func (s *Scanner) modelPass(ctx context.Context, content string) (core.GuardianReport, error) {
	var lastErr error
	for attempt := 0; attempt <= s.config.ModelRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(s.config.RetryDelay):
			case <-ctx.Done():
				return core.GuardianReport{}, ctx.Err()
			}
		}

		raw, err := s.generator.Generate(ctx, &provider.GenerateRequest{
			System:    systemPrompt,
			Prompt:    fmt.Sprintf(scanPrompt, content),
			Tier:      provider.TierQuality,
			MaxTokens: 512,
		})
		if err != nil {
			lastErr = err
			if core.CodeOf(err) == core.CodeProviderUnavailable {
				continue
			}
			return core.GuardianReport{}, err
		}
		return parseModelReport(raw), nil
	}
	return core.GuardianReport{}, lastErr
}

var jsonPattern = regexp.MustCompile(`\{[^{}]*"risk_level"[^{}]*\}`)

// parseModelReport extracts the JSON verdict; unparseable output is
// treated as MEDIUM so a confused model never waves content through.
func parseModelReport(raw string) core.GuardianReport {
	report := core.GuardianReport{RiskLevel: core.RiskLow, Concerns: []string{}}

	blob := jsonPattern.FindString(raw)
	if blob == "" {
		log.Printf("[GUARDIAN] No JSON verdict in model output, treating as MEDIUM")
		return core.GuardianReport{
			RiskLevel: core.RiskMedium,
			Concerns:  []string{"Scanner could not parse model verdict"},
		}
	}

	var parsed struct {
		RiskLevel   string   `json:"risk_level"`
		Concerns    []string `json:"concerns"`
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(blob), &parsed); err != nil {
		return core.GuardianReport{
			RiskLevel: core.RiskMedium,
			Concerns:  []string{"Scanner could not parse model verdict"},
		}
	}

	switch {
	case strings.Contains(strings.ToUpper(parsed.RiskLevel), "HIGH"):
		report.RiskLevel = core.RiskHigh
	case strings.Contains(strings.ToUpper(parsed.RiskLevel), "MEDIUM"):
		report.RiskLevel = core.RiskMedium
	}
	report.Concerns = append(report.Concerns, parsed.Concerns...)
	report.Suggestions = parsed.Suggestions
	report.Blocked = report.RiskLevel == core.RiskHigh
	return report
}

// merge combines two reports, keeping the maximum risk level.
func merge(a, b core.GuardianReport) core.GuardianReport {
	out := a
	if b.RiskLevel.Exceeds(out.RiskLevel) {
		out.RiskLevel = b.RiskLevel
	}
	out.Concerns = append(out.Concerns, b.Concerns...)
	out.Suggestions = append(out.Suggestions, b.Suggestions...)
	out.Blocked = out.RiskLevel == core.RiskHigh
	return out
}

func (s *Scanner) remember(key string, report core.GuardianReport) {
	s.cache.Set(key, report, 1)
	// Set is async; Wait makes repeat scans of the same content hit the
	// cache deterministically.
	s.cache.Wait()
}

func cacheKey(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
