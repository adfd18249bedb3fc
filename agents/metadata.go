package agents

import (
	"encoding/json"
	"log"
	"regexp"
	"strings"

	"github.com/researchinpublic/mentor-go-sdk/core"
)

var (
	emotionalBlock = regexp.MustCompile(`(?is)\[\[\s*EMOTIONAL_ANALYSIS\s*\]\]\s*(.*?)\s*\[\[\s*END_EMOTIONAL_ANALYSIS\s*\]\]`)
	clarityBlock   = regexp.MustCompile(`(?is)\[\[\s*CLARITY_SCORE\s*\]\]\s*(.*?)\s*\[\[\s*END_CLARITY_SCORE\s*\]\]`)
)

// ParseMetadata strips the bracketed analysis blocks agents emit and
// returns the parsed metadata plus the clean response text. Unparseable
// blocks are dropped rather than shown to the user.
func ParseMetadata(raw string) (core.AgentMetadata, string) {
	var meta core.AgentMetadata
	clean := raw

	if m := emotionalBlock.FindStringSubmatch(clean); m != nil {
		var parsed struct {
			EmotionalSpectrum  string `json:"emotional_spectrum"`
			EmotionalIntensity int    `json:"emotional_intensity"`
			GroundingTechnique string `json:"grounding_technique"`
		}
		if err := json.Unmarshal([]byte(extractJSON(m[1])), &parsed); err != nil {
			log.Printf("[AGENTS] Failed to parse emotional analysis: %v", err)
		} else {
			meta.EmotionalSpectrum = parsed.EmotionalSpectrum
			meta.EmotionalIntensity = parsed.EmotionalIntensity
			meta.GroundingTechnique = parsed.GroundingTechnique
		}
		clean = strings.TrimSpace(strings.Replace(clean, m[0], "", 1))
	}

	if m := clarityBlock.FindStringSubmatch(clean); m != nil {
		var parsed struct {
			Clarity int    `json:"clarity"`
			Logic   int    `json:"logic"`
			Focus   string `json:"focus"`
		}
		if err := json.Unmarshal([]byte(extractJSON(m[1])), &parsed); err != nil {
			log.Printf("[AGENTS] Failed to parse clarity score: %v", err)
		} else {
			meta.ClarityScore = parsed.Clarity
			meta.LogicScore = parsed.Logic
			meta.CritiqueFocus = parsed.Focus
		}
		clean = strings.TrimSpace(strings.Replace(clean, m[0], "", 1))
	}

	return meta, clean
}

// extractJSON pulls the outermost JSON object out of a block that may
// be wrapped in markdown fences.
func extractJSON(block string) string {
	block = strings.TrimSpace(block)
	block = strings.TrimPrefix(block, "```json")
	block = strings.TrimPrefix(block, "```")
	block = strings.TrimSuffix(block, "```")

	start := strings.Index(block, "{")
	end := strings.LastIndex(block, "}")
	if start == -1 || end == -1 || end <= start {
		return ""
	}
	return block[start : end+1]
}
