// Package intent synthesizes structured intents from free text and manages
// their hash-addressed storage. The engine consumes intents read-only; this
// package is the producer side.
package intent

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"concierge/internal/model"
)

// Deterministic namespace for UUIDv5 intent IDs.
var intentNamespace = uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")

var sentencePattern = regexp.MustCompile(`[^.!?]*[.!?]+`)

var successPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:should|must|needs to|will)\s+([^.!?]+[.!?])`),
	regexp.MustCompile(`(?i)success (?:is|criteria|means)\s*[:-]?\s*([^.!?]+[.!?])`),
	regexp.MustCompile(`(?i)(?:to achieve|goal is)\s+([^.!?]+[.!?])`),
}

var constraintPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)must (?:use|implement|have)\s+([^,.]+)`),
	regexp.MustCompile(`(?i)cannot\s+([^,.]+)`),
	regexp.MustCompile(`(?i)within\s+([^,.]+)`),
	regexp.MustCompile(`(?i)only\s+([^,.]+)`),
	regexp.MustCompile(`(?i)(?:no|never)\s+([^,.]+)`),
}

var trailingPunct = regexp.MustCompile(`[,;.!?]$`)

// Synthesize extracts a structured intent from user text and stamps its
// content hash and deterministic UUIDv5 identifier.
func Synthesize(text, mode string) (*model.Intent, error) {
	distilled := extractDistilled(text)
	success := extractSuccessCriteria(text)
	constraints := extractConstraints(text)

	in := model.Intent{
		Mode:            mode,
		DistilledIntent: distilled,
		SuccessCriteria: success,
		Constraints:     constraints,
		CreatedAt:       model.NowUTC(),
	}

	intentHash, err := in.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash intent: %w", err)
	}
	in.IntentHash = intentHash
	in.IntentID = uuid.NewSHA1(intentNamespace, []byte(intentHash)).String()

	return &in, nil
}

// extractDistilled returns the first sentence, capped at 100 runes.
func extractDistilled(text string) string {
	text = strings.TrimSpace(text)
	first := text
	if m := sentencePattern.FindString(text); m != "" {
		first = strings.TrimSpace(m)
	}
	if r := []rune(first); len(r) > 100 {
		first = strings.TrimRight(string(r[:100]), " ") + "..."
	}
	return first
}

func extractSuccessCriteria(text string) string {
	for _, p := range successPatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return "Successfully complete: " + extractDistilled(text)
}

func extractConstraints(text string) []string {
	seen := make(map[string]bool)
	for _, p := range constraintPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			constraint := trailingPunct.ReplaceAllString(strings.TrimSpace(m[1]), "")
			if len(constraint) > 2 {
				seen[constraint] = true
			}
		}
	}
	constraints := make([]string, 0, len(seen))
	for c := range seen {
		constraints = append(constraints, c)
	}
	sort.Strings(constraints)
	return constraints
}
