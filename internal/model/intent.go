package model

import "concierge/internal/hash"

// Intent is the structured, hash-identified summary of a free-text request.
// Produced by the synthesizer, consumed read-only by the engine.
type Intent struct {
	IntentID        string   `json:"intent_id"`
	Mode            string   `json:"mode"`
	DistilledIntent string   `json:"distilled_intent"`
	SuccessCriteria string   `json:"success_criteria"`
	Constraints     []string `json:"constraints"`
	CreatedAt       string   `json:"created_at"`
	IntentHash      string   `json:"intent_hash"`
}

// CanonicalMap excludes intent_id, created_at and the hash itself.
func (i Intent) CanonicalMap() map[string]any {
	return map[string]any{
		"mode":             i.Mode,
		"distilled_intent": i.DistilledIntent,
		"success_criteria": i.SuccessCriteria,
		"constraints":      hash.SortedStrings(i.Constraints),
	}
}

func (i Intent) Hash() (string, error) {
	return hash.Sum(i.CanonicalMap())
}
