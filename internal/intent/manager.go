package intent

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"concierge/internal/model"
)

const (
	artifactsSubdir = "artifacts"
	intentPrefix    = "intent_"
	hashPrefixLen   = 16
)

// Manager stores intents as artifacts/intent_<hash16>.json.
type Manager struct {
	artifactsDir string
}

func NewManager(workspacePath string) *Manager {
	return &Manager{artifactsDir: filepath.Join(workspacePath, artifactsSubdir)}
}

func (m *Manager) path(intentHash string) string {
	return filepath.Join(m.artifactsDir, intentPrefix+intentHash[:hashPrefixLen]+".json")
}

func (m *Manager) Save(in *model.Intent) (string, error) {
	if err := os.MkdirAll(m.artifactsDir, 0755); err != nil {
		return "", fmt.Errorf("create artifacts dir: %w", err)
	}
	path := m.path(in.IntentHash)
	content, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal intent: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write intent: %w", err)
	}
	return path, nil
}

// Load resolves an intent by full or partial hash (prefix search for
// anything shorter than the file-name prefix). Absent or corrupted records
// load as nil.
func (m *Manager) Load(intentHash string) (*model.Intent, error) {
	if len(intentHash) >= hashPrefixLen {
		if in := readIntent(m.path(intentHash)); in != nil {
			return in, nil
		}
	}

	prefix := intentHash
	if len(prefix) > hashPrefixLen {
		prefix = prefix[:hashPrefixLen]
	}
	matches, err := filepath.Glob(filepath.Join(m.artifactsDir, intentPrefix+prefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob intents: %w", err)
	}
	if len(matches) == 0 {
		return nil, nil
	}
	sort.Strings(matches)
	return readIntent(matches[0]), nil
}

// List returns all stored intents, newest first. Corrupted records are
// skipped.
func (m *Manager) List() ([]model.Intent, error) {
	matches, err := filepath.Glob(filepath.Join(m.artifactsDir, intentPrefix+"*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob intents: %w", err)
	}
	var intents []model.Intent
	for _, path := range matches {
		if in := readIntent(path); in != nil {
			intents = append(intents, *in)
		}
	}
	sort.Slice(intents, func(i, j int) bool {
		return intents[i].CreatedAt > intents[j].CreatedAt
	})
	return intents, nil
}

// VerifyHash recomputes the intent's canonical hash and compares it to the
// stored value.
func (m *Manager) VerifyHash(in *model.Intent) (bool, error) {
	computed, err := in.Hash()
	if err != nil {
		return false, err
	}
	return computed == in.IntentHash, nil
}

func readIntent(path string) *model.Intent {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var in model.Intent
	if err := json.Unmarshal(content, &in); err != nil {
		return nil
	}
	return &in
}
