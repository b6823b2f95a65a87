package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"concierge/internal/model"
	atomicyaml "concierge/internal/yaml"
)

const sessionFile = "session.json"

// DefaultMode is the active mode of a workspace with no session state yet.
const DefaultMode = "chat"

// ModeSpec describes a reasoning bias mode. The catalog is read-only.
type ModeSpec struct {
	Name        string
	Description string
	Bias        string
}

var modeCatalog = []ModeSpec{
	{Name: "chat", Description: "Conversational interaction, exploratory discussion", Bias: "conversational, exploratory"},
	{Name: "code", Description: "Code generation and implementation focus", Bias: "precise, implementation-focused"},
	{Name: "snap", Description: "Quick decisions, minimal deliberation", Bias: "fast, decisive, minimal prose"},
	{Name: "xform", Description: "Transform/refactor existing artifacts", Bias: "structural, preserving intent"},
}

func Modes() []ModeSpec {
	out := make([]ModeSpec, len(modeCatalog))
	copy(out, modeCatalog)
	return out
}

func ValidMode(name string) bool {
	for _, m := range modeCatalog {
		if m.Name == name {
			return true
		}
	}
	return false
}

// SessionState is persisted to context/session.json.
type SessionState struct {
	ActiveMode string `json:"active_mode"`
	UpdatedAt  string `json:"updated_at"`
}

type Session struct {
	workspacePath string
}

func NewSession(workspacePath string) *Session {
	return &Session{workspacePath: workspacePath}
}

func (s *Session) path() string {
	return filepath.Join(s.workspacePath, "context", sessionFile)
}

// Load returns the persisted session state, or the default state if the
// file is missing or corrupted.
func (s *Session) Load() SessionState {
	content, err := os.ReadFile(s.path())
	if err != nil {
		return SessionState{ActiveMode: DefaultMode}
	}
	var state SessionState
	if err := json.Unmarshal(content, &state); err != nil || state.ActiveMode == "" {
		return SessionState{ActiveMode: DefaultMode}
	}
	return state
}

func (s *Session) Save(state SessionState) error {
	state.UpdatedAt = model.NowUTC()
	content, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := atomicyaml.AtomicWriteRaw(s.path(), content); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (s *Session) Mode() string {
	return s.Load().ActiveMode
}

func (s *Session) SetMode(name string) (SessionState, error) {
	if !ValidMode(name) {
		names := make([]string, 0, len(modeCatalog))
		for _, m := range modeCatalog {
			names = append(names, m.Name)
		}
		return SessionState{}, fmt.Errorf("invalid mode %q, valid modes: %s", name, strings.Join(names, ", "))
	}
	state := SessionState{ActiveMode: name}
	if err := s.Save(state); err != nil {
		return SessionState{}, err
	}
	return s.Load(), nil
}
