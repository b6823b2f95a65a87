package intent

import (
	"os"
	"path/filepath"
	"testing"
)

func TestManagerSaveAndLoad(t *testing.T) {
	ws := t.TempDir()
	m := NewManager(ws)

	in, err := Synthesize("Organize the photos.", "chat")
	if err != nil {
		t.Fatal(err)
	}
	path, err := m.Save(in)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if filepath.Base(path) != "intent_"+in.IntentHash[:16]+".json" {
		t.Errorf("unexpected artifact name: %s", path)
	}

	got, err := m.Load(in.IntentHash)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.IntentID != in.IntentID {
		t.Errorf("Load = %+v, want %+v", got, in)
	}
}

func TestManagerLoadByPartialHash(t *testing.T) {
	ws := t.TempDir()
	m := NewManager(ws)

	in, err := Synthesize("Organize the photos.", "chat")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.Save(in); err != nil {
		t.Fatal(err)
	}

	got, err := m.Load(in.IntentHash[:8])
	if err != nil {
		t.Fatalf("Load partial: %v", err)
	}
	if got == nil || got.IntentHash != in.IntentHash {
		t.Error("partial hash did not resolve the intent")
	}
}

func TestManagerLoadAbsent(t *testing.T) {
	m := NewManager(t.TempDir())
	got, err := m.Load("deadbeefdeadbeefdeadbeef")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != nil {
		t.Error("absent intent should load as nil")
	}
}

func TestManagerListSkipsCorrupt(t *testing.T) {
	ws := t.TempDir()
	m := NewManager(ws)

	a, _ := Synthesize("First request.", "chat")
	b, _ := Synthesize("Second request.", "chat")
	if _, err := m.Save(a); err != nil {
		t.Fatal(err)
	}
	if _, err := m.Save(b); err != nil {
		t.Fatal(err)
	}
	corrupt := filepath.Join(ws, "artifacts", "intent_0000000000000000.json")
	if err := os.WriteFile(corrupt, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	intents, err := m.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(intents) != 2 {
		t.Errorf("List returned %d intents, want 2", len(intents))
	}
}

func TestManagerVerifyHash(t *testing.T) {
	m := NewManager(t.TempDir())
	in, err := Synthesize("Verify me.", "chat")
	if err != nil {
		t.Fatal(err)
	}
	if ok, err := m.VerifyHash(in); err != nil || !ok {
		t.Errorf("VerifyHash = %v, %v; want true", ok, err)
	}

	in.DistilledIntent = "Tampered."
	if ok, _ := m.VerifyHash(in); ok {
		t.Error("tampered intent passed hash verification")
	}
}
