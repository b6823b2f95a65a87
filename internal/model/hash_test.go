package model

import "testing"

func sampleJobSpec() JobSpec {
	return JobSpec{
		Title:           "Organize vacation photos",
		Intent:          "Organize the photos from my vacation folder",
		SuccessCriteria: []string{"photos sorted by date", "duplicates removed"},
		Constraints:     []string{"do not delete originals", "keep folder structure"},
		Inputs: []JobInput{
			{Name: "source_folder", Type: InputTypeFolder, Value: "photos/", Required: true},
			{Name: "dry_run", Type: InputTypeBoolean, Value: false, Required: false},
		},
		Outputs: []JobOutput{
			{Name: "artifacts", Type: OutputTypeFolder, Location: "artifacts/"},
		},
		ApprovalGates: DefaultApprovalGates(),
	}
}

func TestJobSpecHashIgnoresListOrder(t *testing.T) {
	a := sampleJobSpec()
	b := sampleJobSpec()
	b.SuccessCriteria = []string{"duplicates removed", "photos sorted by date"}
	b.Constraints = []string{"keep folder structure", "do not delete originals"}
	b.Inputs = []JobInput{b.Inputs[1], b.Inputs[0]}

	ha, err := a.Hash()
	if err != nil {
		t.Fatalf("hash a: %v", err)
	}
	hb, err := b.Hash()
	if err != nil {
		t.Fatalf("hash b: %v", err)
	}
	if ha != hb {
		t.Errorf("reordering unordered lists changed the hash: %s != %s", ha, hb)
	}
}

func TestJobSpecHashChangesOnSemanticEdit(t *testing.T) {
	a := sampleJobSpec()
	base, err := a.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	edits := []struct {
		name string
		edit func(*JobSpec)
	}{
		{"title", func(s *JobSpec) { s.Title = "Organize work photos" }},
		{"criterion", func(s *JobSpec) { s.SuccessCriteria = append(s.SuccessCriteria, "report written") }},
		{"input value", func(s *JobSpec) { s.Inputs[0].Value = "other/" }},
		{"gate", func(s *JobSpec) { s.ApprovalGates.RequiredOn = []string{"destructive_operations"} }},
	}
	for _, tt := range edits {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleJobSpec()
			tt.edit(&s)
			h, err := s.Hash()
			if err != nil {
				t.Fatalf("hash: %v", err)
			}
			if h == base {
				t.Error("semantic edit did not change the hash")
			}
		})
	}
}

func TestJobSpecHashIsStable(t *testing.T) {
	s := sampleJobSpec()
	h1, err := s.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	h2, err := s.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 != h2 {
		t.Errorf("hash not deterministic: %s != %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64-char sha256 hex, got %d chars", len(h1))
	}
}

func samplePackage() TaskPackage {
	return TaskPackage{
		PackageID:   "utility.echo",
		Version:     "1.0.0",
		Title:       "Echo",
		Description: "Echoes a message",
		Intent: IntentSpec{
			Category:            "utility",
			Verbs:               []string{"echo", "repeat"},
			Entities:            []string{"message", "text"},
			ConfidenceThreshold: 0.3,
		},
		InputContract: Contract{Fields: []ContractField{
			{Name: "message", Type: "string", Required: true},
		}},
		OutputContract: Contract{Fields: []ContractField{
			{Name: "output", Type: "string", Required: true},
		}},
		Pipeline: Pipeline{Steps: []PipelineStep{
			{
				StepID:  "echo",
				Worker:  WorkerRef{WorkerID: "echo_worker", Version: "1.0.0", Status: WorkerAvailable},
				Inputs:  []string{"message"},
				Outputs: []string{"output"},
			},
		}},
		Metadata: map[string]any{"author": "someone"},
	}
}

func TestPackageHashIgnoresMetadata(t *testing.T) {
	a := samplePackage()
	b := samplePackage()
	b.Metadata = map[string]any{"author": "someone else", "starred": true}

	ha, _ := a.Hash()
	hb, _ := b.Hash()
	if ha != hb {
		t.Error("metadata changes must not affect the package hash")
	}
}

func TestPackageHashKeepsStepOrderSemantic(t *testing.T) {
	two := samplePackage()
	two.Pipeline.Steps = append(two.Pipeline.Steps, PipelineStep{
		StepID:  "count",
		Worker:  WorkerRef{WorkerID: "counter_worker", Version: "1.0.0", Status: WorkerAvailable},
		Inputs:  []string{"output"},
		Outputs: []string{"count"},
	})
	swapped := samplePackage()
	swapped.Pipeline.Steps = []PipelineStep{two.Pipeline.Steps[1], two.Pipeline.Steps[0]}

	hTwo, _ := two.Hash()
	hSwapped, _ := swapped.Hash()
	if hTwo == hSwapped {
		t.Error("pipeline step order is execution order and must affect the hash")
	}

	// Step input/output name lists are sets: reordering them is not a
	// semantic change.
	reordered := samplePackage()
	reordered.Pipeline.Steps[0].Inputs = []string{"message"}
	reordered.Intent.Verbs = []string{"repeat", "echo"}
	reordered.Intent.Entities = []string{"text", "message"}
	hBase, _ := samplePackage().Hash()
	hReordered, _ := reordered.Hash()
	if hBase != hReordered {
		t.Error("reordering verb/entity sets changed the hash")
	}
}

func TestIntentHash(t *testing.T) {
	a := Intent{
		Mode:            "chat",
		DistilledIntent: "Count the files in the folder",
		SuccessCriteria: "Successfully complete: Count the files in the folder",
		Constraints:     []string{"read only"},
	}
	ha, err := a.Hash()
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	b := a
	b.Constraints = []string{"read only"}
	hb, _ := b.Hash()
	if ha != hb {
		t.Error("identical intents must hash identically")
	}

	c := a
	c.DistilledIntent = "Count the files in the archive"
	hc, _ := c.Hash()
	if ha == hc {
		t.Error("different distilled intents must hash differently")
	}
}
