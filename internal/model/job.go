package model

import "concierge/internal/hash"

type InputType string

const (
	InputTypeFile    InputType = "file"
	InputTypeFolder  InputType = "folder"
	InputTypeString  InputType = "string"
	InputTypeInteger InputType = "integer"
	InputTypeBoolean InputType = "boolean"
)

type OutputType string

const (
	OutputTypeFile   OutputType = "file"
	OutputTypeFolder OutputType = "folder"
)

type JobInput struct {
	Name     string    `yaml:"name" json:"name"`
	Type     InputType `yaml:"type" json:"type"`
	Value    any       `yaml:"value" json:"value"`
	Required bool      `yaml:"required" json:"required"`
}

type JobOutput struct {
	Name     string     `yaml:"name" json:"name"`
	Type     OutputType `yaml:"type" json:"type"`
	Location string     `yaml:"location" json:"location"`
}

type ApprovalGates struct {
	RequiredOn []string `yaml:"required_on" json:"required_on"`
}

func DefaultApprovalGates() ApprovalGates {
	return ApprovalGates{
		RequiredOn: []string{"destructive_operations", "large_compute_operations"},
	}
}

type JobSpec struct {
	Title           string        `yaml:"title" json:"title"`
	Intent          string        `yaml:"intent" json:"intent"`
	SuccessCriteria []string      `yaml:"success_criteria" json:"success_criteria"`
	Constraints     []string      `yaml:"constraints" json:"constraints"`
	Inputs          []JobInput    `yaml:"inputs" json:"inputs"`
	Outputs         []JobOutput   `yaml:"outputs" json:"outputs"`
	ApprovalGates   ApprovalGates `yaml:"approval_gates" json:"approval_gates"`
}

// CanonicalMap returns the hashing form of the spec. Unordered lists are
// sorted; lists of named objects are sorted by name.
func (s JobSpec) CanonicalMap() map[string]any {
	inputs := make([]map[string]any, len(s.Inputs))
	for i, in := range s.Inputs {
		inputs[i] = map[string]any{
			"name":     in.Name,
			"type":     string(in.Type),
			"value":    in.Value,
			"required": in.Required,
		}
	}
	outputs := make([]map[string]any, len(s.Outputs))
	for i, out := range s.Outputs {
		outputs[i] = map[string]any{
			"name":     out.Name,
			"type":     string(out.Type),
			"location": out.Location,
		}
	}
	return map[string]any{
		"title":            s.Title,
		"intent":           s.Intent,
		"success_criteria": hash.SortedStrings(s.SuccessCriteria),
		"constraints":      hash.SortedStrings(s.Constraints),
		"inputs":           hash.SortByName(inputs),
		"outputs":          hash.SortByName(outputs),
		"approval_gates": map[string]any{
			"required_on": hash.SortedStrings(s.ApprovalGates.RequiredOn),
		},
	}
}

func (s JobSpec) Hash() (string, error) {
	return hash.Sum(s.CanonicalMap())
}

// Job owns its JobSpec and the append-only approvals log. Status moves only
// through the lifecycle state machine.
type Job struct {
	JobID       string     `yaml:"job_id" json:"job_id"`
	CreatedAt   string     `yaml:"created_at" json:"created_at"`
	IntentRef   string     `yaml:"intent_ref" json:"intent_ref"`
	IntentHash  string     `yaml:"intent_hash" json:"intent_hash"`
	Status      JobStatus  `yaml:"status" json:"status"`
	ModeUsed    string     `yaml:"mode_used" json:"mode_used"`
	JobSpec     JobSpec    `yaml:"job_spec" json:"job_spec"`
	JobSpecHash string     `yaml:"job_spec_hash" json:"job_spec_hash"`
	Approvals   []Approval `yaml:"approvals" json:"approvals"`
}

// ApprovalLog wraps the job's denormalized approval records for queries.
func (j *Job) ApprovalLog() ApprovalLog {
	return ApprovalLog(j.Approvals)
}
