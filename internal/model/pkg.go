package model

import "concierge/internal/hash"

type WorkerStatus string

const (
	WorkerAvailable   WorkerStatus = "available"
	WorkerUnavailable WorkerStatus = "unavailable"
	WorkerDeprecated  WorkerStatus = "deprecated"
)

type ContractField struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description" json:"description"`
	Required    bool   `yaml:"required" json:"required"`
}

type Contract struct {
	Fields []ContractField `yaml:"fields" json:"fields"`
}

// FieldNames returns the set of field names declared by the contract.
func (c Contract) FieldNames() map[string]bool {
	names := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		names[f.Name] = true
	}
	return names
}

// IntentSpec declares what free-text intents a package can satisfy.
type IntentSpec struct {
	Category            string   `yaml:"category" json:"category"`
	Verbs               []string `yaml:"verbs" json:"verbs"`
	Entities            []string `yaml:"entities" json:"entities"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold" json:"confidence_threshold"`
	MatchRules          []string `yaml:"match_rules" json:"match_rules"`
}

type WorkerRef struct {
	WorkerID string       `yaml:"worker_id" json:"worker_id"`
	Version  string       `yaml:"version" json:"version"`
	Status   WorkerStatus `yaml:"status" json:"status"`
}

type PipelineStep struct {
	StepID  string         `yaml:"step_id" json:"step_id"`
	Worker  WorkerRef      `yaml:"worker" json:"worker"`
	Inputs  []string       `yaml:"inputs" json:"inputs"`
	Outputs []string       `yaml:"outputs" json:"outputs"`
	Params  map[string]any `yaml:"params" json:"params"`
}

// Pipeline is a strictly ordered step list, not a general DAG.
type Pipeline struct {
	Steps []PipelineStep `yaml:"steps" json:"steps"`
}

type ApprovalPolicy struct {
	Required   bool     `yaml:"required" json:"required"`
	Conditions []string `yaml:"conditions" json:"conditions"`
}

type VerificationRule struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Check       string `yaml:"check" json:"check"`
}

type Verification struct {
	Required bool               `yaml:"required" json:"required"`
	Rules    []VerificationRule `yaml:"rules" json:"rules"`
}

type FailureMode struct {
	Error      string `yaml:"error" json:"error"`
	Recovery   string `yaml:"recovery" json:"recovery"`
	MaxRetries int    `yaml:"max_retries" json:"max_retries"`
}

// FailureHandling is declared on packages but never consulted by the
// router; it is a reserved extension point.
type FailureHandling struct {
	Modes []FailureMode `yaml:"modes" json:"modes"`
}

type ResourceProfile struct {
	CPUCores    int  `yaml:"cpu_cores" json:"cpu_cores"`
	GPURequired bool `yaml:"gpu_required" json:"gpu_required"`
	MemoryMB    int  `yaml:"memory_mb" json:"memory_mb"`
	DiskMB      int  `yaml:"disk_mb" json:"disk_mb"`
}

// TaskPackage is an immutable versioned definition of how to satisfy a class
// of intents. Identity is (package_id, version); package_id is
// "<category>.<name>".
type TaskPackage struct {
	PackageID       string          `yaml:"package_id" json:"package_id"`
	Version         string          `yaml:"version" json:"version"`
	Title           string          `yaml:"title" json:"title"`
	Description     string          `yaml:"description" json:"description"`
	Intent          IntentSpec      `yaml:"intent" json:"intent"`
	InputContract   Contract        `yaml:"input_contract" json:"input_contract"`
	OutputContract  Contract        `yaml:"output_contract" json:"output_contract"`
	Pipeline        Pipeline        `yaml:"pipeline" json:"pipeline"`
	Approval        ApprovalPolicy  `yaml:"approval" json:"approval"`
	Verification    Verification    `yaml:"verification" json:"verification"`
	FailureHandling FailureHandling `yaml:"failure_handling" json:"failure_handling"`
	Resources       ResourceProfile `yaml:"resources" json:"resources"`
	Metadata        map[string]any  `yaml:"metadata" json:"metadata"`
}

func contractCanonical(c Contract) map[string]any {
	fields := make([]map[string]any, len(c.Fields))
	for i, f := range c.Fields {
		fields[i] = map[string]any{
			"name":        f.Name,
			"type":        f.Type,
			"description": f.Description,
			"required":    f.Required,
		}
	}
	return map[string]any{"fields": hash.SortByName(fields)}
}

func pipelineCanonical(p Pipeline) map[string]any {
	// Steps are semantically ordered: declaration order is execution order
	// and must influence the hash. Step inputs/outputs are name sets.
	steps := make([]map[string]any, len(p.Steps))
	for i, s := range p.Steps {
		steps[i] = map[string]any{
			"step_id": s.StepID,
			"worker": map[string]any{
				"worker_id": s.Worker.WorkerID,
				"version":   s.Worker.Version,
				"status":    string(s.Worker.Status),
			},
			"inputs":  hash.SortedStrings(s.Inputs),
			"outputs": hash.SortedStrings(s.Outputs),
			"params":  s.Params,
		}
	}
	return map[string]any{"steps": steps}
}

// CanonicalMap excludes the free-form metadata section; everything else is
// semantic content.
func (p TaskPackage) CanonicalMap() map[string]any {
	rules := make([]map[string]any, len(p.Verification.Rules))
	for i, r := range p.Verification.Rules {
		rules[i] = map[string]any{
			"name":        r.Name,
			"description": r.Description,
			"check":       r.Check,
		}
	}
	modes := make([]map[string]any, len(p.FailureHandling.Modes))
	for i, m := range p.FailureHandling.Modes {
		modes[i] = map[string]any{
			"error":       m.Error,
			"recovery":    m.Recovery,
			"max_retries": m.MaxRetries,
		}
	}
	return map[string]any{
		"package_id":  p.PackageID,
		"version":     p.Version,
		"title":       p.Title,
		"description": p.Description,
		"intent": map[string]any{
			"category":             p.Intent.Category,
			"verbs":                hash.SortedStrings(p.Intent.Verbs),
			"entities":             hash.SortedStrings(p.Intent.Entities),
			"confidence_threshold": p.Intent.ConfidenceThreshold,
			"match_rules":          hash.SortedStrings(p.Intent.MatchRules),
		},
		"input_contract":  contractCanonical(p.InputContract),
		"output_contract": contractCanonical(p.OutputContract),
		"pipeline":        pipelineCanonical(p.Pipeline),
		"approval": map[string]any{
			"required":   p.Approval.Required,
			"conditions": hash.SortedStrings(p.Approval.Conditions),
		},
		"verification": map[string]any{
			"required": p.Verification.Required,
			"rules":    hash.SortByName(rules),
		},
		"failure_handling": map[string]any{
			"modes": hash.SortByKey(modes, "error"),
		},
		"resources": map[string]any{
			"cpu_cores":    p.Resources.CPUCores,
			"gpu_required": p.Resources.GPURequired,
			"memory_mb":    p.Resources.MemoryMB,
			"disk_mb":      p.Resources.DiskMB,
		},
	}
}

func (p TaskPackage) Hash() (string, error) {
	return hash.Sum(p.CanonicalMap())
}
