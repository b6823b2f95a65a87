package model

import "concierge/internal/hash"

type ResolvedInput struct {
	Name  string `yaml:"name" json:"name"`
	Type  string `yaml:"type" json:"type"`
	Value any    `yaml:"value" json:"value"`
}

type ResolvedInputs struct {
	Inputs []ResolvedInput `yaml:"inputs" json:"inputs"`
}

type ResourceRequirements struct {
	TotalCPUCores int  `yaml:"total_cpu_cores" json:"total_cpu_cores"`
	GPURequired   bool `yaml:"gpu_required" json:"gpu_required"`
	TotalMemoryMB int  `yaml:"total_memory_mb" json:"total_memory_mb"`
	TotalDiskMB   int  `yaml:"total_disk_mb" json:"total_disk_mb"`
}

// ExecutionPlan binds a job to a matched package with resolved inputs.
// Immutable once persisted; a retried job gets a new plan_id.
type ExecutionPlan struct {
	PlanID            string               `yaml:"plan_id" json:"plan_id"`
	CreatedAt         string               `yaml:"created_at" json:"created_at"`
	JobID             string               `yaml:"job_id" json:"job_id"`
	PackageID         string               `yaml:"package_id" json:"package_id"`
	PackageVersion    string               `yaml:"package_version" json:"package_version"`
	MatchedConfidence float64              `yaml:"matched_confidence" json:"matched_confidence"`
	ResolvedInputs    ResolvedInputs       `yaml:"resolved_inputs" json:"resolved_inputs"`
	Pipeline          Pipeline             `yaml:"pipeline" json:"pipeline"`
	Resources         ResourceRequirements `yaml:"resources" json:"resources"`
}

// CanonicalMap excludes plan identity and match provenance (plan_id,
// created_at, matched_confidence).
func (p ExecutionPlan) CanonicalMap() map[string]any {
	inputs := make([]map[string]any, len(p.ResolvedInputs.Inputs))
	for i, in := range p.ResolvedInputs.Inputs {
		inputs[i] = map[string]any{
			"name":  in.Name,
			"type":  in.Type,
			"value": in.Value,
		}
	}
	return map[string]any{
		"job_id":          p.JobID,
		"package_id":      p.PackageID,
		"package_version": p.PackageVersion,
		"resolved_inputs": map[string]any{"inputs": hash.SortByName(inputs)},
		"pipeline":        pipelineCanonical(p.Pipeline),
		"resources": map[string]any{
			"total_cpu_cores": p.Resources.TotalCPUCores,
			"gpu_required":    p.Resources.GPURequired,
			"total_memory_mb": p.Resources.TotalMemoryMB,
			"total_disk_mb":   p.Resources.TotalDiskMB,
		},
	}
}

func (p ExecutionPlan) Hash() (string, error) {
	return hash.Sum(p.CanonicalMap())
}
