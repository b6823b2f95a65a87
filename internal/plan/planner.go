package plan

import (
	"fmt"
	"regexp"
	"strings"

	"concierge/internal/model"
	"concierge/internal/registry"
)

// ambiguityGap is the minimum score separation between the two best
// candidates before a match is considered decisive.
const ambiguityGap = 0.1

// verbBonus is added per matched intent verb, on top of keyword overlap.
const verbBonus = 0.2

var wordPattern = regexp.MustCompile(`[a-z0-9_]+`)

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"in": true, "on": true, "at": true, "to": true, "from": true,
	"is": true, "are": true, "be": true,
}

type Planner struct {
	Registry *registry.Registry
}

func NewPlanner(reg *registry.Registry) *Planner {
	return &Planner{Registry: reg}
}

// Match pairs a candidate package with its confidence score.
type Match struct {
	Package model.TaskPackage
	Score   float64
}

// MatchResult carries the full qualifying candidate list so callers can
// surface ambiguity instead of silently picking a winner.
type MatchResult struct {
	Candidates []Match
	Ambiguous  bool
}

// Best returns the highest-scoring candidate, or nil when none qualified.
func (r *MatchResult) Best() *Match {
	if len(r.Candidates) == 0 {
		return nil
	}
	return &r.Candidates[0]
}

// MatchPackage scores every registered package against the job spec and
// returns the best qualifying match, or nil when nothing clears its
// confidence threshold.
func (p *Planner) MatchPackage(spec model.JobSpec, categoryHint string) (*Match, error) {
	result, err := p.MatchWithAmbiguity(spec, categoryHint)
	if err != nil {
		return nil, err
	}
	return result.Best(), nil
}

// MatchWithAmbiguity scores every registered package and returns all
// qualifying candidates in descending score order. The result is flagged
// ambiguous when the top two scores sit within ambiguityGap of each other.
// Ties in score keep registry order, which is deterministic.
func (p *Planner) MatchWithAmbiguity(spec model.JobSpec, categoryHint string) (*MatchResult, error) {
	pkgs, err := p.Registry.List(categoryHint)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}

	keywords := extractKeywords(spec.Intent)

	var candidates []Match
	for _, pkg := range pkgs {
		score := scorePackage(keywords, pkg)
		if score >= pkg.Intent.ConfidenceThreshold {
			candidates = append(candidates, Match{Package: pkg, Score: score})
		}
	}

	// Stable insertion by score keeps registry order among equals.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].Score > candidates[j-1].Score; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	ambiguous := len(candidates) >= 2 &&
		candidates[0].Score-candidates[1].Score < ambiguityGap
	return &MatchResult{Candidates: candidates, Ambiguous: ambiguous}, nil
}

// scorePackage computes keyword overlap against the package's vocabulary
// plus a bonus per matched intent verb, capped at 1.0.
func scorePackage(keywords map[string]bool, pkg model.TaskPackage) float64 {
	if len(keywords) == 0 {
		return 0
	}

	vocab := map[string]bool{strings.ToLower(pkg.Intent.Category): true}
	for _, v := range pkg.Intent.Verbs {
		vocab[strings.ToLower(v)] = true
	}
	for _, e := range pkg.Intent.Entities {
		vocab[strings.ToLower(e)] = true
	}

	overlap := 0
	for kw := range keywords {
		if vocab[kw] {
			overlap++
		}
	}

	score := float64(overlap) / float64(len(keywords))
	for _, v := range pkg.Intent.Verbs {
		if keywords[strings.ToLower(v)] {
			score += verbBonus
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

func extractKeywords(text string) map[string]bool {
	keywords := make(map[string]bool)
	for _, word := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		if len(word) > 2 && !stopWords[word] {
			keywords[word] = true
		}
	}
	return keywords
}

// GeneratePlan builds an execution plan binding the job spec to the matched
// package. Required inputs with no value in the job spec are recorded with
// an <unresolved:NAME> placeholder so the gap is visible at approval time.
func (p *Planner) GeneratePlan(job *model.Job, pkg *model.TaskPackage, confidence float64) (*model.ExecutionPlan, error) {
	planID, err := model.GenerateID(model.IDTypePlan)
	if err != nil {
		return nil, fmt.Errorf("generate plan ID: %w", err)
	}

	jobValues := make(map[string]any, len(job.JobSpec.Inputs))
	for _, in := range job.JobSpec.Inputs {
		jobValues[in.Name] = in.Value
	}

	var resolved []model.ResolvedInput
	for _, field := range pkg.InputContract.Fields {
		value, ok := jobValues[field.Name]
		switch {
		case ok:
			resolved = append(resolved, model.ResolvedInput{
				Name: field.Name, Type: field.Type, Value: value,
			})
		case field.Required:
			resolved = append(resolved, model.ResolvedInput{
				Name:  field.Name,
				Type:  field.Type,
				Value: fmt.Sprintf("<unresolved:%s>", field.Name),
			})
		}
	}

	return &model.ExecutionPlan{
		PlanID:            planID,
		CreatedAt:         model.NowUTC(),
		JobID:             job.JobID,
		PackageID:         pkg.PackageID,
		PackageVersion:    pkg.Version,
		MatchedConfidence: confidence,
		ResolvedInputs:    model.ResolvedInputs{Inputs: resolved},
		Pipeline:          pkg.Pipeline,
		Resources: model.ResourceRequirements{
			TotalCPUCores: pkg.Resources.CPUCores,
			GPURequired:   pkg.Resources.GPURequired,
			TotalMemoryMB: pkg.Resources.MemoryMB,
			TotalDiskMB:   pkg.Resources.DiskMB,
		},
	}, nil
}
