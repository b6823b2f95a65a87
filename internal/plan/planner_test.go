package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/model"
	"concierge/internal/registry"
)

func matcherPackage(id, version, category string, threshold float64, verbs, entities []string) model.TaskPackage {
	return model.TaskPackage{
		PackageID: id,
		Version:   version,
		Title:     id,
		Intent: model.IntentSpec{
			Category:            category,
			Verbs:               verbs,
			Entities:            entities,
			ConfidenceThreshold: threshold,
		},
		InputContract: model.Contract{Fields: []model.ContractField{
			{Name: "source_folder", Type: "folder", Required: true},
			{Name: "dry_run", Type: "boolean", Required: false},
		}},
		OutputContract: model.Contract{Fields: []model.ContractField{
			{Name: "output", Type: "string", Required: true},
		}},
		Pipeline: model.Pipeline{Steps: []model.PipelineStep{
			{
				StepID:  "work",
				Worker:  model.WorkerRef{WorkerID: "echo_worker", Version: "1.0.0", Status: model.WorkerAvailable},
				Inputs:  []string{"source_folder"},
				Outputs: []string{"output"},
			},
		}},
		Resources: model.ResourceProfile{CPUCores: 2, MemoryMB: 512, DiskMB: 1024},
	}
}

func plannerWith(t *testing.T, pkgs ...model.TaskPackage) *Planner {
	t.Helper()
	reg := registry.New(t.TempDir())
	for _, p := range pkgs {
		_, err := reg.Add(p)
		require.NoError(t, err)
	}
	return NewPlanner(reg)
}

func jobSpecWithIntent(text string) model.JobSpec {
	return model.JobSpec{Title: text, Intent: text}
}

func TestMatchPackageByKeywordOverlap(t *testing.T) {
	p := plannerWith(t,
		matcherPackage("media.organize", "1.0.0", "media", 0.2,
			[]string{"organize", "sort"}, []string{"photos", "images"}),
		matcherPackage("docs.summarize", "1.0.0", "docs", 0.2,
			[]string{"summarize"}, []string{"document", "report"}),
	)

	m, err := p.MatchPackage(jobSpecWithIntent("organize the photos"), "")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, "media.organize", m.Package.PackageID)
	assert.Greater(t, m.Score, 0.5)
}

func TestMatchPackageVerbBonus(t *testing.T) {
	// Both packages cover the same vocabulary, but only one declares
	// "organize" as a verb; the bonus must break the tie decisively.
	verbMatch := matcherPackage("media.organize", "1.0.0", "media", 0.1,
		[]string{"organize"}, []string{"photos"})
	entityOnly := matcherPackage("media.catalog", "1.0.0", "media", 0.1,
		[]string{"catalog"}, []string{"organize", "photos"})

	p := plannerWith(t, verbMatch, entityOnly)
	result, err := p.MatchWithAmbiguity(jobSpecWithIntent("organize the vacation photos quickly"), "")
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)

	best := result.Best()
	assert.Equal(t, "media.organize", best.Package.PackageID)
	assert.InDelta(t, 0.2, best.Score-result.Candidates[1].Score, 1e-9)
	assert.False(t, result.Ambiguous)
}

func TestMatchPackageThreshold(t *testing.T) {
	strict := matcherPackage("media.organize", "1.0.0", "media", 0.9,
		[]string{"organize"}, []string{"photos"})
	p := plannerWith(t, strict)

	m, err := p.MatchPackage(jobSpecWithIntent("organize something else entirely today"), "")
	require.NoError(t, err)
	assert.Nil(t, m, "weak overlap must not clear a strict threshold")
}

func TestMatchPackageScoreCap(t *testing.T) {
	p := plannerWith(t, matcherPackage("media.organize", "1.0.0", "media", 0.1,
		[]string{"organize", "sort", "photos"}, []string{"photos"}))

	m, err := p.MatchPackage(jobSpecWithIntent("organize sort photos"), "")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, 1.0, m.Score)
}

func TestMatchAmbiguity(t *testing.T) {
	a := matcherPackage("media.organize", "1.0.0", "media", 0.1,
		[]string{"organize"}, []string{"photos"})
	b := matcherPackage("media.tidy", "1.0.0", "media", 0.1,
		[]string{"organize"}, []string{"photos"})

	p := plannerWith(t, a, b)
	result, err := p.MatchWithAmbiguity(jobSpecWithIntent("organize the photos"), "")
	require.NoError(t, err)
	require.Len(t, result.Candidates, 2)
	assert.True(t, result.Ambiguous, "identical scores are ambiguous")
	// Equal scores keep registry order, which sorts by package_id.
	assert.Equal(t, "media.organize", result.Candidates[0].Package.PackageID)
}

func TestMatchCategoryHint(t *testing.T) {
	a := matcherPackage("media.organize", "1.0.0", "media", 0.1,
		[]string{"organize"}, []string{"photos"})
	b := matcherPackage("docs.organize", "1.0.0", "docs", 0.1,
		[]string{"organize"}, []string{"photos"})

	p := plannerWith(t, a, b)
	result, err := p.MatchWithAmbiguity(jobSpecWithIntent("organize the photos"), "docs")
	require.NoError(t, err)
	require.Len(t, result.Candidates, 1)
	assert.Equal(t, "docs.organize", result.Candidates[0].Package.PackageID)
	assert.False(t, result.Ambiguous)
}

func TestGeneratePlanResolvesInputs(t *testing.T) {
	pkg := matcherPackage("media.organize", "1.0.0", "media", 0.2,
		[]string{"organize"}, []string{"photos"})
	p := plannerWith(t, pkg)

	job := &model.Job{
		JobID: "job-550e8400-e29b-41d4-a716-446655440000",
		JobSpec: model.JobSpec{
			Title:  "organize the photos",
			Intent: "organize the photos",
			Inputs: []model.JobInput{
				{Name: "source_folder", Type: model.InputTypeFolder, Value: "photos/", Required: true},
			},
		},
	}

	ep, err := p.GeneratePlan(job, &pkg, 0.7)
	require.NoError(t, err)

	assert.True(t, model.ValidateID(ep.PlanID))
	assert.Equal(t, job.JobID, ep.JobID)
	assert.Equal(t, "media.organize", ep.PackageID)
	assert.Equal(t, 0.7, ep.MatchedConfidence)
	assert.Equal(t, pkg.Pipeline, ep.Pipeline)
	assert.Equal(t, 2, ep.Resources.TotalCPUCores)
	assert.Equal(t, 512, ep.Resources.TotalMemoryMB)

	// source_folder resolves from the job; optional dry_run is omitted.
	require.Len(t, ep.ResolvedInputs.Inputs, 1)
	assert.Equal(t, "source_folder", ep.ResolvedInputs.Inputs[0].Name)
	assert.Equal(t, "photos/", ep.ResolvedInputs.Inputs[0].Value)
}

func TestGeneratePlanMarksUnresolvedRequiredInputs(t *testing.T) {
	pkg := matcherPackage("media.organize", "1.0.0", "media", 0.2,
		[]string{"organize"}, []string{"photos"})
	p := plannerWith(t, pkg)

	job := &model.Job{
		JobID:   "job-550e8400-e29b-41d4-a716-446655440000",
		JobSpec: jobSpecWithIntent("organize the photos"),
	}

	ep, err := p.GeneratePlan(job, &pkg, 0.5)
	require.NoError(t, err)
	require.Len(t, ep.ResolvedInputs.Inputs, 1)
	assert.Equal(t, "<unresolved:source_folder>", ep.ResolvedInputs.Inputs[0].Value)
}

func TestPlanHashExcludesIdentity(t *testing.T) {
	pkg := matcherPackage("media.organize", "1.0.0", "media", 0.2,
		[]string{"organize"}, []string{"photos"})
	p := plannerWith(t, pkg)
	job := &model.Job{
		JobID:   "job-550e8400-e29b-41d4-a716-446655440000",
		JobSpec: jobSpecWithIntent("organize the photos"),
	}

	a, err := p.GeneratePlan(job, &pkg, 0.5)
	require.NoError(t, err)
	b, err := p.GeneratePlan(job, &pkg, 0.9)
	require.NoError(t, err)

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	// plan_id, created_at and matched_confidence are provenance, not content.
	assert.Equal(t, ha, hb)
}
