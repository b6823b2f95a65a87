package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"concierge/internal/model"
)

func TestValidateAcceptsWellFormedPackage(t *testing.T) {
	pkg := testPackage("utility.echo", "1.0.0", "utility")
	assert.Nil(t, Validate(pkg))
}

func TestValidateCollectsAllViolations(t *testing.T) {
	pkg := model.TaskPackage{
		PackageID: "nodot",
		Version:   "one.two",
	}
	verrs := Validate(pkg)
	require.NotNil(t, verrs)
	// package_id, version and empty pipeline are all reported together.
	assert.GreaterOrEqual(t, len(verrs.Errors), 3)

	paths := make([]string, 0, len(verrs.Errors))
	for _, e := range verrs.Errors {
		paths = append(paths, e.FieldPath)
	}
	assert.Contains(t, paths, "package_id")
	assert.Contains(t, paths, "version")
	assert.Contains(t, paths, "pipeline")
}

func TestValidateVersionFormats(t *testing.T) {
	tests := []struct {
		version string
		valid   bool
	}{
		{"1.0.0", true},
		{"0.12.3", true},
		{"1.0.0.7", true},
		{"1.0", false},
		{"v1.0.0", false},
		{"1.0.x", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			pkg := testPackage("utility.echo", tt.version, "utility")
			verrs := Validate(pkg)
			if tt.valid {
				assert.Nil(t, verrs)
				return
			}
			require.NotNil(t, verrs)
			found := false
			for _, e := range verrs.Errors {
				if e.FieldPath == "version" {
					found = true
				}
			}
			assert.True(t, found, "expected a version violation for %q", tt.version)
		})
	}
}

func TestValidateStepIdentity(t *testing.T) {
	pkg := testPackage("utility.echo", "1.0.0", "utility")
	pkg.Pipeline.Steps[0].StepID = ""
	pkg.Pipeline.Steps[0].Worker.WorkerID = ""

	verrs := Validate(pkg)
	require.NotNil(t, verrs)
	assert.Contains(t, verrs.Error(), "step_id")
	assert.Contains(t, verrs.Error(), "worker_id")
}

func TestValidateStepInputAvailability(t *testing.T) {
	pkg := testPackage("utility.echo", "1.0.0", "utility")
	pkg.Pipeline.Steps[0].Inputs = []string{"message", "nonexistent"}

	verrs := Validate(pkg)
	require.NotNil(t, verrs)
	assert.Contains(t, verrs.Error(), "undefined input: nonexistent")
}

func TestValidateLaterStepMayUseEarlierOutputs(t *testing.T) {
	pkg := testPackage("utility.echo", "1.0.0", "utility")
	pkg.Pipeline.Steps = append(pkg.Pipeline.Steps, model.PipelineStep{
		StepID:  "count",
		Worker:  model.WorkerRef{WorkerID: "counter_worker", Version: "1.0.0", Status: model.WorkerAvailable},
		Inputs:  []string{"output"},
		Outputs: []string{"count"},
	})
	assert.Nil(t, Validate(pkg))

	// Reversed order breaks availability: "output" is produced later.
	pkg.Pipeline.Steps = []model.PipelineStep{pkg.Pipeline.Steps[1], pkg.Pipeline.Steps[0]}
	verrs := Validate(pkg)
	require.NotNil(t, verrs)
	assert.Contains(t, verrs.Error(), "undefined input: output")
}

func TestValidateOutputContractCoverage(t *testing.T) {
	pkg := testPackage("utility.echo", "1.0.0", "utility")
	pkg.OutputContract.Fields = append(pkg.OutputContract.Fields, model.ContractField{
		Name: "report", Type: "file", Required: true,
	})

	verrs := Validate(pkg)
	require.NotNil(t, verrs)
	assert.Contains(t, verrs.Error(), "output report not produced")
}
