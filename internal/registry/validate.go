package registry

import (
	"fmt"
	"strconv"
	"strings"

	"concierge/internal/model"
)

// Validate checks a package's structural integrity. All violations are
// collected and returned together; a nil result means the package is valid.
func Validate(pkg model.TaskPackage) *ValidationErrors {
	errs := &ValidationErrors{}

	if !strings.Contains(pkg.PackageID, ".") {
		errs.Add("package_id", "must be <category>.<name> format (e.g. audio.processor)")
	}

	if !isNumericTriple(pkg.Version) {
		errs.Add("version", fmt.Sprintf("must be numeric semver format (e.g. 1.0.0): %s", pkg.Version))
	}

	if len(pkg.Pipeline.Steps) == 0 {
		errs.Add("pipeline", "must contain at least one step")
	}

	for i, step := range pkg.Pipeline.Steps {
		prefix := fmt.Sprintf("pipeline.steps[%d]", i)
		if step.StepID == "" {
			errs.Add(prefix+".step_id", "required field is missing")
		}
		if step.Worker.WorkerID == "" {
			errs.Add(prefix+".worker.worker_id", "required field is missing")
		}
	}

	// Step-input availability: every step input must be satisfied by the
	// input contract or an earlier step's declared outputs, accumulated in
	// declared order.
	available := pkg.InputContract.FieldNames()
	for i, step := range pkg.Pipeline.Steps {
		prefix := fmt.Sprintf("pipeline.steps[%d]", i)
		for _, input := range step.Inputs {
			if !available[input] {
				errs.Add(prefix+".inputs", fmt.Sprintf("step %s references undefined input: %s", step.StepID, input))
			}
		}
		for _, output := range step.Outputs {
			available[output] = true
		}
	}

	// Every output-contract field must eventually be produced.
	for _, field := range pkg.OutputContract.Fields {
		if !available[field.Name] {
			errs.Add("output_contract", fmt.Sprintf("output %s not produced by any pipeline step", field.Name))
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

// isNumericTriple accepts versions whose first three dot-separated
// components are all numeric.
func isNumericTriple(version string) bool {
	parts := strings.Split(version, ".")
	if len(parts) < 3 {
		return false
	}
	for _, part := range parts[:3] {
		if _, err := strconv.Atoi(part); err != nil {
			return false
		}
	}
	return true
}
