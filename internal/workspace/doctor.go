package workspace

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	atomicyaml "concierge/internal/yaml"
	yamlv3 "gopkg.in/yaml.v3"
)

// DoctorResult reports one corrupted record found during a workspace scan.
type DoctorResult struct {
	Path     string
	Err      string
	Restored bool
}

// Doctor scans the workspace's persisted records, quarantines any that no
// longer parse and attempts a .bak restore for each. Listing operations
// skip corrupted records without touching them; Doctor is the explicit
// operation that cleans them up.
func Doctor(workspacePath string) ([]DoctorResult, error) {
	if err := Validate(workspacePath); err != nil {
		return nil, err
	}

	var results []DoctorResult

	yamlGlobs := []string{
		filepath.Join(workspacePath, "jobs", "*", "job.yaml"),
		filepath.Join(workspacePath, "jobs", "*", "plans", "*.yaml"),
		filepath.Join(workspacePath, "packages", "*", "*", "v*", "package.yaml"),
	}
	for _, pattern := range yamlGlobs {
		paths, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", pattern, err)
		}
		for _, p := range paths {
			if parseErr := checkYAML(p); parseErr != nil {
				results = append(results, recoverRecord(workspacePath, p, parseErr))
			}
		}
	}

	intentPaths, err := filepath.Glob(filepath.Join(workspacePath, "artifacts", "intent_*.json"))
	if err != nil {
		return nil, fmt.Errorf("scan intents: %w", err)
	}
	for _, p := range intentPaths {
		if parseErr := checkJSON(p); parseErr != nil {
			results = append(results, recoverRecord(workspacePath, p, parseErr))
		}
	}

	return results, nil
}

func recoverRecord(workspacePath, path string, parseErr error) DoctorResult {
	restored, err := atomicyaml.Recover(workspacePath, path)
	result := DoctorResult{Path: path, Err: parseErr.Error(), Restored: restored}
	if err != nil {
		result.Err = fmt.Sprintf("%v (recovery failed: %v)", parseErr, err)
	}
	return result
}

func checkYAML(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var v any
	return yamlv3.Unmarshal(content, &v)
}

func checkJSON(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var v any
	return json.Unmarshal(content, &v)
}
