// Package registry is the versioned, immutable store of task package
// definitions under <workspace>/packages/<category>/<name>/v<version>/.
package registry

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/singleflight"
	yamlv3 "gopkg.in/yaml.v3"

	"concierge/internal/model"
	atomicyaml "concierge/internal/yaml"
)

const packagesSubdir = "packages"

// ErrAlreadyExists is returned by Add for a duplicate (package_id, version).
var ErrAlreadyExists = errors.New("package already exists")

// SkippedRecord reports a file a listing operation could not parse. Skips
// are surfaced for diagnostics instead of silently vanishing.
type SkippedRecord struct {
	Path   string
	Reason string
}

type Registry struct {
	dir   string
	group singleflight.Group
}

func New(workspacePath string) *Registry {
	return &Registry{dir: filepath.Join(workspacePath, packagesSubdir)}
}

// path derives the deterministic storage path for a package identity.
func (r *Registry) path(packageID, version string) (string, error) {
	category, name, ok := strings.Cut(packageID, ".")
	if !ok || category == "" || name == "" {
		return "", fmt.Errorf("invalid package_id format: %s (expected <category>.<name>)", packageID)
	}
	return filepath.Join(r.dir, category, name, "v"+version, "package.yaml"), nil
}

// Add stores a package. The registry is immutable: a duplicate identity is
// rejected, never overwritten.
func (r *Registry) Add(pkg model.TaskPackage) (string, error) {
	path, err := r.path(pkg.PackageID, pkg.Version)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("%w: %s v%s", ErrAlreadyExists, pkg.PackageID, pkg.Version)
	}
	if err := atomicyaml.AtomicWrite(path, pkg); err != nil {
		return "", fmt.Errorf("write package: %w", err)
	}
	return path, nil
}

// Get loads one package. Absent and unparseable records both load as nil:
// direct loads never raise on record corruption.
func (r *Registry) Get(packageID, version string) (*model.TaskPackage, error) {
	path, err := r.path(packageID, version)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	pkg, err := readPackage(path)
	if err != nil {
		log.Printf("skipping corrupted package record %s: %v", path, err)
		return nil, nil
	}
	return pkg, nil
}

// List returns all packages, optionally filtered by category. Ordering is
// deterministic: lexicographic by (package_id, version), which is also the
// matcher's documented tie-break order.
func (r *Registry) List(category string) ([]model.TaskPackage, error) {
	pkgs, _, err := r.ListDetailed(category)
	return pkgs, err
}

// ListDetailed also reports the records the scan had to skip.
func (r *Registry) ListDetailed(category string) ([]model.TaskPackage, []SkippedRecord, error) {
	v, err, _ := r.group.Do("scan", func() (any, error) {
		return r.scan()
	})
	if err != nil {
		return nil, nil, err
	}
	result := v.(scanResult)

	if category == "" {
		return result.packages, result.skipped, nil
	}
	var filtered []model.TaskPackage
	for _, pkg := range result.packages {
		if pkg.Intent.Category == category {
			filtered = append(filtered, pkg)
		}
	}
	return filtered, result.skipped, nil
}

// Search filters packages by category, verbs and entities (any-match per
// criterion).
func (r *Registry) Search(category string, verbs, entities []string) ([]model.TaskPackage, error) {
	candidates, err := r.List(category)
	if err != nil {
		return nil, err
	}
	var results []model.TaskPackage
	for _, pkg := range candidates {
		if len(verbs) > 0 && !anyOverlap(verbs, pkg.Intent.Verbs) {
			continue
		}
		if len(entities) > 0 && !anyOverlap(entities, pkg.Intent.Entities) {
			continue
		}
		results = append(results, pkg)
	}
	return results, nil
}

type scanResult struct {
	packages []model.TaskPackage
	skipped  []SkippedRecord
}

// scan walks the registry tree once. Concurrent listings share the walk
// through singleflight; every call still observes a fresh scan.
func (r *Registry) scan() (scanResult, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, "*", "*", "v*", "package.yaml"))
	if err != nil {
		return scanResult{}, fmt.Errorf("scan registry: %w", err)
	}

	var result scanResult
	for _, path := range paths {
		pkg, err := readPackage(path)
		if err != nil {
			result.skipped = append(result.skipped, SkippedRecord{Path: path, Reason: err.Error()})
			continue
		}
		result.packages = append(result.packages, *pkg)
	}

	sort.Slice(result.packages, func(i, j int) bool {
		a, b := result.packages[i], result.packages[j]
		if a.PackageID != b.PackageID {
			return a.PackageID < b.PackageID
		}
		return a.Version < b.Version
	})
	return result, nil
}

func readPackage(path string) (*model.TaskPackage, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var pkg model.TaskPackage
	if err := yamlv3.Unmarshal(content, &pkg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if pkg.PackageID == "" || pkg.Version == "" {
		return nil, fmt.Errorf("missing package identity")
	}
	return &pkg, nil
}

func anyOverlap(want, have []string) bool {
	haveSet := make(map[string]bool, len(have))
	for _, h := range have {
		haveSet[h] = true
	}
	for _, w := range want {
		if haveSet[w] {
			return true
		}
	}
	return false
}
