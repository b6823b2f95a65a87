// Package plan generates execution plans by matching job specs against the
// package registry, and persists them under each job's directory.
package plan

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	yamlv3 "gopkg.in/yaml.v3"

	"concierge/internal/model"
	atomicyaml "concierge/internal/yaml"
)

const plansSubdir = "plans"

type Store struct {
	jobsDir string
}

func NewStore(workspacePath string) *Store {
	return &Store{jobsDir: filepath.Join(workspacePath, "jobs")}
}

func (s *Store) planPath(jobID, planID string) string {
	return filepath.Join(s.jobsDir, jobID, plansSubdir, planID+".yaml")
}

func (s *Store) Save(plan *model.ExecutionPlan) (string, error) {
	path := s.planPath(plan.JobID, plan.PlanID)
	if err := atomicyaml.AtomicWrite(path, plan); err != nil {
		return "", fmt.Errorf("write plan: %w", err)
	}
	return path, nil
}

// Load returns the plan, or nil if absent or unreadable.
func (s *Store) Load(jobID, planID string) (*model.ExecutionPlan, error) {
	path := s.planPath(jobID, planID)
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	plan, err := readPlan(path)
	if err != nil {
		log.Printf("skipping corrupted plan record %s: %v", path, err)
		return nil, nil
	}
	return plan, nil
}

// List returns all plans for a job, newest first, skipping corrupted
// records.
func (s *Store) List(jobID string) ([]model.ExecutionPlan, error) {
	paths, err := filepath.Glob(filepath.Join(s.jobsDir, jobID, plansSubdir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("scan plans: %w", err)
	}
	var plans []model.ExecutionPlan
	for _, path := range paths {
		plan, err := readPlan(path)
		if err != nil {
			log.Printf("skipping corrupted plan record %s: %v", path, err)
			continue
		}
		plans = append(plans, *plan)
	}
	sort.Slice(plans, func(i, j int) bool {
		return plans[i].CreatedAt > plans[j].CreatedAt
	})
	return plans, nil
}

// Latest returns the most recently created plan for a job, or nil when the
// job has none.
func (s *Store) Latest(jobID string) (*model.ExecutionPlan, error) {
	plans, err := s.List(jobID)
	if err != nil {
		return nil, err
	}
	if len(plans) == 0 {
		return nil, nil
	}
	return &plans[0], nil
}

func readPlan(path string) (*model.ExecutionPlan, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var plan model.ExecutionPlan
	if err := yamlv3.Unmarshal(content, &plan); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if plan.PlanID == "" {
		return nil, fmt.Errorf("missing plan_id")
	}
	return &plan, nil
}
