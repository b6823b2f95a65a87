// Package job persists jobs and drives their lifecycle state machine.
package job

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"

	yamlv3 "gopkg.in/yaml.v3"

	"concierge/internal/intent"
	"concierge/internal/model"
	atomicyaml "concierge/internal/yaml"
)

const (
	jobsSubdir  = "jobs"
	jobFilename = "job.yaml"
)

type Store struct {
	workspacePath string
	jobsDir       string
	intents       *intent.Manager
}

func NewStore(workspacePath string) *Store {
	return &Store{
		workspacePath: workspacePath,
		jobsDir:       filepath.Join(workspacePath, jobsSubdir),
		intents:       intent.NewManager(workspacePath),
	}
}

func (s *Store) jobPath(jobID string) string {
	return filepath.Join(s.jobsDir, jobID, jobFilename)
}

// CreateFromIntent builds a fresh DRAFT job from an intent. The job is not
// saved; callers persist it explicitly.
func (s *Store) CreateFromIntent(in *model.Intent, mode string) (*model.Job, error) {
	jobID, err := model.GenerateID(model.IDTypeJob)
	if err != nil {
		return nil, fmt.Errorf("generate job ID: %w", err)
	}

	title := in.DistilledIntent
	if r := []rune(title); len(r) > 100 {
		title = string(r[:100])
	}

	spec := model.JobSpec{
		Title:           title,
		Intent:          in.DistilledIntent,
		SuccessCriteria: []string{in.SuccessCriteria},
		Constraints:     append([]string(nil), in.Constraints...),
		Inputs:          []model.JobInput{},
		Outputs: []model.JobOutput{
			{Name: "artifacts", Type: model.OutputTypeFolder, Location: "artifacts/"},
		},
		ApprovalGates: model.DefaultApprovalGates(),
	}

	specHash, err := spec.Hash()
	if err != nil {
		return nil, fmt.Errorf("hash job spec: %w", err)
	}

	return &model.Job{
		JobID:       jobID,
		CreatedAt:   model.NowUTC(),
		IntentRef:   in.IntentID,
		IntentHash:  in.IntentHash,
		Status:      model.JobStatusDraft,
		ModeUsed:    mode,
		JobSpec:     spec,
		JobSpecHash: specHash,
		Approvals:   []model.Approval{},
	}, nil
}

func (s *Store) Save(job *model.Job) (string, error) {
	path := s.jobPath(job.JobID)
	if err := atomicyaml.AtomicWrite(path, job); err != nil {
		return "", fmt.Errorf("write job: %w", err)
	}
	return path, nil
}

// Load returns the job, or nil if it is absent or its record no longer
// parses.
func (s *Store) Load(jobID string) (*model.Job, error) {
	path := s.jobPath(jobID)
	if _, err := os.Stat(path); err != nil {
		return nil, nil
	}
	job, err := readJob(path)
	if err != nil {
		log.Printf("skipping corrupted job record %s: %v", path, err)
		return nil, nil
	}
	return job, nil
}

// List returns all jobs, newest first, skipping corrupted records.
func (s *Store) List() ([]model.Job, error) {
	paths, err := filepath.Glob(filepath.Join(s.jobsDir, "*", jobFilename))
	if err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}
	var jobs []model.Job
	for _, path := range paths {
		job, err := readJob(path)
		if err != nil {
			log.Printf("skipping corrupted job record %s: %v", path, err)
			continue
		}
		jobs = append(jobs, *job)
	}
	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt > jobs[j].CreatedAt
	})
	return jobs, nil
}

// VerifyJobSpecHash recomputes the canonical hash of the job's spec and
// compares it to the stored value. Read-side only: it gates nothing by
// itself.
func (s *Store) VerifyJobSpecHash(job *model.Job) (bool, error) {
	computed, err := job.JobSpec.Hash()
	if err != nil {
		return false, err
	}
	return computed == job.JobSpecHash, nil
}

// VerifyIntentHash checks that the referenced intent still exists and its
// identity matches the job's stored reference.
func (s *Store) VerifyIntentHash(job *model.Job) (bool, error) {
	in, err := s.intents.Load(job.IntentHash)
	if err != nil {
		return false, err
	}
	if in == nil {
		return false, nil
	}
	return in.IntentID == job.IntentRef && in.IntentHash == job.IntentHash, nil
}

func readJob(path string) (*model.Job, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	var job model.Job
	if err := yamlv3.Unmarshal(content, &job); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if job.JobID == "" {
		return nil, fmt.Errorf("missing job_id")
	}
	return &job, nil
}
