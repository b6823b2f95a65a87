package model

import "fmt"

// EventType uses dotted lower-case identifiers on the wire.
type EventType string

const (
	EventJobStarted      EventType = "job.started"
	EventJobCompleted    EventType = "job.completed"
	EventJobFailed       EventType = "job.failed"
	EventStepStarted     EventType = "step.started"
	EventStepCompleted   EventType = "step.completed"
	EventStepFailed      EventType = "step.failed"
	EventWorkerInvoked   EventType = "worker.invoked"
	EventWorkerOutput    EventType = "worker.output"
	EventApprovalGranted EventType = "approval.granted"
	EventApprovalDenied  EventType = "approval.denied"
)

// Event is one record of a run's append-only audit stream.
type Event struct {
	Type      EventType      `json:"type"`
	Timestamp string         `json:"timestamp"`
	RunID     string         `json:"run_id"`
	JobID     string         `json:"job_id"`
	StepID    string         `json:"step_id,omitempty"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord tracks one execution attempt of a plan.
type RunRecord struct {
	RunID       string    `yaml:"run_id" json:"run_id"`
	CreatedAt   string    `yaml:"created_at" json:"created_at"`
	JobID       string    `yaml:"job_id" json:"job_id"`
	PlanID      string    `yaml:"plan_id" json:"plan_id"`
	Status      RunStatus `yaml:"status" json:"status"`
	CompletedAt *string   `yaml:"completed_at" json:"completed_at"`
}

func NewRunRecord(jobID, planID string) (*RunRecord, error) {
	runID, err := GenerateID(IDTypeRun)
	if err != nil {
		return nil, fmt.Errorf("generate run ID: %w", err)
	}
	return &RunRecord{
		RunID:     runID,
		CreatedAt: NowUTC(),
		JobID:     jobID,
		PlanID:    planID,
		Status:    RunStatusRunning,
	}, nil
}
