package model

import "fmt"

type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusPlanned   JobStatus = "planned"
	JobStatusApproved  JobStatus = "approved"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusHalted    JobStatus = "halted"
)

var terminalJobStatuses = map[JobStatus]bool{
	JobStatusCompleted: true,
	JobStatusFailed:    true,
	JobStatusHalted:    true,
}

// requiredSource maps each guarded target status to its single allowed
// source. failed/halted are absent: those are administrative overrides
// reachable from any non-terminal status.
var requiredSource = map[JobStatus]JobStatus{
	JobStatusPlanned:   JobStatusDraft,
	JobStatusApproved:  JobStatusPlanned,
	JobStatusRunning:   JobStatusApproved,
	JobStatusCompleted: JobStatusRunning,
}

func IsTerminal(s JobStatus) bool {
	return terminalJobStatuses[s]
}

// InvalidTransitionError reports a guard failure: the job is in Current but
// the requested operation needs Required. Required is empty for the
// administrative overrides, which only reject terminal sources.
type InvalidTransitionError struct {
	Current  JobStatus
	Required JobStatus
}

func (e *InvalidTransitionError) Error() string {
	if e.Required == "" {
		return fmt.Sprintf("invalid transition: job is in terminal status %q", e.Current)
	}
	return fmt.Sprintf("invalid transition: job is %q, must be %q", e.Current, e.Required)
}

// ValidateJobTransition checks one edge of the lifecycle state machine.
// It performs no mutation; callers apply the new status only on nil error.
func ValidateJobTransition(from, to JobStatus) error {
	if to == JobStatusFailed || to == JobStatusHalted {
		if IsTerminal(from) {
			return &InvalidTransitionError{Current: from}
		}
		return nil
	}
	required, ok := requiredSource[to]
	if !ok {
		return fmt.Errorf("unknown target status %q", to)
	}
	if from != required {
		return &InvalidTransitionError{Current: from, Required: required}
	}
	return nil
}
