package job

import (
	"fmt"

	"concierge/internal/model"
)

// transition validates and applies a status change, persisting the result.
func (s *Store) transition(job *model.Job, to model.JobStatus) error {
	if err := model.ValidateJobTransition(job.Status, to); err != nil {
		return err
	}
	job.Status = to
	if _, err := s.Save(job); err != nil {
		return err
	}
	return nil
}

// TransitionToPlanned moves a DRAFT job to PLANNED once a plan exists.
func (s *Store) TransitionToPlanned(job *model.Job) error {
	return s.transition(job, model.JobStatusPlanned)
}

// Approve records a granted approval for the given plan and moves the job
// to APPROVED.
func (s *Store) Approve(job *model.Job, planID, approver, note string) error {
	if err := model.ValidateJobTransition(job.Status, model.JobStatusApproved); err != nil {
		return err
	}
	job.Approvals = append(job.Approvals, model.GrantApproval(planID, approver, note))
	job.Status = model.JobStatusApproved
	if _, err := s.Save(job); err != nil {
		return err
	}
	return nil
}

// Deny records a denial for the given plan. The job stays PLANNED so a new
// plan can be generated and approved later.
func (s *Store) Deny(job *model.Job, planID, approver, note string) error {
	if job.Status != model.JobStatusPlanned {
		return &model.InvalidTransitionError{
			Current:  job.Status,
			Required: model.JobStatusPlanned,
		}
	}
	job.Approvals = append(job.Approvals, model.DenyApproval(planID, approver, note))
	if _, err := s.Save(job); err != nil {
		return err
	}
	return nil
}

func (s *Store) TransitionToRunning(job *model.Job) error {
	return s.transition(job, model.JobStatusRunning)
}

func (s *Store) Complete(job *model.Job) error {
	return s.transition(job, model.JobStatusCompleted)
}

// Fail is an administrative override, allowed from any non-terminal state.
func (s *Store) Fail(job *model.Job) error {
	return s.transition(job, model.JobStatusFailed)
}

// Halt is an administrative override, allowed from any non-terminal state.
func (s *Store) Halt(job *model.Job) error {
	return s.transition(job, model.JobStatusHalted)
}

// RequireApprovedFor checks that the job carries a granted approval for the
// given plan before execution.
func RequireApprovedFor(job *model.Job, planID string) error {
	if job.Status != model.JobStatusApproved {
		return &model.InvalidTransitionError{
			Current:  job.Status,
			Required: model.JobStatusApproved,
		}
	}
	log := job.ApprovalLog()
	if !log.IsApproved(planID) {
		return fmt.Errorf("job %s has no granted approval for plan %s", job.JobID, planID)
	}
	return nil
}
