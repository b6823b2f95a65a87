package router

import (
	"fmt"
	"log"

	"concierge/internal/events"
	"concierge/internal/model"
)

// Router interprets execution plans. Every run gets its own event log; all
// execution failures are absorbed into the log and the returned run record.
// The error return is reserved for infrastructure failures, such as being
// unable to open the log at all.
type Router struct {
	workspacePath string
	caps          *CapabilityRegistry
}

func New(workspacePath string, caps *CapabilityRegistry) *Router {
	return &Router{workspacePath: workspacePath, caps: caps}
}

// ExecutePlan runs the plan's pipeline steps in order. It returns whether
// the run completed, plus the run record describing the attempt.
func (r *Router) ExecutePlan(plan *model.ExecutionPlan) (bool, *model.RunRecord, error) {
	rec, err := model.NewRunRecord(plan.JobID, plan.PlanID)
	if err != nil {
		return false, nil, err
	}

	logPath := events.RunLogPath(r.workspacePath, plan.JobID, rec.RunID)
	elog, err := events.Open(logPath)
	if err != nil {
		return false, nil, fmt.Errorf("open run log: %w", err)
	}
	defer elog.Close()

	ctx := NewContext()
	for _, in := range plan.ResolvedInputs.Inputs {
		ctx.Set(in.Name, in.Value)
	}

	r.emit(elog, rec, model.EventJobStarted, "", "", map[string]any{
		"plan_id": plan.PlanID,
	})

	if runErr := r.runSteps(elog, rec, plan, ctx); runErr != nil {
		r.emit(elog, rec, model.EventJobFailed, "", "", map[string]any{
			"error": runErr.Error(),
		})
		rec.Status = model.RunStatusFailed
		now := model.NowUTC()
		rec.CompletedAt = &now
		return false, rec, nil
	}

	r.emit(elog, rec, model.EventJobCompleted, "", "", map[string]any{
		"context": ctx.Snapshot(),
	})
	rec.Status = model.RunStatusCompleted
	now := model.NowUTC()
	rec.CompletedAt = &now
	return true, rec, nil
}

func (r *Router) runSteps(elog *events.Log, rec *model.RunRecord, plan *model.ExecutionPlan, ctx *Context) error {
	for _, step := range plan.Pipeline.Steps {
		r.emit(elog, rec, model.EventStepStarted, step.StepID, "", map[string]any{
			"worker_id": step.Worker.WorkerID,
		})

		inputs := make(map[string]any, len(step.Inputs))
		for _, name := range step.Inputs {
			value, ok := ctx.Get(name)
			if !ok {
				return &MissingInputError{StepID: step.StepID, Input: name}
			}
			inputs[name] = value
		}

		cap, ok := r.caps.Lookup(step.Worker.WorkerID)
		if !ok {
			return &UnknownWorkerError{StepID: step.StepID, WorkerID: step.Worker.WorkerID}
		}

		outputs, err := cap.Execute(inputs, step.Params)
		if err != nil {
			return fmt.Errorf("step %s: worker %s: %w", step.StepID, step.Worker.WorkerID, err)
		}

		// Every returned output lands in the context, declared or not;
		// later steps overwrite earlier names.
		for name, value := range outputs {
			ctx.Set(name, value)
		}

		r.emit(elog, rec, model.EventStepCompleted, step.StepID, step.Worker.WorkerID, map[string]any{
			"outputs": outputs,
		})
	}
	return nil
}

func (r *Router) emit(elog *events.Log, rec *model.RunRecord, t model.EventType, stepID, workerID string, payload map[string]any) {
	// Event loss is tolerated over aborting a run mid-step, but a dropped
	// append still has to leave a trace somewhere.
	err := elog.Emit(model.Event{
		Type:      t,
		Timestamp: model.NowUTC(),
		RunID:     rec.RunID,
		JobID:     rec.JobID,
		StepID:    stepID,
		WorkerID:  workerID,
		Payload:   payload,
	})
	if err != nil {
		log.Printf("event append failed for run %s (%s): %v", rec.RunID, t, err)
	}
}
