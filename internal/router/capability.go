// Package router executes approved plans by walking their pipeline steps
// sequentially through registered worker capabilities.
package router

import (
	"fmt"
	"sort"
	"sync"
)

// Capability is something that can run one pipeline step. Inputs come from
// the shared run context, params from the step definition. Returned outputs
// are merged back into the context under the step's declared output names.
type Capability interface {
	Execute(inputs map[string]any, params map[string]any) (map[string]any, error)
}

// CapabilityFunc adapts a plain function to the Capability interface.
type CapabilityFunc func(inputs map[string]any, params map[string]any) (map[string]any, error)

func (f CapabilityFunc) Execute(inputs, params map[string]any) (map[string]any, error) {
	return f(inputs, params)
}

// CapabilityRegistry maps worker IDs to their implementations.
type CapabilityRegistry struct {
	mu   sync.RWMutex
	caps map[string]Capability
}

func NewCapabilityRegistry() *CapabilityRegistry {
	return &CapabilityRegistry{caps: make(map[string]Capability)}
}

func (r *CapabilityRegistry) Register(workerID string, cap Capability) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.caps[workerID] = cap
}

func (r *CapabilityRegistry) Lookup(workerID string) (Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cap, ok := r.caps[workerID]
	return cap, ok
}

func (r *CapabilityRegistry) WorkerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.caps))
	for id := range r.caps {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// MissingInputError reports a step input absent from the run context.
type MissingInputError struct {
	StepID string
	Input  string
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("step %s: input %q not present in run context", e.StepID, e.Input)
}

// UnknownWorkerError reports a step whose worker has no registered
// capability.
type UnknownWorkerError struct {
	StepID   string
	WorkerID string
}

func (e *UnknownWorkerError) Error() string {
	return fmt.Sprintf("step %s: no capability registered for worker %q", e.StepID, e.WorkerID)
}
