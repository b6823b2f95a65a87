package events

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"concierge/internal/model"
)

// Reader answers status questions from the persisted event logs instead of
// in-memory state, so answers survive restarts.
type Reader struct {
	workspacePath string
}

func NewReader(workspacePath string) *Reader {
	return &Reader{workspacePath: workspacePath}
}

// RunSummary is a projection of one run's event log.
type RunSummary struct {
	RunID       string
	JobID       string
	Status      model.RunStatus
	StartedAt   string
	FinishedAt  string
	StepsDone   int
	StepsFailed int
	Error       string
	EventCount  int
}

// LatestRunLog returns the path of the most recent run log for a job, or ""
// when the job has never run. Run log filenames embed a UUID, so recency is
// taken from file modification order.
func (r *Reader) LatestRunLog(jobID string) (string, error) {
	paths, err := filepath.Glob(filepath.Join(r.workspacePath, "jobs", jobID, "logs", "run-*.jsonl"))
	if err != nil {
		return "", fmt.Errorf("scan run logs: %w", err)
	}
	if len(paths) == 0 {
		return "", nil
	}
	sort.Slice(paths, func(i, j int) bool {
		fi, erri := os.Stat(paths[i])
		fj, errj := os.Stat(paths[j])
		if erri != nil || errj != nil {
			return paths[i] < paths[j]
		}
		return fi.ModTime().Before(fj.ModTime())
	})
	return paths[len(paths)-1], nil
}

// RunLog reads a specific run's events.
func (r *Reader) RunLog(jobID, runID string) ([]model.Event, error) {
	return Read(RunLogPath(r.workspacePath, jobID, runID))
}

// Summarize projects a run's event log into a summary. Status is derived
// from the terminal event: a log without one belongs to a run still in
// flight (or one that crashed).
func Summarize(evs []model.Event) RunSummary {
	var s RunSummary
	s.Status = model.RunStatusRunning
	s.EventCount = len(evs)
	for _, ev := range evs {
		if s.RunID == "" {
			s.RunID = ev.RunID
			s.JobID = ev.JobID
		}
		switch ev.Type {
		case model.EventJobStarted:
			s.StartedAt = ev.Timestamp
		case model.EventStepCompleted:
			s.StepsDone++
		case model.EventStepFailed:
			s.StepsFailed++
		case model.EventJobCompleted:
			s.Status = model.RunStatusCompleted
			s.FinishedAt = ev.Timestamp
		case model.EventJobFailed:
			s.Status = model.RunStatusFailed
			s.FinishedAt = ev.Timestamp
			if msg, ok := ev.Payload["error"].(string); ok {
				s.Error = msg
			}
		}
	}
	return s
}

// Artifacts lists the files a job produced under artifacts/<job_id>/,
// relative to the workspace root.
func (r *Reader) Artifacts(jobID string) ([]string, error) {
	root := filepath.Join(r.workspacePath, "artifacts", jobID)
	if _, err := os.Stat(root); err != nil {
		return nil, nil
	}
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		rel, relErr := filepath.Rel(r.workspacePath, path)
		if relErr != nil {
			return relErr
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk artifacts: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// RunIDFromLogPath extracts the run ID from a run log path.
func RunIDFromLogPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".jsonl")
}
