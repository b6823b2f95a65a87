// Package events provides the append-only JSONL run log: every observable
// fact about an execution lands here, one JSON object per line.
package events

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"concierge/internal/model"
)

// RunLogPath returns the canonical log location for a run.
func RunLogPath(workspacePath, jobID, runID string) string {
	return filepath.Join(workspacePath, "jobs", jobID, "logs", runID+".jsonl")
}

// Log is an append-only event sink. Writes are serialized and fsynced so a
// crash mid-run loses at most the event being written.
type Log struct {
	mu   sync.Mutex
	file *os.File
	path string
}

func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	return &Log{file: file, path: path}, nil
}

func (l *Log) Path() string {
	return l.path
}

func (l *Log) Emit(ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return l.file.Sync()
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Read parses every well-formed event in a log file, in order. Malformed
// lines are skipped: a truncated tail must not hide the events before it.
func Read(path string) ([]model.Event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()

	var events []model.Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev model.Event
		if err := json.Unmarshal(line, &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan event log: %w", err)
	}
	return events, nil
}

func FilterByType(events []model.Event, t model.EventType) []model.Event {
	var out []model.Event
	for _, ev := range events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

func FilterByStep(events []model.Event, stepID string) []model.Event {
	var out []model.Event
	for _, ev := range events {
		if ev.StepID == stepID {
			out = append(out, ev)
		}
	}
	return out
}

// Latest returns the last event in the log, or nil for an empty log.
func Latest(events []model.Event) *model.Event {
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

// LatestOfType returns the last event of the given type, or nil.
func LatestOfType(events []model.Event, t model.EventType) *model.Event {
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == t {
			return &events[i]
		}
	}
	return nil
}

// Tail returns the last n events.
func Tail(events []model.Event, n int) []model.Event {
	if n <= 0 || len(events) <= n {
		return events
	}
	return events[len(events)-n:]
}
