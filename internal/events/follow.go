package events

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"concierge/internal/model"
)

// Follow tails a run log, invoking fn for every event already present and
// for each event appended afterwards, until ctx is cancelled. The log file
// may not exist yet; it is picked up when the router creates it.
func Follow(ctx context.Context, path string, fn func(model.Event)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: append-only writers still generate
	// write events, and a not-yet-created log shows up as a create.
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var offset int64
	offset, err = drain(path, offset, fn)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			offset, err = drain(path, offset, fn)
			if err != nil {
				return err
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watch error: %w", err)
		}
	}
}

// drain reads complete lines past offset and returns the new offset.
// Partial trailing lines are left for the next write event.
func drain(path string, offset int64, fn func(model.Event)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return offset, nil
		}
		return offset, fmt.Errorf("open event log: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek event log: %w", err)
	}

	reader := bufio.NewReader(file)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			// Incomplete line: the writer has not finished it yet.
			return offset, nil
		}
		offset += int64(len(line))
		var ev model.Event
		if jsonErr := json.Unmarshal(line, &ev); jsonErr == nil {
			fn(ev)
		}
	}
}
