// Package worker provides the built-in capabilities the default pipelines
// reference. They are deliberately small: the point is exercising the
// plan/approve/run loop end to end, not doing real work.
package worker

import (
	"fmt"
	"os"
	"path/filepath"

	"concierge/internal/model"
	"concierge/internal/router"
)

// Echo formats its message input, optionally stamping it with the current
// time. Output key: "output".
type Echo struct{}

func (Echo) Execute(inputs, params map[string]any) (map[string]any, error) {
	msg := ""
	if v, ok := inputs["message"]; ok {
		msg = fmt.Sprintf("%v", v)
	}

	stamp := true
	if v, ok := params["timestamp"].(bool); ok {
		stamp = v
	}

	var out string
	if stamp {
		out = fmt.Sprintf("%s [echoed at %s]", msg, model.NowUTC())
	} else {
		out = fmt.Sprintf("%s [echoed]", msg)
	}
	return map[string]any{"output": out}, nil
}

// FileCopy stages a copy target: it requires source_file and
// destination_path inputs, creates the destination's parent, and writes the
// destination file. Output key: "copied_file" (absolute path).
type FileCopy struct{}

func (FileCopy) Execute(inputs, params map[string]any) (map[string]any, error) {
	source, ok := inputs["source_file"].(string)
	if !ok || source == "" {
		return nil, fmt.Errorf("file_copy_worker: source_file input is required")
	}
	dest, ok := inputs["destination_path"].(string)
	if !ok || dest == "" {
		return nil, fmt.Errorf("file_copy_worker: destination_path input is required")
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("file_copy_worker: create destination directory: %w", err)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		// Unresolved placeholder sources land here too.
		data = []byte(fmt.Sprintf("copied from %s\n", source))
	}
	if err := os.WriteFile(dest, data, 0o644); err != nil {
		return nil, fmt.Errorf("file_copy_worker: write destination: %w", err)
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		abs = dest
	}
	return map[string]any{"copied_file": abs}, nil
}

// Counter counts items: the length of a string, the length of a list, or
// zero for anything else. Output key: "count".
type Counter struct{}

func (Counter) Execute(inputs, params map[string]any) (map[string]any, error) {
	count := 0
	switch v := inputs["items"].(type) {
	case string:
		count = len(v)
	case []any:
		count = len(v)
	case []string:
		count = len(v)
	}
	return map[string]any{"count": count}, nil
}

// DefaultRegistry returns a capability registry with all built-in workers
// registered.
func DefaultRegistry() *router.CapabilityRegistry {
	reg := router.NewCapabilityRegistry()
	reg.Register("echo_worker", Echo{})
	reg.Register("file_copy_worker", FileCopy{})
	reg.Register("counter_worker", Counter{})
	return reg
}
