package task

import (
	"fmt"
	"strings"
	"time"
)

// Result is the immutable summary of one completed runtime task.
type Result struct {
	Name     string
	Stdout   string
	Stderr   string
	Children []Result
	Duration time.Duration
	ExitCode int
	Status   Status
}

// OK reports whether the task succeeded.
func (r Result) OK() bool {
	return r.Status == StatusSuccess
}

// Error is the engine-level failure raised when the run configuration says
// a task failure should abort the run.
type Error struct {
	Name     string
	Output   string
	ExitCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("task %q failed with exit code %d", e.Name, e.ExitCode)
}

func newError(r Result, errorLines int) *Error {
	output := r.Stderr
	if output == "" {
		output = tailLines(r.Stdout, errorLines)
	}

	return &Error{
		Name:     r.Name,
		ExitCode: r.ExitCode,
		Output:   output,
	}
}

func tailLines(s string, n int) string {
	if s == "" || n <= 0 {
		return ""
	}

	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	return strings.Join(lines, "\n")
}
