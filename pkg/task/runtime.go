package task

import (
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/strabs/doit/pkg/execs"
)

// Runtime is the mutable, execution-scoped state backing one [Spec] for one
// run. It is created fresh per run and never reused.
//
// All fields are written by the single executor goroutine that owns the
// task. The only cross-goroutine write is the forced-stop signal from the
// owning parent's completion handler, which is a single atomic flag plus a
// channel close. Readers (the live renderer) see eventually consistent
// snapshots behind the mutex.
type Runtime struct {
	spec     *Spec
	children []*Runtime

	stopped  atomic.Bool
	status   atomic.Int32
	stopOnce sync.Once
	stopCh   chan struct{}

	mu         sync.Mutex
	window     []string
	output     []string
	proc       *execs.Proc
	errMsg     string
	startTime  time.Time
	endTime    time.Time
	exitCode   int
	windowSize int
}

func newRuntime(spec *Spec, windowSize int) *Runtime {
	rt := &Runtime{
		spec:       spec,
		windowSize: windowSize,
		exitCode:   -1,
		stopCh:     make(chan struct{}),
	}

	for _, child := range spec.children {
		rt.children = append(rt.children, newRuntime(child, windowSize))
	}

	return rt
}

// Name returns the task's display name.
func (rt *Runtime) Name() string {
	return rt.spec.name
}

// Status returns the task's current lifecycle state.
func (rt *Runtime) Status() Status {
	return Status(rt.status.Load())
}

// Children returns the runtime twins of the spec's children, in spec order.
func (rt *Runtime) Children() []*Runtime {
	return rt.children
}

// Elapsed returns the task's running time so far, or its final duration
// once it has completed.
func (rt *Runtime) Elapsed() time.Duration {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.startTime.IsZero() {
		return 0
	}

	if rt.endTime.IsZero() {
		return time.Since(rt.startTime)
	}

	return rt.endTime.Sub(rt.startTime)
}

// OutputWindow returns a copy of the most recent output lines, bounded by
// the configured window size.
func (rt *Runtime) OutputWindow() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	window := make([]string, len(rt.window))
	copy(window, rt.window)

	return window
}

// OutputTail returns a copy of the last n lines of the full output.
func (rt *Runtime) OutputTail(n int) []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	lines := rt.output
	if n >= 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}

	tail := make([]string, len(lines))
	copy(tail, lines)

	return tail
}

// ErrorMessage returns the captured failure message, if any.
func (rt *Runtime) ErrorMessage() string {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	return rt.errMsg
}

func (rt *Runtime) appendLine(line string) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.output = append(rt.output, line)

	rt.window = append(rt.window, line)
	if len(rt.window) > rt.windowSize {
		rt.window = rt.window[1:]
	}
}

func (rt *Runtime) markRunning() {
	rt.status.Store(int32(StatusRunning))

	rt.mu.Lock()
	rt.startTime = time.Now()
	rt.mu.Unlock()
}

func (rt *Runtime) markEnd() {
	rt.mu.Lock()
	rt.endTime = time.Now()
	rt.mu.Unlock()
}

// finish records a terminal state from an exit code.
func (rt *Runtime) finish(exitCode int) {
	rt.mu.Lock()
	rt.exitCode = exitCode
	rt.mu.Unlock()

	if exitCode == 0 {
		rt.status.Store(int32(StatusSuccess))
	} else {
		rt.status.Store(int32(StatusFailed))
	}
}

// fail records a terminal failure with a captured message.
func (rt *Runtime) fail(exitCode int, msg string) {
	rt.mu.Lock()
	rt.exitCode = exitCode
	rt.errMsg = msg
	rt.mu.Unlock()

	rt.status.Store(int32(StatusFailed))
}

func (rt *Runtime) setProc(p *execs.Proc) {
	rt.mu.Lock()
	rt.proc = p
	rt.mu.Unlock()
}

func (rt *Runtime) clearProc() {
	rt.setProc(nil)
}

// forceStop asks the task and all of its descendants to stop: the stop flag
// is raised and any live process group is signaled. Both are best-effort;
// the caller bounds its wait separately.
func (rt *Runtime) forceStop() {
	rt.stopOnce.Do(func() {
		rt.stopped.Store(true)
		close(rt.stopCh)
	})

	rt.mu.Lock()
	proc := rt.proc
	rt.mu.Unlock()

	if proc != nil {
		// A process that will not die within the grace period is not an
		// engine error.
		_ = proc.Terminate()
	}

	for _, child := range rt.children {
		child.forceStop()
	}
}

func (rt *Runtime) stopRequested() bool {
	return rt.stopped.Load()
}

// result snapshots the task and its children into an immutable [Result].
func (rt *Runtime) result() Result {
	rt.mu.Lock()

	var duration time.Duration
	if !rt.endTime.IsZero() {
		duration = rt.endTime.Sub(rt.startTime)
	}

	r := Result{
		Name:     rt.spec.name,
		Status:   rt.Status(),
		ExitCode: rt.exitCode,
		Stdout:   strings.Join(rt.output, "\n"),
		Stderr:   rt.errMsg,
		Duration: duration,
	}
	rt.mu.Unlock()

	for _, child := range rt.children {
		r.Children = append(r.Children, child.result())
	}

	return r
}
