// Package taskfile loads YAML task definitions and maps them onto the task
// engine's spec builder.
package taskfile

import (
	"errors"
	"fmt"

	"github.com/strabs/doit/pkg/task"
)

// ErrInvalidTaskfile is returned when a taskfile cannot be mapped onto the
// engine.
var ErrInvalidTaskfile = errors.New("invalid taskfile")

// Taskfile is the root document.
type Taskfile struct {
	// Run holds execution-wide defaults.
	Run *RunConfig `json:"run,omitempty" jsonschema:"title=Run Configuration"`
	// Confirm is an optional prompt shown before anything executes.
	Confirm string `json:"confirm,omitempty" jsonschema:"title=Confirmation Prompt"`
	// Tasks are the root tasks. Roots run in parallel; each may head its
	// own sequential chain.
	Tasks []*Task `json:"tasks" jsonschema:"title=Tasks"`
}

// RunConfig mirrors the engine's execution policy.
type RunConfig struct {
	// RaiseOnFailure surfaces a task failure as a run failure. Defaults to
	// true.
	RaiseOnFailure *bool `json:"raiseOnFailure,omitempty" jsonschema:"title=Raise On Failure"`
	// MaxWorkers bounds per-batch parallelism.
	MaxWorkers int `json:"maxWorkers,omitempty" jsonschema:"title=Max Workers,minimum=1"`
	// OutputLines is the recent-output window size per task.
	OutputLines int `json:"outputLines,omitempty" jsonschema:"title=Output Lines,minimum=1"`
	// ErrorLines is the failure-report output tail size.
	ErrorLines int `json:"errorLines,omitempty" jsonschema:"title=Error Lines,minimum=1"`
	// WatchPaths are extra paths watched in --watch mode.
	WatchPaths []string `json:"watchPaths,omitempty" jsonschema:"title=Watch Paths"`
	// FailFast aborts the current batch on the first failure.
	FailFast bool `json:"failFast,omitempty" jsonschema:"title=Fail Fast"`
}

// Task describes one unit of work.
type Task struct {
	// Env contains extra environment variables; they win on collision with
	// the process environment.
	Env map[string]string `json:"env,omitempty" jsonschema:"title=Environment Variables"`
	// Name is the display name.
	Name string `json:"name" jsonschema:"title=Name"`
	// Run is a shell command line, interpreted by `sh -c`.
	Run string `json:"run,omitempty" jsonschema:"title=Command"`
	// Dir overrides the working directory.
	Dir string `json:"dir,omitempty" jsonschema:"title=Working Directory"`
	// Exec is the exec-form alternative to Run.
	Exec []string `json:"exec,omitempty" jsonschema:"title=Argv"`
	// Watch lists background watcher commands: each retries until this
	// task's own action completes, then is killed.
	Watch []string `json:"watch,omitempty" jsonschema:"title=Watchers"`
	// Tasks are nested children; they run concurrently with this task.
	Tasks []*Task `json:"tasks,omitempty" jsonschema:"title=Children"`
	// Then are follow-up stages; each runs after the previous completes.
	Then []*Task `json:"then,omitempty" jsonschema:"title=Continuations"`
	// Retry relaunches the command until the task is stopped.
	Retry bool `json:"retry,omitempty" jsonschema:"title=Retry"`
}

// EnsureDefaults fills zero-valued policy fields.
func (tf *Taskfile) EnsureDefaults() {
	if tf.Run == nil {
		tf.Run = &RunConfig{}
	}

	tf.Run.EnsureDefaults()
}

// EnsureDefaults fills zero-valued policy fields from the engine defaults.
func (rc *RunConfig) EnsureDefaults() {
	def := task.DefaultConfig()

	if rc.MaxWorkers == 0 {
		rc.MaxWorkers = def.MaxWorkers
	}

	if rc.OutputLines == 0 {
		rc.OutputLines = def.OutputLines
	}

	if rc.ErrorLines == 0 {
		rc.ErrorLines = def.ErrorLines
	}

	if rc.RaiseOnFailure == nil {
		raise := def.RaiseOnFailure
		rc.RaiseOnFailure = &raise
	}
}

// ToConfig converts the run defaults into an engine [task.Config].
func (rc *RunConfig) ToConfig() *task.Config {
	cfg := task.DefaultConfig()
	cfg.MaxWorkers = rc.MaxWorkers
	cfg.OutputLines = rc.OutputLines
	cfg.ErrorLines = rc.ErrorLines
	cfg.FailFast = rc.FailFast

	if rc.RaiseOnFailure != nil {
		cfg.RaiseOnFailure = *rc.RaiseOnFailure
	}

	return cfg
}

// Build maps the taskfile onto engine specs.
func (tf *Taskfile) Build() ([]*task.Spec, error) {
	if len(tf.Tasks) == 0 {
		return nil, fmt.Errorf("%w: no tasks defined", ErrInvalidTaskfile)
	}

	specs := make([]*task.Spec, 0, len(tf.Tasks))

	for _, t := range tf.Tasks {
		root, err := t.chain()
		if err != nil {
			return nil, err
		}

		specs = append(specs, root)
	}

	return specs, nil
}

// chain builds the task and its continuations into one spec chain, and
// returns the chain root.
func (t *Task) chain() (*task.Spec, error) {
	root, err := t.spec()
	if err != nil {
		return nil, err
	}

	_, err = appendChain(root, t.Then)
	if err != nil {
		return nil, err
	}

	return root, nil
}

func appendChain(tail *task.Spec, entries []*Task) (*task.Spec, error) {
	for _, entry := range entries {
		s, err := entry.spec()
		if err != nil {
			return nil, err
		}

		tail = tail.ThenSpec(s)

		tail, err = appendChain(tail, entry.Then)
		if err != nil {
			return nil, err
		}
	}

	return tail, nil
}

// spec builds this task (without its continuations) including children and
// watchers.
func (t *Task) spec() (*task.Spec, error) {
	var opts []task.SpecOpt

	if len(t.Env) > 0 {
		opts = append(opts, task.WithEnv(t.Env))
	}

	if t.Dir != "" {
		opts = append(opts, task.WithDir(t.Dir))
	}

	if t.Retry {
		opts = append(opts, task.WithRetry())
	}

	if len(t.Exec) > 0 {
		if t.Run != "" {
			return nil, fmt.Errorf("%w: task %q sets both run and exec", ErrInvalidTaskfile, t.Name)
		}

		opts = append(opts, task.WithArgv(t.Exec))
	}

	s := task.New(t.Name, t.Run, opts...)

	for _, w := range t.Watch {
		s.Watching(w)
	}

	for _, c := range t.Tasks {
		if len(c.Then) > 0 {
			// Continuations are a chain-level concept; nested children run
			// for the parent's lifetime only.
			return nil, fmt.Errorf("%w: child task %q cannot have continuations", ErrInvalidTaskfile, c.Name)
		}

		child, err := c.spec()
		if err != nil {
			return nil, err
		}

		s.Child(child)
	}

	return s, nil
}
