package task

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec is returned when a spec or one of its descendants is not
// executable.
var ErrInvalidSpec = errors.New("invalid task spec")

// Action is an in-process alternative to a shell command. It is invoked
// synchronously by the executor; a returned error marks the task failed.
type Action func() error

// Spec is the declarative description of one unit of work. Specs are built
// fluently and are not mutated by execution; every run instantiates fresh
// runtime state.
type Spec struct {
	fn       Action
	env      map[string]string
	root     *Spec
	next     *Spec
	name     string
	command  string
	dir      string
	argv     []string
	children []*Spec

	retry                bool
	killOnParentComplete bool
}

// SpecOpt configures a [Spec] at construction time.
type SpecOpt func(*Spec)

// WithEnv sets extra environment variables, merged over the process
// environment. These win on key collision.
func WithEnv(env map[string]string) SpecOpt {
	return func(s *Spec) {
		s.env = env
	}
}

// WithDir sets the working directory for the task's command.
func WithDir(dir string) SpecOpt {
	return func(s *Spec) {
		s.dir = dir
	}
}

// WithArgv runs the command in exec form instead of through `sh -c`.
// It takes precedence over the command string.
func WithArgv(argv []string) SpecOpt {
	return func(s *Spec) {
		s.argv = argv
	}
}

// WithRetry relaunches the command indefinitely on exit until the task is
// told to stop. A retrying task always reports success once stopped.
func WithRetry() SpecOpt {
	return func(s *Spec) {
		s.retry = true
	}
}

// WithKillOnParentComplete forcibly terminates this task when its parent's
// own action finishes, regardless of this task's status.
func WithKillOnParentComplete() SpecOpt {
	return func(s *Spec) {
		s.killOnParentComplete = true
	}
}

// New creates a spec that runs a shell command.
func New(name, command string, opts ...SpecOpt) *Spec {
	s := &Spec{
		name:    name,
		command: command,
	}
	s.root = s

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// NewFunc creates a spec that invokes an in-process callback.
func NewFunc(name string, fn Action, opts ...SpecOpt) *Spec {
	s := &Spec{
		name: name,
		fn:   fn,
	}
	s.root = s

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Then chains a command to run after this task completes. It returns the
// new tail so further stages can be chained.
func (s *Spec) Then(name, command string, opts ...SpecOpt) *Spec {
	next := New(name, command, opts...)
	next.root = s.root
	s.next = next

	return next
}

// ThenSpec chains an already-built spec to run after this task completes,
// returning the new tail.
func (s *Spec) ThenSpec(next *Spec) *Spec {
	next.root = s.root
	s.next = next

	return next
}

// ThenFunc chains a callback to run after this task completes.
func (s *Spec) ThenFunc(name string, fn Action, opts ...SpecOpt) *Spec {
	next := NewFunc(name, fn, opts...)
	next.root = s.root
	s.next = next

	return next
}

// Child adds a task that runs concurrently with, and nested under, this
// task. It returns the receiver so children can be stacked.
func (s *Spec) Child(child *Spec) *Spec {
	s.children = append(s.children, child)

	return s
}

// Watching adds a background watcher: a child that retries the command
// until it is forcibly stopped when this task's own action completes.
func (s *Spec) Watching(command string) *Spec {
	watcher := New(command, command,
		WithRetry(),
		WithKillOnParentComplete(),
	)
	s.children = append(s.children, watcher)

	return s
}

// Name returns the task's display name.
func (s *Spec) Name() string {
	return s.name
}

// Root returns the first spec of the chain this spec belongs to.
func (s *Spec) Root() *Spec {
	return s.root
}

func (s *Spec) validate() error {
	if s.name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidSpec)
	}

	hasCommand := s.command != "" || len(s.argv) > 0

	if !hasCommand && s.fn == nil {
		return fmt.Errorf("%w: %q has neither command nor callback", ErrInvalidSpec, s.name)
	}

	if hasCommand && s.fn != nil {
		return fmt.Errorf("%w: %q has both command and callback", ErrInvalidSpec, s.name)
	}

	if s.retry && s.fn != nil {
		return fmt.Errorf("%w: %q cannot retry a callback", ErrInvalidSpec, s.name)
	}

	for _, child := range s.children {
		if err := child.validate(); err != nil {
			return err
		}
	}

	return nil
}

// flattenChain returns the spec's chain in stage order, starting from the
// chain root.
func flattenChain(s *Spec) []*Spec {
	root := s
	for root.root != root {
		root = root.root
	}

	var chain []*Spec
	for node := root; node != nil; node = node.next {
		chain = append(chain, node)
	}

	return chain
}
