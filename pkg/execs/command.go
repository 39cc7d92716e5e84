package execs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	shellwords "github.com/mattn/go-shellwords"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/strabs/doit/pkg/log"
)

var (
	// ErrCommandStart is returned when a command cannot be started.
	ErrCommandStart = errors.New("start command")

	// ErrEmptyCommand is returned when a command is empty.
	ErrEmptyCommand = errors.New("empty command")
)

// Split splits a shell-style command string into argv form.
func Split(command string) ([]string, error) {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", command, err)
	}

	return argv, nil
}

// LineFunc receives one line of combined stdout/stderr output, without the
// trailing newline. It may be invoked from a different goroutine than the
// one that started the command.
type LineFunc func(line string)

// Command describes one external command invocation.
type Command struct {
	// Env contains extra environment variables, merged over the parent
	// process environment. Entries here win on key collision.
	Env map[string]string

	// Shell is a command line interpreted by `sh -c`.
	Shell string

	// Dir is the working directory. Empty means the caller's directory.
	Dir string

	// Argv is the exec-form alternative to Shell, used when Shell is empty.
	Argv []string
}

// Start launches the command in its own process group and begins streaming
// its combined stdout/stderr to onLine. The returned [Proc] must be waited
// on to release resources.
func (c Command) Start(ctx context.Context, onLine LineFunc) (*Proc, error) {
	argv := c.Argv
	if c.Shell != "" {
		argv = []string{"sh", "-c", c.Shell}
	}

	if len(argv) == 0 || argv[0] == "" {
		return nil, ErrEmptyCommand
	}

	ctx, span := otel.Tracer("execs").Start(ctx, "exec")
	span.SetAttributes(
		attribute.String("command", c.String()),
		attribute.String("dir", c.Dir),
	)

	//nolint:gosec // G204: Subprocess launched with a potential tainted input or cmd arguments.
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Env = mergeEnv(os.Environ(), c.Env)
	setProcessGroup(cmd)

	// A single pipe carries stdout and stderr so line ordering matches what
	// a terminal would show.
	pr, pw, err := os.Pipe()
	if err != nil {
		span.End()

		return nil, fmt.Errorf("create pipe: %w", err)
	}

	cmd.Stdout = pw
	cmd.Stderr = pw

	err = cmd.Start()

	// The parent's write end must be closed either way, otherwise the read
	// side never sees EOF.
	closeErr := pw.Close()

	if err != nil {
		span.End()
		_ = pr.Close()

		return nil, fmt.Errorf("%w: %w", ErrCommandStart, err)
	}

	if closeErr != nil {
		log.WithContext(ctx).DebugContext(ctx, "close pipe writer", slog.Any("error", closeErr))
	}

	log.WithContext(ctx).DebugContext(ctx, "started command",
		slog.String("command", c.String()),
		slog.Int("pid", cmd.Process.Pid),
	)

	p := &Proc{
		cmd:      cmd,
		span:     span,
		streamed: make(chan struct{}),
	}
	go p.stream(pr, onLine)

	return p, nil
}

func (c Command) String() string {
	if c.Shell != "" {
		return c.Shell
	}

	return strings.Join(c.Argv, " ")
}

// mergeEnv merges extra variables over a base environment in KEY=VALUE form.
// Base ordering is preserved; extra entries win on collision.
func mergeEnv(base []string, extra map[string]string) []string {
	if len(extra) == 0 {
		return base
	}

	overridden := make(map[string]bool, len(extra))
	env := make([]string, 0, len(base)+len(extra))

	for _, kv := range base {
		key, _, ok := strings.Cut(kv, "=")
		if ok {
			if value, exists := extra[key]; exists {
				env = append(env, key+"="+value)
				overridden[key] = true

				continue
			}
		}

		env = append(env, kv)
	}

	for key, value := range extra {
		if !overridden[key] {
			env = append(env, key+"="+value)
		}
	}

	return env
}
