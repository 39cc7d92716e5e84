package execs

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const maxLineSize = 1024 * 1024

// Proc is a started command. It is owned by exactly one caller, which must
// call [Proc.Wait] to collect the exit status and release resources.
type Proc struct {
	cmd      *exec.Cmd
	span     trace.Span
	streamed chan struct{}
}

// PID returns the process ID, which on POSIX systems is also the ID of the
// process group the command was started in.
func (p *Proc) PID() int {
	return p.cmd.Process.Pid
}

// Wait blocks until output streaming finishes and the process exits, then
// returns the exit code. A nonzero exit code is not an error; the error is
// non-nil only when the exit status cannot be determined.
func (p *Proc) Wait() (int, error) {
	<-p.streamed

	defer p.span.End()

	err := p.cmd.Wait()
	if err == nil {
		p.span.SetAttributes(attribute.Int("exit_code", 0))

		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		p.span.SetAttributes(attribute.Int("exit_code", code))

		return code, nil
	}

	return -1, fmt.Errorf("wait for command: %w", err)
}

// Terminate signals the process group to stop. It is best-effort: a group
// that already exited is not an error.
func (p *Proc) Terminate() error {
	return terminateGroup(p.cmd)
}

func (p *Proc) stream(r io.ReadCloser, onLine LineFunc) {
	defer close(p.streamed)
	defer r.Close() //nolint:errcheck // Read side of our own pipe.

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		if onLine != nil {
			onLine(scanner.Text())
		}
	}
}
