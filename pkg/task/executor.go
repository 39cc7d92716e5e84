package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/strabs/doit/pkg/execs"
	"github.com/strabs/doit/pkg/log"
)

const (
	// retryDelay is the fixed back-off between attempts of a retrying task.
	retryDelay = 500 * time.Millisecond

	// joinGrace bounds the wait for children after the parent's own action
	// has finished and watchers have been signaled.
	joinGrace = time.Second
)

// executor drives one runtime task from Pending to a terminal state.
type executor struct {
	rt *Runtime
}

// run executes the task and, recursively, its children. Children are
// started before the task's own action so they overlap its lifetime, and
// joined (bounded) before run returns.
func (e *executor) run(ctx context.Context) Result {
	rt := e.rt

	ctx, span := otel.Tracer("task").Start(ctx, "task", trace.WithAttributes(
		attribute.String("name", rt.spec.name),
	))
	defer span.End()

	rt.markRunning()

	var wg sync.WaitGroup
	for _, child := range rt.children {
		wg.Add(1)

		go func(child *Runtime) {
			defer wg.Done()

			childExec := &executor{rt: child}
			childExec.run(ctx)
		}(child)
	}

	switch {
	case rt.spec.fn != nil:
		e.runCallback(ctx)
	case rt.spec.retry:
		e.runWithRetry(ctx)
	default:
		e.runCommand(ctx)
	}

	// The parent's action is done; watchers must not outlive it.
	for _, child := range rt.children {
		if child.spec.killOnParentComplete {
			child.forceStop()
		}
	}

	if !waitTimeout(&wg, joinGrace) {
		log.WithContext(ctx).DebugContext(ctx, "children did not finish within grace period",
			slog.String("task", rt.spec.name),
		)
	}

	rt.markEnd()

	return rt.result()
}

// runCommand spawns the task's command once and records its exit status.
func (e *executor) runCommand(ctx context.Context) {
	rt := e.rt

	proc, err := e.command().Start(ctx, rt.appendLine)
	if err != nil {
		rt.fail(1, err.Error())

		return
	}

	rt.setProc(proc)

	code, err := proc.Wait()
	rt.clearProc()

	if err != nil {
		rt.fail(1, err.Error())

		return
	}

	rt.finish(code)
}

// runWithRetry relaunches the command after a fixed delay until the task is
// told to stop. Its terminal status is always success; retrying tasks
// represent "keep trying until stopped", not a pass/fail outcome.
func (e *executor) runWithRetry(ctx context.Context) {
	rt := e.rt

	for !rt.stopRequested() {
		proc, err := e.command().Start(ctx, rt.appendLine)
		if err != nil {
			rt.appendLine(err.Error())
		} else {
			rt.setProc(proc)
			_, _ = proc.Wait()
			rt.clearProc()
		}

		if rt.stopRequested() {
			break
		}

		select {
		case <-time.After(retryDelay):
		case <-rt.stopCh:
		}
	}

	rt.finish(0)
}

// runCallback invokes the in-process action synchronously. A panic is
// captured like a returned error. Callbacks are never restarted.
func (e *executor) runCallback(_ context.Context) {
	rt := e.rt

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()

		return rt.spec.fn()
	}()

	if err != nil {
		rt.fail(1, err.Error())

		return
	}

	rt.finish(0)
}

func (e *executor) command() execs.Command {
	s := e.rt.spec

	return execs.Command{
		Shell: s.command,
		Argv:  s.argv,
		Env:   s.env,
		Dir:   s.dir,
	}
}

// waitTimeout waits for the group up to the given duration. It reports
// whether the group finished in time.
func waitTimeout(wg *sync.WaitGroup, d time.Duration) bool {
	done := make(chan struct{})

	go func() {
		defer close(done)
		wg.Wait()
	}()

	select {
	case <-done:
		return true
	case <-time.After(d):
		return false
	}
}
