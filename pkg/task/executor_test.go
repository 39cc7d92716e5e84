package task

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecutor_OutputWindow(t *testing.T) {
	t.Parallel()

	rt := newRuntime(New("seq", "seq 1 10"), 3)
	ex := &executor{rt: rt}

	res := ex.run(context.Background())
	require.True(t, res.OK())

	// The window holds only the most recent lines; the full output is
	// still available for failure reporting.
	assert.Equal(t, []string{"8", "9", "10"}, rt.OutputWindow())
	assert.Len(t, rt.OutputTail(20), 10)
	assert.Equal(t, []string{"9", "10"}, rt.OutputTail(2))
}

func TestExecutor_ForceStopInterruptsRetryDelay(t *testing.T) {
	t.Parallel()

	rt := newRuntime(New("loop", "true", WithRetry()), 3)
	ex := &executor{rt: rt}

	resCh := make(chan Result, 1)

	go func() {
		resCh <- ex.run(context.Background())
	}()

	// Let the first attempt finish so the task sits in its retry delay.
	time.Sleep(100 * time.Millisecond)
	rt.forceStop()

	select {
	case res := <-resCh:
		assert.True(t, res.OK())
		assert.Equal(t, 0, res.ExitCode)
	case <-time.After(2 * time.Second):
		t.Fatal("retrying task did not stop")
	}
}

func TestExecutor_Callback(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		fn         Action
		wantStderr string
		wantOK     bool
	}{
		"success": {
			fn:     func() error { return nil },
			wantOK: true,
		},
		"error": {
			fn:         func() error { return assert.AnError },
			wantStderr: assert.AnError.Error(),
		},
		"panic": {
			fn:         func() error { panic("boom") },
			wantStderr: "panic: boom",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			rt := newRuntime(NewFunc("cb", tc.fn), 3)
			ex := &executor{rt: rt}

			res := ex.run(context.Background())

			assert.Equal(t, tc.wantOK, res.OK())
			if tc.wantOK {
				assert.Equal(t, 0, res.ExitCode)
			} else {
				assert.Equal(t, 1, res.ExitCode)
				assert.Equal(t, tc.wantStderr, res.Stderr)
			}
		})
	}
}

func TestExecutor_StartFailure(t *testing.T) {
	t.Parallel()

	rt := newRuntime(New("bad", "", WithArgv([]string{"/nonexistent/binary"})), 3)
	ex := &executor{rt: rt}

	res := ex.run(context.Background())

	assert.Equal(t, StatusFailed, res.Status)
	assert.Equal(t, 1, res.ExitCode)
	assert.NotEmpty(t, res.Stderr)
}

func TestNewError(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		result     Result
		wantOutput string
	}{
		"stderr preferred": {
			result:     Result{Name: "x", ExitCode: 1, Stderr: "msg", Stdout: "a\nb"},
			wantOutput: "msg",
		},
		"stdout tail fallback": {
			result:     Result{Name: "x", ExitCode: 1, Stdout: "a\nb\nc"},
			wantOutput: "b\nc",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := newError(tc.result, 2)
			assert.Equal(t, tc.wantOutput, err.Output)
			assert.Equal(t, `task "x" failed with exit code 1`, err.Error())
		})
	}
}

func TestTailLines(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		s    string
		n    int
		want string
	}{
		"empty":      {s: "", n: 3, want: ""},
		"fewer":      {s: "a\nb", n: 3, want: "a\nb"},
		"truncated":  {s: "a\nb\nc\nd", n: 2, want: "c\nd"},
		"zero limit": {s: "a\nb", n: 0, want: ""},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tailLines(tc.s, tc.n))
		})
	}
}
