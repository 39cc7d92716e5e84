package task_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strabs/doit/pkg/task"
)

func TestSpec_Then(t *testing.T) {
	t.Parallel()

	root := task.New("build", "true")
	tail := root.Then("test", "true").Then("deploy", "true")

	assert.Equal(t, "deploy", tail.Name())
	assert.Same(t, root, tail.Root())
}

func TestSpec_Child(t *testing.T) {
	t.Parallel()

	parent := task.New("serve", "true")
	got := parent.Child(task.New("db", "true"))

	assert.Same(t, parent, got)
}

func TestSpec_Watching(t *testing.T) {
	t.Parallel()

	parent := task.New("serve", "true").Watching("tail -f app.log")

	assert.Equal(t, "serve", parent.Name())
	assert.Same(t, parent, parent.Root())
}

func TestRun_InvalidSpecs(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		spec *task.Spec
	}{
		"empty name": {
			spec: task.New("", "true"),
		},
		"neither command nor callback": {
			spec: task.New("noop", ""),
		},
		"both command and callback": {
			spec: task.NewFunc("both", func() error { return nil },
				task.WithArgv([]string{"true"})),
		},
		"retrying callback": {
			spec: task.NewFunc("loop", func() error { return nil },
				task.WithRetry()),
		},
		"invalid child": {
			spec: task.New("parent", "true").Child(task.New("", "true")),
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := task.Run([]*task.Spec{tc.spec}, &task.Config{MaxWorkers: 1})
			require.ErrorIs(t, err, task.ErrInvalidSpec)
		})
	}
}
