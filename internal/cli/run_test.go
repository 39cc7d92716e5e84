package cli_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strabs/doit/internal/cli"
	"github.com/strabs/doit/pkg/task"
)

func writeTaskfile(t *testing.T, doc string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doit.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()

	cmd := cli.NewRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	return cmd.Execute()
}

func TestRunCmd(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	out := filepath.Join(dir, "out.txt")

	path := writeTaskfile(t, `
tasks:
  - name: first
    run: echo first >> `+out+`
    then:
      - name: second
        run: echo second >> `+out+`
`)

	err := execute(t, "run", path, "--plain")
	require.NoError(t, err)

	// Both stages ran, in chain order.
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))
}

func TestRunCmd_Failure(t *testing.T) {
	t.Parallel()

	path := writeTaskfile(t, `
tasks:
  - name: boom
    run: exit 4
`)

	err := execute(t, "run", path, "--plain")

	var taskErr *task.Error
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, "boom", taskErr.Name)
	assert.Equal(t, 4, taskErr.ExitCode)
}

func TestRunCmd_NoRaise(t *testing.T) {
	t.Parallel()

	path := writeTaskfile(t, `
tasks:
  - name: boom
    run: exit 4
`)

	err := execute(t, "run", path, "--plain", "--no-raise")
	require.NoError(t, err)
}

func TestRunCmd_MissingTaskfile(t *testing.T) {
	t.Parallel()

	err := execute(t, "run", filepath.Join(t.TempDir(), "nope.yaml"), "--plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read taskfile")
}

func TestRunCmd_InvalidTaskfile(t *testing.T) {
	t.Parallel()

	path := writeTaskfile(t, `
tasks:
  - run: echo missing name
`)

	err := execute(t, "run", path, "--plain")
	require.Error(t, err)
}
