package render_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strabs/doit/pkg/render"
	"github.com/strabs/doit/pkg/task"
)

func TestLive_RepaintsInPlace(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	live := render.NewLive(&buf, render.NewRenderer())

	results, err := task.Run(
		[]*task.Spec{task.New("paint", "sleep 0.3")},
		&task.Config{Progress: live, MaxWorkers: 1},
	)
	require.NoError(t, err)
	require.Len(t, results, 1)

	out := buf.String()
	assert.Contains(t, out, "paint")
	assert.Contains(t, out, render.GlyphSuccess)

	// Every frame after the first erases the previous one before painting,
	// so cursor-up sequences appear in the stream.
	assert.Contains(t, out, "\x1b[1F")
	assert.Contains(t, out, "\x1b[2K")
}
