package render

import (
	"io"
	"strings"
	"sync"

	"github.com/muesli/termenv"

	"github.com/strabs/doit/pkg/task"
)

// Live repaints renderer frames in place on a terminal. It implements
// [task.Progress]: each Frame erases the previously painted frame and
// writes the new one.
type Live struct {
	renderer  *Renderer
	out       *termenv.Output
	mu        sync.Mutex
	lastLines int
}

// NewLive creates a [Live] display writing to w, which should be a
// terminal.
func NewLive(w io.Writer, renderer *Renderer) *Live {
	return &Live{
		renderer: renderer,
		out:      termenv.NewOutput(w),
	}
}

// Frame implements [task.Progress].
func (l *Live) Frame(tasks []*task.Runtime) {
	l.mu.Lock()
	defer l.mu.Unlock()

	frame := l.renderer.Render(tasks)

	for range l.lastLines {
		l.out.CursorPrevLine(1)
		l.out.ClearLine()
	}

	_, _ = l.out.WriteString(frame)
	l.lastLines = strings.Count(frame, "\n")
}
