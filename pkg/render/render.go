// Package render draws a forest of runtime tasks as an indented tree with
// spinners, truncated recent output, and full output on failure. It only
// reads task state; slightly stale frames are acceptable.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/muesli/reflow/truncate"

	"github.com/strabs/doit/pkg/task"
)

// Renderer produces one textual frame per call. It is not safe for
// concurrent use; wrap it in [Live] for use as a [task.Progress].
type Renderer struct {
	frames      []string
	outputLines int
	errorLines  int
	width       int
	frame       int
}

// RendererOpt configures a [Renderer].
type RendererOpt func(*Renderer)

// WithOutputLines sets how many recent output lines a running task shows.
func WithOutputLines(n int) RendererOpt {
	return func(r *Renderer) {
		r.outputLines = n
	}
}

// WithErrorLines sets how many trailing output lines a failed task shows.
func WithErrorLines(n int) RendererOpt {
	return func(r *Renderer) {
		r.errorLines = n
	}
}

// WithWidth truncates rendered lines to the given terminal width.
// Zero disables truncation.
func WithWidth(w int) RendererOpt {
	return func(r *Renderer) {
		r.width = w
	}
}

// NewRenderer creates a [Renderer] with the engine's default window sizes.
func NewRenderer(opts ...RendererOpt) *Renderer {
	r := &Renderer{
		frames:      spinner.MiniDot.Frames,
		outputLines: 3,
		errorLines:  20,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Render returns one frame for the given root tasks, each line terminated
// by a newline. The spinner advances one frame per call.
func (r *Renderer) Render(tasks []*task.Runtime) string {
	r.frame = (r.frame + 1) % len(r.frames)

	var sb strings.Builder
	for _, t := range tasks {
		r.renderTask(&sb, t, "", true, true)
	}

	return sb.String()
}

func (r *Renderer) renderTask(sb *strings.Builder, t *task.Runtime, prefix string, isLast, isRoot bool) {
	var line strings.Builder

	if !isRoot {
		connector := TreeBranch
		if isLast {
			connector = TreeLast
		}

		line.WriteString(DimStyle.Render(prefix + connector))
	}

	status := t.Status()

	switch status {
	case task.StatusRunning:
		line.WriteString(SpinnerStyle.Render(r.frames[r.frame] + " "))
		line.WriteString(RunningStyle.Render(t.Name()))

	case task.StatusSuccess:
		line.WriteString(SuccessMarkStyle.Render(GlyphSuccess))
		line.WriteString(SuccessStyle.Render(t.Name()))
		line.WriteString(DimStyle.Render(elapsed(t)))

	case task.StatusFailed:
		line.WriteString(FailedMarkStyle.Render(GlyphFailed))
		line.WriteString(FailedStyle.Render(t.Name()))
		line.WriteString(DimStyle.Render(elapsed(t)))

	default:
		line.WriteString(DimStyle.Render(GlyphPending))
		line.WriteString(DimStyle.Render(t.Name()))
	}

	r.writeLine(sb, line.String())

	children := t.Children()

	var childPrefix, outputPrefix string
	if isRoot {
		childPrefix = ""

		outputPrefix = TreeSpace
		if len(children) > 0 {
			outputPrefix = TreePipe
		}
	} else {
		childPrefix = prefix + TreePipe
		if isLast {
			childPrefix = prefix + TreeSpace
		}

		outputPrefix = childPrefix + TreeSpace
		if len(children) > 0 {
			outputPrefix = childPrefix + TreePipe
		}
	}

	switch status {
	case task.StatusRunning:
		window := t.OutputWindow()
		if len(window) > r.outputLines {
			window = window[len(window)-r.outputLines:]
		}

		for _, out := range window {
			r.writeLine(sb, DimStyle.Render(outputPrefix+out))
		}

	case task.StatusFailed:
		for _, out := range t.OutputTail(r.errorLines) {
			r.writeLine(sb, DimStyle.Render(outputPrefix)+ErrorStyle.Render(out))
		}

		if msg := t.ErrorMessage(); msg != "" {
			r.writeLine(sb, DimStyle.Render(outputPrefix)+ErrorStyle.Render(msg))
		}
	}

	// Children collapse out of the redraw once the parent finishes, keeping
	// the completed-task view compact.
	if status == task.StatusRunning {
		for i, child := range children {
			r.renderTask(sb, child, childPrefix, i == len(children)-1, false)
		}
	}
}

func (r *Renderer) writeLine(sb *strings.Builder, line string) {
	if r.width > 0 {
		//nolint:gosec // G115: width is a terminal dimension.
		line = truncate.StringWithTail(line, uint(r.width), "…")
	}

	sb.WriteString(line)
	sb.WriteByte('\n')
}

func elapsed(t *task.Runtime) string {
	return fmt.Sprintf(" (%.1fs)", t.Elapsed().Seconds())
}
