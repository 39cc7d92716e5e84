package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/strabs/doit/pkg/log"
	"github.com/strabs/doit/pkg/prompt"
	"github.com/strabs/doit/pkg/render"
	"github.com/strabs/doit/pkg/task"
	"github.com/strabs/doit/pkg/taskfile"
)

const (
	defaultTaskfile = "doit.yaml"

	cmdExamples = `  # Run the tasks in ./doit.yaml:
  doit

  # Run a specific taskfile:
  doit ./deploy.yaml

  # Stop everything on the first failure:
  doit --fail-fast

  # Rerun the tasks whenever the taskfile (or a watched path) changes:
  doit --watch

  # Skip the confirmation prompt:
  doit --yes`
)

// ErrAborted is returned when the user declines the confirmation prompt.
var ErrAborted = errors.New("aborted")

type RunArgs struct {
	*RootArgs

	MaxWorkers  int
	OutputLines int
	ErrorLines  int
	FailFast    bool
	NoRaise     bool
	Watch       bool
	Yes         bool
	Plain       bool
}

func NewRunArgs(rootArgs *RootArgs) *RunArgs {
	return &RunArgs{
		RootArgs: rootArgs,
	}
}

func (ra *RunArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&ra.MaxWorkers, "max-workers", 0, "Maximum number of tasks running concurrently per batch")
	cmd.Flags().IntVar(&ra.OutputLines, "output-lines", 0, "Recent output lines shown per running task")
	cmd.Flags().IntVar(&ra.ErrorLines, "error-lines", 0, "Trailing output lines shown for a failed task")
	cmd.Flags().BoolVar(&ra.FailFast, "fail-fast", false, "Abort the current batch on the first failure")
	cmd.Flags().BoolVar(&ra.NoRaise, "no-raise", false, "Report failures in results without failing the run")
	cmd.Flags().BoolVarP(&ra.Watch, "watch", "w", false, "Watch the taskfile and rerun on changes")
	cmd.Flags().BoolVarP(&ra.Yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&ra.Plain, "plain", false, "Disable the live progress display")
}

func NewRunCmd(ra *RunArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "run [taskfile]",
		Short:   "Execute the tasks defined in a taskfile",
		Example: cmdExamples,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultTaskfile
			if len(args) > 0 {
				path = args[0]
			}

			return ra.run(cmd, path)
		},
	}

	ra.AddFlags(cmd)

	return cmd
}

func (ra *RunArgs) run(cmd *cobra.Command, path string) error {
	ctx := cmd.Context()

	tf, err := taskfile.Load(path)
	if err != nil {
		return err
	}

	if tf.Confirm != "" && !ra.Yes {
		ok, err := prompt.Confirm(tf.Confirm)
		if err != nil {
			return err
		}

		if !ok {
			return ErrAborted
		}
	}

	if ra.Watch {
		return ra.watchAndRun(ctx, path, tf.Run.WatchPaths)
	}

	return ra.runTaskfile(ctx, tf)
}

func (ra *RunArgs) runTaskfile(ctx context.Context, tf *taskfile.Taskfile) error {
	specs, err := tf.Build()
	if err != nil {
		return err
	}

	cfg := ra.config(tf)

	restore := ra.setupProgress(cfg)
	defer restore()

	start := time.Now()

	results, err := task.RunContext(ctx, specs, cfg)
	if err != nil {
		var taskErr *task.Error
		if errors.As(err, &taskErr) {
			slog.Error("task failed",
				slog.String("task", taskErr.Name),
				slog.Int("exit_code", taskErr.ExitCode),
			)
		}

		return err
	}

	slog.Info("all tasks finished",
		slog.Int("tasks", countResults(results)),
		slog.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)

	return nil
}

// config merges the taskfile's run defaults with explicit CLI overrides.
func (ra *RunArgs) config(tf *taskfile.Taskfile) *task.Config {
	cfg := tf.Run.ToConfig()

	if ra.MaxWorkers > 0 {
		cfg.MaxWorkers = ra.MaxWorkers
	}

	if ra.OutputLines > 0 {
		cfg.OutputLines = ra.OutputLines
	}

	if ra.ErrorLines > 0 {
		cfg.ErrorLines = ra.ErrorLines
	}

	if ra.FailFast {
		cfg.FailFast = true
	}

	if ra.NoRaise {
		cfg.RaiseOnFailure = false
	}

	return cfg
}

// setupProgress attaches a live display to the config when stdout is a
// terminal. While the display owns the terminal, log records are diverted
// to a ring buffer and flushed to stderr afterwards. The returned func
// undoes both.
func (ra *RunArgs) setupProgress(cfg *task.Config) func() {
	fd := int(os.Stdout.Fd())
	if ra.Plain || !term.IsTerminal(fd) {
		return func() {}
	}

	width, _, err := term.GetSize(fd)
	if err != nil {
		width = 0
	}

	renderer := render.NewRenderer(
		render.WithOutputLines(cfg.OutputLines),
		render.WithErrorLines(cfg.ErrorLines),
		render.WithWidth(width),
	)
	cfg.Progress = render.NewLive(os.Stdout, renderer)

	buf := log.NewCircularBuffer(256)

	handler, err := log.CreateHandlerWithStrings(buf, ra.LogLevel, ra.LogFormat)
	if err != nil {
		// Logging was already configured from the same strings.
		panic(fmt.Errorf("create log handler: %w", err))
	}

	prev := slog.Default()
	slog.SetDefault(slog.New(handler))

	return func() {
		slog.SetDefault(prev)
		_, _ = buf.WriteTo(os.Stderr)
	}
}

func countResults(results []task.Result) int {
	n := 0
	for _, r := range results {
		n += 1 + countResults(r.Children)
	}

	return n
}
