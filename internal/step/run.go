package step

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/cruciblehq/ctrstep/internal/paths"
	"github.com/cruciblehq/ctrstep/internal/runtime"
)

// Host shell that executes the built command lines.
const hostShell = "/bin/sh"

// Controls step execution.
type Options struct {
	CacheDir    string           // Directory holding pulled images.
	Runtime     string           // Container CLI. Empty uses [runtime.DefaultCLI].
	Checker     *runtime.Checker // Optional checker. Nil derives one from Runtime and Executor.
	Executor    runtime.Executor // Spawns the CLI and the steps. Nil uses the host.
	DryRun      bool             // Print command lines instead of executing them.
	Output      io.Writer        // Receives step output, or the command lines in dry-run mode.
	HostWorkdir string           // Host directory mounted at /data and used as cwd. Empty uses the current directory.
	SearchPath  string           // Host search path mounted for script steps. Empty uses the default.
}

// Returned after a successful run.
type Result struct {
	Image string // Path of the image the steps ran in.
	Steps int    // Number of steps executed (or printed, in dry-run mode).
}

// Pulls the file's image and runs its steps in order.
//
// Each step's variables reach the container both as "-e NAME=VALUE" flags and
// as DOCKERENV_ assignments. When the file is containerized, the workflow is
// already running inside the image: nothing is pulled and steps run directly
// in the host shell with their variables in its environment.
//
// The first step that exits non-zero stops the run with an error wrapping
// [ErrStepFailed].
func Run(ctx context.Context, f *File, opts Options) (*Result, error) {
	opts = withDefaults(opts)

	img, err := runtime.NewImage(f.Image, opts.CacheDir, f.Containerized,
		runtime.WithChecker(opts.Checker),
		runtime.WithExecutor(opts.Executor),
	)
	if err != nil {
		return nil, err
	}

	slog.Info("running steps", "image", f.Image, "steps", len(f.Steps), "dryrun", opts.DryRun)

	if img.IsContainerized() {
		slog.Debug("workflow runs inside the image, not pulling", "image", f.Image)
	} else if err := img.Pull(ctx, opts.DryRun); err != nil {
		return nil, err
	}

	r := &runner{image: img, opts: opts, state: newStepState(f)}
	for i, s := range f.Steps {
		if err := r.execute(ctx, s, i); err != nil {
			return nil, err
		}
	}

	return &Result{Image: img.Path(), Steps: r.count}, nil
}

// Fills in the checker, executor, output and host paths when unset.
func withDefaults(opts Options) Options {
	if opts.Output == nil {
		opts.Output = io.Discard
	}
	if opts.HostWorkdir == "" {
		opts.HostWorkdir = paths.WorkingDir()
	}
	if opts.SearchPath == "" {
		opts.SearchPath = paths.SearchPath()
	}
	if opts.Checker == nil {
		if opts.Executor == nil && (opts.Runtime == "" || opts.Runtime == runtime.DefaultCLI) {
			opts.Checker = runtime.DefaultChecker()
		} else {
			opts.Checker = runtime.NewChecker(opts.Runtime, opts.Executor)
		}
	}
	if opts.Executor == nil {
		opts.Executor = runtime.HostExecutor{}
	}
	opts.Runtime = opts.Checker.CLI()
	return opts
}

// Holds state for a single run.
type runner struct {
	image *runtime.Image
	opts  Options
	state *stepState
	count int
}

// Executes a single step or, for a modifier step, persists its modifiers.
func (r *runner) execute(ctx context.Context, s Step, index int) error {
	if s.Run == "" {
		r.state.apply(s)
		return nil
	}

	resolved := r.state.resolve(s)
	req := r.request(s, resolved)

	label := stepLabel(s.Name, index)
	r.count++

	if r.opts.DryRun {
		fmt.Fprintln(r.opts.Output, req.Args[1])
		return nil
	}

	slog.Info(fmt.Sprintf("running step %s", label))

	result, err := r.opts.Executor.Exec(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: step %s: %w", ErrStepFailed, label, err)
	}
	if result.ExitCode != 0 {
		return fmt.Errorf("%w: step %s: exit code %d", ErrStepFailed, label, result.ExitCode)
	}

	return nil
}

// Builds the host shell invocation for a run step.
//
// The container line is run by the host shell, so env values, the image path
// and host paths are quoted before they are spliced in. Args are the user's CLI arguments and
// are left for the shell to split.
func (r *runner) request(s Step, resolved *stepState) runtime.ExecRequest {
	req := runtime.ExecRequest{
		Name:    hostShell,
		Dir:     r.opts.HostWorkdir,
		Combine: true,
		Stream:  r.opts.Output,
	}

	if r.image.IsContainerized() {
		if resolved.shell != "" {
			req.Name = resolved.shell
		}
		req.Args = []string{"-c", s.Run}
		req.Env = envList(resolved.env)
		return req
	}

	line := runtime.ShellCommand(runtime.Quote(r.image.Path()), s.Run, runtime.ShellOptions{
		Runtime:          r.opts.Runtime,
		Args:             joinArgs(resolved.args, runtime.EnvArgs(resolved.env)),
		Env:              quoteValues(resolved.env),
		ShellExecutable:  resolved.shell,
		ContainerWorkdir: resolved.workdir,
		HostWorkdir:      runtime.Quote(r.opts.HostWorkdir),
		IsScript:         s.Script,
		SearchPath:       runtime.Quote(r.opts.SearchPath),
	})
	req.Args = []string{"-c", line}
	return req
}

// Joins non-empty argument strings with spaces.
func joinArgs(args ...string) string {
	out := slices.DeleteFunc(args, func(a string) bool { return a == "" })
	return strings.Join(out, " ")
}

func quoteValues(env map[string]string) map[string]string {
	quoted := make(map[string]string, len(env))
	for k, v := range env {
		quoted[k] = runtime.Quote(v)
	}
	return quoted
}

// Returns env as sorted NAME=VALUE entries.
func envList(env map[string]string) []string {
	list := make([]string, 0, len(env))
	for _, k := range slices.Sorted(maps.Keys(env)) {
		list = append(list, k+"="+env[k])
	}
	return list
}

// Returns a label for a step, preferring the name when available and falling
// back to the 1-based index.
func stepLabel(name string, index int) string {
	if name != "" {
		return fmt.Sprintf("%q", name)
	}
	return fmt.Sprintf("%d", index+1)
}
