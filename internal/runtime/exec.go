package runtime

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Output of a host command execution.
type ExecResult struct {
	ExitCode int    // Exit code of the process.
	Stdout   string // Captured standard output, or combined output when requested.
	Stderr   string // Captured standard error. Empty when output is combined.
}

// Describes one host command to run.
type ExecRequest struct {
	Name    string    // Executable name or path.
	Args    []string  // Arguments, excluding the executable.
	Dir     string    // Working directory. Empty uses the caller's.
	Env     []string  // Extra NAME=VALUE entries appended to the caller's environment.
	Combine bool      // Interleave stderr into Stdout.
	Stream  io.Writer // Optional copy of the output as it is produced.
}

// Spawns host processes on behalf of the runtime.
//
// All subprocesses started by this package go through an Executor, so tests
// can substitute a fake for the container CLI.
type Executor interface {

	// Resolves an executable name against PATH.
	LookPath(file string) (string, error)

	// Runs a command to completion. A non-zero exit code is reported in the
	// result and is not treated as an error; the caller decides. An error is
	// returned only if the process could not be started or waited on.
	Exec(ctx context.Context, req ExecRequest) (*ExecResult, error)
}

// Executor backed by os/exec.
type HostExecutor struct{}

// Resolves file using [exec.LookPath].
func (HostExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Runs the request with [exec.CommandContext], capturing output.
func (HostExecutor) Exec(ctx context.Context, req ExecRequest) (*ExecResult, error) {
	cmd := exec.CommandContext(ctx, req.Name, req.Args...)
	cmd.Dir = req.Dir
	if len(req.Env) > 0 {
		cmd.Env = append(os.Environ(), req.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = tee(&stdout, req.Stream)
	if req.Combine {
		cmd.Stderr = cmd.Stdout
	} else {
		cmd.Stderr = tee(&stderr, req.Stream)
	}

	slog.Debug("exec", "command", commandLine(req), "dir", req.Dir)

	err := cmd.Run()
	result := &ExecResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	if err != nil {
		return nil, err
	}

	return result, nil
}

// Returns w, or a writer duplicating into both w and stream.
func tee(w io.Writer, stream io.Writer) io.Writer {
	if stream == nil {
		return w
	}
	return io.MultiWriter(w, stream)
}

// Formats a request for logging.
func commandLine(req ExecRequest) string {
	return strings.Join(append([]string{req.Name}, req.Args...), " ")
}
