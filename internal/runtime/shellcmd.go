package runtime

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cruciblehq/ctrstep/internal/paths"
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"github.com/samber/lo"
)

const (

	// Container path where the host search path is mounted for script steps.
	ScriptMountPoint = "/mnt/snakemake"

	// Container path where the host working directory is mounted.
	DataMountPoint = "/data"

	// Prefix marking environment variables meant for the container.
	EnvPrefix = "DOCKERENV_"

	// Shell used inside the container when none is given.
	defaultShell = "sh"
)

// Options for [ShellCommand]. The zero value is usable.
type ShellOptions struct {
	Runtime          string            // Container CLI. Empty uses [DefaultCLI].
	Args             string            // Extra arguments placed after "run --rm".
	Env              map[string]string // Prefixed DOCKERENV_<NAME>=<VALUE> assignments, inserted verbatim.
	ShellExecutable  string            // Shell run inside the container; only the base name is kept.
	ContainerWorkdir string            // Working directory inside the container. Empty skips -w and the data mount.
	HostWorkdir      string            // Host directory mounted at /data, inserted verbatim. Empty uses the current directory.
	IsScript         bool              // Mount the host search path read-only at /mnt/snakemake.
	SearchPath       string            // Host search path, inserted verbatim. Empty uses [paths.SearchPath].
}

// Builds the shell command line that runs cmd inside the image at imagePath.
//
// The result has the form
//
//	<env> <runtime> run --rm <args> <imagePath> <shell> -c '<cmd>'
//
// where every single quote in cmd is escaped as '\'' so the command survives
// single quoting. Environment tokens are sorted by name. Env values, args and
// host paths are not quoted; callers that hand the line to a shell quote them
// with [Quote] first. Nothing is executed.
func ShellCommand(imagePath, cmd string, opts ShellOptions) string {
	slog.Debug("shell command options", "args", opts.Args)

	cli := opts.Runtime
	if cli == "" {
		cli = DefaultCLI
	}

	args := []string{}
	if a := strings.TrimSpace(opts.Args); a != "" {
		args = append(args, a)
	}
	if opts.IsScript {
		args = append(args, formatMount(scriptMount(opts)))
	}
	if opts.ContainerWorkdir != "" {
		args = append(args, "-w "+opts.ContainerWorkdir, formatMount(dataMount(opts)))
	} else {
		slog.Debug("no container workdir set")
	}

	parts := []string{}
	if env := envTokens(opts.Env); env != "" {
		parts = append(parts, env)
	}
	parts = append(parts, cli, "run", "--rm")
	parts = append(parts, args...)
	parts = append(parts, imagePath, shellName(opts.ShellExecutable), "-c", Quote(cmd))

	line := strings.Join(parts, " ")
	slog.Debug("shell command", "command", line)
	return line
}

// Mounts the host search path read-only for script steps.
func scriptMount(opts ShellOptions) specs.Mount {
	src := opts.SearchPath
	if src == "" {
		src = paths.SearchPath()
	}
	return bindMount(src, ScriptMountPoint, "ro")
}

// Mounts the host working directory at the data mount point.
func dataMount(opts ShellOptions) specs.Mount {
	src := opts.HostWorkdir
	if src == "" {
		src = paths.WorkingDir()
	}
	return bindMount(src, DataMountPoint)
}

func bindMount(source, destination string, options ...string) specs.Mount {
	return specs.Mount{
		Type:        "bind",
		Source:      source,
		Destination: destination,
		Options:     options,
	}
}

// Renders a bind mount as a CLI volume flag, "-v src:dst[:opt,...]".
func formatMount(m specs.Mount) string {
	flag := fmt.Sprintf("-v %s:%s", m.Source, m.Destination)
	if len(m.Options) > 0 {
		flag += ":" + strings.Join(m.Options, ",")
	}
	return flag
}

// Serializes env as space-separated DOCKERENV_<NAME>=<VALUE> tokens, sorted
// by name.
func envTokens(env map[string]string) string {
	keys := lo.Keys(env)
	slices.Sort(keys)

	tokens := make([]string, 0, len(keys))
	for _, k := range keys {
		tokens = append(tokens, EnvPrefix+k+"="+env[k])
	}
	return strings.Join(tokens, " ")
}

// Serializes env as "-e NAME=VALUE" flags for "<cli> run", sorted by name.
// Each NAME=VALUE pair is single-quoted so the flags survive a shell.
func EnvArgs(env map[string]string) string {
	keys := lo.Keys(env)
	slices.Sort(keys)

	flags := make([]string, 0, len(keys))
	for _, k := range keys {
		flags = append(flags, "-e "+Quote(k+"="+env[k]))
	}
	return strings.Join(flags, " ")
}

// Returns the base name of the shell, or "sh". The container's filesystem
// layout need not match the host's, so a host path is never used.
func shellName(shell string) string {
	if shell == "" {
		return defaultShell
	}
	return filepath.Base(shell)
}

// Wraps s in single quotes for a POSIX shell, escaping embedded single quotes
// as '\''.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
